package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"cab/internal/audit"
	"cab/internal/domain"
	"cab/internal/repository"
)

const auditTimeout = 2 * time.Second

// Ensure VehicleAllocator implements AllocatorInterface.
var _ AllocatorInterface = (*VehicleAllocator)(nil)

// BookingService orchestrates booking creation and lifecycle.
type BookingService struct {
	riderRepo   repository.RiderRepository
	vehicleRepo repository.VehicleRepository
	driverRepo  repository.DriverRepository
	bookingRepo repository.BookingRepository
	paymentRepo repository.PaymentRepository
	allocator   AllocatorInterface
	scheduler   SettlementSchedulerInterface
	notifier    Notifier   // optional
	auditSink   audit.Sink // optional
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	riderRepo repository.RiderRepository,
	vehicleRepo repository.VehicleRepository,
	driverRepo repository.DriverRepository,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	allocator AllocatorInterface,
	scheduler SettlementSchedulerInterface,
	notifier Notifier,
	auditSink audit.Sink,
) *BookingService {
	if auditSink == nil {
		auditSink = audit.NopSink{}
	}
	return &BookingService{
		riderRepo:   riderRepo,
		vehicleRepo: vehicleRepo,
		driverRepo:  driverRepo,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		allocator:   allocator,
		scheduler:   scheduler,
		notifier:    notifier,
		auditSink:   auditSink,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	RiderID        string
	Pickup         string
	Drop           string
	Distance       float64 // km
	EcoRide        bool
	PaymentMethod  string
	PaymentDetails domain.PaymentDetails
}

// BookingView projects a booking together with its related records.
// Driver and Payment may be nil.
type BookingView struct {
	Booking *domain.Booking
	Rider   *domain.Rider
	Vehicle *domain.Vehicle
	Driver  *domain.Driver
	Payment *domain.Payment
}

// CreateBooking validates the request, reserves a vehicle, persists a
// CONFIRMED booking with payment PENDING and schedules settlement.
// Settlement happens after CreateBooking returns.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	method, err := s.validateCreateRequest(req)
	if err != nil {
		return nil, err
	}

	rider, err := s.riderRepo.GetByID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.allocator.Allocate(ctx, req.EcoRide)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate vehicle: %w", err)
	}
	if vehicle == nil {
		log.Printf("[BOOKING] no vehicle available for rider %s (eco=%t)", rider.ID, req.EcoRide)
		return nil, ErrNoVehicleAvailable
	}

	booking := &domain.Booking{
		ID:            uuid.New().String(),
		RiderID:       rider.ID,
		VehicleID:     vehicle.ID,
		Pickup:        strings.TrimSpace(req.Pickup),
		Drop:          strings.TrimSpace(req.Drop),
		Distance:      req.Distance,
		Fare:          CalculateFare(req.Distance, vehicle.RatePerKm),
		Status:        domain.BookingStatusConfirmed,
		EcoRide:       req.EcoRide,
		CarbonSaved:   CalculateCarbonSaved(req.Distance, req.EcoRide),
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     time.Now(),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if releaseErr := s.allocator.Release(context.WithoutCancel(ctx), vehicle.ID); releaseErr != nil {
			log.Printf("[BOOKING] failed to release vehicle %s after persistence failure: %v", vehicle.ID, releaseErr)
		}
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	log.Printf("[BOOKING] booking %s confirmed: rider=%s vehicle=%s fare=%.2f eco=%t",
		booking.ID, rider.ID, vehicle.ID, booking.Fare, booking.EcoRide)

	if err := s.scheduler.Submit(booking, req.PaymentDetails); err != nil {
		log.Printf("[BOOKING] failed to schedule settlement for booking %s: %v", booking.ID, err)
		if errors.Is(err, ErrSchedulerClosed) {
			s.failUnscheduledPayment(ctx, booking)
		}
	}

	s.appendAudit(ctx, booking, rider)

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingConfirmed(ctx, booking, vehicle)
	}

	return booking, nil
}

// CreateEcoBooking creates a booking that prefers electric vehicles.
func (s *BookingService) CreateEcoBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	req.EcoRide = true
	return s.CreateBooking(ctx, req)
}

// GetBooking retrieves a booking with its related records.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*BookingView, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return s.project(ctx, booking)
}

// ListByRider retrieves all bookings of a rider, newest first.
func (s *BookingService) ListByRider(ctx context.Context, riderID string) ([]*BookingView, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	if _, err := s.riderRepo.GetByID(ctx, riderID); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.GetByRiderID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	return s.projectAll(ctx, bookings)
}

// ListAll retrieves every booking, newest first.
func (s *BookingService) ListAll(ctx context.Context) ([]*BookingView, error) {
	bookings, err := s.bookingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return s.projectAll(ctx, bookings)
}

// CompleteBooking ends an open booking and returns its vehicle to the pool.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.close(ctx, bookingID, domain.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingCompleted(ctx, booking)
	}

	return booking, nil
}

// CancelBooking cancels an open booking and returns its vehicle to the pool.
// A payment that is still settling is not reversed.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, reason string) (*domain.Booking, error) {
	booking, err := s.close(ctx, bookingID, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingCancelled(ctx, booking, reason)
	}

	return booking, nil
}

// close moves an open booking to a terminal status and releases the vehicle.
func (s *BookingService) close(ctx context.Context, bookingID string, to domain.BookingStatus) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.IsOpen() {
		return nil, ErrBookingNotOpen
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, booking.ID, booking.Status, to)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Closed concurrently by another request.
		return nil, ErrBookingNotOpen
	}

	if err := s.allocator.Release(ctx, booking.VehicleID); err != nil {
		log.Printf("[BOOKING] failed to release vehicle %s for booking %s: %v", booking.VehicleID, booking.ID, err)
		// Reopen so a terminal booking never holds an unavailable vehicle
		// and the caller can retry the close.
		reverted, revertErr := s.bookingRepo.UpdateStatus(context.WithoutCancel(ctx), booking.ID, to, booking.Status)
		if revertErr != nil || !reverted {
			log.Printf("[BOOKING] failed to reopen booking %s after release failure: reverted=%t err=%v", booking.ID, reverted, revertErr)
		}
		return nil, fmt.Errorf("failed to release vehicle: %w", err)
	}

	booking.Status = to
	log.Printf("[BOOKING] booking %s %s, vehicle %s released", booking.ID, to, booking.VehicleID)

	return booking, nil
}

// validateCreateRequest validates the create booking request and returns
// the normalized payment method.
func (s *BookingService) validateCreateRequest(req CreateBookingRequest) (domain.PaymentMethod, error) {
	if strings.TrimSpace(req.RiderID) == "" {
		return "", ErrInvalidRiderID
	}

	if strings.TrimSpace(req.Pickup) == "" {
		return "", ErrInvalidPickupLocation
	}

	if strings.TrimSpace(req.Drop) == "" {
		return "", ErrInvalidDropLocation
	}

	if math.IsNaN(req.Distance) || math.IsInf(req.Distance, 0) || req.Distance <= 0 {
		return "", ErrInvalidDistance
	}

	return ValidatePaymentMethod(req.PaymentMethod)
}

// failUnscheduledPayment resolves the payment of a booking whose settlement
// could not be scheduled, so it does not stay PENDING forever.
func (s *BookingService) failUnscheduledPayment(ctx context.Context, booking *domain.Booking) {
	const message = "Payment failed: settlement unavailable"

	err := s.bookingRepo.UpdatePaymentResult(context.WithoutCancel(ctx), booking.ID, domain.PaymentStatusFailed, message)
	if err != nil {
		log.Printf("[BOOKING] failed to mark payment FAILED for booking %s: %v", booking.ID, err)
		return
	}
	booking.PaymentStatus = domain.PaymentStatusFailed
	booking.PaymentDetails = message
}

// appendAudit writes the audit line. Failures are logged and discarded.
func (s *BookingService) appendAudit(ctx context.Context, booking *domain.Booking, rider *domain.Rider) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	entry := audit.Entry{
		Timestamp:   booking.CreatedAt,
		BookingID:   booking.ID,
		RiderName:   rider.Name,
		Pickup:      booking.Pickup,
		Drop:        booking.Drop,
		Distance:    booking.Distance,
		Fare:        booking.Fare,
		VehicleID:   booking.VehicleID,
		EcoRide:     booking.EcoRide,
		CarbonSaved: booking.CarbonSaved,
	}

	if err := s.auditSink.Append(auditCtx, entry.Line()); err != nil {
		log.Printf("[AUDIT] failed to write audit line for booking %s: %v", booking.ID, err)
	}
}

func (s *BookingService) projectAll(ctx context.Context, bookings []*domain.Booking) ([]*BookingView, error) {
	views := make([]*BookingView, 0, len(bookings))
	for _, booking := range bookings {
		view, err := s.project(ctx, booking)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// project resolves the records a booking refers to. Missing related
// records are left nil rather than failing the whole read.
func (s *BookingService) project(ctx context.Context, booking *domain.Booking) (*BookingView, error) {
	view := &BookingView{Booking: booking}

	rider, err := s.riderRepo.GetByID(ctx, booking.RiderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	view.Rider = rider

	vehicle, err := s.vehicleRepo.GetByID(ctx, booking.VehicleID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	view.Vehicle = vehicle

	if vehicle != nil && vehicle.DriverID != "" && s.driverRepo != nil {
		driver, err := s.driverRepo.GetByID(ctx, vehicle.DriverID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		view.Driver = driver
	}

	payment, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	view.Payment = payment

	return view, nil
}
