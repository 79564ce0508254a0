package tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cab/internal/domain"
	"cab/internal/repository"
	"cab/internal/service"
)

// ──────────────────────────────────────────────
// 1. BOOKING CREATION
// ──────────────────────────────────────────────

func TestBookingCreation_ValidInput_ConfirmedWithPendingPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)

	booking, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected booking ID to be set")
	}
	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected status CONFIRMED, got %s", booking.Status)
	}
	if booking.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("expected payment status PENDING at return, got %s", booking.PaymentStatus)
	}
	if booking.VehicleID != "cab-1" {
		t.Errorf("expected vehicle cab-1, got %s", booking.VehicleID)
	}
	if booking.PaymentMethod != domain.PaymentMethodCard {
		t.Errorf("expected payment method CARD, got %s", booking.PaymentMethod)
	}
	if f.vehicles.IsAvailable("cab-1") {
		t.Error("expected allocated vehicle to be unavailable")
	}
	if f.bookings.CountBookings() != 1 {
		t.Errorf("expected 1 stored booking, got %d", f.bookings.CountBookings())
	}
}

func TestBookingCreation_FareIncludesFivePercentTax(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		distance float64
		rate     float64
	}{
		{"short sedan ride", 10, 12},
		{"long suv ride", 42.5, 18},
		{"fractional distance", 3.3, 10},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fastSettlement)
			f.addVehicle("cab-1", tc.rate, false)

			booking, err := f.bookingService.CreateBooking(context.Background(), cashRequest(tc.distance, 10000))
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}

			want := tc.distance*tc.rate + tc.distance*tc.rate*0.05
			if !approxEqual(booking.Fare, want) {
				t.Errorf("expected fare %f, got %f", want, booking.Fare)
			}
		})
	}
}

func TestBookingCreation_ValidationRejections(t *testing.T) {
	t.Parallel()

	valid := cardRequest(10, "1234567890123456")

	testCases := []struct {
		name    string
		mutate  func(r *service.CreateBookingRequest)
		wantErr error
	}{
		{"missing rider id", func(r *service.CreateBookingRequest) { r.RiderID = "" }, service.ErrInvalidRiderID},
		{"blank pickup", func(r *service.CreateBookingRequest) { r.Pickup = "   " }, service.ErrInvalidPickupLocation},
		{"missing drop", func(r *service.CreateBookingRequest) { r.Drop = "" }, service.ErrInvalidDropLocation},
		{"zero distance", func(r *service.CreateBookingRequest) { r.Distance = 0 }, service.ErrInvalidDistance},
		{"negative distance", func(r *service.CreateBookingRequest) { r.Distance = -4 }, service.ErrInvalidDistance},
		{"unknown payment method", func(r *service.CreateBookingRequest) { r.PaymentMethod = "WALLET" }, service.ErrInvalidPaymentMethod},
		{"empty payment method", func(r *service.CreateBookingRequest) { r.PaymentMethod = "" }, service.ErrInvalidPaymentMethod},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, fastSettlement)
			f.addVehicle("cab-1", 12, false)

			req := valid
			tc.mutate(&req)

			_, err := f.bookingService.CreateBooking(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}

			if !f.vehicles.IsAvailable("cab-1") {
				t.Error("expected vehicle to stay available after rejection")
			}
			if f.bookings.CountBookings() != 0 {
				t.Error("expected no booking to be stored")
			}
		})
	}
}

func TestBookingCreation_LowercasePaymentMethod_Accepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)

	req := upiRequest(5, "john@okaxis")
	req.PaymentMethod = "upi"

	booking, err := f.bookingService.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if booking.PaymentMethod != domain.PaymentMethodUPI {
		t.Errorf("expected UPI, got %s", booking.PaymentMethod)
	}
}

func TestBookingCreation_UnknownRider_NotFoundWithoutSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)

	req := cardRequest(10, "1234567890123456")
	req.RiderID = "rider-404"

	_, err := f.bookingService.CreateBooking(context.Background(), req)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if !f.vehicles.IsAvailable("cab-1") {
		t.Error("expected vehicle to stay available")
	}
	if f.bookings.CountBookings() != 0 {
		t.Error("expected no booking to be stored")
	}
	if len(f.sink.Lines()) != 0 {
		t.Error("expected no audit line")
	}
}

func TestBookingCreation_EmptyPool_CapacityRejection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)

	_, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if !errors.Is(err, service.ErrNoVehicleAvailable) {
		t.Fatalf("expected ErrNoVehicleAvailable, got %v", err)
	}

	if f.bookings.CountBookings() != 0 {
		t.Error("expected no booking to be stored")
	}
	if f.payments.CountPayments() != 0 {
		t.Error("expected no payment to be stored")
	}
	if len(f.sink.Lines()) != 0 {
		t.Error("expected no audit line")
	}
}

func TestBookingCreation_PersistenceFailure_ReleasesVehicle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.bookings.CreateError = ErrMockDBUnavailable

	_, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if !errors.Is(err, ErrMockDBUnavailable) {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}

	if !f.vehicles.IsAvailable("cab-1") {
		t.Error("expected vehicle to be released after persistence failure")
	}
	if f.vehicles.MarkAvailableCallCount != 1 {
		t.Errorf("expected 1 release, got %d", f.vehicles.MarkAvailableCallCount)
	}
	if len(f.sink.Lines()) != 0 {
		t.Error("expected no audit line for an uncommitted booking")
	}
}

func TestBookingCreation_AllocatorError_Propagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.vehicles.FindAvailableError = ErrMockDBUnavailable

	_, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if !errors.Is(err, ErrMockDBUnavailable) {
		t.Fatalf("expected allocator error, got %v", err)
	}
	if errors.Is(err, service.ErrNoVehicleAvailable) {
		t.Error("storage failure must not be reported as no capacity")
	}
}

func TestBookingCreation_WritesAuditLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)

	booking, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	lines := f.sink.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 audit line, got %d", len(lines))
	}

	for _, want := range []string{
		"Booking #" + booking.ID,
		"User: John Doe",
		"From: MG Road",
		"To: Airport",
		"Distance: 10.00 km",
		"Fare: 126.00",
		"Cab: cab-1",
		"EcoRide: NO",
		"Carbon Saved: 0.00 kg",
	} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("audit line %q missing %q", lines[0], want)
		}
	}
}

func TestBookingCreation_AuditFailure_DoesNotFailBooking(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.sink.AppendError = ErrMockSinkDown

	booking, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if err != nil {
		t.Fatalf("expected audit failure to be swallowed, got: %v", err)
	}
	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", booking.Status)
	}
}

func TestBookingCreation_SubmitsSettlement(t *testing.T) {
	t.Parallel()

	riders := NewMockRiderRepository()
	riders.AddRider(&domain.Rider{ID: testRiderID, Name: "John Doe"})
	vehicles := NewMockVehicleRepository()
	vehicles.AddVehicle(&domain.Vehicle{ID: "cab-1", RatePerKm: 12, Available: true})
	bookings := NewMockBookingRepository()
	scheduler := NewMockScheduler()

	bookingService := service.NewBookingService(
		riders, vehicles, NewMockDriverRepository(), bookings, NewMockPaymentRepository(),
		service.NewVehicleAllocator(vehicles, nil), scheduler, nil, nil,
	)

	booking, err := bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	submitted := scheduler.Submitted()
	if len(submitted) != 1 || submitted[0] != booking.ID {
		t.Errorf("expected booking %s to be submitted, got %v", booking.ID, submitted)
	}
}

func TestBookingCreation_SchedulerClosed_PaymentFailed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)

	if err := f.scheduler.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	booking, err := f.bookingService.CreateBooking(context.Background(), cardRequest(10, "1234567890123456"))
	if err != nil {
		t.Fatalf("expected booking to be created, got: %v", err)
	}

	stored := f.bookings.GetBooking(booking.ID)
	if stored.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("expected payment FAILED when settlement cannot run, got %s", stored.PaymentStatus)
	}
	if stored.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected booking to stay CONFIRMED, got %s", stored.Status)
	}
}

func TestBookingCreation_MultipleBookingsAreDistinct(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	f.addVehicle("cab-1", 12, false)
	f.addVehicle("cab-2", 12, false)

	first, err := f.bookingService.CreateBooking(context.Background(), cashRequest(5, 500))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	second, err := f.bookingService.CreateBooking(context.Background(), cashRequest(5, 500))
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}

	if first.ID == second.ID {
		t.Error("expected distinct booking IDs")
	}
	if first.VehicleID == second.VehicleID {
		t.Error("expected distinct vehicles")
	}
}
