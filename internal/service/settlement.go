package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"golang.org/x/sync/semaphore"

	"cab/internal/domain"
	"cab/internal/redis"
	"cab/internal/repository"
)

const (
	DefaultSettlementGrace       = time.Second
	DefaultSettlementTimeout     = 30 * time.Second
	DefaultSettlementConcurrency = 16

	// markFailedTimeout bounds the write that records a failed settlement.
	markFailedTimeout = 5 * time.Second
)

// SettlementSchedulerInterface accepts bookings for asynchronous settlement.
type SettlementSchedulerInterface interface {
	Submit(booking *domain.Booking, details domain.PaymentDetails) error
}

// SettlementConfig tunes the scheduler. Zero values take the defaults and a
// negative Grace disables the grace interval.
type SettlementConfig struct {
	Grace         time.Duration
	Timeout       time.Duration
	MaxConcurrent int64
}

type settlementJob struct {
	bookingID string
	riderID   string
	method    domain.PaymentMethod
	details   domain.PaymentDetails
}

// SettlementScheduler settles each booking in its own goroutine after a
// grace interval. A failing unit only marks its own booking FAILED.
type SettlementScheduler struct {
	bookingRepo repository.BookingRepository
	recorder    repository.SettlementRecorder
	strategies  *PaymentStrategies
	lockStore   redis.LockStoreInterface // optional
	notifier    Notifier                 // optional
	nrApp       *newrelic.Application    // optional

	grace   time.Duration
	timeout time.Duration
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	inFlight map[string]struct{}
}

// NewSettlementScheduler creates a new SettlementScheduler.
func NewSettlementScheduler(
	bookingRepo repository.BookingRepository,
	recorder repository.SettlementRecorder,
	strategies *PaymentStrategies,
	lockStore redis.LockStoreInterface,
	notifier Notifier,
	nrApp *newrelic.Application,
	cfg SettlementConfig,
) *SettlementScheduler {
	if cfg.Grace < 0 {
		cfg.Grace = 0
	} else if cfg.Grace == 0 {
		cfg.Grace = DefaultSettlementGrace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSettlementTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultSettlementConcurrency
	}
	if strategies == nil {
		strategies = NewPaymentStrategies(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SettlementScheduler{
		bookingRepo: bookingRepo,
		recorder:    recorder,
		strategies:  strategies,
		lockStore:   lockStore,
		notifier:    notifier,
		nrApp:       nrApp,
		grace:       cfg.Grace,
		timeout:     cfg.Timeout,
		sem:         semaphore.NewWeighted(cfg.MaxConcurrent),
		ctx:         ctx,
		cancel:      cancel,
		inFlight:    make(map[string]struct{}),
	}
}

// Submit schedules settlement of a booking and returns immediately.
// The method payload is held in memory only.
func (s *SettlementScheduler) Submit(booking *domain.Booking, details domain.PaymentDetails) error {
	if booking == nil || booking.ID == "" {
		return ErrInvalidBookingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if _, ok := s.inFlight[booking.ID]; ok {
		return ErrSettlementInProgress
	}
	s.inFlight[booking.ID] = struct{}{}
	s.wg.Add(1)

	go s.run(settlementJob{
		bookingID: booking.ID,
		riderID:   booking.RiderID,
		method:    booking.PaymentMethod,
		details:   details,
	})

	return nil
}

// Wait blocks until every submitted settlement has finished.
func (s *SettlementScheduler) Wait() {
	s.wg.Wait()
}

// Shutdown stops accepting work and waits for in-flight settlements.
// If ctx expires first, the remaining units are cancelled and resolve to
// FAILED before Shutdown returns.
func (s *SettlementScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *SettlementScheduler) run(job settlementJob) {
	defer s.wg.Done()
	defer s.finish(job.bookingID)

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	var txn *newrelic.Transaction
	if s.nrApp != nil {
		txn = s.nrApp.StartTransaction("settlement/" + string(job.method))
		txn.AddAttribute("booking_id", job.bookingID)
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("settlement panic: %v", r)
			log.Printf("[SETTLEMENT] booking %s: %v", job.bookingID, err)
			txn.NoticeError(err)
			s.markFailed(ctx, job, "Payment settlement aborted")
		}
	}()

	if err := s.settle(ctx, job); err != nil {
		log.Printf("[SETTLEMENT] booking %s failed: %v", job.bookingID, err)
		txn.NoticeError(err)
		s.markFailed(ctx, job, failureMessage(err))
	}
}

func (s *SettlementScheduler) finish(bookingID string) {
	s.mu.Lock()
	delete(s.inFlight, bookingID)
	s.mu.Unlock()
}

func (s *SettlementScheduler) settle(ctx context.Context, job settlementJob) error {
	if s.grace > 0 {
		timer := time.NewTimer(s.grace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	if s.lockStore != nil {
		lock, err := s.lockStore.AcquireSettlementLock(ctx, job.bookingID, s.timeout)
		if err != nil {
			return fmt.Errorf("failed to acquire settlement lock: %w", err)
		}
		if lock == nil {
			// The lock holder moves the payment to SUCCESS or FAILED,
			// including on its own timeout. Leave PENDING untouched here.
			log.Printf("[SETTLEMENT] booking %s is being settled by the lock holder, leaving payment %s to it", job.bookingID, domain.PaymentStatusPending)
			return nil
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Printf("[SETTLEMENT] failed to release lock for booking %s: %v", job.bookingID, err)
			}
		}()
	}

	booking, err := s.bookingRepo.GetByID(ctx, job.bookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.PaymentStatus != domain.PaymentStatusPending {
		log.Printf("[SETTLEMENT] booking %s already settled (%s), skipping", booking.ID, booking.PaymentStatus)
		return nil
	}

	var outcome SettlementOutcome
	strategy, err := s.strategies.For(booking.PaymentMethod)
	if err != nil {
		outcome = failed(fmt.Sprintf("Payment failed: unsupported payment method %q", booking.PaymentMethod), domain.PaymentDetails{})
	} else {
		outcome = strategy.Settle(booking.Fare, job.details)
	}

	payment := &domain.Payment{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		Method:    booking.PaymentMethod,
		Amount:    booking.Fare,
		Status:    outcome.Status,
		Details:   outcome.Details,
		Message:   outcome.Message,
		SettledAt: time.Now(),
	}

	if err := s.recorder.RecordSettlement(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrAlreadySettled) {
			log.Printf("[SETTLEMENT] booking %s already settled, skipping", booking.ID)
			return nil
		}
		return fmt.Errorf("failed to record settlement: %w", err)
	}

	log.Printf("[SETTLEMENT] booking %s settled via %s: %s", booking.ID, payment.Method, payment.Status)
	s.notify(ctx, payment, job.riderID)

	return nil
}

// markFailed records a failed settlement on the booking. It runs on a
// context detached from cancellation so timeouts and shutdown still resolve.
func (s *SettlementScheduler) markFailed(ctx context.Context, job settlementJob, message string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
	defer cancel()

	err := s.bookingRepo.UpdatePaymentResult(writeCtx, job.bookingID, domain.PaymentStatusFailed, message)
	if err != nil {
		if !errors.Is(err, repository.ErrAlreadySettled) {
			log.Printf("[SETTLEMENT] failed to mark booking %s as FAILED: %v", job.bookingID, err)
		}
		return
	}

	s.notify(writeCtx, &domain.Payment{
		BookingID: job.bookingID,
		Method:    job.method,
		Status:    domain.PaymentStatusFailed,
		Message:   message,
	}, job.riderID)
}

func (s *SettlementScheduler) notify(ctx context.Context, payment *domain.Payment, riderID string) {
	if s.notifier == nil {
		return
	}
	if payment.Status == domain.PaymentStatusSuccess {
		_ = s.notifier.NotifyPaymentSuccess(ctx, payment, riderID)
		return
	}
	_ = s.notifier.NotifyPaymentFailed(ctx, payment, riderID)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Payment settlement timed out"
	case errors.Is(err, context.Canceled):
		return "Payment settlement cancelled"
	default:
		return "Payment settlement failed"
	}
}

var _ SettlementSchedulerInterface = (*SettlementScheduler)(nil)
