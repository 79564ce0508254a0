package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cab/internal/audit"
	"cab/internal/domain"
	"cab/internal/redis"
	"cab/internal/repository"
	"cab/internal/service"
)

// ──────────────────────────────────────────────
// MOCK RIDER REPOSITORY
// ──────────────────────────────────────────────

// MockRiderRepository is a mock implementation of RiderRepository.
type MockRiderRepository struct {
	mu     sync.RWMutex
	riders map[string]*domain.Rider

	// Counters for verification
	GetByIDCallCount int32

	// Error injection
	CreateError  error
	GetByIDError error
}

// NewMockRiderRepository creates a new mock rider repository.
func NewMockRiderRepository() *MockRiderRepository {
	return &MockRiderRepository{
		riders: make(map[string]*domain.Rider),
	}
}

// AddRider adds a rider to the mock repository.
func (m *MockRiderRepository) AddRider(rider *domain.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[rider.ID] = rider
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.riders {
		if r.Email == rider.Email {
			return repository.ErrDuplicate
		}
	}
	m.riders[rider.ID] = rider
	return nil
}

func (m *MockRiderRepository) GetAll(ctx context.Context) ([]*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Rider, 0, len(m.riders))
	for _, r := range m.riders {
		copy := *r
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rider, ok := m.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rider
	return &copy, nil
}

func (m *MockRiderRepository) GetByEmail(ctx context.Context, email string) (*domain.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.riders {
		if r.Email == email {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
// MarkUnavailable is a compare-and-set like the PostgreSQL implementation.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	// Counters for verification
	MarkUnavailableCallCount int32
	MarkAvailableCallCount   int32

	// Error injection
	FindAvailableError   error
	MarkUnavailableError error
	MarkAvailableError   error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(*domain.Vehicle) bool { return true }), nil
}

func (m *MockVehicleRepository) FindAvailable(ctx context.Context, electricOnly bool) ([]*domain.Vehicle, error) {
	if m.FindAvailableError != nil {
		return nil, m.FindAvailableError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(v *domain.Vehicle) bool {
		return v.Available && (!electricOnly || v.Electric)
	}), nil
}

func (m *MockVehicleRepository) MarkUnavailable(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&m.MarkUnavailableCallCount, 1)
	if m.MarkUnavailableError != nil {
		return false, m.MarkUnavailableError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok || !vehicle.Available {
		return false, nil
	}
	vehicle.Available = false
	return true, nil
}

func (m *MockVehicleRepository) MarkAvailable(ctx context.Context, id string) error {
	atomic.AddInt32(&m.MarkAvailableCallCount, 1)
	if m.MarkAvailableError != nil {
		return m.MarkAvailableError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.Available = true
	return nil
}

// IsAvailable returns the availability flag (for test assertions).
func (m *MockVehicleRepository) IsAvailable(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	return ok && vehicle.Available
}

// CountAvailable returns the number of available vehicles.
func (m *MockVehicleRepository) CountAvailable() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, v := range m.vehicles {
		if v.Available {
			count++
		}
	}
	return count
}

// sorted returns copies of matching vehicles ordered by ID. Caller holds the lock.
func (m *MockVehicleRepository) sorted(match func(*domain.Vehicle) bool) []*domain.Vehicle {
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		if match(v) {
			copy := *v
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount              int32
	UpdatePaymentResultCallCount int32

	// Error injection
	CreateError              error
	UpdatePaymentResultError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) GetByRiderID(ctx context.Context, riderID string) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.RiderID == riderID }), nil
}

func (m *MockBookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	return m.list(func(*domain.Booking) bool { return true }), nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if booking.Status != from {
		return false, nil
	}
	booking.Status = to
	return true, nil
}

func (m *MockBookingRepository) UpdatePaymentResult(ctx context.Context, id string, status domain.PaymentStatus, details string) error {
	atomic.AddInt32(&m.UpdatePaymentResultCallCount, 1)
	if m.UpdatePaymentResultError != nil {
		return m.UpdatePaymentResultError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if booking.PaymentStatus != domain.PaymentStatusPending {
		return repository.ErrAlreadySettled
	}
	booking.PaymentStatus = status
	booking.PaymentDetails = details
	return nil
}

// GetBooking returns a copy of the booking (for test assertions).
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil
	}
	copy := *booking
	return &copy
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) list(match func(*domain.Booking) bool) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if match(b) {
			copy := *b
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
// A booking has at most one payment, as enforced by the unique index.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment // by booking ID

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[payment.BookingID]; exists {
		return repository.ErrAlreadySettled
	}
	copy := *payment
	m.payments[payment.BookingID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ID == id {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[bookingID]
	if !ok {
		return nil, nil
	}
	copy := *payment
	return &copy, nil
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// GetPaymentByBookingID returns the payment of a booking (for test assertions).
func (m *MockPaymentRepository) GetPaymentByBookingID(bookingID string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[bookingID]
}

// ──────────────────────────────────────────────
// MOCK SETTLEMENT RECORDER
// ──────────────────────────────────────────────

// MockSettlementRecorder writes a settlement into the booking and payment
// mocks. It is not transactional; tests inject failures before any write.
type MockSettlementRecorder struct {
	bookings *MockBookingRepository
	payments *MockPaymentRepository

	// Counters for verification
	RecordCallCount int32

	// Behavior injection, evaluated before any write.
	RecordError  error
	BeforeRecord func(ctx context.Context, payment *domain.Payment) error
}

// NewMockSettlementRecorder creates a recorder over the given mocks.
func NewMockSettlementRecorder(bookings *MockBookingRepository, payments *MockPaymentRepository) *MockSettlementRecorder {
	return &MockSettlementRecorder{bookings: bookings, payments: payments}
}

func (m *MockSettlementRecorder) RecordSettlement(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.RecordCallCount, 1)
	if m.BeforeRecord != nil {
		if err := m.BeforeRecord(ctx, payment); err != nil {
			return err
		}
	}
	if m.RecordError != nil {
		return m.RecordError
	}
	if err := m.bookings.UpdatePaymentResult(ctx, payment.BookingID, payment.Status, payment.Message); err != nil {
		return err
	}
	return m.payments.Create(ctx, payment)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

type mockLock struct {
	store *MockLockStore
	key   string
}

func (l *mockLock) Release(ctx context.Context) error {
	atomic.AddInt32(&l.store.ReleaseCallCount, 1)
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	delete(l.store.locks, l.key)
	return nil
}

func (m *MockLockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (redis.Releaser, error) {
	return m.acquire("lock:vehicle:"+vehicleID, ttl)
}

func (m *MockLockStore) AcquireSettlementLock(ctx context.Context, bookingID string, ttl time.Duration) (redis.Releaser, error) {
	return m.acquire("lock:settlement:"+bookingID, ttl)
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (redis.Releaser, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return nil, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return nil, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return &mockLock{store: m, key: key}, nil
}

// Hold takes a lock on behalf of another process (for test setup).
func (m *MockLockStore) Hold(key string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = time.Now().Add(ttl)
}

// IsLocked checks if a key is locked (for test assertions).
func (m *MockLockStore) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[key]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK SCHEDULER
// ──────────────────────────────────────────────

// MockScheduler records submitted settlements without running them.
type MockScheduler struct {
	mu        sync.Mutex
	submitted []string

	SubmitError error
}

// NewMockScheduler creates a new mock scheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

func (m *MockScheduler) Submit(booking *domain.Booking, details domain.PaymentDetails) error {
	if m.SubmitError != nil {
		return m.SubmitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, booking.ID)
	return nil
}

// Submitted returns the IDs of submitted bookings.
func (m *MockScheduler) Submitted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.submitted...)
}

// ──────────────────────────────────────────────
// RECORDING AUDIT SINK
// ──────────────────────────────────────────────

// RecordingAuditSink keeps audit lines in memory.
type RecordingAuditSink struct {
	mu    sync.Mutex
	lines []string

	AppendError error
}

// NewRecordingAuditSink creates a new recording sink.
func NewRecordingAuditSink() *RecordingAuditSink {
	return &RecordingAuditSink{}
}

func (s *RecordingAuditSink) Append(ctx context.Context, line string) error {
	if s.AppendError != nil {
		return s.AppendError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

func (s *RecordingAuditSink) Close() error { return nil }

// Lines returns the recorded lines.
func (s *RecordingAuditSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier counts notifications.
type MockNotifier struct {
	ConfirmedCount      int32
	CompletedCount      int32
	CancelledCount      int32
	PaymentSuccessCount int32
	PaymentFailedCount  int32
}

func (n *MockNotifier) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&n.ConfirmedCount, 1)
	return nil
}

func (n *MockNotifier) NotifyBookingCompleted(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&n.CompletedCount, 1)
	return nil
}

func (n *MockNotifier) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking, reason string) error {
	atomic.AddInt32(&n.CancelledCount, 1)
	return nil
}

func (n *MockNotifier) NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment, riderID string) error {
	atomic.AddInt32(&n.PaymentSuccessCount, 1)
	return nil
}

func (n *MockNotifier) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment, riderID string) error {
	atomic.AddInt32(&n.PaymentFailedCount, 1)
	return nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBUnavailable = errors.New("mock: database unavailable")
	ErrMockRedisDown     = errors.New("mock: redis unavailable")
	ErrMockSinkDown      = errors.New("mock: audit sink unavailable")
)

// Ensure mocks implement interfaces.
var (
	_ repository.RiderRepository           = (*MockRiderRepository)(nil)
	_ repository.DriverRepository          = (*MockDriverRepository)(nil)
	_ repository.VehicleRepository         = (*MockVehicleRepository)(nil)
	_ repository.BookingRepository         = (*MockBookingRepository)(nil)
	_ repository.PaymentRepository         = (*MockPaymentRepository)(nil)
	_ repository.SettlementRecorder        = (*MockSettlementRecorder)(nil)
	_ redis.LockStoreInterface             = (*MockLockStore)(nil)
	_ service.SettlementSchedulerInterface = (*MockScheduler)(nil)
	_ service.Notifier                     = (*MockNotifier)(nil)
	_ audit.Sink                           = (*RecordingAuditSink)(nil)
)
