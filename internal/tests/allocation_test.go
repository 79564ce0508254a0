package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cab/internal/domain"
	"cab/internal/service"
)

// ──────────────────────────────────────────────
// 2. VEHICLE ALLOCATION
// ──────────────────────────────────────────────

func newAllocatorFixture() (*MockVehicleRepository, *MockLockStore, *service.VehicleAllocator) {
	vehicles := NewMockVehicleRepository()
	lockStore := NewMockLockStore()
	return vehicles, lockStore, service.NewVehicleAllocator(vehicles, lockStore)
}

func addPoolVehicle(vehicles *MockVehicleRepository, id string, electric bool) {
	vehicles.AddVehicle(&domain.Vehicle{ID: id, RatePerKm: 10, Electric: electric, Available: true})
}

func TestAllocation_FirstAvailableByID(t *testing.T) {
	t.Parallel()

	vehicles, _, allocator := newAllocatorFixture()
	addPoolVehicle(vehicles, "cab-3", false)
	addPoolVehicle(vehicles, "cab-1", false)
	addPoolVehicle(vehicles, "cab-2", false)

	vehicle, err := allocator.Allocate(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if vehicle == nil || vehicle.ID != "cab-1" {
		t.Fatalf("expected cab-1, got %+v", vehicle)
	}
	if vehicle.Available {
		t.Error("expected returned vehicle to be marked unavailable")
	}
	if vehicles.IsAvailable("cab-1") {
		t.Error("expected cab-1 to be reserved in storage")
	}
	if vehicles.CountAvailable() != 2 {
		t.Errorf("expected 2 vehicles left, got %d", vehicles.CountAvailable())
	}
}

func TestAllocation_SkipsUnavailable(t *testing.T) {
	t.Parallel()

	vehicles, _, allocator := newAllocatorFixture()
	vehicles.AddVehicle(&domain.Vehicle{ID: "cab-1", Available: false})
	addPoolVehicle(vehicles, "cab-2", false)

	vehicle, err := allocator.Allocate(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if vehicle == nil || vehicle.ID != "cab-2" {
		t.Fatalf("expected cab-2, got %+v", vehicle)
	}
}

func TestAllocation_EmptyPool_ReturnsNil(t *testing.T) {
	t.Parallel()

	_, _, allocator := newAllocatorFixture()

	vehicle, err := allocator.Allocate(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if vehicle != nil {
		t.Fatalf("expected no vehicle, got %+v", vehicle)
	}
}

func TestAllocation_Eco(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		pool     map[string]bool // id -> electric
		eco      bool
		expected string
	}{
		{"eco prefers electric over lower id", map[string]bool{"cab-1": false, "cab-2": true}, true, "cab-2"},
		{"eco falls back to fuel", map[string]bool{"cab-1": false, "cab-2": false}, true, "cab-1"},
		{"standard ignores electric preference", map[string]bool{"cab-1": false, "cab-2": true}, false, "cab-1"},
		{"standard may take electric", map[string]bool{"cab-1": true}, false, "cab-1"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			vehicles, _, allocator := newAllocatorFixture()
			for id, electric := range tc.pool {
				addPoolVehicle(vehicles, id, electric)
			}

			vehicle, err := allocator.Allocate(context.Background(), tc.eco)
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if vehicle == nil || vehicle.ID != tc.expected {
				t.Fatalf("expected %s, got %+v", tc.expected, vehicle)
			}
		})
	}
}

func TestAllocation_LockedVehicleIsSkipped(t *testing.T) {
	t.Parallel()

	vehicles, lockStore, allocator := newAllocatorFixture()
	addPoolVehicle(vehicles, "cab-1", false)
	addPoolVehicle(vehicles, "cab-2", false)

	// Another instance is reserving cab-1.
	lockStore.Hold("lock:vehicle:cab-1", time.Minute)

	vehicle, err := allocator.Allocate(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if vehicle == nil || vehicle.ID != "cab-2" {
		t.Fatalf("expected cab-2, got %+v", vehicle)
	}
	if !vehicles.IsAvailable("cab-1") {
		t.Error("expected locked vehicle to stay available")
	}
}

func TestAllocation_LockReleasedAfterReservation(t *testing.T) {
	t.Parallel()

	vehicles, lockStore, allocator := newAllocatorFixture()
	addPoolVehicle(vehicles, "cab-1", false)

	if _, err := allocator.Allocate(context.Background(), false); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if lockStore.IsLocked("lock:vehicle:cab-1") {
		t.Error("expected vehicle lock to be released after reservation")
	}
	if lockStore.ReleaseCallCount != 1 {
		t.Errorf("expected 1 lock release, got %d", lockStore.ReleaseCallCount)
	}
}

func TestAllocation_LockStoreError_Propagates(t *testing.T) {
	t.Parallel()

	vehicles, lockStore, allocator := newAllocatorFixture()
	addPoolVehicle(vehicles, "cab-1", false)
	lockStore.AcquireError = ErrMockRedisDown

	_, err := allocator.Allocate(context.Background(), false)
	if !errors.Is(err, ErrMockRedisDown) {
		t.Fatalf("expected redis error, got %v", err)
	}
	if !vehicles.IsAvailable("cab-1") {
		t.Error("expected vehicle to stay available")
	}
}

func TestAllocation_WithoutLockStore(t *testing.T) {
	t.Parallel()

	vehicles := NewMockVehicleRepository()
	addPoolVehicle(vehicles, "cab-1", false)
	allocator := service.NewVehicleAllocator(vehicles, nil)

	vehicle, err := allocator.Allocate(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if vehicle == nil || vehicle.ID != "cab-1" {
		t.Fatalf("expected cab-1, got %+v", vehicle)
	}
}

func TestAllocation_Release(t *testing.T) {
	t.Parallel()

	vehicles, _, allocator := newAllocatorFixture()
	addPoolVehicle(vehicles, "cab-1", false)

	if _, err := allocator.Allocate(context.Background(), false); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := allocator.Release(context.Background(), "cab-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !vehicles.IsAvailable("cab-1") {
		t.Fatal("expected vehicle to be available after release")
	}

	vehicle, err := allocator.Allocate(context.Background(), false)
	if err != nil || vehicle == nil {
		t.Fatalf("expected released vehicle to be allocatable, got %+v, %v", vehicle, err)
	}

	if err := allocator.Release(context.Background(), ""); !errors.Is(err, service.ErrInvalidVehicleID) {
		t.Errorf("expected ErrInvalidVehicleID, got %v", err)
	}
}

func TestAllocation_ConcurrentRequests_NoDoubleAllocation(t *testing.T) {
	t.Parallel()

	const poolSize = 5
	const requests = 20

	vehicles, _, allocator := newAllocatorFixture()
	for i := 0; i < poolSize; i++ {
		addPoolVehicle(vehicles, fmt.Sprintf("cab-%02d", i), i%2 == 0)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned = make(map[string]int)
		empty    int
	)

	start := make(chan struct{})
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(eco bool) {
			defer wg.Done()
			<-start

			vehicle, err := allocator.Allocate(context.Background(), eco)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if vehicle == nil {
				empty++
				return
			}
			assigned[vehicle.ID]++
		}(i%3 == 0)
	}
	close(start)
	wg.Wait()

	if len(assigned) != poolSize {
		t.Errorf("expected %d vehicles assigned, got %d", poolSize, len(assigned))
	}
	for id, count := range assigned {
		if count != 1 {
			t.Errorf("vehicle %s assigned %d times", id, count)
		}
	}
	if empty != requests-poolSize {
		t.Errorf("expected %d capacity rejections, got %d", requests-poolSize, empty)
	}
	if vehicles.CountAvailable() != 0 {
		t.Errorf("expected empty pool, got %d available", vehicles.CountAvailable())
	}
}

func TestAllocation_ConcurrentBookings_DistinctVehicles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastSettlement)
	for i := 0; i < 3; i++ {
		f.addVehicle(fmt.Sprintf("cab-%d", i), 10, false)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		vehicles = make(map[string]bool)
		rejected int
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			booking, err := f.bookingService.CreateBooking(context.Background(), cashRequest(4, 1000))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, service.ErrNoVehicleAvailable):
				rejected++
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			default:
				if vehicles[booking.VehicleID] {
					t.Errorf("vehicle %s booked twice", booking.VehicleID)
				}
				vehicles[booking.VehicleID] = true
			}
		}()
	}
	wg.Wait()

	if len(vehicles) != 3 {
		t.Errorf("expected 3 successful bookings, got %d", len(vehicles))
	}
	if rejected != 5 {
		t.Errorf("expected 5 capacity rejections, got %d", rejected)
	}
	if f.bookings.CountBookings() != 3 {
		t.Errorf("expected 3 stored bookings, got %d", f.bookings.CountBookings())
	}
}
