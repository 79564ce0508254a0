package service

import (
	"context"
	"log"
	"sync"
	"time"

	"cab/internal/domain"
	"cab/internal/redis"
	"cab/internal/repository"
)

const vehicleLockTTL = 10 * time.Second

// AllocatorInterface reserves vehicles for bookings.
type AllocatorInterface interface {
	Allocate(ctx context.Context, preferElectric bool) (*domain.Vehicle, error)
	Release(ctx context.Context, vehicleID string) error
}

// VehicleAllocator reserves the first available vehicle in ID order.
// The reservation is a compare-and-set on the vehicle row, so a vehicle is
// never handed to two bookings even across processes.
type VehicleAllocator struct {
	mu          sync.Mutex
	vehicleRepo repository.VehicleRepository
	lockStore   redis.LockStoreInterface // optional
}

// NewVehicleAllocator creates a new VehicleAllocator. lockStore may be nil.
func NewVehicleAllocator(vehicleRepo repository.VehicleRepository, lockStore redis.LockStoreInterface) *VehicleAllocator {
	return &VehicleAllocator{
		vehicleRepo: vehicleRepo,
		lockStore:   lockStore,
	}
}

// Allocate reserves a vehicle and marks it unavailable.
// When preferElectric is set, electric vehicles are tried first and any
// vehicle is taken as a fallback. Returns nil when nothing is available.
func (a *VehicleAllocator) Allocate(ctx context.Context, preferElectric bool) (*domain.Vehicle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if preferElectric {
		vehicle, err := a.reserveFirst(ctx, true)
		if err != nil || vehicle != nil {
			return vehicle, err
		}
	}

	return a.reserveFirst(ctx, false)
}

// Release returns a vehicle to the pool.
func (a *VehicleAllocator) Release(ctx context.Context, vehicleID string) error {
	if vehicleID == "" {
		return ErrInvalidVehicleID
	}
	return a.vehicleRepo.MarkAvailable(ctx, vehicleID)
}

func (a *VehicleAllocator) reserveFirst(ctx context.Context, electricOnly bool) (*domain.Vehicle, error) {
	candidates, err := a.vehicleRepo.FindAvailable(ctx, electricOnly)
	if err != nil {
		return nil, err
	}

	for _, vehicle := range candidates {
		reserved, err := a.tryReserve(ctx, vehicle.ID)
		if err != nil {
			return nil, err
		}
		if !reserved {
			// Taken by another allocator since the scan.
			continue
		}

		vehicle.Available = false
		return vehicle, nil
	}

	return nil, nil
}

func (a *VehicleAllocator) tryReserve(ctx context.Context, vehicleID string) (bool, error) {
	if a.lockStore != nil {
		lock, err := a.lockStore.AcquireVehicleLock(ctx, vehicleID, vehicleLockTTL)
		if err != nil {
			return false, err
		}
		if lock == nil {
			return false, nil
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Printf("[ALLOCATOR] failed to release lock for vehicle %s: %v", vehicleID, err)
			}
		}()
	}

	return a.vehicleRepo.MarkUnavailable(ctx, vehicleID)
}
