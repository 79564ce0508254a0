package redis

import (
	"context"
	"time"
)

// Releaser releases a held lock.
type Releaser interface {
	Release(ctx context.Context) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (Releaser, error)
	AcquireSettlementLock(ctx context.Context, bookingID string, ttl time.Duration) (Releaser, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ Releaser           = (*Lock)(nil)
)
