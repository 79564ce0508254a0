package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a held lock. Release is a no-op once the TTL has expired and
// another owner has taken the key.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// Release releases the lock.
func (l *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireVehicleLock attempts to acquire the allocation lock for a vehicle.
// Returns nil if the lock is already held.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (Releaser, error) {
	return s.acquire(ctx, fmt.Sprintf("lock:vehicle:%s", vehicleID), ttl)
}

// AcquireSettlementLock attempts to acquire the settlement lock for a booking.
// Returns nil if another unit of work is already settling the booking.
func (s *LockStore) AcquireSettlementLock(ctx context.Context, bookingID string, ttl time.Duration) (Releaser, error) {
	return s.acquire(ctx, fmt.Sprintf("lock:settlement:%s", bookingID), ttl)
}

func (s *LockStore) acquire(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	return &Lock{client: s.client, key: key, token: token}, nil
}
