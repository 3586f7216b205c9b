package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLeaseKey is the Redis key holding the credential write lease.
const DefaultLeaseKey = "storekeeper:credentials:lease"

// RedisLease is a single-writer lease: SET NX PX with a per-process owner id.
// Re-acquiring a lease the caller already owns extends it. Drop deletes it
// regardless of owner.
type RedisLease struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

func NewRedisLease(client *redis.Client, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{client: client, key: key, owner: uuid.NewString(), ttl: ttl}
}

// Owner returns the id written into the lease key.
func (l *RedisLease) Owner() string {
	return l.owner
}

func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if ok {
		return true, nil
	}

	holder, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		return l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	}
	if err != nil {
		return false, fmt.Errorf("inspect lease %s: %w", l.key, err)
	}
	if holder != l.owner {
		return false, nil
	}
	if err := l.client.PExpire(ctx, l.key, l.ttl).Err(); err != nil {
		return false, fmt.Errorf("extend lease %s: %w", l.key, err)
	}
	return true, nil
}

func (l *RedisLease) Drop(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("drop lease %s: %w", l.key, err)
	}
	return nil
}
