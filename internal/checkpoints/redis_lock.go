package checkpoints

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	backend "github.com/redis/go-redis/v9"
)

// UnlockFunc releases a previously acquired lock.
type UnlockFunc func(ctx context.Context) error

// Locker serializes turns per thread id across process instances. In-process
// serialization is handled by the graph executor; this covers multi-instance
// deployments sharing a Redis checkpoint store.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// RedisLocker implements Locker using Redis SET NX PX.
type RedisLocker struct {
	client *backend.Client
	prefix string
}

// NewRedisLocker creates a Redis locker.
func NewRedisLocker(client *backend.Client, prefix string) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: prefix,
	}
}

// Lock acquires a distributed lock for the given key, polling with backoff
// until the context is cancelled. The returned UnlockFunc releases the lock
// only if we still hold it.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	val := fmt.Sprintf("%d", time.Now().UnixNano())

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		success, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, "redis error acquiring lock")
		}
		if success {
			return func(ctx context.Context) error {
				// Safe unlock: check value match so an expired lock taken
				// over by another holder is never released by us.
				script := `
					if redis.call("get", KEYS[1]) == ARGV[1] then
						return redis.call("del", KEYS[1])
					else
						return 0
					end
				`
				return l.client.Eval(ctx, script, []string{lockKey}, val).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
