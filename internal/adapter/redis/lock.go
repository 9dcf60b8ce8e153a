// Package redis holds the Redis-backed lock that keeps the expiry sweep to
// one replica at a time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/clinic-consent/internal/config"
)

// releaseScript deletes the key only while it still holds our value, so an
// expired lease never releases a lock taken over by another holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrNotHeld is returned on release when the lease expired and the lock
// moved on.
var ErrNotHeld = errors.New("redis lock: not held")

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Locker is a single-key mutual exclusion lease.
type Locker struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewLocker creates a Locker on key whose leases last ttl.
func NewLocker(client redis.Cmdable, key string, ttl time.Duration) *Locker {
	return &Locker{client: client, key: key, ttl: ttl}
}

// TryAcquire takes the lock if it is free. ok is false when another holder
// has it. The returned release func gives the lock back and fails with
// ErrNotHeld if the lease ran out first.
func (l *Locker) TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error) {
	value := uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.key, value, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error { return l.release(ctx, value) }, true, nil
}

func (l *Locker) release(ctx context.Context, value string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, value).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
