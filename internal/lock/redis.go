// Package lock provides a Redis-backed distributed lock used to keep replicas
// from generating the same story at the same time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock already held")

// unlockLua deletes the lock key only if it still holds the caller's token.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// Config holds connection parameters for the Redis client.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Manager acquires locks with SETNX and a TTL and releases them with a
// conditional Lua delete.
type Manager struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

// New connects to Redis, pings it and returns a Manager.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return NewWithClient(rdb), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client) *Manager {
	return &Manager{
		rdb:      rdb,
		unlockSc: redis.NewScript(unlockLua),
	}
}

func lockKey(key string) string {
	return "nextdawn:lock:" + key
}

// Acquire obtains the lock for key for at most ttl. The returned unlock
// function releases it and is safe to call more than once.
//
// It returns ErrLockHeld if the lock is already held.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	lk := lockKey(key)

	ok, err := m.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	released := false
	unlock := func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = m.unlockSc.Run(unlockCtx, m.rdb, []string{lk}, token).Err()
	}

	return unlock, nil
}

// Close closes the Redis connection.
func (m *Manager) Close() error {
	return m.rdb.Close()
}
