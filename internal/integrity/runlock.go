package integrity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// RunLockKey is the Redis key guarding whole-run exclusion.
const RunLockKey = "integrity:run"

// ErrRunInProgress is returned when another run holds the lock.
var ErrRunInProgress = errors.New("integrity run already in progress")

// Locker grants whole-run exclusion. Release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// RedisLocker excludes runs across processes. The TTL bounds how long a
// crashed holder blocks the next run.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(rdb redislock.RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, RunLockKey, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("obtain run lock: %w", err)
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// TTL expired mid-run; nothing left to release.
			return nil
		}
		return err
	}, nil
}

// LocalLocker excludes runs within a single process.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) Acquire(_ context.Context) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return func(context.Context) error {
		l.mu.Unlock()
		return nil
	}, nil
}
