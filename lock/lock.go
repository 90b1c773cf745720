// Package lock serializes ledger write operations.
//
// Every write runs its checks and its store writes inside one WithLock call,
// so two operations never interleave between check and mutation. The default
// Local locker covers a single process; lock/redislock covers several
// processes sharing one durable store.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNilFunc is returned when WithLock is given no function.
var ErrNilFunc = errors.New("lock: nil function")

// Locker runs fn while holding the lock named key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Local is an in-process Locker with one lock per key. Waiting for a lock
// honours context cancellation. The zero value is ready to use.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal returns an in-process Locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slots == nil {
		l.slots = make(map[string]chan struct{})
	}
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

// WithLock implements Locker.
func (l *Local) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if fn == nil {
		return ErrNilFunc
	}

	s := l.slot(key)
	select {
	case s <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s }()

	return fn(ctx)
}
