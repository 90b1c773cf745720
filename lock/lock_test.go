package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/fundledger/lock"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(ctx, "ledger", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
}

func TestLocalPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := lock.NewLocal().WithLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestLocalReleasesAfterError(t *testing.T) {
	l := lock.NewLocal()
	_ = l.WithLock(context.Background(), "k", func(context.Context) error { return errors.New("fail") })

	called := false
	require.NoError(t, l.WithLock(context.Background(), "k", func(context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestLocalHonoursCancellation(t *testing.T) {
	l := lock.NewLocal()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "k", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.WithLock(ctx, "k", func(context.Context) error {
		t.Error("fn ran while the lock was held")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestLocalIndependentKeys(t *testing.T) {
	l := lock.NewLocal()
	err := l.WithLock(context.Background(), "a", func(ctx context.Context) error {
		return l.WithLock(ctx, "b", func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}

func TestLocalNilFunc(t *testing.T) {
	assert.ErrorIs(t, lock.NewLocal().WithLock(context.Background(), "k", nil), lock.ErrNilFunc)
}

func TestLocalZeroValue(t *testing.T) {
	var l lock.Local
	ran := false
	require.NoError(t, l.WithLock(context.Background(), "k", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}
