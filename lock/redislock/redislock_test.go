package redislock_test

import (
	"context"
	"testing"
	"time"

	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/fundledger/lock"
	"github.com/xraph/fundledger/lock/redislock"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*redislock.Options)
		want   error
	}{
		{"Defaults", func(*redislock.Options) {}, nil},
		{"ZeroExpiry", func(o *redislock.Options) { o.Expiry = 0 }, redislock.ErrExpiryInvalid},
		{"ZeroTries", func(o *redislock.Options) { o.Tries = 0 }, redislock.ErrTriesInvalid},
		{"TooManyTries", func(o *redislock.Options) { o.Tries = 1001 }, redislock.ErrTriesExceeded},
		{"NegativeDelay", func(o *redislock.Options) { o.RetryDelay = -time.Second }, redislock.ErrRetryDelay},
		{"DriftTooLarge", func(o *redislock.Options) { o.DriftFactor = 1 }, redislock.ErrDriftFactor},
		{"NegativeDrift", func(o *redislock.Options) { o.DriftFactor = -0.1 }, redislock.ErrDriftFactor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := redislock.DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func unreachableClient(t *testing.T) goredislib.UniversalClient {
	t.Helper()
	c := goredislib.NewClient(&goredislib.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew(t *testing.T) {
	_, err := redislock.New(nil)
	assert.ErrorIs(t, err, redislock.ErrNilClient)

	_, err = redislock.New([]goredislib.UniversalClient{nil})
	assert.ErrorIs(t, err, redislock.ErrNilClient)

	bad := redislock.DefaultOptions()
	bad.Tries = 0
	_, err = redislock.New([]goredislib.UniversalClient{unreachableClient(t)}, redislock.WithOptions(bad))
	assert.ErrorIs(t, err, redislock.ErrTriesInvalid)

	l, err := redislock.New([]goredislib.UniversalClient{unreachableClient(t)})
	require.NoError(t, err)
	var _ lock.Locker = l
}

func TestWithLockArgumentErrors(t *testing.T) {
	l, err := redislock.New([]goredislib.UniversalClient{unreachableClient(t)})
	require.NoError(t, err)

	err = l.WithLock(context.Background(), "  ", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, redislock.ErrEmptyKey)

	err = l.WithLock(context.Background(), "ledger", nil)
	assert.ErrorIs(t, err, lock.ErrNilFunc)
}

func TestWithLockUnreachable(t *testing.T) {
	o := redislock.DefaultOptions()
	o.Tries = 1
	l, err := redislock.New([]goredislib.UniversalClient{unreachableClient(t)}, redislock.WithOptions(o))
	require.NoError(t, err)

	ran := false
	err = l.WithLock(context.Background(), "ledger", func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, redislock.ErrAcquire)
	assert.False(t, ran)
}
