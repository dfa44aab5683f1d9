package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/hificopy/formflow/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "formflow:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "form-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("formflow:lock:form-1"))

	t.Run("Held lock blocks until context is done", func(t *testing.T) {
		tctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		defer cancel()

		_, err := locker.Lock(tctx, "form-1", 5*time.Second)
		assert.ErrorIs(t, err, redis.ErrLockAcquire)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Other keys are independent", func(t *testing.T) {
		other, err := locker.Lock(ctx, "form-2", time.Second)
		require.NoError(t, err)
		require.NoError(t, other(ctx))
	})

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("formflow:lock:form-1"))

	t.Run("Stale holder cannot release a new lock", func(t *testing.T) {
		again, err := locker.Lock(ctx, "form-1", 5*time.Second)
		require.NoError(t, err)

		require.NoError(t, unlock(ctx))
		assert.True(t, mr.Exists("formflow:lock:form-1"))
		require.NoError(t, again(ctx))
	})
}
