package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, zap.NewNop()), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "batch:2024-03", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, lease.Token(), mustGet(t, mr, keyPrefix+"batch:2024-03"))

	_, err = locker.Acquire(ctx, "batch:2024-03", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	other, err := locker.Acquire(ctx, "batch:2024-04", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists(keyPrefix+"batch:2024-03"))

	again, err := locker.Acquire(ctx, "batch:2024-03", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, lease.Token(), again.Token())
}

func TestRedisLockerExpiry(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "batch:2024-03", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "batch:2024-03", time.Minute)
	require.NoError(t, err)

	// The expired lease must not remove the new holder's key.
	require.NoError(t, stale.Release(ctx))
	assert.Equal(t, fresh.Token(), mustGet(t, mr, keyPrefix+"batch:2024-03"))
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocal()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	now = now.Add(2 * time.Minute)
	fresh, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lease.Release(ctx))
	_, err = locker.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, fresh.Release(ctx))
	_, err = locker.Acquire(ctx, "k", time.Minute)
	assert.NoError(t, err)
}

func TestNewFallsBackToLocal(t *testing.T) {
	assert.IsType(t, &LocalLocker{}, New(Params{Log: zap.NewNop()}))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
