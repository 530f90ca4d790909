package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leasedesk/leasedesk/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T) (*DecisionLock, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDecisionLock(redis.NewFromClient(client, "test:"), 5*time.Second), mr
}

func TestDecisionLock_Exclusive(t *testing.T) {
	l, mr := setupLock(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "application", 1)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:decision:application:1"))

	_, err = l.Acquire(ctx, "application", 1)
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.Acquire(ctx, "payment", 1)
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists("test:lock:decision:application:1"))

	again, err := l.Acquire(ctx, "application", 1)
	require.NoError(t, err)
	again()
}

func TestDecisionLock_Expires(t *testing.T) {
	l, mr := setupLock(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "payment", 9)
	require.NoError(t, err)
	mr.FastForward(6 * time.Second)

	fresh, err := l.Acquire(ctx, "payment", 9)
	require.NoError(t, err)

	// releasing the expired holder must not drop the new holder's lock
	stale()
	assert.True(t, mr.Exists("test:lock:decision:payment:9"))
	fresh()
	assert.False(t, mr.Exists("test:lock:decision:payment:9"))
}

func TestDecisionLock_NilAndUnavailable(t *testing.T) {
	var nilLock *DecisionLock
	release, err := nilLock.Acquire(context.Background(), "application", 1)
	require.NoError(t, err)
	release()

	assert.Nil(t, NewDecisionLock(nil, time.Second))

	l, mr := setupLock(t)
	mr.Close()
	release, err = l.Acquire(context.Background(), "application", 2)
	require.NoError(t, err)
	release()
}
