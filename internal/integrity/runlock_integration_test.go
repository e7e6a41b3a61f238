//go:build integration

package integrity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trustledger/pkg/testutil/containers"
)

func TestRedisLocker(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	first := NewRedisLocker(rc.Client, time.Minute)
	second := NewRedisLocker(rc.Client, time.Minute)

	release, err := first.Acquire(ctx)
	require.NoError(t, err)

	_, err = second.Acquire(ctx)
	require.ErrorIs(t, err, ErrRunInProgress)

	require.NoError(t, release(ctx))

	release, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRedisLockerExpiredLockReleasesCleanly(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	locker := NewRedisLocker(rc.Client, 50*time.Millisecond)
	release, err := locker.Acquire(ctx)
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)
	require.NoError(t, release(ctx))
}
