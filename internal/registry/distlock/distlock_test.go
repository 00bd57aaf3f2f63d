package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	l, err := New("redis://"+mr.Addr()+"/0", "test:rebuild-lock:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestTryLockSucceedsOnce(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	ok, err := l.TryLock(ctx, "documents-abc123", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryLock(ctx, "documents-abc123", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnlockReleasesLock(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	_, err := l.TryLock(ctx, "documents-abc123", time.Minute)
	require.NoError(t, err)

	require.NoError(t, l.Unlock(ctx, "documents-abc123"))

	ok, err := l.TryLock(ctx, "documents-abc123", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsLocked(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()

	locked, err := l.IsLocked(ctx, "documents-abc123")
	require.NoError(t, err)
	assert.False(t, locked)

	_, err = l.TryLock(ctx, "documents-abc123", time.Minute)
	require.NoError(t, err)

	locked, err = l.IsLocked(ctx, "documents-abc123")
	require.NoError(t, err)
	assert.True(t, locked)
}
