package dirty_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagestore/store/dirty"
)

func TestTracker_FlushDataOnly_PreCancelled(t *testing.T) {
	tracker := dirty.NewTracker(openTestFile(t))
	tracker.Add(4096, 100)
	tracker.Add(8192, 200)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tracker.FlushDataOnly(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, tracker.Pending(), "cancelled flush must keep ranges pending")
}

func TestTracker_FlushMeta_PreCancelled(t *testing.T) {
	tracker := dirty.NewTracker(openTestFile(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, tracker.FlushMeta(ctx, dirty.FlushAuto), context.Canceled)
}

func TestTracker_Flush_Success(t *testing.T) {
	tracker := dirty.NewTracker(openTestFile(t))
	tracker.Add(4096, 100)

	require.NoError(t, tracker.Flush(context.Background(), dirty.FlushAuto))
	require.False(t, tracker.Pending())
}

func TestTracker_FlushDataOnly_EmptyWithCancelled(t *testing.T) {
	tracker := dirty.NewTracker(openTestFile(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nothing to flush returns before the context is consulted.
	require.NoError(t, tracker.FlushDataOnly(ctx))
}

func openTestFile(t *testing.T) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.store")
	require.NoError(t, os.WriteFile(path, make([]byte, 4*4096), 0o644))

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}
