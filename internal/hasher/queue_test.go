package hasher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/logging"
)

func testQueue(t *testing.T) (*Queue, *catalog.Catalog, string) {
	t.Helper()
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	dir := t.TempDir()
	logger := logging.Nop()
	return New(cat, logger), cat, dir
}

func TestQueueDrainsPendingFiles(t *testing.T) {
	q, cat, dir := testQueue(t)
	ctx := context.Background()

	d, err := cat.RegisterDrive(ctx, dir, nil, nil)
	require.NoError(t, err)
	r, err := cat.AddRoot(ctx, d.ID, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "a.mkv")
	require.NoError(t, os.WriteFile(path, []byte("video bytes"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	f, err := cat.UpsertFile(ctx, r.ID, "a.mkv", info.Size(), info.ModTime(), ".mkv")
	require.NoError(t, err)

	n, err := q.EnqueuePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.True(t, q.Start(nil))

	deadline := time.Now().Add(2 * time.Second)
	for q.Status().State == StateRunning && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	status := q.Status()
	assert.Equal(t, StateComplete, status.State)
	assert.Equal(t, 1, status.FilesProcessed)

	hashed, err := cat.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.HashComplete, hashed.HashStatus)
	assert.NotNil(t, hashed.QuickSig)
	assert.NotNil(t, hashed.FullHash)
}

func TestQueueRejectsConcurrentStart(t *testing.T) {
	q, _, _ := testQueue(t)
	require.True(t, q.Start([]int64{1, 2, 3}))
	assert.False(t, q.Start([]int64{4}))
	q.Stop()
}

func TestQueueStopPreservesRemainingWork(t *testing.T) {
	q, _, _ := testQueue(t)

	// A large backlog of nonexistent ids keeps the worker busy long enough
	// for Stop to land mid-drain instead of racing it to completion.
	ids := make([]int64, 200_000)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	q.Start(ids)
	q.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for q.Status().State == StateRunning && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	status := q.Status()
	assert.Equal(t, StateStopped, status.State)
	assert.Greater(t, status.QueueSize, 0)
}
