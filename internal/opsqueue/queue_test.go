package opsqueue

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

func setup(t *testing.T) (*Queue, *catalog.Catalog, string, string) {
	t.Helper()
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	srcDir := t.TempDir()
	dstDir := t.TempDir()
	return New(cat, logging.Nop()), cat, srcDir, dstDir
}

func waitForTerminal(t *testing.T, cat *catalog.Catalog, opID int64) *catalog.Operation {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		op, err := cat.GetOperation(ctx, opID)
		require.NoError(t, err)
		if op.Status.Terminal() {
			return op
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("operation did not reach a terminal state in time")
	return nil
}

func TestQueueCompletesCopyOperation(t *testing.T) {
	q, cat, srcDir, dstDir := setup(t)
	ctx := context.Background()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	dstDrive, err := cat.RegisterDrive(ctx, dstDir, nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)

	content := []byte("movie content")
	srcFile := filepath.Join(srcDir, "movie.mkv")
	require.NoError(t, os.WriteFile(srcFile, content, 0o644))

	f, err := cat.UpsertFile(ctx, root.ID, "movie.mkv", int64(len(content)), time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	destPath := filepath.Join(dstDir, "movie.mkv")
	op, err := cat.EnqueueOperation(ctx, f.ID, dstDrive.ID, destPath, int64(len(content)), true)
	require.NoError(t, err)

	require.True(t, q.Start())
	t.Cleanup(q.Stop)

	final := waitForTerminal(t, cat, op.ID)
	assert.Equal(t, catalog.OpCompleted, final.Status)
	assert.Equal(t, int64(len(content)), final.Progress)

	got, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestQueueFailsOperationOnMissingSource(t *testing.T) {
	q, cat, srcDir, dstDir := setup(t)
	ctx := context.Background()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	dstDrive, err := cat.RegisterDrive(ctx, dstDir, nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)

	f, err := cat.UpsertFile(ctx, root.ID, "ghost.mkv", 10, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	op, err := cat.EnqueueOperation(ctx, f.ID, dstDrive.ID, filepath.Join(dstDir, "ghost.mkv"), 10, false)
	require.NoError(t, err)

	require.True(t, q.Start())
	t.Cleanup(q.Stop)

	final := waitForTerminal(t, cat, op.ID)
	assert.Equal(t, catalog.OpFailed, final.Status)
	require.NotNil(t, final.Error)
}

func TestQueueRejectsConcurrentStart(t *testing.T) {
	q, _, _, _ := setup(t)
	require.True(t, q.Start())
	assert.False(t, q.Start())
	q.Stop()
}

func TestQueuePauseBlocksDispatch(t *testing.T) {
	q, cat, srcDir, dstDir := setup(t)
	ctx := context.Background()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	dstDrive, err := cat.RegisterDrive(ctx, dstDir, nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)

	content := []byte("x")
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.mkv"), content, 0o644))
	f, err := cat.UpsertFile(ctx, root.ID, "a.mkv", int64(len(content)), time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	require.True(t, q.Start())
	require.True(t, q.Pause())
	assert.True(t, q.Status().Paused)

	op, err := cat.EnqueueOperation(ctx, f.ID, dstDrive.ID, filepath.Join(dstDir, "a.mkv"), int64(len(content)), false)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	stillPending, err := cat.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.OpPending, stillPending.Status)

	require.True(t, q.Resume())
	final := waitForTerminal(t, cat, op.ID)
	assert.Equal(t, catalog.OpCompleted, final.Status)
	q.Stop()
}
