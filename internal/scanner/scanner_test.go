package scanner

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

func waitForScan(t *testing.T, s *Scanner) Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := s.Status()
		if st.State != StateRunning && st.State != StatePaused {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("scan did not finish in time")
	return Status{}
}

func setup(t *testing.T) (*Scanner, *catalog.Catalog, *catalog.Root, string) {
	t.Helper()
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	libDir := t.TempDir()
	logsDir := t.TempDir()

	d, err := cat.RegisterDrive(context.Background(), libDir, nil, nil)
	require.NoError(t, err)
	r, err := cat.AddRoot(context.Background(), d.ID, libDir)
	require.NoError(t, err)

	s := New(cat, logging.Nop(), logsDir)
	return s, cat, r, libDir
}

func TestScanNewUpdatedUnchangedMissing(t *testing.T) {
	s, cat, root, libDir := setup(t)
	ctx := context.Background()

	fileA := filepath.Join(libDir, "a.mkv")
	fileB := filepath.Join(libDir, "b.mkv")
	require.NoError(t, os.WriteFile(fileA, []byte("content a"), 0644))
	require.NoError(t, os.WriteFile(fileB, []byte("content b"), 0644))

	require.True(t, s.Start(nil, ThrottleFast))
	status := waitForScan(t, s)
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, 2, status.FilesNew)
	assert.Equal(t, 0, status.FilesUpdated)

	// Rewrite a.mkv with a distinct mtime so the change is detected.
	newMtime := time.Now().Add(1 * time.Hour)
	require.NoError(t, os.WriteFile(fileA, []byte("content a changed, longer"), 0644))
	require.NoError(t, os.Chtimes(fileA, newMtime, newMtime))

	require.True(t, s.Start(nil, ThrottleFast))
	status = waitForScan(t, s)
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, 1, status.FilesUpdated)
	assert.Equal(t, 1, status.FilesUnchanged)

	require.NoError(t, os.Remove(fileB))
	require.True(t, s.Start(nil, ThrottleFast))
	status = waitForScan(t, s)
	assert.Equal(t, StateCompleted, status.State)
	assert.Equal(t, 1, status.FilesMissing)

	files, err := cat.ListFilesByRoot(ctx, root.ID)
	require.NoError(t, err)
	var foundMissing bool
	for _, f := range files {
		if f.Path == "b.mkv" {
			foundMissing = f.Missing()
		}
	}
	assert.True(t, foundMissing)
}

func TestScanRejectsConcurrentStart(t *testing.T) {
	s, _, _, _ := setup(t)
	require.True(t, s.Start(nil, ThrottleFast))
	assert.False(t, s.Start(nil, ThrottleFast))
	s.Cancel()
	waitForScan(t, s)
}

func TestScanPauseResume(t *testing.T) {
	s, _, _, libDir := setup(t)
	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(libDir, "f"+string(rune('a'+i))+".mkv"), []byte("x"), 0644))
	}

	require.True(t, s.Start(nil, ThrottleLow))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Pause())
	assert.Equal(t, StatePaused, s.Status().State)

	assert.True(t, s.Resume())
	status := waitForScan(t, s)
	assert.Equal(t, StateCompleted, status.State)
}

func TestScanCancel(t *testing.T) {
	s, _, _, libDir := setup(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(libDir, "f"+string(rune('a'+i%26))+string(rune('0'+i/26))+".mkv"), []byte("x"), 0644))
	}

	require.True(t, s.Start(nil, ThrottleLow))
	time.Sleep(15 * time.Millisecond)
	assert.True(t, s.Cancel())
	status := waitForScan(t, s)
	assert.Equal(t, StateCancelled, status.State)
}
