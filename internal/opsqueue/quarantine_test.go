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
)

func TestQuarantineThenRestoreRoundTrips(t *testing.T) {
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	ctx := context.Background()

	driveDir := t.TempDir()
	subDir := filepath.Join(driveDir, "movies")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	drive, err := cat.RegisterDrive(ctx, driveDir, nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, drive.ID, driveDir)
	require.NoError(t, err)

	content := []byte("duplicate movie")
	relPath := filepath.Join("movies", "dup.mkv")
	require.NoError(t, os.WriteFile(filepath.Join(driveDir, relPath), content, 0o644))

	f, err := cat.UpsertFile(ctx, root.ID, relPath, int64(len(content)), time.Now().UTC(), ".mkv")
	require.NoError(t, err)
	require.NoError(t, cat.SetFullHash(ctx, f.ID, "deadbeef"))

	fixedNow := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Quarantine(ctx, cat, f.ID, fixedNow))

	quarantined, err := cat.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.HashQuarantined, quarantined.HashStatus)
	expectedQuarantinePath := filepath.Join(driveDir, ".quarantine", "2026-07-30", relPath)
	assert.Equal(t, expectedQuarantinePath, quarantined.Path)

	_, err = os.Stat(filepath.Join(driveDir, relPath))
	assert.True(t, os.IsNotExist(err))
	got, err := os.ReadFile(expectedQuarantinePath)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	require.NoError(t, Restore(ctx, cat, f.ID))

	restored, err := cat.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.HashPending, restored.HashStatus)
	assert.Equal(t, relPath, restored.Path)

	got, err = os.ReadFile(filepath.Join(driveDir, relPath))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRestoreRefusesNonQuarantinedFile(t *testing.T) {
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	ctx := context.Background()

	driveDir := t.TempDir()
	drive, err := cat.RegisterDrive(ctx, driveDir, nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, drive.ID, driveDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(driveDir, "a.mkv"), []byte("x"), 0o644))
	f, err := cat.UpsertFile(ctx, root.ID, "a.mkv", 1, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	err = Restore(ctx, cat, f.ID)
	assert.Error(t, err)
}
