package copier

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySucceeds(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	src := filepath.Join(srcDir, "movie.mkv")
	content := []byte("some media bytes, repeated enough to span a chunk boundary conceptually")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	dst := filepath.Join(dstDir, "nested", "movie.mkv")
	var lastProgress int64
	n, err := Copy(context.Background(), src, dst, Options{
		VerifyHash: true,
		Progress:   func(bytes int64) { lastProgress = bytes },
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)
	assert.Equal(t, int64(len(content)), lastProgress)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = os.Stat(dst + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCopyRefusesExistingDestinationWithoutOverwrite(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	src := filepath.Join(srcDir, "a.mkv")
	dst := filepath.Join(dstDir, "a.mkv")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("already here"), 0o644))

	_, err := Copy(context.Background(), src, dst, Options{})
	require.Error(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("already here"), got)
}

func TestCopyOverwriteReplacesDestination(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	src := filepath.Join(srcDir, "a.mkv")
	dst := filepath.Join(dstDir, "a.mkv")
	require.NoError(t, os.WriteFile(src, []byte("new content"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	_, err := Copy(context.Background(), src, dst, Options{Overwrite: true})
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("new content"), got)
}

func TestCopyFailsOnMissingSourceLeavesNoTemp(t *testing.T) {
	dstDir := t.TempDir()
	dst := filepath.Join(dstDir, "a.mkv")

	_, err := Copy(context.Background(), filepath.Join(dstDir, "missing.mkv"), dst, Options{})
	require.Error(t, err)

	_, err = os.Stat(dst + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
