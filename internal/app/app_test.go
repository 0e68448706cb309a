package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milestonehq/milestone/internal/config"
	"github.com/milestonehq/milestone/internal/logging"
)

func TestNewWiresEveryWorkerAroundOneCatalog(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir

	logger := logging.Nop()
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.NotNil(t, a.Catalog)
	assert.NotNil(t, a.Scanner)
	assert.NotNil(t, a.Hasher)
	assert.NotNil(t, a.Matcher)
	assert.NotNil(t, a.Ops)
	assert.FileExists(t, filepath.Join(dir, "milestone.db"))
}

func TestEnableWatchStartsWithoutTriggering(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	a, err := New(cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	ctx := context.Background()
	drive, err := a.Catalog.RegisterDrive(ctx, dir, nil, nil)
	require.NoError(t, err)
	_, err = a.Catalog.AddRoot(ctx, drive.ID, dir)
	require.NoError(t, err)

	triggered := false
	err = a.EnableWatch(func(driveID int64) bool {
		triggered = true
		return true
	}, 1)
	require.NoError(t, err)
	assert.NotNil(t, a.Watch)
	assert.False(t, triggered)
}
