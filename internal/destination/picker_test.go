package destination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milestonehq/milestone/internal/catalog"
)

func TestFreeSpaceReadsRealMount(t *testing.T) {
	free, err := freeSpace(t.TempDir(), time.Second)
	require.NoError(t, err)
	assert.Greater(t, free, int64(0))
}

func TestPickExcludesSourceDrive(t *testing.T) {
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	ctx := context.Background()

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	dstDrive, err := cat.RegisterDrive(ctx, dstDir, nil, nil)
	require.NoError(t, err)

	srcRoot, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)
	_, err = cat.AddRoot(ctx, dstDrive.ID, dstDir)
	require.NoError(t, err)

	f, err := cat.UpsertFile(ctx, srcRoot.ID, "movie.mkv", 1024, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	candidates, err := Pick(ctx, cat, f.ID, catalog.MediaMovie)
	require.NoError(t, err)
	for _, c := range candidates {
		assert.NotEqual(t, srcDrive.ID, c.Drive.ID)
	}
}

func TestPickExcludesDenylistedDrive(t *testing.T) {
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	ctx := context.Background()

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	dstDrive, err := cat.RegisterDrive(ctx, dstDir, nil, nil)
	require.NoError(t, err)

	srcRoot, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)
	_, err = cat.AddRoot(ctx, dstDrive.ID, dstDir)
	require.NoError(t, err)

	f, err := cat.UpsertFile(ctx, srcRoot.ID, "movie.mkv", 1024, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	_, err = cat.AddRule(ctx, catalog.RuleDenylist, dstDrive.ID, 0)
	require.NoError(t, err)

	candidates, err := Pick(ctx, cat, f.ID, catalog.MediaMovie)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestPickPrefersRuleMatchedDriveRegardlessOfFreeSpace(t *testing.T) {
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	ctx := context.Background()

	srcDir := t.TempDir()
	plainDir := t.TempDir()
	preferredDir := t.TempDir()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	plainDrive, err := cat.RegisterDrive(ctx, plainDir, nil, nil)
	require.NoError(t, err)
	preferredDrive, err := cat.RegisterDrive(ctx, preferredDir, nil, nil)
	require.NoError(t, err)

	srcRoot, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)
	_, err = cat.AddRoot(ctx, plainDrive.ID, plainDir)
	require.NoError(t, err)
	_, err = cat.AddRoot(ctx, preferredDrive.ID, preferredDir)
	require.NoError(t, err)

	f, err := cat.UpsertFile(ctx, srcRoot.ID, "movie.mkv", 1024, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	_, err = cat.AddRule(ctx, catalog.RulePreferMovie, preferredDrive.ID, 0)
	require.NoError(t, err)

	candidates, err := Pick(ctx, cat, f.ID, catalog.MediaMovie)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, preferredDrive.ID, candidates[0].Drive.ID)
	assert.True(t, candidates[0].Preferred)
}

func TestPickExcludesDrivesBelowFreeSpaceFloor(t *testing.T) {
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	ctx := context.Background()

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	srcDrive, err := cat.RegisterDrive(ctx, srcDir, nil, nil)
	require.NoError(t, err)
	dstDrive, err := cat.RegisterDrive(ctx, dstDir, nil, nil)
	require.NoError(t, err)

	srcRoot, err := cat.AddRoot(ctx, srcDrive.ID, srcDir)
	require.NoError(t, err)
	_, err = cat.AddRoot(ctx, dstDrive.ID, dstDir)
	require.NoError(t, err)

	// A file larger than any real test filesystem's free space forces
	// every candidate below the required floor.
	huge := int64(1) << 60
	f, err := cat.UpsertFile(ctx, srcRoot.ID, "movie.mkv", huge, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	candidates, err := Pick(ctx, cat, f.ID, catalog.MediaMovie)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
