package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFilesAndItems(t *testing.T, cat *Catalog) (rootID int64) {
	t.Helper()
	ctx := context.Background()
	drive, err := cat.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, drive.ID, "/mnt/a/movies")
	require.NoError(t, err)

	f1, err := cat.UpsertFile(ctx, root.ID, "a.mkv", 100, time.Now().UTC(), ".mkv")
	require.NoError(t, err)
	f2, err := cat.UpsertFile(ctx, root.ID, "b.mkv", 200, time.Now().UTC(), ".mkv")
	require.NoError(t, err)
	f3, err := cat.UpsertFile(ctx, root.ID, "c.mkv", 300, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	item, err := cat.CreateItem(ctx, MediaMovie, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, cat.LinkFile(ctx, item.ID, f1.ID, true))
	require.NoError(t, cat.LinkFile(ctx, item.ID, f2.ID, false))
	require.NoError(t, cat.LinkFile(ctx, item.ID, f3.ID, false))

	solo, err := cat.CreateItem(ctx, MediaMovie, nil, nil, nil, nil)
	require.NoError(t, err)
	soloFile, err := cat.UpsertFile(ctx, root.ID, "solo.mkv", 50, time.Now().UTC(), ".mkv")
	require.NoError(t, err)
	require.NoError(t, cat.LinkFile(ctx, solo.ID, soloFile.ID, true))

	return root.ID
}

func TestListFilesFilteredByMinSizeAndPaginates(t *testing.T) {
	cat, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	seedFilesAndItems(t, cat)

	ctx := context.Background()
	minSize := int64(150)
	files, total, err := cat.ListFilesFiltered(ctx, FileFilter{MinSize: &minSize, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, files, 1)
}

func TestFileStatsAggregates(t *testing.T) {
	cat, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	seedFilesAndItems(t, cat)

	stats, err := cat.FileStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalFiles)
	assert.Equal(t, int64(650), stats.TotalSize)
	assert.Equal(t, 4, stats.ByHashStatus[HashPending])
}

func TestListItemsFilteredByMinCopies(t *testing.T) {
	cat, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	seedFilesAndItems(t, cat)

	min := 2
	items, total, err := cat.ListItemsFiltered(context.Background(), ItemFilter{MinCopies: &min, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Copies)
}

func TestCleanupRecommendationsOrdersByCopiesDescending(t *testing.T) {
	cat, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	seedFilesAndItems(t, cat)

	recs, err := cat.CleanupRecommendations(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 3, recs[0].Copies)
	assert.Equal(t, 1, recs[1].Copies)
}

func TestItemStatsCountsAtRiskAndDuplicates(t *testing.T) {
	cat, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	seedFilesAndItems(t, cat)

	stats, err := cat.ItemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.AtRiskCount)
	assert.Equal(t, 1, stats.DuplicateCount)
}
