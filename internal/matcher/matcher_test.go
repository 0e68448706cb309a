package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milestonehq/milestone/internal/catalog"
)

func setup(t *testing.T) (*Matcher, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return New(cat), cat
}

func TestProcessUnlinkedGroupsIdenticalFiles(t *testing.T) {
	m, cat := setup(t)
	ctx := context.Background()

	d1, err := cat.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	d2, err := cat.RegisterDrive(ctx, "/mnt/b", nil, nil)
	require.NoError(t, err)
	r1, err := cat.AddRoot(ctx, d1.ID, "/mnt/a/movies")
	require.NoError(t, err)
	r2, err := cat.AddRoot(ctx, d2.ID, "/mnt/b/movies")
	require.NoError(t, err)

	mtime := time.Now().UTC()
	f1, err := cat.UpsertFile(ctx, r1.ID, "The Matrix (1999).mkv", 1000, mtime, ".mkv")
	require.NoError(t, err)
	f2, err := cat.UpsertFile(ctx, r2.ID, "The.Matrix.1999.mkv", 1000, mtime, ".mkv")
	require.NoError(t, err)

	sameHash := "deadbeefcafe"
	require.NoError(t, cat.SetQuickSig(ctx, f1.ID, "1000:aaaa:bbbb"))
	require.NoError(t, cat.SetFullHash(ctx, f1.ID, sameHash))
	require.NoError(t, cat.SetQuickSig(ctx, f2.ID, "1000:aaaa:bbbb"))
	require.NoError(t, cat.SetFullHash(ctx, f2.ID, sameHash))

	processed, err := m.ProcessUnlinked(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	item1, err := cat.ItemForFile(ctx, f1.ID)
	require.NoError(t, err)
	item2, err := cat.ItemForFile(ctx, f2.ID)
	require.NoError(t, err)
	assert.Equal(t, item1.ID, item2.ID)

	files, err := cat.ItemFiles(ctx, item1.ID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCreateOrLinkSkipsNonVideo(t *testing.T) {
	m, cat := setup(t)
	ctx := context.Background()

	d, err := cat.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := cat.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)
	f, err := cat.UpsertFile(ctx, r.ID, "readme.txt", 10, time.Now().UTC(), ".txt")
	require.NoError(t, err)

	require.NoError(t, m.CreateOrLink(ctx, f.ID))
	_, err = cat.ItemForFile(ctx, f.ID)
	assert.Error(t, err)
}

func TestSplitRefusesSoleMember(t *testing.T) {
	m, cat := setup(t)
	ctx := context.Background()

	d, err := cat.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := cat.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)
	f, err := cat.UpsertFile(ctx, r.ID, "Lone Movie (2005).mkv", 500, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	require.NoError(t, m.CreateOrLink(ctx, f.ID))

	err = m.Split(ctx, f.ID)
	assert.Error(t, err)
}

func TestMergeReparentsAndDeletesSource(t *testing.T) {
	m, cat := setup(t)
	ctx := context.Background()

	d, err := cat.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := cat.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)

	f1, err := cat.UpsertFile(ctx, r.ID, "Movie A.mkv", 100, time.Now().UTC(), ".mkv")
	require.NoError(t, err)
	f2, err := cat.UpsertFile(ctx, r.ID, "Movie A Remux.mkv", 200, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	require.NoError(t, m.CreateOrLink(ctx, f1.ID))
	require.NoError(t, m.CreateOrLink(ctx, f2.ID))

	item1, err := cat.ItemForFile(ctx, f1.ID)
	require.NoError(t, err)
	item2, err := cat.ItemForFile(ctx, f2.ID)
	require.NoError(t, err)
	require.NotEqual(t, item1.ID, item2.ID)

	require.NoError(t, m.Merge(ctx, item1.ID, []int64{item2.ID}))

	merged, err := cat.ItemForFile(ctx, f2.ID)
	require.NoError(t, err)
	assert.Equal(t, item1.ID, merged.ID)
	assert.Equal(t, catalog.StatusVerified, merged.Status)

	_, err = cat.GetItem(ctx, item2.ID)
	assert.Error(t, err)
}
