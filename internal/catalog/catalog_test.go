package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milestonehq/milestone/internal/apperr"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRegisterDrive(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	serial := "ABC123"
	d, err := c.RegisterDrive(ctx, "/mnt/a", &serial, nil)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/a", d.MountPath)
	assert.Equal(t, &serial, d.VolumeSerial)
	assert.Nil(t, d.VolumeLabel)

	_, err = c.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.CategoryOf(err))
}

func TestGetDriveNotFound(t *testing.T) {
	c := openTest(t)
	_, err := c.GetDrive(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.CategoryOf(err))
}

func TestDeleteDriveBlockedByRoots(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	d, err := c.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	_, err = c.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)

	err = c.DeleteDrive(ctx, d.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.CategoryOf(err))
}

func TestAddRootRequiresExistingDrive(t *testing.T) {
	c := openTest(t)
	_, err := c.AddRoot(context.Background(), 42, "/mnt/missing")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.CategoryOf(err))
}

func TestUpsertFileResetsHashOnChange(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	d, err := c.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := c.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)

	mtime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f, err := c.UpsertFile(ctx, r.ID, "Movie (2020)/movie.mkv", 1000, mtime, ".mkv")
	require.NoError(t, err)
	assert.Equal(t, HashPending, f.HashStatus)

	require.NoError(t, c.SetQuickSig(ctx, f.ID, "1000:abcd:efgh"))
	require.NoError(t, c.SetFullHash(ctx, f.ID, "deadbeef"))

	hashed, err := c.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, HashComplete, hashed.HashStatus)
	assert.Equal(t, "deadbeef", *hashed.FullHash)

	changed, err := c.UpsertFile(ctx, r.ID, "Movie (2020)/movie.mkv", 2000, mtime, ".mkv")
	require.NoError(t, err)
	assert.Equal(t, HashPending, changed.HashStatus)
	assert.Nil(t, changed.QuickSig)
	assert.Nil(t, changed.FullHash)
}

func TestMarkMissing(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	d, err := c.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := c.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)

	mtime := time.Now().UTC()
	f1, err := c.UpsertFile(ctx, r.ID, "a.mkv", 1, mtime, ".mkv")
	require.NoError(t, err)
	_, err = c.UpsertFile(ctx, r.ID, "b.mkv", 1, mtime, ".mkv")
	require.NoError(t, err)

	n, err := c.MarkMissing(ctx, r.ID, map[string]struct{}{"b.mkv": {}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gone, err := c.GetFile(ctx, f1.ID)
	require.NoError(t, err)
	assert.True(t, gone.Missing())
}

func TestLinkFileEnforcesSingleItem(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	d, err := c.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := c.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)
	f, err := c.UpsertFile(ctx, r.ID, "a.mkv", 1, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	title := "A Movie"
	item1, err := c.CreateItem(ctx, MediaMovie, &title, nil, nil, nil)
	require.NoError(t, err)
	item2, err := c.CreateItem(ctx, MediaMovie, &title, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, c.LinkFile(ctx, item1.ID, f.ID, true))

	err = c.LinkFile(ctx, item2.ID, f.ID, true)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.CategoryOf(err))

	got, err := c.ItemForFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, item1.ID, got.ID)
}

func TestOperationLifecycle(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	src, err := c.RegisterDrive(ctx, "/mnt/src", nil, nil)
	require.NoError(t, err)
	dst, err := c.RegisterDrive(ctx, "/mnt/dst", nil, nil)
	require.NoError(t, err)
	r, err := c.AddRoot(ctx, src.ID, "/mnt/src/movies")
	require.NoError(t, err)
	f, err := c.UpsertFile(ctx, r.ID, "a.mkv", 1000, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	op, err := c.EnqueueOperation(ctx, f.ID, dst.ID, "/mnt/dst/a.mkv", 1000, true)
	require.NoError(t, err)
	assert.Equal(t, OpPending, op.Status)

	require.NoError(t, c.StartOperation(ctx, op.ID))
	require.NoError(t, c.PauseOperation(ctx, op.ID))

	err = c.StartOperation(ctx, op.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.CategoryOf(err))

	require.NoError(t, c.ResumeOperation(ctx, op.ID))
	require.NoError(t, c.StartOperation(ctx, op.ID))
	require.NoError(t, c.UpdateProgress(ctx, op.ID, 500))
	require.NoError(t, c.CompleteOperation(ctx, op.ID))

	done, err := c.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, OpCompleted, done.Status)
	assert.Equal(t, done.TotalSize, done.Progress)
	assert.True(t, done.Status.Terminal())

	err = c.CancelOperation(ctx, op.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.CategoryOf(err))
}

func TestLogAction(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	d, err := c.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	r, err := c.AddRoot(ctx, d.ID, "/mnt/a/movies")
	require.NoError(t, err)
	f, err := c.UpsertFile(ctx, r.ID, "a.mkv", 1, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	require.NoError(t, c.LogAction(ctx, "copier", &f.ID, "quarantine", "duplicate of file 7"))

	entries, err := c.FileLog(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "quarantine", entries[0].Action)
}
