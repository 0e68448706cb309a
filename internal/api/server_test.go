package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milestonehq/milestone/internal/app"
	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/config"
	"github.com/milestonehq/milestone/internal/logging"
)

func setupTestApp(t *testing.T, writeMode bool) *app.App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.WriteMode = writeMode

	a, err := app.New(cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func seedOneItemTwoCopies(t *testing.T, cat *catalog.Catalog) (fileID int64, itemID int64) {
	t.Helper()
	ctx := context.Background()
	drive, err := cat.RegisterDrive(ctx, "/mnt/a", nil, nil)
	require.NoError(t, err)
	root, err := cat.AddRoot(ctx, drive.ID, "/mnt/a/movies")
	require.NoError(t, err)

	f1, err := cat.UpsertFile(ctx, root.ID, "a.mkv", 100, time.Now().UTC(), ".mkv")
	require.NoError(t, err)
	f2, err := cat.UpsertFile(ctx, root.ID, "b.mkv", 100, time.Now().UTC(), ".mkv")
	require.NoError(t, err)

	item, err := cat.CreateItem(ctx, catalog.MediaMovie, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, cat.LinkFile(ctx, item.ID, f1.ID, true))
	require.NoError(t, cat.LinkFile(ctx, item.ID, f2.ID, false))

	return f1.ID, item.ID
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndModeEndpoints(t *testing.T) {
	a := setupTestApp(t, true)
	h := NewServer(a).Handler()

	rec := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/mode", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var mode map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mode))
	assert.True(t, mode["write_mode"])
}

func TestRegisterDriveThenListDrives(t *testing.T) {
	a := setupTestApp(t, false)
	h := NewServer(a).Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/drives/register", registerDriveRequest{MountPath: "/mnt/a"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/drives/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var drives []*catalog.Drive
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drives))
	assert.Len(t, drives, 1)
	assert.Equal(t, "/mnt/a", drives[0].MountPath)
}

func TestListFilesFilteredByMinSize(t *testing.T) {
	a := setupTestApp(t, false)
	seedOneItemTwoCopies(t, a.Catalog)
	h := NewServer(a).Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/files/?min_size=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp filesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestEnqueueCopyBlockedWhenWriteModeDisabled(t *testing.T) {
	a := setupTestApp(t, false)
	fileID, _ := seedOneItemTwoCopies(t, a.Catalog)
	h := NewServer(a).Handler()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/ops/copy", enqueueCopyRequest{
		SourceFileID: fileID,
		DestDriveID:  1,
		DestPath:     "movies/a.mkv",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPatchItemBlockedWhenWriteModeDisabled(t *testing.T) {
	a := setupTestApp(t, false)
	_, itemID := seedOneItemTwoCopies(t, a.Catalog)
	h := NewServer(a).Handler()

	status := string(catalog.StatusVerified)
	rec := doRequest(t, h, http.MethodPatch, "/api/v1/items/"+strconv.FormatInt(itemID, 10), patchItemRequest{Status: &status})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPatchItemSucceedsWhenWriteModeEnabled(t *testing.T) {
	a := setupTestApp(t, true)
	_, itemID := seedOneItemTwoCopies(t, a.Catalog)
	h := NewServer(a).Handler()

	status := string(catalog.StatusVerified)
	rec := doRequest(t, h, http.MethodPatch, "/api/v1/items/"+strconv.FormatInt(itemID, 10), patchItemRequest{Status: &status})
	require.Equal(t, http.StatusOK, rec.Code)

	var item catalog.MediaItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, catalog.StatusVerified, item.Status)
}

func TestCleanupRecommendationsReturnsDuplicates(t *testing.T) {
	a := setupTestApp(t, false)
	seedOneItemTwoCopies(t, a.Catalog)
	h := NewServer(a).Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/cleanup/recommendations?min_copies=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []*catalog.ItemWithCopies
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Copies)
}

func TestExportDuplicatesCSV(t *testing.T) {
	a := setupTestApp(t, false)
	seedOneItemTwoCopies(t, a.Catalog)
	h := NewServer(a).Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/exports/duplicates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "item_id,type,title")
}
