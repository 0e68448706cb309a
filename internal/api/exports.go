package api

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/milestonehq/milestone/internal/catalog"
)

// handleExportAtRisk streams every media item currently backed by at most
// one surviving copy: the library's single points of failure.
func (s *Server) handleExportAtRisk(w http.ResponseWriter, r *http.Request) {
	maxCopies := 1
	filter := catalog.ItemFilter{MaxCopies: &maxCopies}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="at_risk.csv"`)
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"item_id", "type", "title", "year", "season", "episode", "status", "copies"}); err != nil {
		return
	}

	for page := 1; ; page++ {
		filter.Page = page
		filter.PageSize = 500
		items, total, err := s.app.Catalog.ListItemsFiltered(r.Context(), filter)
		if err != nil {
			return
		}
		for _, it := range items {
			if err := cw.Write(itemCSVRow(it)); err != nil {
				return
			}
		}
		if page*filter.PageSize >= total || len(items) == 0 {
			break
		}
	}
}

// handleExportDuplicates streams every media item (up to 10000) with three
// or more surviving copies, ordered most-duplicated first.
func (s *Server) handleExportDuplicates(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.Catalog.CleanupRecommendations(r.Context(), 3, 10000)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="duplicates.csv"`)
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"item_id", "type", "title", "year", "season", "episode", "status", "copies"}); err != nil {
		return
	}
	for _, it := range items {
		if err := cw.Write(itemCSVRow(it)); err != nil {
			return
		}
	}
}

// handleExportInventory streams one row per tracked file, joined to the
// media item it belongs to when a grouping exists.
func (s *Server) handleExportInventory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"file_id", "root_id", "path", "size", "hash_status", "missing", "item_id", "item_title"}); err != nil {
		return
	}

	for page := 1; ; page++ {
		filter := catalog.FileFilter{Page: page, PageSize: 500}
		files, total, err := s.app.Catalog.ListFilesFiltered(r.Context(), filter)
		if err != nil {
			return
		}
		for _, f := range files {
			row := []string{
				strconv.FormatInt(f.ID, 10),
				strconv.FormatInt(f.RootID, 10),
				f.Path,
				strconv.FormatInt(f.Size, 10),
				string(f.HashStatus),
				strconv.FormatBool(f.Missing()),
				"",
				"",
			}
			if item, err := s.app.Catalog.ItemForFile(r.Context(), f.ID); err == nil {
				row[6] = strconv.FormatInt(item.ID, 10)
				row[7] = titleOf(item)
			}
			if err := cw.Write(row); err != nil {
				return
			}
		}
		if page*filter.PageSize >= total || len(files) == 0 {
			break
		}
	}
}

func itemCSVRow(it *catalog.ItemWithCopies) []string {
	return []string{
		strconv.FormatInt(it.ID, 10),
		string(it.Type),
		titleOf(it.MediaItem),
		intPtrStr(it.Year),
		intPtrStr(it.Season),
		intPtrStr(it.Episode),
		string(it.Status),
		strconv.Itoa(it.Copies),
	}
}

func titleOf(it *catalog.MediaItem) string {
	if it.Title == nil {
		return ""
	}
	return *it.Title
}

func intPtrStr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
