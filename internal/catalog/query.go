package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/milestonehq/milestone/internal/apperr"
)

// FileFilter narrows ListFilesFiltered's result set. Zero values are
// "no filter" for that field.
type FileFilter struct {
	RootID       *int64
	Ext          string
	MinSize      *int64
	MaxSize      *int64
	PathContains string
	Missing      *bool
	Page         int
	PageSize     int
}

// ListFilesFiltered returns the page of files matching filter plus the
// total count across all pages (for building a paginated response).
func (c *Catalog) ListFilesFiltered(ctx context.Context, f FileFilter) ([]*File, int, error) {
	where, args := f.whereClause()

	var total int
	countQuery := `SELECT count(*) FROM files` + where
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.TransientIOf("catalog.ListFilesFiltered", "count files: %w", err)
	}

	page, pageSize := normalizePaging(f.Page, f.PageSize)
	query := fileSelectColumns + where + ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.TransientIOf("catalog.ListFilesFiltered", "query files: %w", err)
	}
	defer rows.Close()

	files, err := scanFiles(rows)
	return files, total, err
}

func (f FileFilter) whereClause() (string, []any) {
	var clauses []string
	var args []any

	if f.RootID != nil {
		clauses = append(clauses, "root_id = ?")
		args = append(args, *f.RootID)
	}
	if f.Ext != "" {
		clauses = append(clauses, "ext = ?")
		args = append(args, f.Ext)
	}
	if f.MinSize != nil {
		clauses = append(clauses, "size >= ?")
		args = append(args, *f.MinSize)
	}
	if f.MaxSize != nil {
		clauses = append(clauses, "size <= ?")
		args = append(args, *f.MaxSize)
	}
	if f.PathContains != "" {
		clauses = append(clauses, "path LIKE ?")
		args = append(args, "%"+f.PathContains+"%")
	}
	if f.Missing != nil {
		if *f.Missing {
			clauses = append(clauses, "last_seen IS NULL")
		} else {
			clauses = append(clauses, "last_seen IS NOT NULL")
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	return page, pageSize
}

// FileStats summarizes the files table for a dashboard-style view.
type FileStats struct {
	TotalFiles   int
	TotalSize    int64
	MissingFiles int
	ByHashStatus map[HashStatus]int
}

// FileStats computes aggregate counts across every tracked file.
func (c *Catalog) FileStats(ctx context.Context) (*FileStats, error) {
	stats := &FileStats{ByHashStatus: make(map[HashStatus]int)}

	row := c.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(size), 0), sum(CASE WHEN last_seen IS NULL THEN 1 ELSE 0 END) FROM files`)
	if err := row.Scan(&stats.TotalFiles, &stats.TotalSize, &stats.MissingFiles); err != nil {
		return nil, apperr.TransientIOf("catalog.FileStats", "aggregate files: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT hash_status, count(*) FROM files GROUP BY hash_status`)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.FileStats", "group by hash_status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status HashStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperr.TransientIOf("catalog.FileStats", "scan hash_status group: %w", err)
		}
		stats.ByHashStatus[status] = n
	}
	return stats, rows.Err()
}

// ItemFilter narrows ListItemsFiltered's result set.
type ItemFilter struct {
	Type      *MediaType
	Status    *ItemStatus
	MinCopies *int
	MaxCopies *int
	Search    string
	Page      int
	PageSize  int
}

// ItemWithCopies pairs a MediaItem with its linked-file count, the shape
// every item listing and the cleanup recommendation feed return.
type ItemWithCopies struct {
	*MediaItem
	Copies int
}

// ListItemsFiltered returns the page of items matching filter plus the
// total count, each annotated with its current copy count.
func (c *Catalog) ListItemsFiltered(ctx context.Context, f ItemFilter) ([]*ItemWithCopies, int, error) {
	var clauses []string
	var args []any

	if f.Type != nil {
		clauses = append(clauses, "mi.type = ?")
		args = append(args, *f.Type)
	}
	if f.Status != nil {
		clauses = append(clauses, "mi.status = ?")
		args = append(args, *f.Status)
	}
	if f.Search != "" {
		clauses = append(clauses, "mi.title LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	having := ""
	var havingArgs []any
	if f.MinCopies != nil {
		having += " copies >= ?"
		havingArgs = append(havingArgs, *f.MinCopies)
	}
	if f.MaxCopies != nil {
		if having != "" {
			having += " AND"
		}
		having += " copies <= ?"
		havingArgs = append(havingArgs, *f.MaxCopies)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	if having != "" {
		having = " HAVING" + having
	}

	base := `FROM media_items mi
		LEFT JOIN media_item_files mif ON mif.item_id = mi.id
		` + where + `
		GROUP BY mi.id` + having

	countRows, err := c.db.QueryContext(ctx, `SELECT count(mif.file_id) AS copies `+base, append(append([]any{}, args...), havingArgs...)...)
	if err != nil {
		return nil, 0, apperr.TransientIOf("catalog.ListItemsFiltered", "count items: %w", err)
	}
	total := 0
	for countRows.Next() {
		total++
	}
	countErr := countRows.Err()
	countRows.Close()
	if countErr != nil {
		return nil, 0, apperr.TransientIOf("catalog.ListItemsFiltered", "count items: %w", countErr)
	}

	page, pageSize := normalizePaging(f.Page, f.PageSize)
	query := `SELECT mi.id, mi.type, mi.title, mi.year, mi.season, mi.episode, mi.status, mi.created_at,
		count(mif.file_id) AS copies ` + base + ` ORDER BY mi.id LIMIT ? OFFSET ?`
	allArgs := append(append(append([]any{}, args...), havingArgs...), pageSize, (page-1)*pageSize)

	rows, err := c.db.QueryContext(ctx, query, allArgs...)
	if err != nil {
		return nil, 0, apperr.TransientIOf("catalog.ListItemsFiltered", "query items: %w", err)
	}
	defer rows.Close()

	var out []*ItemWithCopies
	for rows.Next() {
		it, copies, err := scanItemWithCopies(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, &ItemWithCopies{MediaItem: it, Copies: copies})
	}
	return out, total, rows.Err()
}

func scanItemWithCopies(rows *sql.Rows) (*MediaItem, int, error) {
	var it MediaItem
	var title sql.NullString
	var year, season, episode sql.NullInt64
	var copies int
	if err := rows.Scan(&it.ID, &it.Type, &title, &year, &season, &episode, &it.Status, &it.CreatedAt, &copies); err != nil {
		return nil, 0, apperr.TransientIOf("catalog.ListItemsFiltered", "scan item: %w", err)
	}
	if title.Valid {
		it.Title = &title.String
	}
	if year.Valid {
		v := int(year.Int64)
		it.Year = &v
	}
	if season.Valid {
		v := int(season.Int64)
		it.Season = &v
	}
	if episode.Valid {
		v := int(episode.Int64)
		it.Episode = &v
	}
	return &it, copies, nil
}

// ItemStats summarizes the media_items table.
type ItemStats struct {
	TotalItems      int
	MoviesCount     int
	TVEpisodesCount int
	AtRiskCount     int // items with <= 1 copy
	DuplicateCount  int // items with >= 3 copies
}

// ItemStats computes aggregate counts across every media item.
func (c *Catalog) ItemStats(ctx context.Context) (*ItemStats, error) {
	stats := &ItemStats{}
	row := c.db.QueryRowContext(ctx,
		`SELECT count(*),
			sum(CASE WHEN type = 'movie' THEN 1 ELSE 0 END),
			sum(CASE WHEN type = 'tv_episode' THEN 1 ELSE 0 END)
		 FROM media_items`)
	if err := row.Scan(&stats.TotalItems, &stats.MoviesCount, &stats.TVEpisodesCount); err != nil {
		return nil, apperr.TransientIOf("catalog.ItemStats", "aggregate items: %w", err)
	}

	countByCopies := func(having string) (int, error) {
		var n int
		query := `SELECT count(*) FROM (
			SELECT mi.id, count(mif.file_id) AS copies
			FROM media_items mi
			LEFT JOIN media_item_files mif ON mif.item_id = mi.id
			GROUP BY mi.id
			HAVING ` + having + `)`
		err := c.db.QueryRowContext(ctx, query).Scan(&n)
		return n, err
	}

	atRisk, err := countByCopies("copies <= 1")
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ItemStats", "count at-risk items: %w", err)
	}
	stats.AtRiskCount = atRisk

	dup, err := countByCopies("copies >= 3")
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ItemStats", "count duplicate items: %w", err)
	}
	stats.DuplicateCount = dup

	return stats, nil
}

// CleanupRecommendations lists the items with at least minCopies copies,
// each annotated with its copy count, most-duplicated first (ties by item
// id), for the cleanup-review surface and the duplicates CSV export.
// limit caps the number of items returned; a non-positive limit means 100.
func (c *Catalog) CleanupRecommendations(ctx context.Context, minCopies, limit int) ([]*ItemWithCopies, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT mi.id, mi.type, mi.title, mi.year, mi.season, mi.episode, mi.status, mi.created_at,
			count(mif.file_id) AS copies
		 FROM media_items mi
		 LEFT JOIN media_item_files mif ON mif.item_id = mi.id
		 GROUP BY mi.id
		 HAVING copies >= ?
		 ORDER BY copies DESC, mi.id
		 LIMIT ?`, minCopies, limit)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.CleanupRecommendations", "query items: %w", err)
	}
	defer rows.Close()

	var out []*ItemWithCopies
	for rows.Next() {
		it, copies, err := scanItemWithCopies(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, &ItemWithCopies{MediaItem: it, Copies: copies})
	}
	return out, rows.Err()
}
