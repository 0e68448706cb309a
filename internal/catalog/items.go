package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
)

// CreateItem creates a new MediaItem with no linked files yet.
func (c *Catalog) CreateItem(ctx context.Context, typ MediaType, title *string, year, season, episode *int) (*MediaItem, error) {
	var id int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO media_items (type, title, year, season, episode, status)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			typ, title, year, season, episode, StatusAuto)
		if err != nil {
			return apperr.TransientIOf("catalog.CreateItem", "insert item: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.GetItem(ctx, id)
}

// GetItem returns a MediaItem snapshot by id.
func (c *Catalog) GetItem(ctx context.Context, id int64) (*MediaItem, error) {
	row := c.db.QueryRowContext(ctx, itemSelectColumns+` WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetItem", "item %d not found", id)
	}
	return it, err
}

// ListItems returns media items, optionally filtered to one type.
func (c *Catalog) ListItems(ctx context.Context, typ *MediaType) ([]*MediaItem, error) {
	query := itemSelectColumns
	var args []any
	if typ != nil {
		query += ` WHERE type = ?`
		args = append(args, *typ)
	}
	query += ` ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListItems", "query items: %w", err)
	}
	defer rows.Close()

	var out []*MediaItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SetItemStatus updates a MediaItem's confidence status.
func (c *Catalog) SetItemStatus(ctx context.Context, id int64, status ItemStatus) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE media_items SET status = ? WHERE id = ?`, status, id)
		if err != nil {
			return apperr.TransientIOf("catalog.SetItemStatus", "update item: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.SetItemStatus", "item %d not found", id)
		}
		return nil
	})
}

// DeleteItem removes a MediaItem. Linked files are unlinked (ON DELETE
// CASCADE on media_item_files), not deleted themselves.
func (c *Catalog) DeleteItem(ctx context.Context, id int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM media_items WHERE id = ?`, id)
		if err != nil {
			return apperr.TransientIOf("catalog.DeleteItem", "delete item: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.DeleteItem", "item %d not found", id)
		}
		return nil
	})
}

// LinkFile attaches file to item. A file may be linked to at most one item
// at a time: the UNIQUE(file_id) constraint on media_item_files enforces
// this, surfaced here as Conflict rather than a raw driver error.
func (c *Catalog) LinkFile(ctx context.Context, itemID, fileID int64, isPrimary bool) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO media_item_files (item_id, file_id, is_primary) VALUES (?, ?, ?)`,
			itemID, fileID, isPrimary)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflictf("catalog.LinkFile", "file %d already linked to an item", fileID)
			}
			return apperr.TransientIOf("catalog.LinkFile", "link file: %w", err)
		}
		return nil
	})
}

// UnlinkFile detaches file from whichever item it is linked to.
func (c *Catalog) UnlinkFile(ctx context.Context, fileID int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM media_item_files WHERE file_id = ?`, fileID)
		if err != nil {
			return apperr.TransientIOf("catalog.UnlinkFile", "unlink file: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.UnlinkFile", "file %d is not linked to any item", fileID)
		}
		return nil
	})
}

// RelinkFile moves fileID's link from its current item to newItemID,
// atomically, used by split/merge in the matcher.
func (c *Catalog) RelinkFile(ctx context.Context, fileID, newItemID int64, isPrimary bool) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE media_item_files SET item_id = ?, is_primary = ? WHERE file_id = ?`,
			newItemID, isPrimary, fileID)
		if err != nil {
			return apperr.TransientIOf("catalog.RelinkFile", "relink file: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.RelinkFile", "file %d is not linked to any item", fileID)
		}
		return nil
	})
}

// ItemFiles returns every file linked to item, primary first.
func (c *Catalog) ItemFiles(ctx context.Context, itemID int64) ([]*File, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT f.id, f.root_id, f.path, f.size, f.mtime, f.ext, f.last_seen, f.quick_sig, f.full_hash, f.hash_status
		 FROM files f
		 JOIN media_item_files mif ON mif.file_id = f.id
		 WHERE mif.item_id = ?
		 ORDER BY mif.is_primary DESC, f.id`, itemID)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ItemFiles", "query item files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// ItemForFile returns the MediaItem fileID is linked to, if any.
func (c *Catalog) ItemForFile(ctx context.Context, fileID int64) (*MediaItem, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT mi.id, mi.type, mi.title, mi.year, mi.season, mi.episode, mi.status, mi.created_at
		 FROM media_items mi
		 JOIN media_item_files mif ON mif.item_id = mi.id
		 WHERE mif.file_id = ?`, fileID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.ItemForFile", "file %d is not linked to any item", fileID)
	}
	return it, err
}

const itemSelectColumns = `SELECT id, type, title, year, season, episode, status, created_at FROM media_items`

func scanItem(row rowScanner) (*MediaItem, error) {
	var it MediaItem
	var title sql.NullString
	var year, season, episode sql.NullInt64
	var createdAt time.Time
	if err := row.Scan(&it.ID, &it.Type, &title, &year, &season, &episode, &it.Status, &createdAt); err != nil {
		return nil, err
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
	it.CreatedAt = createdAt
	return &it, nil
}
