package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
)

// AddRoot creates a Root under an existing drive. The parent drive must
// already exist.
func (c *Catalog) AddRoot(ctx context.Context, driveID int64, path string) (*Root, error) {
	var id int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM drives WHERE id = ?`, driveID).Scan(&exists); err != nil {
			return apperr.TransientIOf("catalog.AddRoot", "check drive: %w", err)
		}
		if exists == 0 {
			return apperr.NotFoundf("catalog.AddRoot", "drive %d not found", driveID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO roots (drive_id, path) VALUES (?, ?)`, driveID, path)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflictf("catalog.AddRoot", "root %s already indexed on drive %d", path, driveID)
			}
			return apperr.TransientIOf("catalog.AddRoot", "insert root: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.GetRoot(ctx, id)
}

// GetRoot returns a Root snapshot by id.
func (c *Catalog) GetRoot(ctx context.Context, id int64) (*Root, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, drive_id, path, excluded, created_at FROM roots WHERE id = ?`, id)
	r, err := scanRoot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetRoot", "root %d not found", id)
	}
	return r, err
}

// ListRoots returns roots, optionally filtered to one drive.
func (c *Catalog) ListRoots(ctx context.Context, driveID *int64) ([]*Root, error) {
	query := `SELECT id, drive_id, path, excluded, created_at FROM roots`
	var args []any
	if driveID != nil {
		query += ` WHERE drive_id = ?`
		args = append(args, *driveID)
	}
	query += ` ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListRoots", "query roots: %w", err)
	}
	defer rows.Close()

	var out []*Root
	for rows.Next() {
		r, err := scanRoot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetRootExcluded toggles whether the scanner skips this root.
func (c *Catalog) SetRootExcluded(ctx context.Context, id int64, excluded bool) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE roots SET excluded = ? WHERE id = ?`, excluded, id)
		if err != nil {
			return apperr.TransientIOf("catalog.SetRootExcluded", "update root: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.SetRootExcluded", "root %d not found", id)
		}
		return nil
	})
}

// DeleteRoot removes a root and (by ON DELETE CASCADE) every file under it.
func (c *Catalog) DeleteRoot(ctx context.Context, id int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM roots WHERE id = ?`, id)
		if err != nil {
			return apperr.TransientIOf("catalog.DeleteRoot", "delete root: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.DeleteRoot", "root %d not found", id)
		}
		return nil
	})
}

func scanRoot(row rowScanner) (*Root, error) {
	var r Root
	var createdAt time.Time
	if err := row.Scan(&r.ID, &r.DriveID, &r.Path, &r.Excluded, &createdAt); err != nil {
		return nil, err
	}
	r.CreatedAt = createdAt
	return &r, nil
}
