package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
)

// RegisterDrive inserts a new Drive. mountPath must be unique.
func (c *Catalog) RegisterDrive(ctx context.Context, mountPath string, volumeSerial, volumeLabel *string) (*Drive, error) {
	var id int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO drives (mount_path, volume_serial, volume_label) VALUES (?, ?, ?)`,
			mountPath, volumeSerial, volumeLabel)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflictf("catalog.RegisterDrive", "drive already registered at %s", mountPath)
			}
			return apperr.TransientIOf("catalog.RegisterDrive", "insert drive: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.GetDrive(ctx, id)
}

// GetDrive returns a Drive snapshot by id.
func (c *Catalog) GetDrive(ctx context.Context, id int64) (*Drive, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, mount_path, volume_serial, volume_label, created_at FROM drives WHERE id = ?`, id)
	d, err := scanDrive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetDrive", "drive %d not found", id)
	}
	return d, err
}

// ListDrives returns every registered drive, ordered by id.
func (c *Catalog) ListDrives(ctx context.Context) ([]*Drive, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, mount_path, volume_serial, volume_label, created_at FROM drives ORDER BY id`)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListDrives", "query drives: %w", err)
	}
	defer rows.Close()

	var out []*Drive
	for rows.Next() {
		d, err := scanDrive(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDrive removes a drive. It refuses (Conflict) when any Root still
// references it, so inventory is never silently orphaned. Callers must
// delete dependent roots first.
func (c *Catalog) DeleteDrive(ctx context.Context, id int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		var rootCount int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM roots WHERE drive_id = ?`, id).Scan(&rootCount); err != nil {
			return apperr.TransientIOf("catalog.DeleteDrive", "count roots: %w", err)
		}
		if rootCount > 0 {
			return apperr.Conflictf("catalog.DeleteDrive", "drive %d still has %d root(s)", id, rootCount)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM drives WHERE id = ?`, id)
		if err != nil {
			return apperr.TransientIOf("catalog.DeleteDrive", "delete drive: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.DeleteDrive", "drive %d not found", id)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrive(row rowScanner) (*Drive, error) {
	var d Drive
	var serial, label sql.NullString
	var createdAt time.Time
	if err := row.Scan(&d.ID, &d.MountPath, &serial, &label, &createdAt); err != nil {
		return nil, err
	}
	if serial.Valid {
		d.VolumeSerial = &serial.String
	}
	if label.Valid {
		d.VolumeLabel = &label.String
	}
	d.CreatedAt = createdAt
	return &d, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
