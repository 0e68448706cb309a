package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
)

// UpsertFile records a file observed during a scan. If a file already
// exists at (root_id, path) its size/mtime/ext/last_seen are refreshed; a
// size or mtime change resets hash_status to pending and clears any
// previously computed signature/hash, since the old fingerprint no longer
// describes the content on disk.
func (c *Catalog) UpsertFile(ctx context.Context, rootID int64, path string, size int64, mtime time.Time, ext string) (*File, error) {
	now := time.Now().UTC()
	var id int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		var existingID int64
		var existingSize int64
		var existingMtime time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT id, size, mtime FROM files WHERE root_id = ? AND path = ?`, rootID, path,
		).Scan(&existingID, &existingSize, &existingMtime)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.ExecContext(ctx,
				`INSERT INTO files (root_id, path, size, mtime, ext, last_seen, hash_status)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rootID, path, size, mtime, ext, now, HashPending)
			if err != nil {
				return apperr.TransientIOf("catalog.UpsertFile", "insert file: %w", err)
			}
			id, err = res.LastInsertId()
			return err

		case err != nil:
			return apperr.TransientIOf("catalog.UpsertFile", "lookup file: %w", err)

		default:
			id = existingID
			changed := existingSize != size || !existingMtime.Equal(mtime)
			if changed {
				_, err = tx.ExecContext(ctx,
					`UPDATE files SET size = ?, mtime = ?, ext = ?, last_seen = ?,
					 quick_sig = NULL, full_hash = NULL, hash_status = ?
					 WHERE id = ?`,
					size, mtime, ext, now, HashPending, id)
			} else {
				_, err = tx.ExecContext(ctx,
					`UPDATE files SET last_seen = ? WHERE id = ?`, now, id)
			}
			if err != nil {
				return apperr.TransientIOf("catalog.UpsertFile", "update file: %w", err)
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return c.GetFile(ctx, id)
}

// MarkMissing clears last_seen for every file under root that is not in
// seenPaths. Called once per scan pass after the walk completes.
func (c *Catalog) MarkMissing(ctx context.Context, rootID int64, seenPaths map[string]struct{}) (int64, error) {
	var affected int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, path FROM files WHERE root_id = ? AND last_seen IS NOT NULL`, rootID)
		if err != nil {
			return apperr.TransientIOf("catalog.MarkMissing", "query files: %w", err)
		}
		var toClear []int64
		for rows.Next() {
			var id int64
			var path string
			if err := rows.Scan(&id, &path); err != nil {
				rows.Close()
				return apperr.TransientIOf("catalog.MarkMissing", "scan file: %w", err)
			}
			if _, ok := seenPaths[path]; !ok {
				toClear = append(toClear, id)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return apperr.TransientIOf("catalog.MarkMissing", "iterate files: %w", err)
		}
		rows.Close()

		for _, id := range toClear {
			if _, err := tx.ExecContext(ctx, `UPDATE files SET last_seen = NULL WHERE id = ?`, id); err != nil {
				return apperr.TransientIOf("catalog.MarkMissing", "clear last_seen: %w", err)
			}
			affected++
		}
		return nil
	})
	return affected, err
}

// GetFileByPath returns the file at (root_id, path), or NotFound.
func (c *Catalog) GetFileByPath(ctx context.Context, rootID int64, path string) (*File, error) {
	row := c.db.QueryRowContext(ctx, fileSelectColumns+` WHERE root_id = ? AND path = ?`, rootID, path)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetFileByPath", "file not found at root %d path %s", rootID, path)
	}
	return f, err
}

// GetFile returns a File snapshot by id.
func (c *Catalog) GetFile(ctx context.Context, id int64) (*File, error) {
	row := c.db.QueryRowContext(ctx, fileSelectColumns+` WHERE id = ?`, id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetFile", "file %d not found", id)
	}
	return f, err
}

// ListFilesByRoot returns every file under a root, in path order.
func (c *Catalog) ListFilesByRoot(ctx context.Context, rootID int64) ([]*File, error) {
	rows, err := c.db.QueryContext(ctx, fileSelectColumns+` WHERE root_id = ? ORDER BY path`, rootID)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListFilesByRoot", "query files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// ListFilesByHashStatus returns every file in the given hash status,
// ordered oldest-last_seen-first so the hasher drains stale scans before
// fresh ones.
func (c *Catalog) ListFilesByHashStatus(ctx context.Context, status HashStatus, limit int) ([]*File, error) {
	rows, err := c.db.QueryContext(ctx,
		fileSelectColumns+` WHERE hash_status = ? ORDER BY last_seen LIMIT ?`, status, limit)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListFilesByHashStatus", "query files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FindByQuickSig returns every present file sharing a quick signature,
// used by the matcher to find duplicate candidates when no full-hash
// match exists.
func (c *Catalog) FindByQuickSig(ctx context.Context, sig string) ([]*File, error) {
	rows, err := c.db.QueryContext(ctx,
		fileSelectColumns+` WHERE quick_sig = ? AND last_seen IS NOT NULL`, sig)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.FindByQuickSig", "query files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FindByFullHash returns every present file sharing a full hash.
func (c *Catalog) FindByFullHash(ctx context.Context, hash string) ([]*File, error) {
	rows, err := c.db.QueryContext(ctx,
		fileSelectColumns+` WHERE full_hash = ? AND last_seen IS NOT NULL`, hash)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.FindByFullHash", "query files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// SetQuickSig records the quick signature and advances hash_status to
// computing; the hasher then records the full hash with SetFullHash.
func (c *Catalog) SetQuickSig(ctx context.Context, id int64, sig string) error {
	return c.updateFileField(ctx, "catalog.SetQuickSig", id,
		`UPDATE files SET quick_sig = ?, hash_status = ? WHERE id = ?`, sig, HashComputing)
}

// SetFullHash records the full hash and marks hashing complete.
func (c *Catalog) SetFullHash(ctx context.Context, id int64, hash string) error {
	return c.updateFileField(ctx, "catalog.SetFullHash", id,
		`UPDATE files SET full_hash = ?, hash_status = ? WHERE id = ?`, hash, HashComplete)
}

// MarkHashComplete advances hash_status to complete without recording a
// full hash.
func (c *Catalog) MarkHashComplete(ctx context.Context, id int64) error {
	return c.updateFileField(ctx, "catalog.MarkHashComplete", id,
		`UPDATE files SET hash_status = ? WHERE id = ?`, HashComplete)
}

// MarkHashError records that fingerprinting failed (e.g. I/O error mid-read).
func (c *Catalog) MarkHashError(ctx context.Context, id int64) error {
	return c.updateFileField(ctx, "catalog.MarkHashError", id,
		`UPDATE files SET hash_status = ? WHERE id = ?`, HashError)
}

// MarkQuarantined flags the file as quarantined without changing its path
// (opsqueue.Quarantine uses QuarantineFile, which also records the new
// path). The matcher's fingerprint lookups do not filter on hash_status,
// so a quarantined file still counts as a match candidate.
func (c *Catalog) MarkQuarantined(ctx context.Context, id int64) error {
	return c.updateFileField(ctx, "catalog.MarkQuarantined", id,
		`UPDATE files SET hash_status = ? WHERE id = ?`, HashQuarantined)
}

// QuarantineFile records the file's new on-disk path after it was moved
// into the quarantine tree, and flags it quarantined in one update.
func (c *Catalog) QuarantineFile(ctx context.Context, id int64, newPath string) error {
	return c.updateFileField(ctx, "catalog.QuarantineFile", id,
		`UPDATE files SET path = ?, hash_status = ? WHERE id = ?`, newPath, HashQuarantined)
}

// RestoreFile records the file's path after it was moved back out of
// quarantine, and resets hash_status to pending so it is re-fingerprinted.
func (c *Catalog) RestoreFile(ctx context.Context, id int64, newPath string) error {
	return c.updateFileField(ctx, "catalog.RestoreFile", id,
		`UPDATE files SET path = ?, hash_status = ? WHERE id = ?`, newPath, HashPending)
}

func (c *Catalog) updateFileField(ctx context.Context, op string, id int64, query string, args ...any) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		allArgs := append(append([]any{}, args...), id)
		res, err := tx.ExecContext(ctx, query, allArgs...)
		if err != nil {
			return apperr.TransientIOf(op, "update file: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf(op, "file %d not found", id)
		}
		return nil
	})
}

const fileSelectColumns = `SELECT id, root_id, path, size, mtime, ext, last_seen, quick_sig, full_hash, hash_status FROM files`

func scanFiles(rows *sql.Rows) ([]*File, error) {
	var out []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var lastSeen sql.NullTime
	var quickSig, fullHash sql.NullString
	if err := row.Scan(&f.ID, &f.RootID, &f.Path, &f.Size, &f.Mtime, &f.Ext,
		&lastSeen, &quickSig, &fullHash, &f.HashStatus); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		f.LastSeen = &t
	}
	if quickSig.Valid {
		f.QuickSig = &quickSig.String
	}
	if fullHash.Valid {
		f.FullHash = &fullHash.String
	}
	return &f, nil
}
