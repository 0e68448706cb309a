package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
)

// EnqueueOperation creates a pending copy operation for sourceFileID onto
// destDriveID at destPath.
func (c *Catalog) EnqueueOperation(ctx context.Context, sourceFileID, destDriveID int64, destPath string, totalSize int64, verifyHash bool) (*Operation, error) {
	var id int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO operations (type, status, source_file_id, dest_drive_id, dest_path, total_size, verify_hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			OperationCopy, OpPending, sourceFileID, destDriveID, destPath, totalSize, verifyHash)
		if err != nil {
			return apperr.TransientIOf("catalog.EnqueueOperation", "insert operation: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.GetOperation(ctx, id)
}

// GetOperation returns an Operation snapshot by id.
func (c *Catalog) GetOperation(ctx context.Context, id int64) (*Operation, error) {
	row := c.db.QueryRowContext(ctx, operationSelectColumns+` WHERE id = ?`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetOperation", "operation %d not found", id)
	}
	return op, err
}

// ListOperations returns operations, optionally filtered to one status,
// oldest first.
func (c *Catalog) ListOperations(ctx context.Context, status *OperationStatus) ([]*Operation, error) {
	query := operationSelectColumns
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at, id`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListOperations", "query operations: %w", err)
	}
	defer rows.Close()

	var out []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// NextPending returns the oldest pending operation, or nil if none, for
// the queue worker to dispatch.
func (c *Catalog) NextPending(ctx context.Context) (*Operation, error) {
	row := c.db.QueryRowContext(ctx,
		operationSelectColumns+` WHERE status = ? ORDER BY created_at, id LIMIT 1`, OpPending)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return op, err
}

// StartOperation transitions pending -> running and stamps started_at.
func (c *Catalog) StartOperation(ctx context.Context, id int64) error {
	return c.transitionOperation(ctx, "catalog.StartOperation", id,
		`UPDATE operations SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		OpRunning, time.Now().UTC(), id, OpPending)
}

// PauseOperation transitions running -> paused.
func (c *Catalog) PauseOperation(ctx context.Context, id int64) error {
	return c.transitionOperation(ctx, "catalog.PauseOperation", id,
		`UPDATE operations SET status = ? WHERE id = ? AND status = ?`,
		OpPaused, id, OpRunning)
}

// ResumeOperation transitions paused -> pending so the queue picks it up
// again in order.
func (c *Catalog) ResumeOperation(ctx context.Context, id int64) error {
	return c.transitionOperation(ctx, "catalog.ResumeOperation", id,
		`UPDATE operations SET status = ? WHERE id = ? AND status = ?`,
		OpPending, id, OpPaused)
}

// CancelOperation transitions pending, running, or paused -> cancelled.
// Terminal operations cannot be cancelled.
func (c *Catalog) CancelOperation(ctx context.Context, id int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE operations SET status = ?, completed_at = ?
			 WHERE id = ? AND status IN (?, ?, ?)`,
			OpCancelled, time.Now().UTC(), id, OpPending, OpRunning, OpPaused)
		if err != nil {
			return apperr.TransientIOf("catalog.CancelOperation", "update operation: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return c.operationConflictOrNotFound(ctx, tx, "catalog.CancelOperation", id)
		}
		return nil
	})
}

// UpdateProgress records bytes copied so far for a running operation.
func (c *Catalog) UpdateProgress(ctx context.Context, id int64, progress int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE operations SET progress = ? WHERE id = ?`, progress, id)
		if err != nil {
			return apperr.TransientIOf("catalog.UpdateProgress", "update operation: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.UpdateProgress", "operation %d not found", id)
		}
		return nil
	})
}

// CompleteOperation marks a running operation completed.
func (c *Catalog) CompleteOperation(ctx context.Context, id int64) error {
	return c.transitionOperation(ctx, "catalog.CompleteOperation", id,
		`UPDATE operations SET status = ?, progress = total_size, completed_at = ? WHERE id = ? AND status = ?`,
		OpCompleted, time.Now().UTC(), id, OpRunning)
}

// FailOperation marks a running operation failed with the given error
// message.
func (c *Catalog) FailOperation(ctx context.Context, id int64, errMsg string) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE operations SET status = ?, error = ?, completed_at = ? WHERE id = ? AND status = ?`,
			OpFailed, errMsg, time.Now().UTC(), id, OpRunning)
		if err != nil {
			return apperr.TransientIOf("catalog.FailOperation", "update operation: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return c.operationConflictOrNotFound(ctx, tx, "catalog.FailOperation", id)
		}
		return nil
	})
}

func (c *Catalog) transitionOperation(ctx context.Context, op string, id int64, query string, args ...any) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return apperr.TransientIOf(op, "update operation: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return c.operationConflictOrNotFound(ctx, tx, op, id)
		}
		return nil
	})
}

// operationConflictOrNotFound distinguishes "operation does not exist"
// from "operation exists but is not in the expected state" for a zero-row
// transition update, so callers get NotFound vs Conflict correctly.
func (c *Catalog) operationConflictOrNotFound(ctx context.Context, tx *sql.Tx, op string, id int64) error {
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations WHERE id = ?`, id).Scan(&exists); err != nil {
		return apperr.TransientIOf(op, "check operation: %w", err)
	}
	if exists == 0 {
		return apperr.NotFoundf(op, "operation %d not found", id)
	}
	return apperr.Conflictf(op, "operation %d is not in a state that allows this transition", id)
}

const operationSelectColumns = `SELECT id, type, status, source_file_id, dest_drive_id, dest_path, total_size, verify_hash, progress, error, created_at, started_at, completed_at FROM operations`

func scanOperation(row rowScanner) (*Operation, error) {
	var op Operation
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&op.ID, &op.Type, &op.Status, &op.SourceFileID, &op.DestDriveID, &op.DestPath,
		&op.TotalSize, &op.VerifyHash, &op.Progress, &errMsg, &op.CreatedAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		op.Error = &errMsg.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		op.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		op.CompletedAt = &t
	}
	return &op, nil
}
