package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
)

// LogEntry is one audit-trail row: a component recording an action taken
// against a file, e.g. the operations queue quarantining a duplicate or
// restoring one.
type LogEntry struct {
	ID        int64
	Component string
	FileID    *int64
	Action    string
	Detail    string
	CreatedAt time.Time
}

// LogAction appends an audit entry. fileID may be nil for actions that are
// not tied to a single file (e.g. a scan summary).
func (c *Catalog) LogAction(ctx context.Context, component string, fileID *int64, action, detail string) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO operation_log (component, file_id, action, detail) VALUES (?, ?, ?, ?)`,
			component, fileID, action, detail)
		if err != nil {
			return apperr.TransientIOf("catalog.LogAction", "insert log entry: %w", err)
		}
		return nil
	})
}

// FileLog returns the audit trail for one file, newest first.
func (c *Catalog) FileLog(ctx context.Context, fileID int64) ([]*LogEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, component, file_id, action, detail, created_at
		 FROM operation_log WHERE file_id = ? ORDER BY created_at DESC, id DESC`, fileID)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.FileLog", "query log: %w", err)
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

// RecentLog returns the most recent audit entries across all files,
// newest first, for the operations dashboard.
func (c *Catalog) RecentLog(ctx context.Context, limit int) ([]*LogEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, component, file_id, action, detail, created_at
		 FROM operation_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.RecentLog", "query log: %w", err)
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

func scanLogEntries(rows *sql.Rows) ([]*LogEntry, error) {
	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		var fileID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Component, &fileID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if fileID.Valid {
			v := fileID.Int64
			e.FileID = &v
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
