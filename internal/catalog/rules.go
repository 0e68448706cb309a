package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/milestonehq/milestone/internal/apperr"
)

// AddRule creates a destination-policy rule against an existing drive.
func (c *Catalog) AddRule(ctx context.Context, ruleType RuleType, driveID int64, priority int) (*UserRule, error) {
	var id int64
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM drives WHERE id = ?`, driveID).Scan(&exists); err != nil {
			return apperr.TransientIOf("catalog.AddRule", "check drive: %w", err)
		}
		if exists == 0 {
			return apperr.NotFoundf("catalog.AddRule", "drive %d not found", driveID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_rules (rule_type, drive_id, priority) VALUES (?, ?, ?)`,
			ruleType, driveID, priority)
		if err != nil {
			return apperr.TransientIOf("catalog.AddRule", "insert rule: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.GetRule(ctx, id)
}

// GetRule returns a UserRule snapshot by id.
func (c *Catalog) GetRule(ctx context.Context, id int64) (*UserRule, error) {
	row := c.db.QueryRowContext(ctx, ruleSelectColumns+` WHERE id = ?`, id)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("catalog.GetRule", "rule %d not found", id)
	}
	return r, err
}

// ListRules returns every rule, ordered by priority descending then id.
func (c *Catalog) ListRules(ctx context.Context) ([]*UserRule, error) {
	rows, err := c.db.QueryContext(ctx, ruleSelectColumns+` ORDER BY priority DESC, id`)
	if err != nil {
		return nil, apperr.TransientIOf("catalog.ListRules", "query rules: %w", err)
	}
	defer rows.Close()

	var out []*UserRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRule removes a rule.
func (c *Catalog) DeleteRule(ctx context.Context, id int64) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM user_rules WHERE id = ?`, id)
		if err != nil {
			return apperr.TransientIOf("catalog.DeleteRule", "delete rule: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return apperr.NotFoundf("catalog.DeleteRule", "rule %d not found", id)
		}
		return nil
	})
}

const ruleSelectColumns = `SELECT id, rule_type, drive_id, priority FROM user_rules`

func scanRule(row rowScanner) (*UserRule, error) {
	var r UserRule
	if err := row.Scan(&r.ID, &r.RuleType, &r.DriveID, &r.Priority); err != nil {
		return nil, err
	}
	return &r, nil
}
