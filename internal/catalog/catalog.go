// Package catalog is the single relational store owning every inventory
// entity: drives, roots, files, media items, rules, and operations. It is
// the only shared mutable state in the process: writers serialize through
// SQLite's single-writer semantics, readers see committed snapshots, and
// every multi-statement transition runs inside one transaction via WithTx.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Catalog is the embedded relational store handle.
type Catalog struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens or creates the catalog at dbPath, creating its parent
// directory if needed.
func Open(dbPath string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	return open(dbPath)
}

// OpenInMemory opens an in-memory catalog, primarily for tests.
func OpenInMemory() (*Catalog, error) {
	return open(":memory:")
}

func open(path string) (*Catalog, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	} else {
		dsn = "file::memory:?cache=shared&_pragma=foreign_keys(ON)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	c := &Catalog{db: db, path: path}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error { return c.db.Close() }

// Path returns the filesystem path the catalog was opened at.
func (c *Catalog) Path() string { return c.path }

// DB exposes the underlying *sql.DB for callers (e.g. tests) that need raw
// access. Package-internal code should prefer the typed helpers below.
func (c *Catalog) DB() *sql.DB { return c.db }

// WithTx runs fn inside one transaction. Writers serialize through a single
// mutex so that multi-statement transitions (linking a file to an item,
// merging items, quarantine) never interleave with each other; readers are
// not blocked since SQLite readers see the last committed snapshot.
func (c *Catalog) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
