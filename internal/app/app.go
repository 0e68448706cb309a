// Package app wires the catalog and its workers into one long-lived
// process: opening the store once and constructing the scanner, hasher,
// matcher, operations queue, and filesystem watcher around it, so the API
// server and CLI share a single set of handles instead of each
// reconstructing its own.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/config"
	"github.com/milestonehq/milestone/internal/fswatch"
	"github.com/milestonehq/milestone/internal/hasher"
	"github.com/milestonehq/milestone/internal/logging"
	"github.com/milestonehq/milestone/internal/matcher"
	"github.com/milestonehq/milestone/internal/opsqueue"
	"github.com/milestonehq/milestone/internal/scanner"
)

// App holds every long-lived worker, constructed once per process and
// shared by the API server and any CLI command that needs live state.
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Catalog *catalog.Catalog

	Scanner *scanner.Scanner
	Hasher  *hasher.Queue
	Matcher *matcher.Matcher
	Ops     *opsqueue.Queue
	Watch   *fswatch.Watcher
}

// New opens the catalog at cfg's configured path and constructs every
// worker around it except the filesystem watcher: Watch stays nil until
// EnableWatch constructs and starts it once roots have been registered.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	cat, err := catalog.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: cat,
		Scanner: scanner.New(cat, logger, cfg.LogsDir()),
		Hasher:  hasher.New(cat, logger),
		Matcher: matcher.New(cat),
		Ops:     opsqueue.New(cat, logger),
	}
	a.Ops.SetConcurrency(cfg.Queue.Concurrency)

	return a, nil
}

// EnableWatch starts a live filesystem watch over every registered,
// non-excluded root, triggering a fast scan of a drive shortly after
// activity settles on one of its roots. trigger is normally a.Scanner.Start
// adapted to fswatch.TriggerFunc's signature.
func (a *App) EnableWatch(trigger fswatch.TriggerFunc, debounceSeconds int) error {
	w, err := fswatch.New(a.Logger, trigger, time.Duration(debounceSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	ctx := context.Background()
	roots, err := a.Catalog.ListRoots(ctx, nil)
	if err != nil {
		return fmt.Errorf("list roots: %w", err)
	}
	for _, r := range roots {
		if r.Excluded {
			continue
		}
		if err := w.AddRoot(r.Path, r.DriveID); err != nil {
			return fmt.Errorf("watch root %s: %w", r.Path, err)
		}
	}

	go w.Run()
	a.Watch = w
	return nil
}

// Close stops the background workers and closes the catalog. Safe to call
// once during process shutdown.
func (a *App) Close() error {
	if a.Watch != nil {
		a.Watch.Close()
	}
	a.Scanner.Cancel()
	a.Hasher.Stop()
	a.Ops.Stop()
	return a.Catalog.Close()
}
