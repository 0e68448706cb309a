// Package fswatch supplements on-demand scanning with a live filesystem
// watch: changes under a non-excluded root are debounced into a request
// to run a fast scan of that root's drive. It is purely additive — the
// scanner's explicit Start always works whether or not a Watcher is
// running.
package fswatch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/milestonehq/milestone/internal/logging"
)

// TriggerFunc starts a scan of driveID at the fast throttle. Returns false
// if a scan was already running, matching Scanner.Start's contract.
type TriggerFunc func(driveID int64) bool

// Watcher recursively watches a set of roots and calls Trigger after a
// quiet period following the last observed change, coalescing bursts of
// events (extraction, copy, rename) into a single scan request per drive.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *logging.Logger
	trigger  TriggerFunc
	debounce time.Duration

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	rootDrv map[string]int64 // watched root path -> drive id
}

// New constructs a Watcher. debounce is how long to wait after the last
// event on a drive before firing Trigger.
func New(logger *logging.Logger, trigger TriggerFunc, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:       fs,
		logger:   logger,
		trigger:  trigger,
		debounce: debounce,
		timers:   make(map[int64]*time.Timer),
		rootDrv:  make(map[string]int64),
	}, nil
}

// AddRoot recursively watches root's directory tree, attributing any
// change under it to driveID.
func (w *Watcher) AddRoot(root string, driveID int64) error {
	w.mu.Lock()
	w.rootDrv[root] = driveID
	w.mu.Unlock()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// Run processes filesystem events until Close is called. Intended to run
// on its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fswatch", "watcher error", logging.F("error", err.Error()))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				w.fs.Add(event.Name)
			}
			return
		}
	}

	driveID, ok := w.driveFor(event.Name)
	if !ok {
		return
	}
	w.scheduleTrigger(driveID)
}

func (w *Watcher) driveFor(path string) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var best int64
	var bestLen int
	var found bool
	for root, driveID := range w.rootDrv {
		if strings.HasPrefix(path, root) && len(root) > bestLen {
			best, bestLen, found = driveID, len(root), true
		}
	}
	return best, found
}

func (w *Watcher) scheduleTrigger(driveID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[driveID]; ok {
		t.Stop()
	}
	w.timers[driveID] = time.AfterFunc(w.debounce, func() {
		w.logger.Info("fswatch", "triggering scan", logging.F("drive_id", driveID))
		w.trigger(driveID)
	})
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}
