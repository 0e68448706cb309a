// Package scanner walks registered roots and reconciles what it finds on
// disk against the catalog: new files are inserted, changed files are
// updated, and files no longer present are marked missing.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/logging"
	"github.com/milestonehq/milestone/internal/metrics"
)

// Scanner runs the single process-wide scan, walking each non-excluded
// root with a filepath.Walk-with-context-cancellation idiom; its
// mutex-guarded state machine follows the same shape as internal/hasher's
// Queue.
type Scanner struct {
	cat     *catalog.Catalog
	logger  *logging.Logger
	logsDir string

	mu     sync.Mutex
	state  State
	status Status
	pause  chan struct{}
	cancel context.CancelFunc
}

// New constructs an idle Scanner. logsDir is the well-known directory
// each scan's structured/human log pair is written under.
func New(cat *catalog.Catalog, logger *logging.Logger, logsDir string) *Scanner {
	return &Scanner{cat: cat, logger: logger, logsDir: logsDir, state: StateIdle}
}

// Status returns a snapshot of the current or most recent scan.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start begins a scan of driveID (or every drive when nil) at the given
// throttle. Only one scan may run at a time per process; Start rejects a
// second call while running or paused.
func (s *Scanner) Start(driveID *int64, throttle Throttle) bool {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StatePaused {
		s.mu.Unlock()
		return false
	}
	s.state = StateRunning
	s.status = Status{State: StateRunning}
	s.pause = make(chan struct{})
	s.mu.Unlock()
	metrics.ScanInProgress.Set(1)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.run(ctx, driveID, throttle)
	return true
}

// Pause requests the walk suspend between files/roots. Cooperative: the
// in-flight file and root finalization already committed are unaffected.
func (s *Scanner) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.state = StatePaused
	s.status.State = StatePaused
	return true
}

// Resume wakes a paused scan.
func (s *Scanner) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return false
	}
	s.state = StateRunning
	s.status.State = StateRunning
	close(s.pause)
	s.pause = make(chan struct{})
	return true
}

// Cancel requests the walk stop. The walk returns without marking
// missing files for the root currently in progress; files of that root
// reconciled before the cancel keep their updated catalog rows.
func (s *Scanner) Cancel() bool {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StatePaused {
		s.mu.Unlock()
		return false
	}
	cancel := s.cancel
	wasPaused := s.state == StatePaused
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if wasPaused {
		s.mu.Lock()
		if s.pause != nil {
			close(s.pause)
			s.pause = nil
		}
		s.mu.Unlock()
	}
	return true
}

func (s *Scanner) run(ctx context.Context, driveID *int64, throttle Throttle) {
	startedAt := time.Now()
	driveLabel := "all"
	if driveID != nil {
		driveLabel = strconv.FormatInt(*driveID, 10)
	}
	defer func() {
		metrics.ScanInProgress.Set(0)
		metrics.ScanDuration.WithLabelValues(driveLabel).Observe(time.Since(startedAt).Seconds())
	}()

	elog, err := newEventLog(s.logsDir, startedAt)
	if err != nil {
		s.logger.Error("scanner", "failed to open scan log", err)
		elog = nil
	}
	if elog != nil {
		defer elog.close()
	}

	emit := func(event string, data map[string]any) {
		if elog != nil {
			elog.emit(event, data)
		}
	}
	emit("scan_started", map[string]any{"drive_id": driveID, "throttle": string(throttle)})
	s.logger.Info("scanner", "scan starting", logging.F("drive_id", driveID), logging.F("throttle", string(throttle)))

	roots, err := s.listTargetRoots(ctx, driveID)
	if err != nil {
		s.finish(StateError, err.Error())
		emit("scan_error", map[string]any{"error": err.Error()})
		return
	}

	for _, root := range roots {
		emit("scanning_root", map[string]any{"root_id": root.ID, "path": root.Path})
		s.mu.Lock()
		s.status.CurrentRoot = root.Path
		s.mu.Unlock()

		cancelled := s.scanRoot(ctx, root, throttle, emit)
		if cancelled {
			s.finish(StateCancelled, "")
			emit("scan_cancelled", map[string]any{})
			s.logger.Info("scanner", "scan cancelled")
			return
		}
		emit("root_complete", map[string]any{"root_id": root.ID})
	}

	s.finish(StateCompleted, "")
	emit("scan_complete", map[string]any{
		"duration_ms": time.Since(startedAt).Milliseconds(),
	})
	s.logger.Info("scanner", "scan complete", logging.F("duration_ms", time.Since(startedAt).Milliseconds()))
}

func (s *Scanner) listTargetRoots(ctx context.Context, driveID *int64) ([]*catalog.Root, error) {
	roots, err := s.cat.ListRoots(ctx, driveID)
	if err != nil {
		return nil, err
	}
	var out []*catalog.Root
	for _, r := range roots {
		if !r.Excluded {
			out = append(out, r)
		}
	}
	return out, nil
}

// scanRoot walks one root, returns true if the walk was cancelled before
// finishing.
func (s *Scanner) scanRoot(ctx context.Context, root *catalog.Root, throttle Throttle, emit func(string, map[string]any)) (cancelled bool) {
	scanTime := time.Now().UTC()
	seen := make(map[string]struct{})
	delay := time.Duration(throttleDelaysMS[throttle]) * time.Millisecond

	err := filepath.Walk(root.Path, func(absPath string, info os.FileInfo, walkErr error) error {
		if s.checkPauseAndCancel(ctx) {
			return errScanCancelled
		}

		if walkErr != nil {
			emit("file_error", map[string]any{"path": absPath, "error": walkErr.Error()})
			s.bumpCounter(func(st *Status) { st.FilesErrored++ })
			return nil
		}
		if info.IsDir() {
			if filepath.Base(absPath) == quarantineDirName {
				return filepath.SkipDir
			}
			return nil
		}
		relPath, relErr := filepath.Rel(root.Path, absPath)
		if relErr != nil {
			relPath = absPath
		}
		seen[relPath] = struct{}{}

		s.mu.Lock()
		s.status.CurrentFile = relPath
		s.mu.Unlock()

		s.reconcileFile(ctx, root.ID, relPath, info, emit)

		if delay > 0 {
			time.Sleep(delay)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, errScanCancelled) {
			return true
		}
		emit("file_error", map[string]any{"path": root.Path, "error": err.Error()})
	}

	if s.checkPauseAndCancel(ctx) {
		return true
	}

	missing, err := s.cat.MarkMissing(ctx, root.ID, seen)
	if err != nil {
		emit("file_error", map[string]any{"path": root.Path, "error": err.Error()})
		return false
	}
	s.bumpCounter(func(st *Status) { st.FilesMissing += int(missing) })
	_ = scanTime
	return false
}

var errScanCancelled = fmt.Errorf("scan cancelled")

// quarantineDirName is skipped during a walk: files moved here by
// opsqueue's quarantine action must not be re-discovered as new files.
const quarantineDirName = ".quarantine"

func (s *Scanner) reconcileFile(ctx context.Context, rootID int64, relPath string, info os.FileInfo, emit func(string, map[string]any)) {
	existing, err := s.cat.GetFileByPath(ctx, rootID, relPath)
	isNew := err != nil && apperr.CategoryOf(err) == apperr.NotFound
	if err != nil && !isNew {
		emit("file_error", map[string]any{"path": relPath, "error": err.Error()})
		s.bumpCounter(func(st *Status) { st.FilesErrored++ })
		return
	}

	changed := isNew || existing.Size != info.Size() || !existing.Mtime.Equal(info.ModTime())

	if _, err := s.cat.UpsertFile(ctx, rootID, relPath, info.Size(), info.ModTime(), filepath.Ext(relPath)); err != nil {
		emit("file_error", map[string]any{"path": relPath, "error": err.Error()})
		s.bumpCounter(func(st *Status) { st.FilesErrored++ })
		return
	}

	switch {
	case isNew:
		s.bumpCounter(func(st *Status) { st.FilesNew++ })
		metrics.ScanFilesTotal.WithLabelValues("new").Inc()
	case changed:
		s.bumpCounter(func(st *Status) { st.FilesUpdated++ })
		metrics.ScanFilesTotal.WithLabelValues("updated").Inc()
	default:
		s.bumpCounter(func(st *Status) { st.FilesUnchanged++ })
		metrics.ScanFilesTotal.WithLabelValues("unchanged").Inc()
	}
}

// checkPauseAndCancel blocks while paused and reports true if cancellation
// was observed, either while paused or otherwise.
func (s *Scanner) checkPauseAndCancel(ctx context.Context) bool {
	s.mu.Lock()
	pauseCh := s.pause
	isPaused := s.state == StatePaused
	s.mu.Unlock()

	if isPaused && pauseCh != nil {
		select {
		case <-pauseCh:
		case <-ctx.Done():
			return true
		}
	}

	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Scanner) bumpCounter(fn func(*Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}

func (s *Scanner) finish(state State, errMsg string) {
	s.mu.Lock()
	s.state = state
	s.status.State = state
	s.status.Error = errMsg
	s.mu.Unlock()
}
