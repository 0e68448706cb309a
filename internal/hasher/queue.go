package hasher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/logging"
	"github.com/milestonehq/milestone/internal/metrics"
)

// State is the lifecycle state of the hashing queue's singleton worker.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateStopped  State = "stopped"
)

// Status is a point-in-time snapshot of the queue, safe to read without
// blocking on the worker.
type Status struct {
	State          State
	FilesTotal     int
	FilesProcessed int
	CurrentFile    *int64
	QueueSize      int
}

// Queue is the process-wide FIFO of file ids waiting to be fingerprinted,
// drained by a single background worker: a mutex-guarded state struct, a
// single-shot supervisor goroutine, and cooperative stop via context
// cancellation.
type Queue struct {
	cat    *catalog.Catalog
	logger *logging.Logger

	mu        sync.Mutex
	state     State
	pending   []int64
	total     int
	processed int
	current   *int64

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an idle Queue.
func New(cat *catalog.Catalog, logger *logging.Logger) *Queue {
	return &Queue{cat: cat, logger: logger, state: StateIdle}
}

// EnqueuePending loads every file in a hashable state (pending or error,
// so a prior failure gets retried) into the in-memory FIFO.
func (q *Queue) EnqueuePending(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := q.cat.ListFilesByHashStatus(ctx, catalog.HashPending, 1<<20)
	if err != nil {
		return 0, err
	}
	errored, err := q.cat.ListFilesByHashStatus(ctx, catalog.HashError, 1<<20)
	if err != nil {
		return 0, err
	}

	var ids []int64
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	for _, f := range errored {
		ids = append(ids, f.ID)
	}

	q.pending = append(q.pending, ids...)
	return len(ids), nil
}

// Start begins draining the queue on a background goroutine. If ids is
// non-empty it replaces the current FIFO contents; otherwise the queue
// already populated via EnqueuePending is drained. Returns false if a run
// is already active, matching the single-worker contract.
func (q *Queue) Start(ids []int64) bool {
	q.mu.Lock()
	if q.state == StateRunning {
		q.mu.Unlock()
		return false
	}
	if len(ids) > 0 {
		q.pending = append([]int64{}, ids...)
	}
	q.total = len(q.pending)
	q.processed = 0
	q.state = StateRunning
	q.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.done = make(chan struct{})

	go q.run(ctx)
	return true
}

// Stop requests a cooperative stop. The in-flight file completes; the
// remaining queue is preserved, not cleared.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status returns a snapshot of the queue's progress.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{
		State:          q.state,
		FilesTotal:     q.total,
		FilesProcessed: q.processed,
		CurrentFile:    q.current,
		QueueSize:      len(q.pending),
	}
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)

	q.logger.Info("hasher", "queue starting", logging.F("files", q.total))

	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.state = StateStopped
			q.current = nil
			q.mu.Unlock()
			q.logger.Info("hasher", "queue stopped")
			return
		default:
		}

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.state = StateComplete
			q.current = nil
			q.mu.Unlock()
			q.logger.Info("hasher", "queue complete", logging.F("processed", q.processed))
			return
		}
		id := q.pending[0]
		q.pending = q.pending[1:]
		q.current = &id
		queueSize := len(q.pending)
		q.mu.Unlock()
		metrics.HashQueueSize.Set(float64(queueSize))

		q.hashOne(ctx, id)

		q.mu.Lock()
		q.processed++
		q.mu.Unlock()
	}
}

// hashOne fingerprints a single file and records the quick signature and
// then the full hash as two separate catalog updates (one transaction
// each, not one for the file), off the process's I/O-reactive path so
// scanning and API traffic are never blocked on hashing.
func (q *Queue) hashOne(ctx context.Context, fileID int64) {
	started := time.Now()
	defer func() { metrics.HashDuration.Observe(time.Since(started).Seconds()) }()

	f, err := q.cat.GetFile(ctx, fileID)
	if err != nil {
		q.logger.Warn("hasher", "file vanished before hashing", logging.F("file_id", fileID))
		return
	}
	if f.Missing() {
		return
	}
	root, err := q.cat.GetRoot(ctx, f.RootID)
	if err != nil {
		q.logger.Warn("hasher", "root lookup failed", logging.F("file_id", fileID), logging.F("error", err.Error()))
		return
	}
	absPath := filepath.Join(root.Path, f.Path)

	sig, err := QuickSignature(absPath, f.Size)
	if err != nil {
		q.logger.Warn("hasher", "quick signature failed", logging.F("path", absPath), logging.F("error", err.Error()))
		metrics.HashErrorsTotal.Inc()
		if err := q.cat.MarkHashError(ctx, fileID); err != nil {
			q.logger.Error("hasher", "failed to record hash error", err, logging.F("file_id", fileID))
		}
		return
	}
	if err := q.cat.SetQuickSig(ctx, fileID, sig); err != nil {
		q.logger.Error("hasher", "failed to record quick signature", err, logging.F("file_id", fileID))
		return
	}

	full, err := FullHash(absPath)
	if err != nil {
		q.logger.Warn("hasher", "full hash failed", logging.F("path", absPath), logging.F("error", err.Error()))
		metrics.HashErrorsTotal.Inc()
		if err := q.cat.MarkHashError(ctx, fileID); err != nil {
			q.logger.Error("hasher", "failed to record hash error", err, logging.F("file_id", fileID))
		}
		return
	}
	if err := q.cat.SetFullHash(ctx, fileID, full); err != nil {
		q.logger.Error("hasher", "failed to record full hash", err, logging.F("file_id", fileID))
	}
}
