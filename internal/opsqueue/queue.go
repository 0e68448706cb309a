// Package opsqueue is the long-lived cooperative scheduler that drains
// pending copy operations from the catalog with bounded concurrency, plus
// the quarantine/restore actions that move a file aside without deleting
// it.
package opsqueue

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/milestonehq/milestone/internal/catalog"
	"github.com/milestonehq/milestone/internal/copier"
	"github.com/milestonehq/milestone/internal/logging"
	"github.com/milestonehq/milestone/internal/metrics"
)

// Queue is the process-wide operations supervisor: one polling loop that
// dispatches up to Concurrency copy tasks at a time.
type Queue struct {
	cat    *catalog.Catalog
	logger *logging.Logger

	mu          sync.Mutex
	running     bool
	paused      bool
	concurrency int
	active      map[int64]struct{}
	stop        chan struct{}
	wg          sync.WaitGroup
}

// New constructs an idle Queue with the default concurrency of 2.
func New(cat *catalog.Catalog, logger *logging.Logger) *Queue {
	return &Queue{
		cat:         cat,
		logger:      logger,
		concurrency: defaultConcurrency,
		active:      make(map[int64]struct{}),
	}
}

// Status returns a snapshot of the supervisor's control state.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{Running: q.running, Paused: q.paused, Concurrency: q.concurrency, Active: len(q.active)}
}

// SetConcurrency bounds how many copy tasks may run at once, clamped to
// [1, 10].
func (q *Queue) SetConcurrency(n int) {
	if n < minConcurrency {
		n = minConcurrency
	}
	if n > maxConcurrency {
		n = maxConcurrency
	}
	q.mu.Lock()
	q.concurrency = n
	q.mu.Unlock()
}

// Start begins the supervisor loop. Returns false if already running.
func (q *Queue) Start() bool {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return false
	}
	q.running = true
	q.paused = false
	q.stop = make(chan struct{})
	q.mu.Unlock()

	q.wg.Add(1)
	go q.supervise()
	return true
}

// Stop halts dispatch of new operations and waits for in-flight tasks to
// finish; it does not cancel them.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stop)
	q.mu.Unlock()
	q.wg.Wait()
}

// Pause stops new dispatch without stopping the supervisor; in-flight
// tasks continue to completion.
func (q *Queue) Pause() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running || q.paused {
		return false
	}
	q.paused = true
	return true
}

// Resume allows dispatch to continue.
func (q *Queue) Resume() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running || !q.paused {
		return false
	}
	q.paused = false
	return true
}

func (q *Queue) supervise() {
	defer q.wg.Done()
	ctx := context.Background()
	ticker := time.NewTicker(pollInterval * time.Millisecond)
	defer ticker.Stop()

	for {
		q.mu.Lock()
		stopCh := q.stop
		q.mu.Unlock()

		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		q.mu.Lock()
		if !q.running {
			q.mu.Unlock()
			return
		}
		if q.paused {
			q.mu.Unlock()
			continue
		}
		capacity := q.concurrency - len(q.active)
		q.mu.Unlock()

		for i := 0; i < capacity; i++ {
			op, err := q.cat.NextPending(ctx)
			if err != nil {
				q.logger.Warn("opsqueue", "fetch pending operation failed", logging.F("error", err.Error()))
				break
			}
			if op == nil {
				break
			}
			q.dispatch(ctx, op)
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, op *catalog.Operation) {
	q.mu.Lock()
	q.active[op.ID] = struct{}{}
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer func() {
			q.mu.Lock()
			delete(q.active, op.ID)
			q.mu.Unlock()
		}()
		q.execute(ctx, op)
	}()
}

func (q *Queue) execute(ctx context.Context, op *catalog.Operation) {
	if err := q.cat.StartOperation(ctx, op.ID); err != nil {
		q.logger.Warn("opsqueue", "start operation failed", logging.F("op_id", op.ID), logging.F("error", err.Error()))
		return
	}

	f, err := q.cat.GetFile(ctx, op.SourceFileID)
	if err != nil {
		q.fail(ctx, op.ID, err.Error())
		return
	}
	root, err := q.cat.GetRoot(ctx, f.RootID)
	if err != nil {
		q.fail(ctx, op.ID, err.Error())
		return
	}
	srcPath := filepath.Join(root.Path, f.Path)

	destPath := op.DestPath
	if !filepath.IsAbs(destPath) {
		drive, err := q.cat.GetDrive(ctx, op.DestDriveID)
		if err != nil {
			q.fail(ctx, op.ID, err.Error())
			return
		}
		destPath = filepath.Join(drive.MountPath, destPath)
	}

	var lastProgressWrite time.Time
	progress := func(bytes int64) {
		now := time.Now()
		if now.Sub(lastProgressWrite) < progressWriteInterval {
			return
		}
		lastProgressWrite = now
		if err := q.cat.UpdateProgress(ctx, op.ID, bytes); err != nil {
			q.logger.Warn("opsqueue", "progress update failed", logging.F("op_id", op.ID), logging.F("error", err.Error()))
		}
	}

	metrics.OpsActive.Inc()
	defer metrics.OpsActive.Dec()

	n, err := copier.Copy(ctx, srcPath, destPath, copier.Options{
		VerifyHash: op.VerifyHash,
		Progress:   progress,
	})
	if err != nil {
		q.fail(ctx, op.ID, err.Error())
		return
	}
	if err := q.cat.UpdateProgress(ctx, op.ID, n); err != nil {
		q.logger.Warn("opsqueue", "final progress update failed", logging.F("op_id", op.ID), logging.F("error", err.Error()))
	}

	if err := q.cat.CompleteOperation(ctx, op.ID); err != nil {
		// The operation may have been cancelled out from under us while
		// the copy was in flight; that is expected, not an error worth
		// surfacing.
		if catalogConflict(err) {
			metrics.OpsCompletedTotal.WithLabelValues("cancelled").Inc()
			return
		}
		q.logger.Warn("opsqueue", "complete operation failed", logging.F("op_id", op.ID), logging.F("error", err.Error()))
		return
	}
	metrics.OpsCompletedTotal.WithLabelValues("completed").Inc()
	metrics.OpsBytesCopiedTotal.Add(float64(n))
}

func (q *Queue) fail(ctx context.Context, opID int64, message string) {
	if err := q.cat.FailOperation(ctx, opID, message); err != nil {
		if catalogConflict(err) {
			metrics.OpsCompletedTotal.WithLabelValues("cancelled").Inc()
			return
		}
		q.logger.Warn("opsqueue", "fail operation failed", logging.F("op_id", opID), logging.F("error", err.Error()))
		return
	}
	metrics.OpsCompletedTotal.WithLabelValues("failed").Inc()
}
