package destination

import (
	"fmt"
	"syscall"
	"time"
)

// freeSpace reports bytes available to an unprivileged writer on the
// filesystem containing path, bounded by timeout so one unresponsive
// mount (a hung network share, a spun-down external drive) can never
// block the whole ranking.
func freeSpace(path string, timeout time.Duration) (int64, error) {
	type result struct {
		free int64
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var stat syscall.Statfs_t
		if err := syscall.Statfs(path, &stat); err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{free: int64(stat.Bavail) * int64(stat.Bsize)}
	}()

	select {
	case res := <-ch:
		return res.free, res.err
	case <-time.After(timeout):
		return 0, fmt.Errorf("statfs timed out after %s for path: %s", timeout, path)
	}
}
