package executor

import (
	"context"
	"sync"

	"github.com/vk/endfgo/internal/ctxlog"
)

// batch is the shared state of one Execute call.
type batch struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	err     error
	skipped int
}

func (b *batch) fail(id string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = &TaskError{ID: id, Err: err}
	}
	b.cancel()
}

func (b *batch) skip() {
	b.mu.Lock()
	b.skipped++
	b.mu.Unlock()
}

func (b *batch) firstErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// worker is the processing loop of a single worker. Once the batch is
// cancelled it drains the channel without running anything.
func (b *batch) worker(ctx context.Context, readyChan <-chan Task, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for task := range readyChan {
		workerLogger := logger.With("workerID", workerID, "task", task.ID)

		if ctx.Err() != nil {
			workerLogger.Debug("Skipping task after cancellation.")
			b.skip()
			continue
		}

		workerLogger.Debug("Worker picked up task.")
		if err := task.Run(ctx); err != nil {
			workerLogger.Debug("Task failed.", "error", err)
			b.fail(task.ID, err)
			continue
		}
		workerLogger.Debug("Task succeeded.")
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
