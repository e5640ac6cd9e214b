package executor

import (
	"context"
	"sync"

	"github.com/vk/endfgo/internal/ctxlog"
)

// Pool is an Executor backed by a fixed number of goroutines.
type Pool struct {
	workers int
}

var _ Executor = (*Pool)(nil)

// New creates a pool of n workers. n below 1 is treated as 1.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{workers: n}
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Execute runs every task and waits for all workers to finish. It returns
// the first task error, or the context error when ctx ended before all
// tasks ran.
func (p *Pool) Execute(ctx context.Context, tasks []Task) error {
	logger := ctxlog.FromContext(ctx)
	if len(tasks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(p.workers, len(tasks))
	readyChan := make(chan Task)
	b := &batch{cancel: cancel}

	var wg sync.WaitGroup
	for id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.worker(ctx, readyChan, id)
		}()
	}
	logger.Debug("Executor started.", "workers", workers, "tasks", len(tasks))

	for _, task := range tasks {
		readyChan <- task
	}
	close(readyChan)
	wg.Wait()

	if err := b.firstErr(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil && b.skipped > 0 {
		return err
	}
	logger.Debug("Executor finished.", "tasks", len(tasks))
	return nil
}
