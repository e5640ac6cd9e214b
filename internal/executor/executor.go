// Package executor runs independent tasks on a bounded pool of workers.
//
// Section parses and writes share no state, so a tape is processed by
// handing one task per section to the pool. The first failing task cancels
// the context seen by every other task; tasks still queued are skipped.
package executor

import (
	"context"
	"fmt"
)

// Task is one unit of work. ID appears in logs and in the wrapped error.
type Task struct {
	ID  string
	Run func(ctx context.Context) error
}

// Executor runs a batch of tasks and reports the first failure.
type Executor interface {
	Execute(ctx context.Context, tasks []Task) error
}

// TaskError identifies the task that stopped the batch.
type TaskError struct {
	ID  string
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.ID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
