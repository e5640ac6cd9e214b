package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/testutil"
)

func sleeperTasks(s *testutil.Sleeper, ids ...string) []Task {
	tasks := make([]Task, len(ids))
	for i, id := range ids {
		tasks[i] = Task{ID: id, Run: s.Run(id)}
	}
	return tasks
}

func TestPool_RunsEveryTask(t *testing.T) {
	testCases := []struct {
		workers int
		tasks   int
	}{
		{workers: 1, tasks: 3},
		{workers: 3, tasks: 8},
		{workers: 10, tasks: 2},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d workers %d tasks", tc.workers, tc.tasks), func(t *testing.T) {
			done := make(chan string, tc.tasks)
			s := testutil.NewSleeper(done, 5*time.Millisecond)
			var ids []string
			for i := range tc.tasks {
				ids = append(ids, fmt.Sprintf("t%d", i))
			}

			err := New(tc.workers).Execute(testutil.Context(t), sleeperTasks(s, ids...))
			require.NoError(t, err)

			close(done)
			var completed []string
			for id := range done {
				completed = append(completed, id)
			}
			assert.ElementsMatch(t, ids, completed)
			assert.LessOrEqual(t, s.MaxConcurrent(), tc.workers)
		})
	}
}

func TestPool_FailFast(t *testing.T) {
	boom := errors.New("boom")
	s := testutil.NewSleeper(nil, time.Millisecond)
	s.FailWith("a", boom)

	err := New(1).Execute(testutil.Context(t), sleeperTasks(s, "a", "b", "c"))

	var te *TaskError
	require.True(t, errors.As(err, &te), "unexpected error: %v", err)
	assert.Equal(t, "a", te.ID)
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.Ran("a"))
	assert.False(t, s.Ran("b"), "tasks queued after a failure are skipped")
	assert.False(t, s.Ran("c"))
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()
	s := testutil.NewSleeper(nil, time.Millisecond)

	err := New(2).Execute(ctx, sleeperTasks(s, "a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Ran("a"))
	assert.False(t, s.Ran("b"))
}

func TestPool_Empty(t *testing.T) {
	assert.NoError(t, New(4).Execute(testutil.Context(t), nil))
	assert.Equal(t, 1, New(0).Workers())
	assert.Equal(t, 4, New(4).Workers())
}
