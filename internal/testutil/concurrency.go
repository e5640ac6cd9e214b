package testutil

import (
	"context"
	"sync"
	"time"
)

// ExecutionRecord holds the start and end times of one task run.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Sleeper hands out task functions that sleep, record when they ran and
// track how many of them overlapped.
type Sleeper struct {
	ExecutionTimes map[string]*ExecutionRecord

	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
	failures       map[string]error
	running        int
	maxRunning     int
}

// NewSleeper creates a Sleeper. completionChan, when not nil, receives the
// ID of every task that completed.
func NewSleeper(completionChan chan<- string, sleep time.Duration) *Sleeper {
	return &Sleeper{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
		failures:       make(map[string]error),
	}
}

// FailWith makes the task id return err after sleeping.
func (s *Sleeper) FailWith(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = err
}

// Run returns the body of task id. The sleep is cut short when ctx ends.
func (s *Sleeper) Run(id string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		s.mu.Lock()
		s.running++
		s.maxRunning = max(s.maxRunning, s.running)
		s.mu.Unlock()

		start := time.Now()
		select {
		case <-time.After(s.sleepDuration):
		case <-ctx.Done():
		}
		end := time.Now()

		s.mu.Lock()
		s.running--
		s.ExecutionTimes[id] = &ExecutionRecord{Start: start, End: end}
		err := s.failures[id]
		s.mu.Unlock()

		if s.completionChan != nil {
			s.completionChan <- id
		}
		return err
	}
}

// MaxConcurrent returns the largest number of tasks that ran at once.
func (s *Sleeper) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxRunning
}

// Ran reports whether task id was started.
func (s *Sleeper) Ran(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ExecutionTimes[id]
	return ok
}
