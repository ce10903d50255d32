// Package enrich runs per-record calls to external services over a table and
// writes what they return back to the records.
//
// Calls are made one at a time, paced by a rate limiter so a table of any
// size stays inside the service's quota.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrAborted is wrapped by the error a FailFast queue returns when a task fails
var ErrAborted = errors.New("enrichment aborted")

// FailurePolicy decides what a failed task does to the rest of the queue
type FailurePolicy int

const (
	// ContinueOnError logs the failure and moves to the next task
	ContinueOnError FailurePolicy = iota
	// FailFast stops the queue at the first failure
	FailFast
)

func (p FailurePolicy) String() string {
	switch p {
	case ContinueOnError:
		return "continue"
	case FailFast:
		return "fail-fast"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// Task is one unit of queued work
type Task struct {
	ID string
	Do func(ctx context.Context) error
}

// Failure records a task that returned an error under ContinueOnError
type Failure struct {
	ID  string
	Err error
}

// Summary counts what a queue run did
type Summary struct {
	Processed int
	Succeeded int
	Failures  []Failure
}

// Failed is the number of tasks that returned an error
func (s Summary) Failed() int {
	return len(s.Failures)
}

// Queue runs tasks sequentially with at most one start per interval
type Queue struct {
	limiter *rate.Limiter
	policy  FailurePolicy
	logger  zerolog.Logger
}

// NewQueue creates a queue. An interval of zero or less disables pacing.
func NewQueue(interval time.Duration, policy FailurePolicy) *Queue {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Queue{
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
		logger:  log.Logger,
	}
}

// WithLogger sets the logger used for per-task failures
func (q *Queue) WithLogger(logger zerolog.Logger) *Queue {
	q.logger = logger
	return q
}

// Run executes tasks in order. The first task starts immediately.
//
// Under FailFast the first failing task ends the run with an error wrapping
// both ErrAborted and the task's error. A canceled context ends the run under
// either policy.
func (q *Queue) Run(ctx context.Context, tasks []Task) (Summary, error) {
	var sum Summary
	for _, task := range tasks {
		if err := q.limiter.Wait(ctx); err != nil {
			return sum, fmt.Errorf("queue interrupted after %d of %d tasks: %w", sum.Processed, len(tasks), err)
		}

		err := task.Do(ctx)
		sum.Processed++
		if err == nil {
			sum.Succeeded++
			continue
		}

		if ctx.Err() != nil {
			return sum, fmt.Errorf("queue interrupted at %s: %w", task.ID, ctx.Err())
		}
		if q.policy == FailFast {
			return sum, fmt.Errorf("%w at %s: %w", ErrAborted, task.ID, err)
		}

		q.logger.Error().Err(err).Str("task", task.ID).Msg("Task failed, continuing")
		sum.Failures = append(sum.Failures, Failure{ID: task.ID, Err: err})
	}
	return sum, nil
}
