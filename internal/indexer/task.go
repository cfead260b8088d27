package indexer

import (
	"context"

	"github.com/google/uuid"

	"github.com/mvp-joe/fileindex/internal/scanner"
)

// Task is a handle on one indexing session started by Start. A session served
// from cache is complete as soon as Start returns.
type Task struct {
	ID string

	done      chan struct{}
	err       error
	result    scanner.Result
	fromCache bool
}

func newTask() *Task {
	return &Task{
		ID:   uuid.New().String(),
		done: make(chan struct{}),
	}
}

// finish records the outcome and releases waiters. It must be called once.
func (t *Task) finish(result scanner.Result, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

// Done is closed when the session has settled: the scan finished, was stopped,
// or the cache was used.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task is done or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the task's outcome once Done is closed; nil before that.
// ErrStopped means the scan was cancelled.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Result returns the scan summary once Done is closed.
func (t *Task) Result() scanner.Result {
	select {
	case <-t.done:
		return t.result
	default:
		return scanner.Result{}
	}
}

// FromCache reports whether the session was hydrated from the cache file.
func (t *Task) FromCache() bool {
	return t.fromCache
}
