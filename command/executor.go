// Package command exposes translation and document persistence to a host
// (CLI or HTTP UI) through one process-wide executor.
package command

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("executor closed")

// Executor runs commands on behalf of callers. It is created once at startup
// and shared by every command for the life of the process.
type Executor struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewExecutor creates an executor running at most workers commands at once.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		ctx:    ctx,
		cancel: cancel,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// Run submits fn to e and waits for its result. fn's context is cancelled
// when either ctx or the executor is.
func Run[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	if !e.track() {
		e.sem.Release(1)
		return zero, ErrClosed
	}

	taskCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)
		defer stop()
		defer cancel()

		v, err := fn(taskCtx)
		done <- result{value: v, err: err}
	}()

	r := <-done
	return r.value, r.err
}

// track registers a task unless the executor is closed.
func (e *Executor) track() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.wg.Add(1)
	return true
}

// Close cancels running commands and waits for them to return. Later
// submissions fail with ErrClosed.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}
