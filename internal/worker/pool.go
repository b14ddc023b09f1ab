// Package worker runs blocking document work on a bounded pool so request
// goroutines only wait for results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Do after Shutdown has started.
var ErrPoolClosed = errors.New("worker pool closed")

// PanicError wraps a value recovered from a task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Pool bounds the number of tasks running at once. Tasks beyond the limit
// wait for a slot for as long as the caller's context allows.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a pool running at most size tasks concurrently.
func New(size int, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
		logger: logger.With("component", "worker"),
	}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Do runs fn on the pool and waits for it. If ctx ends first Do returns the
// context error while fn keeps running to completion; its result is dropped.
// fn receives a context that is never canceled by the caller. A panic in fn
// is returned as a *PanicError.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.sem.Release(1)
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	done := make(chan error, 1)
	taskCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				p.logger.Error("task panicked", "panic", r, "stack", string(stack))
				done <- &PanicError{Value: r, Stack: stack}
			}
		}()
		done <- fn(taskCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		p.logger.Debug("caller gave up waiting, task continues", "error", ctx.Err())
		return ctx.Err()
	}
}

// Run is Do for tasks that produce a value.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Shutdown stops accepting tasks and waits for in-flight ones, or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.logger.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight tasks: %w", ctx.Err())
	}
}
