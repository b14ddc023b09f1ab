package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/logging"
	"docproc/internal/worker"
)

func TestPool_DoReturnsTaskError(t *testing.T) {
	p := worker.New(2, logging.Discard())
	want := errors.New("boom")

	err := p.Do(context.Background(), func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestRun_ReturnsValue(t *testing.T) {
	p := worker.New(1, logging.Discard())

	v, err := worker.Run(context.Background(), p, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPool_RecoversPanic(t *testing.T) {
	p := worker.New(1, logging.Discard())

	err := p.Do(context.Background(), func(context.Context) error { panic("kaboom") })
	var pe *worker.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)

	// The slot is released after a panic.
	assert.NoError(t, p.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size = 3
	p := worker.New(size, logging.Discard())

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, int(peak), size)
	assert.Positive(t, int(peak))
}

func TestPool_CallerCancelDoesNotStopTask(t *testing.T) {
	p := worker.New(1, logging.Discard())
	release := make(chan struct{})
	finished := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Do(ctx, func(taskCtx context.Context) error {
			<-release
			assert.NoError(t, taskCtx.Err())
			close(finished)
			return nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("task did not run to completion")
	}
}

func TestPool_QueuedCallerTimesOut(t *testing.T) {
	p := worker.New(1, logging.Discard())
	release := make(chan struct{})
	defer close(release)

	go func() {
		_ = p.Do(context.Background(), func(context.Context) error { <-release; return nil })
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	err := p.Do(ctx, func(context.Context) error { ran.Store(true); return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran.Load())
}

func TestPool_ShutdownWaitsAndRejects(t *testing.T) {
	p := worker.New(2, logging.Discard())
	var done atomic.Bool
	started := make(chan struct{})

	go func() {
		_ = p.Do(context.Background(), func(context.Context) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			done.Store(true)
			return nil
		})
	}()
	<-started

	require.NoError(t, p.Shutdown(context.Background()))
	assert.True(t, done.Load())

	err := p.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, worker.ErrPoolClosed)
}

func TestPool_ShutdownTimeout(t *testing.T) {
	p := worker.New(1, logging.Discard())
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})

	go func() {
		_ = p.Do(context.Background(), func(context.Context) error { close(started); <-release; return nil })
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
}
