// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

type (
	// Future is a oneshot completion signal for a submitted task.
	Future struct {
		done chan struct{}
		once sync.Once
	}

	// Pool runs tasks with bounded concurrency. Submission never blocks.
	Pool struct {
		sem *semaphore.Weighted
		wg  sync.WaitGroup
	}
)

// NewFuture returns a pending Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// CompletedFuture returns a Future that is already complete.
func CompletedFuture() *Future {
	f := NewFuture()
	f.Complete()
	return f
}

// Done returns a channel that is closed when the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished. There is no timeout.
func (f *Future) Wait() {
	<-f.done
}

// IsDone reports whether the task has finished.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Complete marks the task as finished. Calls after the first are no-ops.
func (f *Future) Complete() {
	f.once.Do(func() { close(f.done) })
}

// NewPool creates a pool running at most limit tasks at once.
// A limit <= 0 uses runtime.NumCPU().
func NewPool(limit int) *Pool {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Submit schedules task and returns its Future. Tasks are not cancellable
// once submitted; ctx is passed through to the task. If ctx is cancelled
// before a slot frees up the task still runs, so that every Future completes.
func (p *Pool) Submit(ctx context.Context, task func(ctx context.Context)) *Future {
	f := NewFuture()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer f.Complete()

		if err := p.sem.Acquire(context.WithoutCancel(ctx), 1); err != nil {
			// Unreachable with a non-cancellable context; run unbounded.
			task(ctx)
			return
		}
		defer p.sem.Release(1)
		task(ctx)
	}()
	return f
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
