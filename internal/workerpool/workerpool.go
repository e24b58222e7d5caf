// Package workerpool is the bounded goroutine pool the Open-File Scheduler
// offloads blocking or CPU-heavy work to (spec §4.11/§5): PCH/AST builds,
// filesystem stat/write, and feature computation. The event-loop goroutine
// never blocks on this work directly — it submits a task and is resumed via
// a per-task result channel, the Go-native analogue of "coroutines + one-shot
// events" called out in spec.md §9.
//
// Grounded on internal/server/server.go's background-goroutine/sync.WaitGroup
// idiom, generalized from a fixed set of named background jobs into a bounded
// pool of arbitrary tasks using golang.org/x/sync/semaphore to cap
// parallelism — mirroring golang.org/x/sync's presence in the teacher's own
// go.mod (spec.md §9's "coroutine control flow maps to tasks + channels +
// one-shot events").
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many submitted tasks may run concurrently.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a Pool allowing at most maxWorkers tasks to run concurrently.
func New(maxWorkers int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(maxWorkers))}
}

// Result is delivered once a submitted task completes, successfully or not.
type Result[T any] struct {
	Value T
	Err   error
}

// Submit runs fn on a pool goroutine once a slot is available, and returns a
// channel that receives exactly one Result. If ctx is cancelled before a
// slot frees up, fn never runs and the channel receives ctx.Err().
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			var zero T
			out <- Result[T]{Value: zero, Err: err}
			close(out)
			return
		}
		defer p.sem.Release(1)

		v, err := fn(ctx)
		out <- Result[T]{Value: v, Err: err}
		close(out)
	}()
	return out
}

// Run is a blocking convenience wrapper around Submit, for callers already
// on a worker goroutine that simply want to await another task's slot.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	res := <-Submit(ctx, p, fn)
	return res.Value, res.Err
}
