// Package workerpool runs blocking upstream fetches on a fixed set of workers
// so request goroutines never fan out unbounded outbound I/O.
package workerpool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/metrics"
)

// Pool fans queued fetches out to a fixed number of workers.
type Pool struct {
	size   int
	queue  *queue
	logger *zap.Logger
}

// New creates a Pool with size workers and a queue of depth pending tasks.
func New(size, depth int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if depth < 0 {
		depth = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		size:   size,
		queue:  newQueue(depth),
		logger: logger,
	}
}

// Run starts all workers and blocks until the context finishes or the pool
// is closed.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			p.work(ctx, p.logger.With(zap.Int("worker", index)))
		}(i)
	}
	wg.Wait()
}

// Close stops accepting work and releases idle workers.
func (p *Pool) Close() {
	p.queue.close()
}

// Do runs fn on a pool worker and waits for it. The caller's context bounds
// both the wait for a free worker and the fetch itself.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	t := task{
		ctx: ctx,
		run: func(ctx context.Context) { done <- fn(ctx) },
	}
	if err := p.queue.enqueue(ctx, t); err != nil {
		return fmt.Errorf("submit task: %w", err)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("task canceled: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

// Submit runs fn on the pool and returns its value.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
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

func (p *Pool) work(ctx context.Context, logger *zap.Logger) {
	for {
		t, err := p.queue.dequeue(ctx)
		if err != nil {
			logger.Debug("worker stopping", zap.Error(err))
			return
		}
		if t.ctx.Err() != nil {
			continue
		}
		metrics.IncActiveWorkers()
		t.run(t.ctx)
		metrics.DecActiveWorkers()
	}
}
