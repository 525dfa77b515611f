package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned once the pool has been shut down.
var ErrClosed = errors.New("worker pool closed")

type task struct {
	ctx context.Context
	run func(ctx context.Context)
}

// queue is a bounded in-memory queue with context-aware operations.
type queue struct {
	ch      chan task
	stop    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

func newQueue(capacity int) *queue {
	return &queue{
		ch:   make(chan task, capacity),
		stop: make(chan struct{}),
	}
}

func (q *queue) enqueue(ctx context.Context, t task) error {
	select {
	case <-q.stop:
		return ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case <-q.stop:
		return ErrClosed
	case q.ch <- t:
		return nil
	}
}

func (q *queue) dequeue(ctx context.Context) (task, error) {
	select {
	case <-ctx.Done():
		return task{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case <-q.stop:
		return task{}, ErrClosed
	case t := <-q.ch:
		return t, nil
	}
}

func (q *queue) close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.stop)
	q.closed = true
}
