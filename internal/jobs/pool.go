// Package jobs tracks background job records and runs their work on a
// bounded pool of workers, detached from the request that created them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/closetsync/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by Submit once the pool stopped accepting work.
var ErrPoolClosed = errors.New("worker pool closed")

// ErrQueueFull is returned by Submit when the queue has no free slot.
var ErrQueueFull = errors.New("worker queue full")

// Task is one unit of background work. Its context is the pool's, never
// the submitting request's.
type Task func(ctx context.Context) error

type queued struct {
	name string
	task Task
}

// Pool runs submitted tasks on a fixed number of workers.
type Pool struct {
	workers int
	queue   chan queued
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool with the given worker count and queue capacity.
// Run must be called for tasks to execute.
func NewPool(workers, queueSize int, logger logging.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		workers: workers,
		queue:   make(chan queued, queueSize),
		logger:  logger.With("component", "worker_pool"),
	}
}

// Submit enqueues task without waiting for it to start.
func (p *Pool) Submit(name string, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- queued{name: name, task: task}:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, name)
	}
}

// Close stops accepting tasks. Workers finish what is already queued.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.queue)
	}
}

// Run starts the workers and blocks until the queue is closed and drained.
// Cancelling ctx closes the queue; tasks observe the cancellation through
// their context.
func (p *Pool) Run(ctx context.Context) error {
	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	stop := context.AfterFunc(ctx, p.Close)
	defer stop()

	p.logger.Info(ctx, "starting worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		workerID := i + 1
		g.Go(func() error {
			for q := range p.queue {
				p.run(ctx, workerID, q)
			}
			return nil
		})
	}

	err := g.Wait()
	p.logger.Info(ctx, "worker pool stopped")
	return err
}

func (p *Pool) run(ctx context.Context, workerID int, q queued) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(ctx, "task panicked", "worker_id", workerID, "task", q.name, "panic", r)
		}
	}()

	if err := q.task(ctx); err != nil {
		p.logger.Error(ctx, "task failed", "worker_id", workerID, "task", q.name, "error", err)
	}
}
