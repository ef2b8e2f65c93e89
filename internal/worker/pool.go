// Package worker runs background tasks on a fixed set of goroutines with
// admission control: a task is accepted only while fewer than maxPending
// tasks are in flight, so Submit never blocks.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type Task func(ctx context.Context)

type Pool struct {
	tasks      chan Task
	maxPending int
	logger     *slog.Logger

	mu      sync.Mutex
	pending int
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts workers goroutines. Both arguments are raised to 1 when lower.
func New(workers, maxPending int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if maxPending < 1 {
		maxPending = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:      make(chan Task, maxPending),
		maxPending: maxPending,
		logger:     logger.With("component", "worker_pool"),
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.loop(i)
	}

	p.logger.Info("worker pool started", "workers", workers, "max_pending", maxPending)
	return p
}

// Submit hands task to the pool. It returns false without side effects when
// the pool is full or closed.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.pending >= p.maxPending {
		return false
	}

	p.pending++
	// The channel holds maxPending tasks, so this send cannot block.
	p.tasks <- task
	return true
}

// Pending returns the number of accepted tasks that have not completed.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

func (p *Pool) MaxPending() int {
	return p.maxPending
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	defer p.done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "worker", id, "panic", fmt.Sprint(r))
		}
	}()

	if p.ctx.Err() != nil {
		p.logger.Warn("task abandoned after shutdown deadline", "worker", id)
		return
	}
	task(p.ctx)
}

func (p *Pool) done() {
	p.mu.Lock()
	p.pending--
	p.mu.Unlock()
}

// Close stops accepting tasks and waits for queued ones to finish. When ctx
// expires first, tasks still queued are abandoned, running ones see their
// context cancelled, and ctx.Err() is returned.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		p.cancel()
		p.logger.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown deadline exceeded", "pending", p.Pending())
		return ctx.Err()
	}
}
