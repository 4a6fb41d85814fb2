package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrPoolClosed is returned by Submit once the pool stopped accepting work.
var ErrPoolClosed = errors.New("reminders: worker pool is closed")

// Task is a unit of work run by the pool.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	config PoolConfig
	tasks  chan Task
	logger *slog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewPool creates a pool. Call Start before submitting work.
func NewPool(opts ...PoolOption) *Pool {
	config := PoolConfig{
		Concurrency: 4,
		QueueSize:   64,
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt.ApplyPool(&config)
	}

	return &Pool{
		config: config,
		tasks:  make(chan Task, config.QueueSize),
		logger: config.Logger,
	}
}

// Config returns the effective configuration.
func (p *Pool) Config() PoolConfig {
	return p.config
}

// Start launches the worker goroutines. Tasks receive ctx.
// Calling Start more than once has no effect.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.config.Concurrency; i++ {
		p.wg.Add(1)
		go p.processLoop(ctx)
	}
}

// Submit queues a task. It blocks while the queue is full and returns early
// when ctx is cancelled or the pool is closed.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for queued and running tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) processLoop(ctx context.Context) {
	defer p.wg.Done()

	for t := range p.tasks {
		p.run(ctx, t)
	}
}

func (p *Pool) run(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", "panic", fmt.Sprint(r))
		}
	}()
	t(ctx)
}
