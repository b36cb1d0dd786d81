package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrStopped = errors.New("worker pool stopped")

type task func()

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	wg      sync.WaitGroup
	jobs    chan task
	queued  atomic.Int64
	mu      sync.RWMutex
	stopped bool
}

func NewPool(n, queue int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{jobs: make(chan task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.queued.Add(-1)
				job()
			}
		}()
	}
	return p
}

// Queued is the number of tasks waiting for a worker.
func (p *Pool) Queued() int { return int(p.queued.Load()) }

func (p *Pool) Submit(f task) error {
	return p.enqueue(context.Background(), f)
}

// enqueue waits for queue space until ctx ends.
func (p *Pool) enqueue(ctx context.Context, f task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	p.queued.Add(1)
	select {
	case p.jobs <- f:
		return nil
	case <-ctx.Done():
		p.queued.Add(-1)
		return ctx.Err()
	}
}

// Do runs fn on the pool and waits for it. If ctx ends first, including
// while waiting for queue space, Do returns ctx.Err(); fn sees the same ctx
// and is skipped when it was still queued.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	err := p.enqueue(ctx, func() {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- fn(ctx)
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new tasks and waits for queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
