package qlab

import (
	"context"
	"fmt"
	"sync"
	"time"
)

/*
Pool runs independent numerical jobs across a fixed set of workers.

The honeycomb solver submits one job per grid row; scans may use it to
run measurement closures with retries. Jobs share no mutable state, so
the pool does no coordination beyond handing jobs to idle workers and
collecting results in a ResultSpace keyed by job ID.
*/
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers chan chan Job
	jobs    chan Job
	space   *ResultSpace
	metrics *Metrics
	config  *Config

	workerMu   sync.Mutex
	workerList []*worker
}

// NewPool creates a pool with the given number of workers.
func NewPool(ctx context.Context, workers int, config *Config) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:     ctx,
		cancel:  cancel,
		workers: make(chan chan Job, workers),
		jobs:    make(chan Job, workers*10),
		space:   NewResultSpace(),
		metrics: NewMetrics(),
		config:  config,
	}

	for i := 0; i < workers; i++ {
		p.startWorker()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage()
	}()

	return p
}

func (p *Pool) manage() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			select {
			case <-p.ctx.Done():
				return
			case workerChan := <-p.workers:
				select {
				case workerChan <- job:
				case <-p.ctx.Done():
					return
				}
			}
		}
	}
}

// Schedule queues a job and returns a channel that will receive its
// result. The channel is closed after delivery.
func (p *Pool) Schedule(id string, fn func() (any, error), opts ...JobOption) chan Result {
	ctx, cancel := context.WithTimeout(p.ctx, p.schedulingTimeout())
	defer cancel()

	job := Job{
		ID:        id,
		Fn:        fn,
		StartTime: time.Now(),
	}
	for _, opt := range opts {
		opt(&job)
	}

	select {
	case p.jobs <- job:
		return p.space.Await(id)
	case <-ctx.Done():
		ch := make(chan Result, 1)
		ch <- Result{
			Error:     fmt.Errorf("job scheduling timeout: %w", ctx.Err()),
			CreatedAt: time.Now(),
		}
		close(ch)
		return ch
	}
}

// Metrics returns the pool's metrics collector.
func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

func (p *Pool) startWorker() {
	w := &worker{
		pool: p,
		jobs: make(chan Job),
	}
	p.workerMu.Lock()
	p.workerList = append(p.workerList, w)
	p.workerMu.Unlock()

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		w.run()
	}()
}

func (p *Pool) schedulingTimeout() time.Duration {
	if p.config != nil && p.config.SchedulingTimeout > 0 {
		return p.config.SchedulingTimeout
	}
	return 30 * time.Second
}

// Close stops all workers and releases pending waiters.
func (p *Pool) Close() {
	if p == nil {
		return
	}

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.workerMu.Lock()
	for _, w := range p.workerList {
		close(w.jobs)
	}
	p.workerList = nil
	p.workerMu.Unlock()

	p.space.Close()
}
