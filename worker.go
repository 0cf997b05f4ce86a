package qlab

import (
	"fmt"
	"log"
	"time"
)

// worker processes jobs handed to it by the pool manager.
type worker struct {
	pool *Pool
	jobs chan Job
}

func (w *worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case w.pool.workers <- w.jobs:
			select {
			case job, ok := <-w.jobs:
				if !ok {
					return
				}
				result, err := w.processJob(job)
				w.pool.space.Store(job.ID, result, err)
			case <-w.pool.ctx.Done():
				return
			}
		}
	}
}

func (w *worker) processJob(job Job) (any, error) {
	startTime := job.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
	}

	result, err := w.executeWithRetries(job)
	w.pool.metrics.recordJobExecution(startTime, err == nil)
	return result, err
}

func (w *worker) executeWithRetries(job Job) (any, error) {
	policy := job.RetryPolicy
	if policy == nil {
		policy = &RetryPolicy{MaxAttempts: 1}
	}

	for job.Attempt = 0; job.Attempt < policy.MaxAttempts; job.Attempt++ {
		if job.Attempt > 0 && policy.Strategy != nil {
			delay := policy.Strategy.NextDelay(job.Attempt)
			log.Printf("Job %s retrying attempt %d after %v", job.ID, job.Attempt+1, delay)
			time.Sleep(delay)
		}

		result, err := job.Fn()
		if err == nil {
			return result, nil
		}

		job.LastError = err
		if policy.Filter != nil && !policy.Filter(err) {
			break
		}
	}

	if policy.MaxAttempts <= 1 {
		return nil, job.LastError
	}
	return nil, fmt.Errorf("all retries failed for job %s: %w", job.ID, job.LastError)
}
