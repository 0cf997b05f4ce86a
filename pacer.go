package qlab

import (
	"sync"
	"time"
)

/*
Pacer enforces a minimum interval between setpoint changes during a
sweep, the software equivalent of a scan's per-point wait time. Gate
voltages need settling time after each step; the pacer makes sure the
next measurement never starts before the previous interval has fully
elapsed, without over-sleeping when the measurement itself already
consumed part of it.
*/
type Pacer struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewPacer creates a pacer with the given minimum interval between
// steps. A zero or negative interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the interval since the previous step has elapsed,
// then marks the current step. The first call never blocks.
func (p *Pacer) Wait() {
	if p == nil || p.interval <= 0 {
		return
	}

	p.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(p.last)
	var sleep time.Duration
	if !p.last.IsZero() && elapsed < p.interval {
		sleep = p.interval - elapsed
	}
	p.last = now.Add(sleep)
	p.mu.Unlock()

	if sleep > 0 {
		time.Sleep(sleep)
	}
}
