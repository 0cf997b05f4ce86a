package qlab

import (
	"sync"
	"time"
)

// Result wraps the outcome of a pool job.
type Result struct {
	Value     any
	Error     error
	CreatedAt time.Time
}

// ResultSpace stores job results and hands them to waiting channels.
type ResultSpace struct {
	mu      sync.Mutex
	values  map[string]Result
	waiting map[string][]chan Result
	closed  bool
}

func NewResultSpace() *ResultSpace {
	return &ResultSpace{
		values:  make(map[string]Result),
		waiting: make(map[string][]chan Result),
	}
}

// Store records a result and notifies any channels awaiting it.
func (rs *ResultSpace) Store(id string, value any, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.closed {
		return
	}

	r := Result{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
	}
	rs.values[id] = r

	for _, ch := range rs.waiting[id] {
		select {
		case ch <- r:
			close(ch)
		default:
		}
	}
	delete(rs.waiting, id)
}

// Await returns a channel that receives the result for id once it is
// stored. If the result already exists it is delivered immediately.
func (rs *ResultSpace) Await(id string) chan Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan Result, 1)
	if r, ok := rs.values[id]; ok {
		ch <- r
		close(ch)
		return ch
	}

	rs.waiting[id] = append(rs.waiting[id], ch)
	return ch
}

// Close releases all waiters. Pending Await channels are closed without
// a value.
func (rs *ResultSpace) Close() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.closed {
		return
	}
	rs.closed = true

	for id, channels := range rs.waiting {
		for _, ch := range channels {
			close(ch)
		}
		delete(rs.waiting, id)
	}
	rs.values = nil
}
