// notify.go
package qlab

import (
	"sync"
	"time"
)

// ScanEvent is one measured point of a running scan, published so
// external plotters can follow progress without being part of the
// measurement loop.
type ScanEvent struct {
	Scan      string
	Index     int
	Total     int
	Setpoints []float64
	Values    []float64
	At        time.Time
}

// NotifierMetrics tracks delivery statistics of a Notifier.
type NotifierMetrics struct {
	EventsSent        int64
	EventsDropped     int64
	ActiveSubscribers int
	LastEventTime     time.Time
}

/*
Notifier fans scan progress out to subscriber channels.

Delivery is non-blocking: a subscriber that falls behind loses events
rather than stalling the scan. Subscribers are identified by name so a
plotter can re-subscribe after reconnecting.
*/
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan ScanEvent
	metrics     NotifierMetrics
	closed      bool
}

func NewNotifier() *Notifier {
	return &Notifier{
		subscribers: make(map[string]chan ScanEvent),
	}
}

// Subscribe registers a named subscriber with the given buffer size and
// returns its event channel.
func (n *Notifier) Subscribe(id string, bufferSize int) <-chan ScanEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		ch := make(chan ScanEvent)
		close(ch)
		return ch
	}
	if old, exists := n.subscribers[id]; exists {
		close(old)
	} else {
		n.metrics.ActiveSubscribers++
	}
	ch := make(chan ScanEvent, bufferSize)
	n.subscribers[id] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, exists := n.subscribers[id]; exists {
		close(ch)
		delete(n.subscribers, id)
		n.metrics.ActiveSubscribers--
	}
}

// Publish sends an event to all subscribers with non-blocking writes.
func (n *Notifier) Publish(ev ScanEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	for _, ch := range n.subscribers {
		select {
		case ch <- ev:
			n.metrics.EventsSent++
		default:
			n.metrics.EventsDropped++
		}
	}
	n.metrics.LastEventTime = ev.At
}

// GetMetrics returns a copy of the current delivery metrics.
func (n *Notifier) GetMetrics() NotifierMetrics {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.metrics
}

// Close shuts down the notifier and closes all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subscribers {
		close(ch)
	}
	n.subscribers = nil
}
