package qlab

import (
	"sort"
	"sync"
	"time"
)

// Metrics tracks pool activity during a sweep or honeycomb solve.
type Metrics struct {
	mu          sync.RWMutex
	WorkerCount int
	JobCount    int64
	FailedJobs  int64
	TotalTime   time.Duration

	AverageJobLatency time.Duration
	P95JobLatency     time.Duration
	P99JobLatency     time.Duration

	latencies  []time.Duration
	windowSize int
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencies:  make([]time.Duration, 0, 1000),
		windowSize: 1000,
	}
}

func (m *Metrics) recordJobExecution(startTime time.Time, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalTime += duration
	m.JobCount++
	if !success {
		m.FailedJobs++
	}

	m.AverageJobLatency = m.TotalTime / time.Duration(m.JobCount)

	// Sliding window of recent latencies for percentile estimates.
	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > m.windowSize {
		m.latencies = m.latencies[1:]
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p95 := int(float64(len(sorted)) * 0.95)
	p99 := int(float64(len(sorted)) * 0.99)
	if p95 >= len(sorted) {
		p95 = len(sorted) - 1
	}
	if p99 >= len(sorted) {
		p99 = len(sorted) - 1
	}
	m.P95JobLatency = sorted[p95]
	m.P99JobLatency = sorted[p99]
}

// SuccessRate returns the fraction of completed jobs that succeeded.
func (m *Metrics) SuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.JobCount == 0 {
		return 1.0
	}
	return float64(m.JobCount-m.FailedJobs) / float64(m.JobCount)
}

// ExportMetrics returns a snapshot suitable for dataset metadata.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	success := 1.0
	if m.JobCount > 0 {
		success = float64(m.JobCount-m.FailedJobs) / float64(m.JobCount)
	}
	return map[string]interface{}{
		"worker_count": m.WorkerCount,
		"job_count":    m.JobCount,
		"failed_jobs":  m.FailedJobs,
		"success_rate": success,
		"avg_latency":  m.AverageJobLatency.Milliseconds(),
		"p95_latency":  m.P95JobLatency.Milliseconds(),
		"p99_latency":  m.P99JobLatency.Milliseconds(),
	}
}
