package qlab

import "time"

// Job represents one independent unit of work: a grid row to solve, or
// a measurement closure to execute.
type Job struct {
	ID          string
	Fn          func() (any, error)
	RetryPolicy *RetryPolicy
	Attempt     int
	LastError   error
	StartTime   time.Time
}

// JobOption is a function type for configuring jobs
type JobOption func(*Job)
