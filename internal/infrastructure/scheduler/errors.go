package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler: not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("scheduler: job queue is full")

	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")
)
