package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidWarmKind is returned for unknown warm-up kinds
	ErrInvalidWarmKind = errors.New("invalid warm-up kind")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrInvalidSchedule is returned for a cron expression that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid warm-up schedule")
)
