package scheduler

import "context"

// Job is a unit of work executed by the worker pool.
type Job interface {
	// Execute runs the job. The context carries the pool's cancellation and
	// a per-job timeout.
	Execute(ctx context.Context) error

	// AccountID identifies the account the job operates on, for logging and
	// tracing.
	AccountID() string

	Description() string
}
