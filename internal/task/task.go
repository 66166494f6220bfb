package task

import "context"

// Task is a unit of background work.
type Task interface {
	// ID returns the id of the record the task reports to.
	ID() string

	// Type returns the task type.
	Type() Type

	// Execute runs the task to completion. The task records its own terminal
	// status; the returned error is for logging only.
	Execute(ctx context.Context) error
}

// Failer is implemented by tasks that can record a terminal failure from
// outside Execute, e.g. after a panic.
type Failer interface {
	Fail(ctx context.Context, message string) error
}
