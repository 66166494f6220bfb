package task

import (
	"fmt"
	"time"
)

// Result carries the payload of a successful task. Only the fields the
// task type produces are set.
type Result struct {
	Transcription string `json:"transcription,omitempty"`
	// Translation is nil when no translation was requested.
	Translation *string  `json:"translation,omitempty"`
	FilePath    string   `json:"file_path,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	DocumentID  string   `json:"document_id,omitempty"`
	Chunks      *int     `json:"chunks,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// Record is the cached lifecycle state of one task. It is stored as a JSON
// object under Key(TaskID) and always written whole.
type Record struct {
	TaskID    string    `json:"task_id"`
	Type      Type      `json:"task_type"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	ContextID string    `json:"context_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Result is populated only on terminal success and is the zero value
	// otherwise. Its fields are flattened into the record's JSON.
	Result
}

// Succeeded reports whether the record reached its pipeline's success
// status and so carries a result.
func (r Record) Succeeded() bool {
	return r.Status == r.Type.Family().Success
}

// NewRecord returns the initial record for a freshly submitted task.
func NewRecord(id string, typ Type, contextID string, now time.Time) Record {
	return Record{
		TaskID:    id,
		Type:      typ,
		Status:    typ.Family().Initial,
		Progress:  0,
		ContextID: contextID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the record to a non-terminal status with a new progress value.
func (r *Record) Advance(status Status, progress int, now time.Time) error {
	if status.IsTerminal() {
		return fmt.Errorf("%w: use Complete or Fail to enter %q", ErrInvalidTransition, status)
	}
	if err := r.transition(status, progress); err != nil {
		return err
	}
	r.Status = status
	r.Progress = progress
	r.UpdatedAt = now
	return nil
}

// Complete moves the record to its pipeline's success status with progress 100.
func (r *Record) Complete(result Result, now time.Time) error {
	status := r.Type.Family().Success
	if err := r.transition(status, 100); err != nil {
		return err
	}
	r.Status = status
	r.Progress = 100
	r.Error = ""
	r.Result = result
	r.UpdatedAt = now
	return nil
}

// Fail moves the record to its pipeline's failure status. Progress is kept
// where it was and any partial result is dropped.
func (r *Record) Fail(message string, now time.Time) error {
	if message == "" {
		return ErrEmptyFailure
	}
	status := r.Type.Family().Failure
	if err := r.transition(status, r.Progress); err != nil {
		return err
	}
	r.Status = status
	r.Error = message
	r.Result = Result{}
	r.UpdatedAt = now
	return nil
}

func (r *Record) transition(next Status, progress int) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: task %s is %s", ErrTerminalState, r.TaskID, r.Status)
	}
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	if progress < 0 || progress > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidProgress, progress)
	}
	if progress < r.Progress {
		return fmt.Errorf("%w: %d -> %d", ErrProgressRegression, r.Progress, progress)
	}
	return nil
}
