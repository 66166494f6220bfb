package task

import (
	"errors"
	"fmt"
)

// Common task errors.
var (
	// ErrTaskNotFound is returned when no record exists for an id, including
	// records that have expired.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists is returned when creating a record for an id already in use.
	ErrTaskExists = errors.New("task already exists")

	// ErrTerminalState is returned when writing to a record that already
	// completed or failed.
	ErrTerminalState = errors.New("task is in a terminal state")

	// ErrInvalidTransition is returned for a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrProgressRegression is returned when a write would lower progress.
	ErrProgressRegression = errors.New("progress cannot decrease")

	// ErrInvalidProgress is returned for progress outside 0..100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")

	// ErrEmptyFailure is returned when a failure is recorded without a message.
	ErrEmptyFailure = errors.New("failure message cannot be empty")

	// ErrRunnerStopped is returned by Submit after Stop has been called.
	ErrRunnerStopped = errors.New("task runner is stopped")

	// ErrInvalidTask is returned when a nil task or a task without an id is submitted.
	ErrInvalidTask = errors.New("invalid task")
)

// Nil-dependency errors returned by constructors.
var (
	ErrNilCache       = errors.New("cache cannot be nil")
	ErrNilStore       = errors.New("record store cannot be nil")
	ErrNilTranscriber = errors.New("transcriber cannot be nil")
	ErrNilTranslator  = errors.New("chat completer cannot be nil")
	ErrNilSynthesizer = errors.New("speech synthesizer cannot be nil")
	ErrNilFileStore   = errors.New("file store cannot be nil")
	ErrNilExtractor   = errors.New("text extractor cannot be nil")
	ErrNilEmbedder    = errors.New("embedder cannot be nil")
	ErrNilDocuments   = errors.New("document store cannot be nil")
	ErrNilRecognizer  = errors.New("speech recognizer cannot be nil")
)

// FailedError is returned by the poller for a record in a terminal failure
// status. Message is the text the processor stored.
type FailedError struct {
	TaskID  string
	Message string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Message)
}
