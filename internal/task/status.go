package task

// Status is the lifecycle state of a task record.
type Status string

// Statuses used by transcription, speech and deepgram tasks.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Statuses used by document ingestion. Their casing is part of the public
// API and differs from the other pipelines.
const (
	StatusIngesting       Status = "Ingesting"
	StatusVectorizing     Status = "vectorizing"
	StatusIngestCompleted Status = "Completed"
	StatusIngestFailed    Status = "Failed"
)

// transitions lists every allowed move. Self-transitions are progress updates.
// Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusProcessing:  {StatusProcessing, StatusCompleted, StatusFailed},
	StatusIngesting:   {StatusIngesting, StatusVectorizing, StatusIngestCompleted, StatusIngestFailed},
	StatusVectorizing: {StatusVectorizing, StatusIngestCompleted, StatusIngestFailed},
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusIngestCompleted, StatusIngestFailed:
		return true
	default:
		return false
	}
}

// IsFailure reports whether s is a terminal failure.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusIngestFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if s.IsTerminal() {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a record in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Family groups the statuses one pipeline uses.
type Family struct {
	Initial Status
	Success Status
	Failure Status
}

var (
	// StandardFamily is used by transcription, speech and deepgram tasks.
	StandardFamily = Family{Initial: StatusProcessing, Success: StatusCompleted, Failure: StatusFailed}

	// IngestionFamily is used by document ingestion.
	IngestionFamily = Family{Initial: StatusIngesting, Success: StatusIngestCompleted, Failure: StatusIngestFailed}
)

// Type identifies the kind of work a task performs.
type Type string

// Task types.
const (
	TypeTranscription         Type = "transcription"
	TypeSpeech                Type = "speech"
	TypeIngestion             Type = "ingestion"
	TypeDeepgramTranscription Type = "deepgram_transcription"
)

// Family returns the status family the pipeline of type t uses.
func (t Type) Family() Family {
	if t == TypeIngestion {
		return IngestionFamily
	}
	return StandardFamily
}
