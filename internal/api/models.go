package api

import (
	"strings"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Ping string `json:"ping"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// CreatedAPIKeyResponse is returned once, when a key is created.
type CreatedAPIKeyResponse struct {
	APIKey    string    `json:"api_key"`
	Prefix    string    `json:"prefix"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKeyInfo describes a stored key without its secret.
type APIKeyInfo struct {
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsActive   bool       `json:"is_active"`
}

// TaskResponse acknowledges a submitted transcription.
type TaskResponse struct {
	TaskID string      `json:"task_id"`
	Status task.Status `json:"status"`
}

// TaskProgressResponse reports a task that exposes progress.
type TaskProgressResponse struct {
	TaskID    string      `json:"task_id"`
	Status    task.Status `json:"status"`
	Progress  int         `json:"progress"`
	ContextID string      `json:"context_id,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// TaskStatusResponse is returned while a transcription is still running.
type TaskStatusResponse struct {
	Status task.Status `json:"status"`
}

// TranscriptionResponse is the result of a finished transcription.
type TranscriptionResponse struct {
	Transcription string  `json:"transcription"`
	Translation   *string `json:"translation"`
}

// DeepgramTranscriptionResponse is the result of a finished Deepgram transcription.
type DeepgramTranscriptionResponse struct {
	Transcription string  `json:"transcription"`
	Confidence    float64 `json:"confidence"`
}

// SpeechRequest is the body of POST /v1/speech/generate_speech.
type SpeechRequest struct {
	Text  string `json:"text"            validate:"required,min=1,max=4096"`
	Voice string `json:"voice,omitempty"`
}

// Validate trims the text before checking it, so whitespace-only input is rejected.
func (r *SpeechRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	return validate.Struct(r)
}

// DownloadURLResponse carries a signed link to a finished speech file.
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QuestionRequest is the body of POST /v1/rag_pgvector/rag/question.
type QuestionRequest struct {
	Question  string `json:"question"             validate:"required"`
	ContextID string `json:"context_id,omitempty" validate:"omitempty,max=128"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

func apiKeyInfo(k domain.APIKey) APIKeyInfo {
	return APIKeyInfo{
		Prefix:     k.Prefix,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
		IsActive:   k.IsActive,
	}
}

func progressResponse(rec task.Record) TaskProgressResponse {
	return TaskProgressResponse{
		TaskID:    rec.TaskID,
		Status:    rec.Status,
		Progress:  rec.Progress,
		ContextID: rec.ContextID,
		Error:     rec.Error,
	}
}
