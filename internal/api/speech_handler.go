package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
	"github.com/dudoxx/dudoxx-api/internal/platform/storage"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// FileOpener opens stored files. storage.FileStore implements it.
type FileOpener interface {
	Open(ctx context.Context, key string) (*storage.Object, error)
}

// DownloadTokenIssuer signs download links.
type DownloadTokenIssuer interface {
	GenerateDownloadToken(ctx context.Context, taskID string) (string, time.Time, error)
}

// SpeechHandler serves /v1/speech.
type SpeechHandler struct {
	tasks         TaskStarter
	poller        TaskPoller
	files         FileOpener
	tokens        DownloadTokenIssuer
	publicBaseURL string
}

// NewSpeechHandler creates a SpeechHandler. When publicBaseURL is empty,
// download links are built from the request's scheme and host.
func NewSpeechHandler(
	tasks TaskStarter,
	poller TaskPoller,
	files FileOpener,
	tokens DownloadTokenIssuer,
	publicBaseURL string,
) *SpeechHandler {
	return &SpeechHandler{
		tasks:         tasks,
		poller:        poller,
		files:         files,
		tokens:        tokens,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// GenerateSpeech handles POST /v1/speech/generate_speech.
func (h *SpeechHandler) GenerateSpeech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	rec, err := h.tasks.StartSpeech(r.Context(), req.Text, domain.ResolveVoice(req.Voice))
	if err != nil {
		handleStartError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progressResponse(rec))
}

// SpeechStatus handles GET /v1/speech/speech_status/{task_id}.
func (h *SpeechHandler) SpeechStatus(w http.ResponseWriter, r *http.Request) {
	pollProgress(w, r, h.poller, task.TypeSpeech)
}

// DownloadURL handles GET /v1/speech/download_url/{task_id}. Links are only
// issued for finished tasks.
func (h *SpeechHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	rec, ok := pollFinished(w, r, h.poller, task.TypeSpeech)
	if !ok {
		return
	}

	token, expiresAt, err := h.tokens.GenerateDownloadToken(r.Context(), rec.TaskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create download link")
		return
	}

	link := fmt.Sprintf("%s/v1/speech/download_speech/%s?token=%s",
		h.baseURL(r), url.PathEscape(rec.TaskID), url.QueryEscape(token))
	shared.RespondWithJSON(w, r, http.StatusOK, DownloadURLResponse{URL: link, ExpiresAt: expiresAt.UTC()})
}

// DownloadSpeech handles GET /v1/speech/download_speech/{task_id}.
func (h *SpeechHandler) DownloadSpeech(w http.ResponseWriter, r *http.Request) {
	rec, ok := pollFinished(w, r, h.poller, task.TypeSpeech)
	if !ok {
		return
	}

	obj, err := h.files.Open(r.Context(), rec.FilePath)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer func() { _ = obj.Body.Close() }()

	contentType := rec.ContentType
	if contentType == "" {
		contentType = obj.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=speech_%s.mp3", rec.TaskID))
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		logger.FromContext(r.Context()).Warn("speech download interrupted",
			"task_id", rec.TaskID,
			"error", err)
	}
}

func (h *SpeechHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
