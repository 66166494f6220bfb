package api

import (
	"net/http"
	"strings"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// TranscriptionHandler serves /v1/transcription.
type TranscriptionHandler struct {
	tasks   TaskStarter
	poller  TaskPoller
	uploads Uploads
}

// NewTranscriptionHandler creates a TranscriptionHandler.
func NewTranscriptionHandler(tasks TaskStarter, poller TaskPoller, uploads Uploads) *TranscriptionHandler {
	return &TranscriptionHandler{tasks: tasks, poller: poller, uploads: uploads}
}

// TranscribeAudio handles POST /v1/transcription/transcribe_audio.
func (h *TranscriptionHandler) TranscribeAudio(w http.ResponseWriter, r *http.Request) {
	src, header, err := h.uploads.formFile(w, r, "file", "audio")
	if err != nil {
		respondUploadError(w, r, err)
		return
	}
	defer func() { _ = src.Close() }()

	if err := domain.TranscriptionAudioTypes.Check(header.Header.Get("Content-Type")); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Unsupported file type. Please upload an MP3, WAV, or M4A file.")
		return
	}

	targetLanguage := strings.TrimSpace(r.URL.Query().Get("target_language"))
	if targetLanguage == "" {
		targetLanguage = task.DefaultTargetLanguage
	}

	upload, err := h.uploads.save(src, header)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save upload")
		return
	}

	rec, err := h.tasks.StartTranscription(r.Context(), upload, targetLanguage)
	if err != nil {
		handleStartError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{TaskID: rec.TaskID, Status: rec.Status})
}

// TaskStatus handles GET /v1/transcription/task_status/{task_id}. A running
// task reports only its status, a finished one its transcription.
func (h *TranscriptionHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.poller.Poll(r.Context(), taskIDParam(r), task.TypeTranscription)
	if err != nil {
		if failed, ok := task.IsFailed(err); ok {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, failed.Message, err)
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	if !rec.Succeeded() {
		shared.RespondWithJSON(w, r, http.StatusOK, TaskStatusResponse{Status: rec.Status})
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TranscriptionResponse{
		Transcription: rec.Transcription,
		Translation:   rec.Translation,
	})
}
