package api

import (
	"net/http"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// DeepgramHandler serves /v1/deepgram.
type DeepgramHandler struct {
	tasks   TaskStarter
	poller  TaskPoller
	uploads Uploads
}

// NewDeepgramHandler creates a DeepgramHandler.
func NewDeepgramHandler(tasks TaskStarter, poller TaskPoller, uploads Uploads) *DeepgramHandler {
	return &DeepgramHandler{tasks: tasks, poller: poller, uploads: uploads}
}

// Transcribe handles POST /v1/deepgram/transcribe/.
func (h *DeepgramHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	src, header, err := h.uploads.formFile(w, r, "file", "audio")
	if err != nil {
		respondUploadError(w, r, err)
		return
	}
	defer func() { _ = src.Close() }()

	if err := domain.DeepgramAudioTypes.Check(header.Header.Get("Content-Type")); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Unsupported file type. Please upload a WAV, MP3, or FLAC file.")
		return
	}

	upload, err := h.uploads.save(src, header)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save upload")
		return
	}

	rec, err := h.tasks.StartDeepgramTranscription(r.Context(), upload)
	if err != nil {
		handleStartError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{TaskID: rec.TaskID, Status: rec.Status})
}

// Transcription handles GET /v1/deepgram/transcription/{task_id}.
func (h *DeepgramHandler) Transcription(w http.ResponseWriter, r *http.Request) {
	rec, ok := pollFinished(w, r, h.poller, task.TypeDeepgramTranscription)
	if !ok {
		return
	}

	var confidence float64
	if rec.Confidence != nil {
		confidence = *rec.Confidence
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeepgramTranscriptionResponse{
		Transcription: rec.Transcription,
		Confidence:    confidence,
	})
}
