package api

import (
	"context"
	"net/http"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// TaskStarter starts background tasks. *task.Factory implements it.
type TaskStarter interface {
	StartTranscription(ctx context.Context, upload task.Upload, targetLanguage string) (task.Record, error)
	StartSpeech(ctx context.Context, text string, voice domain.Voice) (task.Record, error)
	StartIngestion(ctx context.Context, upload task.Upload, contextID domain.ContextID) (task.Record, error)
	StartDeepgramTranscription(ctx context.Context, upload task.Upload) (task.Record, error)
}

// TaskPoller reads task records for one pipeline. *task.Poller implements it.
type TaskPoller interface {
	Poll(ctx context.Context, id string, typ task.Type) (task.Record, error)
}

// pollFinished polls a task whose result is only served once it succeeded.
// It writes 404 for unknown tasks, 500 with the stored message for failed
// ones and 202 while the task runs. ok is true only for a finished record.
func pollFinished(w http.ResponseWriter, r *http.Request, poller TaskPoller, typ task.Type) (task.Record, bool) {
	rec, err := poller.Poll(r.Context(), taskIDParam(r), typ)
	if err != nil {
		if failed, isFailed := task.IsFailed(err); isFailed {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, failed.Message, err)
			return task.Record{}, false
		}
		HandleAPIError(w, r, err, "")
		return task.Record{}, false
	}
	if !rec.Succeeded() {
		shared.RespondProcessing(w, r)
		return task.Record{}, false
	}
	return rec, true
}

// pollProgress polls a task and renders its record as-is, failures included.
func pollProgress(w http.ResponseWriter, r *http.Request, poller TaskPoller, typ task.Type) {
	rec, err := poller.Poll(r.Context(), taskIDParam(r), typ)
	if err != nil {
		if _, isFailed := task.IsFailed(err); !isFailed {
			HandleAPIError(w, r, err, "")
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progressResponse(rec))
}

// handleStartError maps errors from TaskStarter, hiding internals behind a
// generic message when nothing more specific applies.
func handleStartError(w http.ResponseWriter, r *http.Request, err error) {
	if MapErrorToStatusCode(err) == http.StatusInternalServerError {
		HandleAPIError(w, r, err, "Failed to start task")
		return
	}
	HandleAPIError(w, r, err, "")
}
