package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/service"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// RAGHandler serves /v1/rag_pgvector.
type RAGHandler struct {
	tasks   TaskStarter
	poller  TaskPoller
	rag     service.RAGService
	uploads Uploads
}

// NewRAGHandler creates a RAGHandler.
func NewRAGHandler(tasks TaskStarter, poller TaskPoller, rag service.RAGService, uploads Uploads) *RAGHandler {
	return &RAGHandler{tasks: tasks, poller: poller, rag: rag, uploads: uploads}
}

// UploadDocument handles POST /v1/rag_pgvector/documents/upload. The PDF is
// ingested in the background into context_id, or the caller's default context.
func (h *RAGHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	src, header, err := h.uploads.formFile(w, r, "file")
	if err != nil {
		respondUploadError(w, r, err)
		return
	}
	defer func() { _ = src.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	raw := r.FormValue("context_id")
	contextID, err := resolveContextID(r, raw)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	upload, err := h.uploads.save(src, header)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save upload")
		return
	}

	rec, err := h.tasks.StartIngestion(r.Context(), upload, contextID)
	if err != nil {
		handleStartError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progressResponse(rec))
}

// DocumentStatus handles GET /v1/rag_pgvector/documents/status/{task_id}.
// A failed ingestion is reported as 500 with the stored message.
func (h *RAGHandler) DocumentStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.poller.Poll(r.Context(), taskIDParam(r), task.TypeIngestion)
	if err != nil {
		if failed, ok := task.IsFailed(err); ok {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, failed.Message, err)
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progressResponse(rec))
}

// AskQuestion handles POST /v1/rag_pgvector/rag/question.
func (h *RAGHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	contextID, err := resolveContextID(r, req.ContextID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	answer, err := h.rag.Ask(r.Context(), contextID, req.Question)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, answer)
}

// DeleteContext handles DELETE /v1/rag_pgvector/documents/context/{context_id}.
func (h *RAGHandler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	contextID, err := domain.NewContextID(chi.URLParam(r, "context_id"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	n, err := h.rag.DeleteContext(r.Context(), contextID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete documents")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Deleted %d chunks for context %s", n, contextID),
	})
}
