package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/service"
)

// APIKeyHandler serves /v1/api_key.
type APIKeyHandler struct {
	keys service.APIKeyService
}

// NewAPIKeyHandler creates an APIKeyHandler.
func NewAPIKeyHandler(keys service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// CreateAPIKey handles POST /v1/api_key/create_api_key. The plaintext key
// is only ever returned here.
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	created, err := h.keys.CreateKey(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create API key")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CreatedAPIKeyResponse{
		APIKey:    created.Key,
		Prefix:    created.Prefix,
		CreatedAt: created.CreatedAt,
	})
}

// ListKeys handles GET /v1/api_key/list_keys.
func (h *APIKeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.ListKeys(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list API keys")
		return
	}
	out := make([]APIKeyInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeyInfo(k))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// RevokeKey handles DELETE /v1/api_key/revoke_key/{api_key}.
func (h *APIKeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.RevokeKey(r.Context(), chi.URLParam(r, "api_key")); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateKey handles POST /v1/api_key/validate_key?api_key=.
func (h *APIKeyHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("api_key"))
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid api_key: required field")
		return
	}
	valid, err := h.keys.ValidateKey(r.Context(), key)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to validate API key")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, valid)
}
