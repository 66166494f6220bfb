package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/service"
)

// LookupHandler serves /v1/drug.
type LookupHandler struct {
	lookup service.LookupService
}

// NewLookupHandler creates a LookupHandler.
func NewLookupHandler(lookup service.LookupService) *LookupHandler {
	return &LookupHandler{lookup: lookup}
}

// DrugInfo handles GET /v1/drug/drug_info/{drug_name}.
func (h *LookupHandler) DrugInfo(w http.ResponseWriter, r *http.Request) {
	include, ok := boolQuery(w, r, "include_interactions")
	if !ok {
		return
	}
	info, err := h.lookup.DrugInfo(r.Context(), chi.URLParam(r, "drug_name"), include)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// DiseaseInfo handles GET /v1/drug/disease_info/{disease_name}.
func (h *LookupHandler) DiseaseInfo(w http.ResponseWriter, r *http.Request) {
	include, ok := boolQuery(w, r, "include_treatments")
	if !ok {
		return
	}
	info, err := h.lookup.DiseaseInfo(r.Context(), chi.URLParam(r, "disease_name"), include)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// boolQuery parses an optional boolean query parameter, writing 400 when it is malformed.
func boolQuery(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name+": must be a boolean")
		return false, false
	}
	return v, true
}
