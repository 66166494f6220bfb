package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/service"
	"github.com/dudoxx/dudoxx-api/internal/service/auth"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// KeyAuthenticator resolves a plaintext API key to its stored record.
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, key string) (*domain.APIKey, error)
}

// DownloadTokenValidator checks signed download links.
type DownloadTokenValidator interface {
	ValidateDownloadToken(ctx context.Context, token, taskID string) (*auth.Claims, error)
}

// APIKeyMiddleware authenticates requests by API key.
type APIKeyMiddleware struct {
	keys   KeyAuthenticator
	tokens DownloadTokenValidator
}

// NewAPIKeyMiddleware creates an APIKeyMiddleware. tokens may be nil, in which
// case AllowDownloadToken behaves like RequireAPIKey.
func NewAPIKeyMiddleware(keys KeyAuthenticator, tokens DownloadTokenValidator) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys, tokens: tokens}
}

// RequireAPIKey rejects requests without a valid X-API-Key header and stores
// the authenticated key in the request context.
func (m *APIKeyMiddleware) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(APIKeyHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "API Key is missing")
			return
		}

		key, err := m.keys.Authenticate(r.Context(), raw)
		if err != nil {
			if errors.Is(err, service.ErrInvalidAPIKey) {
				shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, "Invalid API Key", err,
					shared.WithElevatedLogLevel())
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithAPIKey(r.Context(), key)))
	})
}

// AllowDownloadToken accepts a ?token= signed for the route's {task_id} in
// place of the API key header. Requests without a token go through RequireAPIKey.
func (m *APIKeyMiddleware) AllowDownloadToken(next http.Handler) http.Handler {
	withKey := m.RequireAPIKey(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" || m.tokens == nil {
			withKey.ServeHTTP(w, r)
			return
		}

		taskID := chi.URLParam(r, "task_id")
		if _, err := m.tokens.ValidateDownloadToken(r.Context(), token, taskID); err != nil {
			msg := "Invalid download token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Download link expired"
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, msg, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
