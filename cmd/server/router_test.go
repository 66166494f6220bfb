package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudoxx/dudoxx-api/internal/api"
	apiMiddleware "github.com/dudoxx/dudoxx-api/internal/api/middleware"
	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/service"
	"github.com/dudoxx/dudoxx-api/internal/service/auth"
)

const testKey = "dud-abcd1234EFGHijklMNOPqrstUVWXyz01"

type fakeKeyService struct{}

func (fakeKeyService) CreateKey(context.Context) (*service.CreatedAPIKey, error) {
	return &service.CreatedAPIKey{Key: testKey, Prefix: "dud-abcd", CreatedAt: time.Unix(0, 0).UTC()}, nil
}

func (fakeKeyService) ListKeys(context.Context) ([]domain.APIKey, error) { return nil, nil }

func (fakeKeyService) RevokeKey(context.Context, string) error { return service.ErrAPIKeyNotFound }

func (fakeKeyService) ValidateKey(_ context.Context, key string) (bool, error) {
	return key == testKey, nil
}

func (fakeKeyService) Authenticate(_ context.Context, key string) (*domain.APIKey, error) {
	if key != testKey {
		return nil, service.ErrInvalidAPIKey
	}
	return &domain.APIKey{Prefix: "dud-abcd", IsActive: true}, nil
}

type rejectingTokens struct{}

func (rejectingTokens) ValidateDownloadToken(context.Context, string, string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func newTestRouter(t *testing.T, limiter apiMiddleware.Limiter) http.Handler {
	t.Helper()
	keys := fakeKeyService{}
	return newRouter(routerDeps{
		handlers: routeHandlers{
			health: api.NewHealthHandler(map[string]api.HealthCheck{
				"redis": func(context.Context) error { return nil },
			}),
			apiKeys:       api.NewAPIKeyHandler(keys),
			lookup:        api.NewLookupHandler(nil),
			image:         api.NewImageHandler(nil, api.Uploads{}),
			transcription: api.NewTranscriptionHandler(nil, nil, api.Uploads{}),
			speech:        api.NewSpeechHandler(nil, nil, nil, nil, ""),
			deepgram:      api.NewDeepgramHandler(nil, nil, api.Uploads{}),
			rag:           api.NewRAGHandler(nil, nil, nil, api.Uploads{}),
		},
		keys:    apiMiddleware.NewAPIKeyMiddleware(keys, rejectingTokens{}),
		limiter: limiter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func do(t *testing.T, h http.Handler, method, target, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if key != "" {
		req.Header.Set(apiMiddleware.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"ping", http.MethodGet, "/ping", http.StatusOK, `{"ping":"pong!"}`},
		{"health", http.MethodGet, "/health", http.StatusOK, `{"status":"ok"}`},
		{"create key", http.MethodPost, "/v1/api_key/create_api_key", http.StatusOK, `"prefix":"dud-abcd"`},
		{"validate key", http.MethodPost, "/v1/api_key/validate_key?api_key=" + testKey, http.StatusOK, "true"},
		{"unknown route", http.MethodGet, "/v1/nope", http.StatusNotFound, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, h, tc.method, tc.target, "")
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestRouter_ProtectedRoutesRequireKey(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	routes := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/v1/api_key/list_keys"},
		{http.MethodDelete, "/v1/api_key/revoke_key/dud-x"},
		{http.MethodGet, "/v1/drug/drug_info/aspirin"},
		{http.MethodGet, "/v1/drug/disease_info/flu"},
		{http.MethodPost, "/v1/image/describe_image"},
		{http.MethodPost, "/v1/transcription/transcribe_audio"},
		{http.MethodGet, "/v1/transcription/task_status/abc"},
		{http.MethodPost, "/v1/speech/generate_speech"},
		{http.MethodGet, "/v1/speech/speech_status/abc"},
		{http.MethodGet, "/v1/speech/download_url/abc"},
		{http.MethodGet, "/v1/speech/download_speech/abc"},
		{http.MethodPost, "/v1/deepgram/transcribe/"},
		{http.MethodGet, "/v1/deepgram/transcription/abc"},
		{http.MethodPost, "/v1/rag_pgvector/documents/upload"},
		{http.MethodGet, "/v1/rag_pgvector/documents/status/abc"},
		{http.MethodPost, "/v1/rag_pgvector/rag/question"},
		{http.MethodDelete, "/v1/rag_pgvector/documents/context/ctx-1"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.target, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, http.StatusUnauthorized, do(t, h, rt.method, rt.target, "").Code)
			assert.Equal(t, http.StatusForbidden, do(t, h, rt.method, rt.target, "dud-wrongwrongwrongwrongwrongwrong00").Code)
		})
	}
}

func TestRouter_AuthenticatedRequest(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/v1/api_key/list_keys", testKey)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/v1/api_key/revoke_key/dud-missingmissingmissingmissing00", testKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DownloadTokenRejected(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/v1/speech/download_speech/abc?token=forged", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid download token")
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, apiMiddleware.NewMemoryLimiter(100, time.Minute))

	for i := 0; i < 5; i++ {
		rec := do(t, h, http.MethodGet, "/v1/api_key/list_keys", testKey)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(t, h, http.MethodGet, "/v1/api_key/list_keys", testKey)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Unlimited routes are unaffected.
	rec = do(t, h, http.MethodDelete, "/v1/api_key/revoke_key/dud-missingmissingmissingmissing00", testKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, newLimiter(config.RateLimitConfig{Backend: "memory"}, nil))
	assert.IsType(t, &apiMiddleware.MemoryLimiter{}, newLimiter(config.RateLimitConfig{Enabled: true, Backend: "memory"}, nil))
	assert.IsType(t, &apiMiddleware.RedisLimiter{}, newLimiter(config.RateLimitConfig{Enabled: true, Backend: "redis"}, nil))
}

func TestHandleMigrations_RejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	err := handleMigrations(context.Background(), nil, "drop-everything", nil, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration command")
}
