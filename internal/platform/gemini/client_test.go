package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textResponse(text string) string {
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":` + mustJSON(text) + `}]},"finishReason":"STOP"}]}`
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// newTestClient points a Client at an httptest server and disables backoff sleeps.
func newTestClient(t *testing.T, retries int, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), config.GeminiConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/",
		Model:          "gemini-test",
		MaxRetries:     retries,
		RetryBaseDelay: time.Millisecond,
	}, 0.2, discardLogger())
	require.NoError(t, err)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    config.GeminiConfig
		logger *slog.Logger
	}{
		{"nil logger", config.GeminiConfig{APIKey: "k", Model: "m"}, nil},
		{"missing key", config.GeminiConfig{Model: "m"}, discardLogger()},
		{"missing model", config.GeminiConfig{APIKey: "k"}, discardLogger()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := NewClient(context.Background(), tc.cfg, 0, tc.logger)
			require.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestCompleteSendsRequest(t *testing.T) {
	t.Parallel()

	var body map[string]any
	var path string
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, textResponse(`{"answer":"ok"}`))
	})

	out, err := c.Complete(context.Background(), provider.ChatRequest{
		System: "You are a pharmacist.",
		Prompt: "Summarize aspirin.",
		JSON:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"answer":"ok"}`, out)
	assert.Contains(t, path, "gemini-test:generateContent")

	genConfig, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig should be sent")
	assert.Equal(t, "application/json", genConfig["responseMimeType"])
	assert.InDelta(t, 0.2, genConfig["temperature"], 0.001)
	assert.Contains(t, mustJSON(body["systemInstruction"]), "You are a pharmacist.")
	assert.Contains(t, mustJSON(body["contents"]), "Summarize aspirin.")
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "  "})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrMalformedInput)
}

func TestCompleteClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		category error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":401,"message":"bad key","status":"UNAUTHENTICATED"}}`, provider.ErrAuth},
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`, provider.ErrAuth},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, provider.ErrRateLimited},
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`, provider.ErrMalformedInput},
		{"server error", http.StatusInternalServerError, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`, provider.ErrTransient},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.category)
			var perr *provider.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ProviderName, perr.Provider)
		})
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		_, _ = io.WriteString(w, textResponse("finally"))
	})

	out, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "finally", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteDoesNotRetryPermanentFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`)
	})

	_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":{"code":502,"message":"gateway","status":"UNAVAILABLE"}}`)
	})

	_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransient)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteSafetyBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"candidate stopped", `{"candidates":[{"content":{"role":"model","parts":[{"text":"partial"}]},"finishReason":"SAFETY"}]}`},
		{"prompt blocked", `{"promptFeedback":{"blockReason":"SAFETY"}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

			require.Error(t, err)
			assert.ErrorIs(t, err, provider.ErrContentBlocked)
			assert.ErrorIs(t, err, provider.ErrMalformedInput)
		})
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidResponse)
	assert.ErrorIs(t, err, provider.ErrUpstream)
}

func TestCompleteCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
	})
	c.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hello"})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransient)
	assert.True(t, strings.Contains(err.Error(), "canceled"))
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
