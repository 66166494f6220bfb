package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.OpenAIConfig{
		APIKey:             "sk-test",
		BaseURL:            srv.URL + "/v1",
		ChatModel:          "gpt-4o-mini",
		VisionModel:        "gpt-4o",
		TranscriptionModel: "whisper-1",
		SpeechModel:        "tts-1",
		EmbeddingModel:     "text-embedding-ada-002",
		Timeout:            5 * time.Second,
	}, 0, discardLogger())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func chatResponse(content, finishReason string) string {
	msg, _ := json.Marshal(content)
	return `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` +
		string(msg) + `},"finish_reason":"` + finishReason + `"}],"usage":{"total_tokens":12}}`
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.OpenAIConfig{APIKey: "sk"}, 0, nil)
	require.Error(t, err)

	_, err = NewClient(config.OpenAIConfig{}, 0, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidConfig)
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "fake-audio", string(data))
		assert.Equal(t, "clip.wav", header.Filename)
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		writeJSON(w, http.StatusOK, `{"text":"hello world"}`)
	})
	c := newTestClient(t, mux)

	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-audio"), "/tmp/uploads/clip.wav")

	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tts-1", req["model"])
		assert.Equal(t, "shimmer", req["voice"])
		assert.Equal(t, "mp3", req["response_format"])
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = io.WriteString(w, "ID3-bytes")
	})
	c := newTestClient(t, mux)

	rc, err := c.Synthesize(context.Background(), "Hello", domain.VoiceShimmer)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ID3-bytes", string(data))
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.NewServeMux())

	_, err := c.Synthesize(context.Background(), "", domain.VoiceNova)

	assert.ErrorIs(t, err, provider.ErrMalformedInput)
}

func TestEmbedOrdersByIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		],"usage":{"prompt_tokens":4,"total_tokens":4}}`)
	})
	c := newTestClient(t, mux)

	vectors, err := c.Embed(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDeltaSlice(t, []float32{0.1, 0.2}, vectors[0], 0.0001)
	assert.InDeltaSlice(t, []float32{0.3, 0.4}, vectors[1], 0.0001)
}

func TestEmbedCountMismatch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"object":"list","data":[{"index":0,"embedding":[0.1]}]}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Embed(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrInvalidResponse)
	assert.ErrorIs(t, err, provider.ErrUpstream)
}

func TestEmbedEmptyInput(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.NewServeMux())

	vectors, err := c.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestComplete(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model          string `json:"model"`
			Messages       []map[string]any
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0]["role"])
			assert.Equal(t, "user", req.Messages[1]["role"])
		}
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}
		writeJSON(w, http.StatusOK, chatResponse(`{"description":"ok"}`, "stop"))
	})
	c := newTestClient(t, mux)

	out, err := c.Complete(context.Background(), provider.ChatRequest{
		System: "system prompt",
		Prompt: "user prompt",
		JSON:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"description":"ok"}`, out)
}

func TestCompleteFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr []error
	}{
		{
			name:    "invalid key",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`,
			wantErr: []error{provider.ErrAuth},
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"Rate limit reached","type":"requests"}}`,
			wantErr: []error{provider.ErrRateLimited},
		},
		{
			name:    "server error without json body",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			wantErr: []error{provider.ErrTransient},
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			body:    `{"error":{"message":"bad","type":"invalid_request_error"}}`,
			wantErr: []error{provider.ErrMalformedInput},
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id":"c1","choices":[]}`,
			wantErr: []error{provider.ErrUpstream, provider.ErrInvalidResponse},
		},
		{
			name:    "content filtered",
			status:  http.StatusOK,
			body:    chatResponse("", "content_filter"),
			wantErr: []error{provider.ErrMalformedInput, provider.ErrContentBlocked},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			c := newTestClient(t, mux)

			_, err := c.Complete(context.Background(), provider.ChatRequest{Prompt: "hi"})

			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.ErrorIs(t, err, want)
			}
			var perr *provider.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ProviderName, perr.Provider)
			assert.Equal(t, "complete", perr.Op)
		})
	}
}

func TestDescribeImage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"model":"gpt-4o"`)
		assert.Contains(t, string(body), "data:image/png;base64,")
		assert.Contains(t, string(body), `"max_tokens":300`)
		writeJSON(w, http.StatusOK, chatResponse("A red apple on a table.", "stop"))
	})
	c := newTestClient(t, mux)

	out, err := c.DescribeImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "")

	require.NoError(t, err)
	assert.Equal(t, "A red apple on a table.", out)
}

func TestDescribeImageRejectsEmptyImage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.NewServeMux())

	_, err := c.DescribeImage(context.Background(), nil, "image/png", "")

	assert.ErrorIs(t, err, provider.ErrMalformedInput)
}

func TestTransportErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NewServeMux())
	url := srv.URL
	srv.Close()

	c, err := NewClient(config.OpenAIConfig{APIKey: "sk", BaseURL: url + "/v1", ChatModel: "m", Timeout: time.Second}, 0, discardLogger())
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), provider.ChatRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransient)
}
