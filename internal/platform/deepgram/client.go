// Package deepgram is a provider.SpeechRecognizer backed by Deepgram's
// pre-recorded /v1/listen REST endpoint.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// ProviderName labels errors and logs produced by this package.
const ProviderName = "deepgram"

const maxErrorBody = 4 << 10

// Client calls Deepgram over HTTP.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	model    string
	language string
	logger   *slog.Logger
}

var _ provider.SpeechRecognizer = (*Client)(nil)

// NewClient builds a Client. An empty API key is allowed for self-hosted
// deployments that do not authenticate.
func NewClient(cfg config.DeepgramConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid deepgram base url %q", provider.ErrInvalidConfig, cfg.BaseURL)
	}
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}

	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimRight(base.String(), "/") + "/v1/listen",
		apiKey:   cfg.APIKey,
		model:    model,
		language: language,
		logger:   logger.With("provider", ProviderName),
	}, nil
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type errorResponse struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// Recognize uploads audio and returns the top alternative of the first channel.
func (c *Client) Recognize(ctx context.Context, audio io.Reader, contentType string) (provider.Recognition, error) {
	q := url.Values{}
	q.Set("model", c.model)
	q.Set("smart_format", "true")
	q.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+q.Encode(), audio)
	if err != nil {
		return provider.Recognition{}, provider.NewError(ProviderName, "recognize", provider.ErrUpstream, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return provider.Recognition{}, provider.NewError(ProviderName, "recognize", provider.CategoryForTransport(err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return provider.Recognition{}, statusError(resp)
	}

	var body listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return provider.Recognition{}, provider.NewError(ProviderName, "recognize", provider.ErrUpstream,
			fmt.Errorf("%w: %v", provider.ErrInvalidResponse, err))
	}
	if len(body.Results.Channels) == 0 || len(body.Results.Channels[0].Alternatives) == 0 {
		return provider.Recognition{}, provider.NewError(ProviderName, "recognize", provider.ErrUpstream,
			fmt.Errorf("%w: no transcription alternatives found in the response", provider.ErrInvalidResponse))
	}

	alt := body.Results.Channels[0].Alternatives[0]
	c.logger.DebugContext(ctx, "audio recognized",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"confidence", alt.Confidence)
	return provider.Recognition{Transcript: alt.Transcript, Confidence: alt.Confidence}, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var body errorResponse
	if json.Unmarshal(raw, &body) == nil && body.ErrMsg != "" {
		msg = body.ErrMsg
	}

	perr := provider.NewError(ProviderName, "recognize", provider.CategoryForStatus(resp.StatusCode),
		fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		perr.RetryAfter = time.Duration(secs) * time.Second
	}
	return perr
}
