package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	"google.golang.org/genai"
)

// ProviderName labels errors and logs produced by this package.
const ProviderName = "gemini"

const jsonMIMEType = "application/json"

// Client answers chat prompts with a Gemini model.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	maxRetries  int
	baseDelay   time.Duration
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ provider.ChatCompleter = (*Client)(nil)

// NewClient creates a Gemini chat client from cfg.
func NewClient(ctx context.Context, cfg config.GeminiConfig, temperature float32, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", provider.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: gemini model cannot be empty", provider.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", provider.ErrInvalidConfig, err)
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		temperature: temperature,
		maxRetries:  max(cfg.MaxRetries, 0),
		baseDelay:   cfg.RetryBaseDelay,
		logger:      logger.With("provider", ProviderName, "model", cfg.Model),
		sleep:       sleepContext,
	}, nil
}

// Complete sends req to the model and returns the first candidate's text.
func (c *Client) Complete(ctx context.Context, req provider.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", provider.NewError(ProviderName, "complete", provider.ErrMalformedInput,
			errors.New("prompt cannot be empty"))
	}

	temperature := c.temperature
	genConfig := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		genConfig.ResponseMIMEType = jsonMIMEType
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for attempt := 0; ; attempt++ {
		c.logger.DebugContext(ctx, "Making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", c.maxRetries+1,
			"prompt_length", len(req.Prompt))

		text, err := c.generate(ctx, req.Prompt, genConfig)
		if err == nil {
			return text, nil
		}

		if !errors.Is(err, provider.ErrTransient) && !errors.Is(err, provider.ErrRateLimited) {
			c.logger.WarnContext(ctx, "Gemini call failed, not retrying",
				"attempt", attempt+1,
				"error_category", provider.CategoryName(err),
				"error", err)
			return "", err
		}
		if attempt >= c.maxRetries {
			c.logger.WarnContext(ctx, "Maximum retry attempts reached",
				"max_retries", c.maxRetries,
				"error", err)
			return "", err
		}

		// delay = base * 2^attempt * [0.5, 1.0)
		backoff := float64(c.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))
		c.logger.InfoContext(ctx, "Retrying Gemini call after delay",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error_category", provider.CategoryName(err))

		if err := c.sleep(ctx, delay); err != nil {
			return "", provider.NewError(ProviderName, "complete", provider.ErrTransient, err)
		}
	}
}

func (c *Client) generate(ctx context.Context, prompt string, genConfig *genai.GenerateContentConfig) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", provider.NewError(ProviderName, "complete", provider.ErrUpstream,
			fmt.Errorf("%w: nil response", provider.ErrInvalidResponse))
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", provider.NewError(ProviderName, "complete", provider.ErrMalformedInput,
			fmt.Errorf("%w: prompt blocked: %s", provider.ErrContentBlocked, resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", provider.NewError(ProviderName, "complete", provider.ErrMalformedInput,
			provider.ErrContentBlocked)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", provider.NewError(ProviderName, "complete", provider.ErrUpstream,
			fmt.Errorf("%w: no content generated", provider.ErrInvalidResponse))
	}
	return text, nil
}

// classify maps a genai error onto a provider category.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return provider.NewError(ProviderName, "complete", categoryForAPIError(apiErr), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return provider.NewError(ProviderName, "complete", categoryForAPIError(*apiErrPtr), err)
	}
	return provider.NewError(ProviderName, "complete", provider.CategoryForTransport(err), err)
}

func categoryForAPIError(apiErr genai.APIError) error {
	if apiErr.Code == 0 && apiErr.Status == "RESOURCE_EXHAUSTED" {
		return provider.CategoryForStatus(http.StatusTooManyRequests)
	}
	return provider.CategoryForStatus(apiErr.Code)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
