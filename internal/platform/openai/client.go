// Package openai adapts github.com/sashabaranov/go-openai to the provider
// interfaces: Whisper transcription, TTS speech, embeddings, chat and vision.
// Every error returned from this package is a classified *provider.Error.
package openai

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	goopenai "github.com/sashabaranov/go-openai"
)

// ProviderName labels errors and logs produced by this package.
const ProviderName = "openai"

// Client wraps a go-openai client with the models chosen in configuration.
type Client struct {
	api                *goopenai.Client
	chatModel          string
	visionModel        string
	transcriptionModel string
	speechModel        goopenai.SpeechModel
	embeddingModel     goopenai.EmbeddingModel
	temperature        float32
	logger             *slog.Logger
}

var (
	_ provider.Transcriber       = (*Client)(nil)
	_ provider.SpeechSynthesizer = (*Client)(nil)
	_ provider.Embedder          = (*Client)(nil)
	_ provider.ChatCompleter     = (*Client)(nil)
	_ provider.ImageDescriber    = (*Client)(nil)
)

// NewClient builds a Client from cfg. temperature applies to chat completions.
func NewClient(cfg config.OpenAIConfig, temperature float32, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", provider.ErrInvalidConfig)
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:                goopenai.NewClientWithConfig(clientConfig),
		chatModel:          cfg.ChatModel,
		visionModel:        cfg.VisionModel,
		transcriptionModel: cfg.TranscriptionModel,
		speechModel:        goopenai.SpeechModel(cfg.SpeechModel),
		embeddingModel:     goopenai.EmbeddingModel(cfg.EmbeddingModel),
		temperature:        temperature,
		logger:             logger.With("provider", ProviderName),
	}, nil
}

// classify wraps an SDK error in a *provider.Error for op.
func classify(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return provider.NewError(ProviderName, op, provider.CategoryForStatus(apiErr.HTTPStatusCode), err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return provider.NewError(ProviderName, op, provider.CategoryForStatus(reqErr.HTTPStatusCode), err)
	}
	return provider.NewError(ProviderName, op, provider.CategoryForTransport(err), err)
}

func invalidResponse(op, detail string) error {
	return provider.NewError(ProviderName, op, provider.ErrUpstream,
		fmt.Errorf("%w: %s", provider.ErrInvalidResponse, detail))
}
