package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dudoxx/dudoxx-api/internal/api"
	apiMiddleware "github.com/dudoxx/dudoxx-api/internal/api/middleware"
	"github.com/dudoxx/dudoxx-api/internal/cache"
	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/platform/deepgram"
	"github.com/dudoxx/dudoxx-api/internal/platform/duckduckgo"
	"github.com/dudoxx/dudoxx-api/internal/platform/gemini"
	"github.com/dudoxx/dudoxx-api/internal/platform/openai"
	"github.com/dudoxx/dudoxx-api/internal/platform/pdf"
	"github.com/dudoxx/dudoxx-api/internal/platform/postgres"
	"github.com/dudoxx/dudoxx-api/internal/platform/storage"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	"github.com/dudoxx/dudoxx-api/internal/service"
	"github.com/dudoxx/dudoxx-api/internal/service/auth"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// rateLimiterCacheSize bounds the number of callers tracked by the in-memory limiter.
const rateLimiterCacheSize = 10_000

// application holds the dependencies shared by the HTTP server.
// Everything is built once in newApplication; nothing is looked up globally.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client
	runner *task.Runner
	router routerDeps
}

// newApplication builds the dependency graph from configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	app := &application{config: cfg, logger: logger, db: db}
	ok := false
	defer func() {
		if !ok {
			app.cleanup()
		}
	}()

	redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	app.redis = redisClient
	cacheStore := cache.New(redisClient)

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Providers
	openaiClient, err := openai.NewClient(cfg.OpenAI, cfg.LLM.Temperature, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	chat, err := chatCompleter(ctx, cfg, openaiClient, logger)
	if err != nil {
		return nil, err
	}
	recognizer, err := deepgram.NewClient(cfg.Deepgram, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create deepgram client: %w", err)
	}
	searcher, err := duckduckgo.NewSearcher(cfg.Search, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web searcher: %w", err)
	}
	files, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}

	// Stores
	apiKeyStore := postgres.NewPostgresAPIKeyStore(db, logger)
	documentStore := postgres.NewPostgresDocumentStore(db, cfg.RAG.EmbeddingDimensions, logger)

	// Tasks
	records, err := task.NewRecordStore(cacheStore, cfg.Redis.TaskTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create task record store: %w", err)
	}
	app.runner = task.NewRunner(logger)
	factory, err := task.NewFactory(task.FactoryDeps{
		Records:            records,
		Runner:             app.runner,
		Transcriber:        openaiClient,
		Translator:         chat,
		Synthesizer:        openaiClient,
		Files:              files,
		Extractor:          pdf.NewExtractor(logger),
		Embedder:           openaiClient,
		Documents:          documentStore,
		Recognizer:         recognizer,
		ChunkSize:          cfg.RAG.ChunkSize,
		EmbeddingBatchSize: cfg.RAG.EmbeddingBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}
	poller, err := task.NewPoller(records)
	if err != nil {
		return nil, fmt.Errorf("failed to create task poller: %w", err)
	}

	// Services
	apiKeyService, err := service.NewAPIKeyService(apiKeyStore, db, cfg.APIKeys, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key service: %w", err)
	}
	lookupService, err := service.NewLookupService(service.LookupDeps{
		Searcher:   searcher,
		Embedder:   openaiClient,
		Chat:       chat,
		Cache:      cacheStore,
		CacheTTL:   cfg.Redis.LookupTTL,
		MaxResults: cfg.Search.MaxResults,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup service: %w", err)
	}
	imageService, err := service.NewImageService(openaiClient, chat, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image service: %w", err)
	}
	ragService, err := service.NewRAGService(documentStore, openaiClient, chat, cfg.RAG.TopK, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rag service: %w", err)
	}
	downloadTokens, err := auth.NewDownloadTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create download token service: %w", err)
	}

	uploads := api.Uploads{Dir: cfg.Server.UploadDir, MaxBytes: cfg.Server.MaxUploadBytes}
	app.router = routerDeps{
		logger: logger,
		handlers: routeHandlers{
			health: api.NewHealthHandler(map[string]api.HealthCheck{
				"postgres": db.PingContext,
				"redis":    cacheStore.Ping,
			}),
			apiKeys:       api.NewAPIKeyHandler(apiKeyService),
			lookup:        api.NewLookupHandler(lookupService),
			image:         api.NewImageHandler(imageService, uploads),
			transcription: api.NewTranscriptionHandler(factory, poller, uploads),
			speech:        api.NewSpeechHandler(factory, poller, files, downloadTokens, cfg.Server.PublicBaseURL),
			deepgram:      api.NewDeepgramHandler(factory, poller, uploads),
			rag:           api.NewRAGHandler(factory, poller, ragService, uploads),
		},
		keys:    apiMiddleware.NewAPIKeyMiddleware(apiKeyService, downloadTokens),
		limiter: newLimiter(cfg.RateLimit, redisClient),
	}

	ok = true
	logger.Info("application initialized successfully")
	return app, nil
}

// chatCompleter returns the provider selected by llm.provider.
func chatCompleter(
	ctx context.Context,
	cfg *config.Config,
	openaiClient *openai.Client,
	logger *slog.Logger,
) (provider.ChatCompleter, error) {
	if cfg.LLM.Provider != "gemini" {
		return openaiClient, nil
	}
	client, err := gemini.NewClient(ctx, cfg.Gemini, cfg.LLM.Temperature, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// newLimiter returns nil when rate limiting is disabled.
func newLimiter(cfg config.RateLimitConfig, client *redis.Client) apiMiddleware.Limiter {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Backend == "memory" {
		return apiMiddleware.NewMemoryLimiter(rateLimiterCacheSize, 10*time.Minute)
	}
	return apiMiddleware.NewRedisLimiter(client)
}

// Run serves HTTP until ctx is canceled or the server fails.
func (app *application) Run(ctx context.Context) error {
	handler := newRouter(app.router)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := app.startHTTPServer(ctx, server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources. Safe to call on a partially built application.
func (app *application) cleanup() {
	if app.runner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		if err := app.runner.Stop(ctx); err != nil {
			app.logger.Warn("task runner did not drain before shutdown", "error", err)
		}
		cancel()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
