package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dudoxx/dudoxx-api/internal/api"
	apiMiddleware "github.com/dudoxx/dudoxx-api/internal/api/middleware"
)

const rateWindow = time.Minute

// routeHandlers groups the HTTP handlers mounted by newRouter.
type routeHandlers struct {
	health        *api.HealthHandler
	apiKeys       *api.APIKeyHandler
	lookup        *api.LookupHandler
	image         *api.ImageHandler
	transcription *api.TranscriptionHandler
	speech        *api.SpeechHandler
	deepgram      *api.DeepgramHandler
	rag           *api.RAGHandler
}

// routerDeps is everything newRouter needs. A nil limiter disables rate limiting.
type routerDeps struct {
	handlers routeHandlers
	keys     *apiMiddleware.APIKeyMiddleware
	limiter  apiMiddleware.Limiter
	logger   *slog.Logger
}

// newRouter creates the application router with all routes and middleware.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(deps.logger))

	limit := func(route string, n int) func(http.Handler) http.Handler {
		if deps.limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return apiMiddleware.RateLimit(deps.limiter, route, n, rateWindow)
	}

	h := deps.handlers
	r.Get("/ping", h.health.Ping)
	r.Get("/health", h.health.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/api_key", func(r chi.Router) {
			r.Post("/create_api_key", h.apiKeys.CreateAPIKey)
			r.Post("/validate_key", h.apiKeys.ValidateKey)

			r.Group(func(r chi.Router) {
				r.Use(deps.keys.RequireAPIKey)
				r.With(limit("list_keys", 5)).Get("/list_keys", h.apiKeys.ListKeys)
				r.Delete("/revoke_key/{api_key}", h.apiKeys.RevokeKey)
			})
		})

		r.Route("/speech", func(r chi.Router) {
			// Downloads accept a signed link instead of an API key.
			r.With(deps.keys.AllowDownloadToken, limit("download_speech", 5)).
				Get("/download_speech/{task_id}", h.speech.DownloadSpeech)

			r.Group(func(r chi.Router) {
				r.Use(deps.keys.RequireAPIKey)
				r.With(limit("generate_speech", 5)).Post("/generate_speech", h.speech.GenerateSpeech)
				r.With(limit("speech_status", 5)).Get("/speech_status/{task_id}", h.speech.SpeechStatus)
				r.With(limit("download_url", 5)).Get("/download_url/{task_id}", h.speech.DownloadURL)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.keys.RequireAPIKey)

			r.Route("/drug", func(r chi.Router) {
				r.With(limit("drug_info", 5)).Get("/drug_info/{drug_name}", h.lookup.DrugInfo)
				r.With(limit("disease_info", 5)).Get("/disease_info/{disease_name}", h.lookup.DiseaseInfo)
			})

			r.With(limit("describe_image", 5)).Post("/image/describe_image", h.image.DescribeImage)

			r.Route("/transcription", func(r chi.Router) {
				r.With(limit("transcribe_audio", 5)).Post("/transcribe_audio", h.transcription.TranscribeAudio)
				r.Get("/task_status/{task_id}", h.transcription.TaskStatus)
			})

			r.Route("/deepgram", func(r chi.Router) {
				r.With(limit("deepgram_transcribe", 6)).Post("/transcribe/", h.deepgram.Transcribe)
				r.Get("/transcription/{task_id}", h.deepgram.Transcription)
			})

			r.Route("/rag_pgvector", func(r chi.Router) {
				r.With(limit("upload_document", 5)).Post("/documents/upload", h.rag.UploadDocument)
				r.Get("/documents/status/{task_id}", h.rag.DocumentStatus)
				r.Delete("/documents/context/{context_id}", h.rag.DeleteContext)
				r.With(limit("rag_question", 5)).Post("/rag/question", h.rag.AskQuestion)
			})
		})
	})

	return r
}
