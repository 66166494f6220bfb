// Package gemini implements provider.ChatCompleter on top of Google's Gemini
// API using the google.golang.org/genai client.
//
// It is selected with llm.provider=gemini and then serves every text chat
// completion in the service: translations, lookup summaries, image prompt
// refinement and RAG answers. Audio, speech, embeddings and vision stay on
// the OpenAI adapter.
//
// Transient failures (network errors, 5xx, 429) are retried with exponential
// backoff and jitter up to GeminiConfig.MaxRetries times. Every error leaving
// the package is a *provider.Error carrying one of the provider categories.
// Responses stopped by safety filters fail with provider.ErrContentBlocked
// classified as malformed input and are never retried.
package gemini
