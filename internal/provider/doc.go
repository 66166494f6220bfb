// Package provider defines the boundary between the application and the
// hosted services it delegates to: transcription, speech synthesis,
// embeddings, chat completion, image description, web search and PDF text
// extraction.
//
// Adapters in internal/platform implement these interfaces and classify every
// failure into one of the categories in errors.go, so callers can tell an
// expired credential from a throttled request or a bad upload without
// parsing error strings.
package provider
