// Package service contains the synchronous use cases behind the HTTP API:
// API key lifecycle and validation, drug and disease lookup, image
// description and RAG question answering.
//
// Services receive their collaborators (stores, provider adapters, the cache)
// through constructor injection and never construct infrastructure
// themselves, so tests substitute fakes per case.
//
// Error handling follows one rule: expected conditions are returned as
// sentinel errors from this package or from store/provider/domain, wrapped
// with context via fmt.Errorf or ServiceError. The API layer maps them to
// HTTP status codes with errors.Is.
//
// Long-running work (transcription, speech, document ingestion) does not live
// here; see internal/task.
package service
