package store

import (
	"context"

	"github.com/dudoxx/dudoxx-api/internal/domain"
)

// DocumentStore persists embedded document chunks. Every method is scoped
// to one context partition; no method can read or write across partitions.
type DocumentStore interface {
	// InsertChunks stores chunks in contextID. Every chunk's ContextID must
	// equal contextID, otherwise ErrInvalidEntity is returned and nothing is written.
	InsertChunks(ctx context.Context, contextID domain.ContextID, chunks []domain.DocumentChunk) error

	// Search returns up to k chunks in contextID nearest to embedding by
	// cosine distance, nearest first.
	Search(ctx context.Context, contextID domain.ContextID, embedding []float32, k int) ([]domain.ScoredChunk, error)

	// DeleteByContext removes every chunk in contextID and returns how many were removed.
	DeleteByContext(ctx context.Context, contextID domain.ContextID) (int64, error)
}
