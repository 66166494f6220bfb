package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/domain/chunking"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// ChunkWriter persists embedded chunks inside one context partition.
// InsertChunks stores the whole slice atomically.
type ChunkWriter interface {
	InsertChunks(ctx context.Context, contextID domain.ContextID, chunks []domain.DocumentChunk) error
}

// IngestionTask extracts text from an uploaded PDF, splits it into chunks,
// embeds them and stores them under the task's context id.
type IngestionTask struct {
	processor
	upload     Upload
	contextID  domain.ContextID
	documentID uuid.UUID
	chunkSize  int
	batchSize  int
	extractor  provider.TextExtractor
	embedder   provider.Embedder
	documents  ChunkWriter
}

// Execute implements Task.
func (t *IngestionTask) Execute(ctx context.Context) error {
	defer t.upload.remove(ctx)

	chunks, err := t.ingest(ctx)
	if err != nil {
		return t.fail(ctx, "Error processing document: ", err)
	}

	return t.reporter.Complete(ctx, Result{
		DocumentID: t.documentID.String(),
		Chunks:     &chunks,
	})
}

func (t *IngestionTask) ingest(ctx context.Context) (int, error) {
	text, err := t.extractor.ExtractText(ctx, t.upload.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to extract text: %w", err)
	}

	segments := chunking.Split(text, t.chunkSize)
	if len(segments) == 0 {
		return 0, fmt.Errorf("%w: no text could be extracted", domain.ErrEmptyContent)
	}

	if err := t.advance(ctx, "chunked", StatusVectorizing, 50); err != nil {
		return 0, err
	}

	// Every batch is embedded before anything is stored so a failed
	// ingestion leaves no chunks behind in the context.
	now := time.Now().UTC()
	chunks := make([]domain.DocumentChunk, 0, len(segments))
	for start := 0; start < len(segments); start += t.batchSize {
		end := min(start+t.batchSize, len(segments))
		batch := segments[start:end]

		vectors, err := t.embedder.Embed(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
				provider.ErrInvalidResponse, len(vectors), len(batch))
		}

		for i, content := range batch {
			chunks = append(chunks, domain.DocumentChunk{
				ID:          uuid.New(),
				DocumentID:  t.documentID,
				ContextID:   t.contextID,
				Content:     content,
				Source:      t.upload.Filename,
				ChunkIndex:  start + i,
				TotalChunks: len(segments),
				Embedding:   vectors[i],
				CreatedAt:   now,
			})
		}

		progress := 50 + 40*end/len(segments)
		if err := t.advance(ctx, "vectorized batch", StatusVectorizing, progress); err != nil {
			return 0, err
		}
	}

	if err := t.documents.InsertChunks(ctx, t.contextID, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	return len(segments), nil
}
