package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/platform/logger"
	"github.com/dudoxx/dudoxx-api/internal/store"
)

// PostgresDocumentStore implements store.DocumentStore on a table with a
// pgvector embedding column. Every statement filters on context_id.
type PostgresDocumentStore struct {
	db         *sql.DB
	dimensions int
	logger     *slog.Logger
}

// NewPostgresDocumentStore creates a document store. dimensions must match
// the vector column size of the document_embeddings table.
func NewPostgresDocumentStore(db *sql.DB, dimensions int, logger *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDocumentStore{
		db:         db,
		dimensions: dimensions,
		logger:     logger.With(slog.String("component", "document_store")),
	}
}

// Ensure PostgresDocumentStore implements store.DocumentStore interface
var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// InsertChunks implements store.DocumentStore.InsertChunks.
// All chunks are written in one transaction.
func (s *PostgresDocumentStore) InsertChunks(
	ctx context.Context,
	contextID domain.ContextID,
	chunks []domain.DocumentChunk,
) error {
	if contextID == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidContextID)
	}
	for i := range chunks {
		if chunks[i].ContextID != contextID {
			return fmt.Errorf("%w: chunk %d belongs to context %q, not %q",
				store.ErrInvalidEntity, i, chunks[i].ContextID, contextID)
		}
		if s.dimensions > 0 && len(chunks[i].Embedding) != s.dimensions {
			return fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				store.ErrDimensionMismatch, i, len(chunks[i].Embedding), s.dimensions)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	query := `
		INSERT INTO document_embeddings
			(id, document_id, context_id, content, source, chunk_index, total_chunks, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, c := range chunks {
			_, err := stmt.ExecContext(ctx,
				c.ID, c.DocumentID, contextID.String(), c.Content, c.Source,
				c.ChunkIndex, c.TotalChunks, pgvector.NewVector(c.Embedding), c.CreatedAt,
			)
			if err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return store.NewStoreError("document", "insert", "failed to insert chunks", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("document chunks stored",
		slog.String("context_id", contextID.String()),
		slog.Int("count", len(chunks)))
	return nil
}

// Search implements store.DocumentStore.Search
func (s *PostgresDocumentStore) Search(
	ctx context.Context,
	contextID domain.ContextID,
	embedding []float32,
	k int,
) ([]domain.ScoredChunk, error) {
	if contextID == "" {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidContextID)
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	query := `
		SELECT id, document_id, context_id, content, source, chunk_index, total_chunks, created_at,
			embedding <=> $2 AS distance
		FROM document_embeddings
		WHERE context_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, contextID.String(), pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, store.NewStoreError("document", "search", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var (
			c      domain.ScoredChunk
			ctxCol string
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &ctxCol, &c.Content, &c.Source,
			&c.ChunkIndex, &c.TotalChunks, &c.CreatedAt, &c.Distance); err != nil {
			return nil, store.NewStoreError("document", "search", "scan failed", err)
		}
		c.ContextID = domain.ContextID(ctxCol)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("document", "search", "row iteration failed", err)
	}
	return results, nil
}

// DeleteByContext implements store.DocumentStore.DeleteByContext
func (s *PostgresDocumentStore) DeleteByContext(ctx context.Context, contextID domain.ContextID) (int64, error) {
	if contextID == "" {
		return 0, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidContextID)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM document_embeddings WHERE context_id = $1`, contextID.String())
	if err != nil {
		return 0, store.NewStoreError("document", "delete", "delete failed", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("deleted chunks for context",
		slog.String("context_id", contextID.String()),
		slog.Int64("count", n))
	return n, nil
}
