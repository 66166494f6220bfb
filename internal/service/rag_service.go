package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	"github.com/dudoxx/dudoxx-api/internal/store"
)

const ragSystemPrompt = `Use the following pieces of context to answer the user's question. If you don't know the answer, just say that you don't know, don't try to make up an answer.
----------------
%s`

// NoContextAnswer is returned when the context holds no documents.
const NoContextAnswer = "I don't know. No documents have been ingested for this context."

// RAGService answers questions from the documents ingested into a context.
type RAGService interface {
	// Ask answers question using the chunks of contextID nearest to it.
	Ask(ctx context.Context, contextID domain.ContextID, question string) (*domain.Answer, error)

	// DeleteContext removes every document chunk in contextID and returns the count.
	DeleteContext(ctx context.Context, contextID domain.ContextID) (int64, error)
}

type ragService struct {
	documents store.DocumentStore
	embedder  provider.Embedder
	chat      provider.ChatCompleter
	topK      int
	logger    *slog.Logger
}

var _ RAGService = (*ragService)(nil)

// NewRAGService creates a RAGService retrieving topK chunks per question.
func NewRAGService(
	documents store.DocumentStore,
	embedder provider.Embedder,
	chat provider.ChatCompleter,
	topK int,
	logger *slog.Logger,
) (RAGService, error) {
	if documents == nil {
		return nil, errors.New("document store cannot be nil")
	}
	if embedder == nil {
		return nil, errors.New("embedder cannot be nil")
	}
	if chat == nil {
		return nil, errors.New("chat completer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if topK <= 0 {
		topK = 4
	}
	return &ragService{
		documents: documents,
		embedder:  embedder,
		chat:      chat,
		topK:      topK,
		logger:    logger.With("component", "rag_service"),
	}, nil
}

func (s *ragService) Ask(ctx context.Context, contextID domain.ContextID, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}
	if contextID == "" {
		return nil, domain.ErrInvalidContextID
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, NewServiceError("rag", "embed_question", err)
	}
	if len(vectors) != 1 {
		return nil, NewServiceError("rag", "embed_question",
			fmt.Errorf("embedder returned %d vectors for 1 text", len(vectors)))
	}

	chunks, err := s.documents.Search(ctx, contextID, vectors[0], s.topK)
	if err != nil {
		return nil, NewServiceError("rag", "search", err)
	}
	if len(chunks) == 0 {
		s.logger.InfoContext(ctx, "no documents in context", "context_id", contextID)
		return &domain.Answer{
			Answer:          NoContextAnswer,
			Sources:         []string{},
			ConfidenceScore: 0,
			ContextID:       contextID,
		}, nil
	}

	contents := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
		sources[i] = c.Source
	}

	answer, err := s.chat.Complete(ctx, provider.ChatRequest{
		System: fmt.Sprintf(ragSystemPrompt, strings.Join(contents, "\n\n")),
		Prompt: question,
	})
	if err != nil {
		return nil, NewServiceError("rag", "answer", err)
	}
	answer = strings.TrimSpace(answer)

	return &domain.Answer{
		Answer:          answer,
		Sources:         sources,
		ConfidenceScore: domain.ConfidenceScore(contents, answer),
		ContextID:       contextID,
	}, nil
}

func (s *ragService) DeleteContext(ctx context.Context, contextID domain.ContextID) (int64, error) {
	if contextID == "" {
		return 0, domain.ErrInvalidContextID
	}
	n, err := s.documents.DeleteByContext(ctx, contextID)
	if err != nil {
		return 0, NewServiceError("rag", "delete_context", err)
	}
	s.logger.InfoContext(ctx, "context deleted", "context_id", contextID, "documents", n)
	return n, nil
}
