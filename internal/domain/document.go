package domain

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded segment of an ingested document.
type DocumentChunk struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	ContextID   ContextID
	Content     string
	Source      string
	ChunkIndex  int
	TotalChunks int
	Embedding   []float32
	CreatedAt   time.Time
}

// ScoredChunk is a chunk returned by similarity search with its cosine distance.
type ScoredChunk struct {
	DocumentChunk
	Distance float64
}

// Answer is the result of a RAG question.
type Answer struct {
	Answer          string    `json:"answer"`
	Sources         []string  `json:"sources"`
	ConfidenceScore float64   `json:"confidence_score"`
	ContextID       ContextID `json:"context_id"`
}

// ConfidenceScore estimates answer quality from the retrieved chunks and the answer:
// 70% average source richness (content length over 500, capped at 1) plus
// 30% answer richness (length over 200, capped at 1), rounded to two decimals.
// It is 0 when nothing was retrieved.
func ConfidenceScore(sources []string, answer string) float64 {
	if len(sources) == 0 {
		return 0
	}

	var total float64
	for _, s := range sources {
		total += math.Min(float64(utf8.RuneCountInString(s))/500, 1)
	}
	avgSource := total / float64(len(sources))
	answerScore := math.Min(float64(utf8.RuneCountInString(answer))/200, 1)

	return math.Round((avgSource*0.7+answerScore*0.3)*100) / 100
}
