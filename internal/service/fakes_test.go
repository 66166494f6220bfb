package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

type fakeSearcher struct {
	SearchFn func(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
	queries  []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.SearchFn(ctx, query, maxResults)
}

type fakeEmbedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f.EmbedFn(ctx, texts)
}

type fakeChat struct {
	CompleteFn func(ctx context.Context, req provider.ChatRequest) (string, error)
	mu         sync.Mutex
	requests   []provider.ChatRequest
}

func (f *fakeChat) Complete(ctx context.Context, req provider.ChatRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.CompleteFn(ctx, req)
}

type fakeDescriber struct {
	DescribeImageFn func(ctx context.Context, image []byte, contentType, prompt string) (string, error)
}

func (f *fakeDescriber) DescribeImage(ctx context.Context, image []byte, contentType, prompt string) (string, error) {
	return f.DescribeImageFn(ctx, image, contentType, prompt)
}

type fakeDocuments struct {
	InsertChunksFn    func(ctx context.Context, contextID domain.ContextID, chunks []domain.DocumentChunk) error
	SearchFn          func(ctx context.Context, contextID domain.ContextID, embedding []float32, k int) ([]domain.ScoredChunk, error)
	DeleteByContextFn func(ctx context.Context, contextID domain.ContextID) (int64, error)
}

func (f *fakeDocuments) InsertChunks(ctx context.Context, contextID domain.ContextID, chunks []domain.DocumentChunk) error {
	return f.InsertChunksFn(ctx, contextID, chunks)
}

func (f *fakeDocuments) Search(ctx context.Context, contextID domain.ContextID, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	return f.SearchFn(ctx, contextID, embedding, k)
}

func (f *fakeDocuments) DeleteByContext(ctx context.Context, contextID domain.ContextID) (int64, error) {
	return f.DeleteByContextFn(ctx, contextID)
}

// memJSONCache is an in-memory JSONCache.
type memJSONCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemJSONCache() *memJSONCache {
	return &memJSONCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memJSONCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memJSONCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.ttls[key] = ttl
	return nil
}

func (c *memJSONCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
