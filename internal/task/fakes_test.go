package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCache is an in-memory Cache that keeps every written version of each key.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	history map[string][][]byte
	setErr  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, history: map[string][][]byte{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	c.history[key] = append(c.history[key], data)
	return nil
}

func (c *memCache) SetJSONIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	_, exists := c.data[key]
	c.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, c.SetJSON(ctx, key, value, ttl)
}

func (c *memCache) expire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// versions decodes every record written under id, in write order.
func (c *memCache) versions(t *testing.T, id string) []Record {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, 0, len(c.history[Key(id)]))
	for _, data := range c.history[Key(id)] {
		var rec Record
		require.NoError(t, json.Unmarshal(data, &rec))
		out = append(out, rec)
	}
	return out
}

func newTestRecords(t *testing.T) (*RecordStore, *memCache) {
	t.Helper()
	cache := newMemCache()
	records, err := NewRecordStore(cache, time.Hour)
	require.NoError(t, err)
	return records, cache
}

// waitFor polls cond until it returns true or the timeout expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// waitTerminal waits for the record of id to reach a terminal status and returns it.
func waitTerminal(t *testing.T, records *RecordStore, id string) Record {
	t.Helper()
	var rec Record
	waitFor(t, func() bool {
		var err error
		rec, err = records.Get(context.Background(), id)
		return err == nil && rec.Status.IsTerminal()
	})
	return rec
}

func writeUpload(t *testing.T, name, content string) Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return Upload{Path: path, Filename: name}
}

type fakeTranscriber struct {
	TranscribeFn func(ctx context.Context, audio io.Reader, filename string) (string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return f.TranscribeFn(ctx, audio, filename)
}

type fakeChat struct {
	CompleteFn func(ctx context.Context, req provider.ChatRequest) (string, error)
}

func (f *fakeChat) Complete(ctx context.Context, req provider.ChatRequest) (string, error) {
	return f.CompleteFn(ctx, req)
}

type fakeSynthesizer struct {
	SynthesizeFn func(ctx context.Context, text string, voice domain.Voice) (io.ReadCloser, error)
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string, voice domain.Voice) (io.ReadCloser, error) {
	return f.SynthesizeFn(ctx, text, voice)
}

type fakeFiles struct {
	mu     sync.Mutex
	saved  map[string][]byte
	SaveFn func(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

func (f *fakeFiles) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	if f.SaveFn != nil {
		return f.SaveFn(ctx, name, r, contentType)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[name] = buf.Bytes()
	return "speech/" + name, nil
}

type fakeExtractor struct {
	ExtractTextFn func(ctx context.Context, path string) (string, error)
}

func (f *fakeExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return f.ExtractTextFn(ctx, path)
}

type fakeEmbedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.EmbedFn != nil {
		return f.EmbedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

type fakeDocuments struct {
	mu             sync.Mutex
	chunks         []domain.DocumentChunk
	InsertChunksFn func(ctx context.Context, contextID domain.ContextID, chunks []domain.DocumentChunk) error
}

func (f *fakeDocuments) InsertChunks(ctx context.Context, contextID domain.ContextID, chunks []domain.DocumentChunk) error {
	if f.InsertChunksFn != nil {
		return f.InsertChunksFn(ctx, contextID, chunks)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunks...)
	return nil
}

type fakeRecognizer struct {
	RecognizeFn func(ctx context.Context, audio io.Reader, contentType string) (provider.Recognition, error)
}

func (f *fakeRecognizer) Recognize(ctx context.Context, audio io.Reader, contentType string) (provider.Recognition, error) {
	return f.RecognizeFn(ctx, audio, contentType)
}

// testTask is a Task whose behaviour is supplied per test.
type testTask struct {
	id        string
	ExecuteFn func(ctx context.Context) error
	FailFn    func(ctx context.Context, message string) error
}

func (t *testTask) ID() string { return t.id }
func (t *testTask) Type() Type { return TypeSpeech }
func (t *testTask) Execute(ctx context.Context) error {
	return t.ExecuteFn(ctx)
}

type failingTask struct {
	testTask
}

func (t *failingTask) Fail(ctx context.Context, message string) error {
	return t.FailFn(ctx, message)
}

var errBoom = errors.New("boom")
