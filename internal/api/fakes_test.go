package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/platform/storage"
	"github.com/dudoxx/dudoxx-api/internal/service"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

type fakeTasks struct {
	StartTranscriptionFn func(ctx context.Context, upload task.Upload, targetLanguage string) (task.Record, error)
	StartSpeechFn        func(ctx context.Context, text string, voice domain.Voice) (task.Record, error)
	StartIngestionFn     func(ctx context.Context, upload task.Upload, contextID domain.ContextID) (task.Record, error)
	StartDeepgramFn      func(ctx context.Context, upload task.Upload) (task.Record, error)
}

func (f *fakeTasks) StartTranscription(ctx context.Context, upload task.Upload, targetLanguage string) (task.Record, error) {
	return f.StartTranscriptionFn(ctx, upload, targetLanguage)
}

func (f *fakeTasks) StartSpeech(ctx context.Context, text string, voice domain.Voice) (task.Record, error) {
	return f.StartSpeechFn(ctx, text, voice)
}

func (f *fakeTasks) StartIngestion(ctx context.Context, upload task.Upload, contextID domain.ContextID) (task.Record, error) {
	return f.StartIngestionFn(ctx, upload, contextID)
}

func (f *fakeTasks) StartDeepgramTranscription(ctx context.Context, upload task.Upload) (task.Record, error) {
	return f.StartDeepgramFn(ctx, upload)
}

// memRecords is an in-memory record reader used with the real task.Poller.
type memRecords struct {
	mu      sync.Mutex
	records map[string]task.Record
}

func newMemRecords(records ...task.Record) *memRecords {
	m := &memRecords{records: map[string]task.Record{}}
	for _, r := range records {
		m.records[r.TaskID] = r
	}
	return m
}

func (m *memRecords) Get(_ context.Context, id string) (task.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return task.Record{}, task.ErrTaskNotFound
	}
	return rec, nil
}

func newTestPoller(t *testing.T, records ...task.Record) *task.Poller {
	t.Helper()
	p, err := task.NewPoller(newMemRecords(records...))
	require.NoError(t, err)
	return p
}

func testRecord(id string, typ task.Type) task.Record {
	return task.NewRecord(id, typ, "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func completedRecord(t *testing.T, id string, typ task.Type, result task.Result) task.Record {
	t.Helper()
	rec := testRecord(id, typ)
	require.NoError(t, rec.Complete(result, rec.CreatedAt.Add(time.Second)))
	return rec
}

func failedRecord(t *testing.T, id string, typ task.Type, message string) task.Record {
	t.Helper()
	rec := testRecord(id, typ)
	require.NoError(t, rec.Fail(message, rec.CreatedAt.Add(time.Second)))
	return rec
}

type fakeKeys struct {
	CreateKeyFn    func(ctx context.Context) (*service.CreatedAPIKey, error)
	ListKeysFn     func(ctx context.Context) ([]domain.APIKey, error)
	RevokeKeyFn    func(ctx context.Context, key string) error
	ValidateKeyFn  func(ctx context.Context, key string) (bool, error)
	AuthenticateFn func(ctx context.Context, key string) (*domain.APIKey, error)
}

func (f *fakeKeys) CreateKey(ctx context.Context) (*service.CreatedAPIKey, error) {
	return f.CreateKeyFn(ctx)
}

func (f *fakeKeys) ListKeys(ctx context.Context) ([]domain.APIKey, error) { return f.ListKeysFn(ctx) }

func (f *fakeKeys) RevokeKey(ctx context.Context, key string) error { return f.RevokeKeyFn(ctx, key) }

func (f *fakeKeys) ValidateKey(ctx context.Context, key string) (bool, error) {
	return f.ValidateKeyFn(ctx, key)
}

func (f *fakeKeys) Authenticate(ctx context.Context, key string) (*domain.APIKey, error) {
	return f.AuthenticateFn(ctx, key)
}

type fakeLookup struct {
	DrugInfoFn    func(ctx context.Context, name string, include bool) (*domain.DrugInfo, error)
	DiseaseInfoFn func(ctx context.Context, name string, include bool) (*domain.DiseaseInfo, error)
}

func (f *fakeLookup) DrugInfo(ctx context.Context, name string, include bool) (*domain.DrugInfo, error) {
	return f.DrugInfoFn(ctx, name, include)
}

func (f *fakeLookup) DiseaseInfo(ctx context.Context, name string, include bool) (*domain.DiseaseInfo, error) {
	return f.DiseaseInfoFn(ctx, name, include)
}

type fakeImages struct {
	DescribeFn func(ctx context.Context, image []byte, contentType string) (*domain.ImageDescription, error)
}

func (f *fakeImages) Describe(ctx context.Context, image []byte, contentType string) (*domain.ImageDescription, error) {
	return f.DescribeFn(ctx, image, contentType)
}

type fakeRAG struct {
	AskFn           func(ctx context.Context, contextID domain.ContextID, question string) (*domain.Answer, error)
	DeleteContextFn func(ctx context.Context, contextID domain.ContextID) (int64, error)
}

func (f *fakeRAG) Ask(ctx context.Context, contextID domain.ContextID, question string) (*domain.Answer, error) {
	return f.AskFn(ctx, contextID, question)
}

func (f *fakeRAG) DeleteContext(ctx context.Context, contextID domain.ContextID) (int64, error) {
	return f.DeleteContextFn(ctx, contextID)
}

type fakeFiles struct {
	files map[string][]byte
}

func (f *fakeFiles) Open(_ context.Context, key string) (*storage.Object, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: "audio/mpeg",
	}, nil
}

type fakeTokenIssuer struct {
	GenerateFn func(ctx context.Context, taskID string) (string, time.Time, error)
}

func (f *fakeTokenIssuer) GenerateDownloadToken(ctx context.Context, taskID string) (string, time.Time, error) {
	return f.GenerateFn(ctx, taskID)
}

// multipartRequest builds a request with one file part named field.
func multipartRequest(t *testing.T, method, target, field, filename, contentType string, content []byte, values map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// withKey attaches an authenticated key as the API key middleware would.
func withKey(req *http.Request, prefix string) *http.Request {
	return req.WithContext(shared.WithAPIKey(req.Context(), &domain.APIKey{Prefix: prefix, IsActive: true}))
}

// serve routes req through a chi router so URL parameters resolve.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func testUploads(t *testing.T) Uploads {
	t.Helper()
	return Uploads{Dir: t.TempDir(), MaxBytes: 1 << 20}
}
