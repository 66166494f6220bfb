package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/domain/chunking"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// Submitter starts tasks. *Runner implements it.
type Submitter interface {
	Submit(ctx context.Context, t Task) error
}

// FactoryDeps lists the collaborators processors need.
type FactoryDeps struct {
	Records     *RecordStore
	Runner      Submitter
	Transcriber provider.Transcriber
	Translator  provider.ChatCompleter
	Synthesizer provider.SpeechSynthesizer
	Files       FileSaver
	Extractor   provider.TextExtractor
	Embedder    provider.Embedder
	Documents   ChunkWriter
	Recognizer  provider.SpeechRecognizer

	// ChunkSize is the chunking budget; zero means chunking.DefaultBudget.
	ChunkSize int
	// EmbeddingBatchSize bounds texts per embedding call; zero means 64.
	EmbeddingBatchSize int
}

// Factory creates processors and starts them. Each Start method writes the
// initial record before submitting, so a poll immediately after Start
// returns never sees "not found".
type Factory struct {
	deps  FactoryDeps
	newID func() string
}

// NewFactory validates deps and returns a Factory.
func NewFactory(deps FactoryDeps) (*Factory, error) {
	switch {
	case deps.Records == nil:
		return nil, ErrNilStore
	case deps.Runner == nil:
		return nil, fmt.Errorf("runner cannot be nil")
	case deps.Transcriber == nil:
		return nil, ErrNilTranscriber
	case deps.Translator == nil:
		return nil, ErrNilTranslator
	case deps.Synthesizer == nil:
		return nil, ErrNilSynthesizer
	case deps.Files == nil:
		return nil, ErrNilFileStore
	case deps.Extractor == nil:
		return nil, ErrNilExtractor
	case deps.Embedder == nil:
		return nil, ErrNilEmbedder
	case deps.Documents == nil:
		return nil, ErrNilDocuments
	case deps.Recognizer == nil:
		return nil, ErrNilRecognizer
	}
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = chunking.DefaultBudget
	}
	if deps.EmbeddingBatchSize <= 0 {
		deps.EmbeddingBatchSize = 64
	}
	return &Factory{deps: deps, newID: uuid.NewString}, nil
}

// StartTranscription starts transcribing upload, translating to targetLanguage
// when it is not English.
func (f *Factory) StartTranscription(ctx context.Context, upload Upload, targetLanguage string) (Record, error) {
	id := f.newID()
	t := &TranscriptionTask{
		processor:      newProcessor(id, TypeTranscription, f.deps.Records),
		upload:         upload,
		targetLanguage: targetLanguage,
		transcriber:    f.deps.Transcriber,
		translator:     f.deps.Translator,
	}
	return f.start(ctx, t, "", upload)
}

// StartSpeech starts synthesizing text with voice.
func (f *Factory) StartSpeech(ctx context.Context, text string, voice domain.Voice) (Record, error) {
	id := f.newID()
	t := &SpeechTask{
		processor:   newProcessor(id, TypeSpeech, f.deps.Records),
		text:        text,
		voice:       voice,
		synthesizer: f.deps.Synthesizer,
		files:       f.deps.Files,
	}
	return f.start(ctx, t, "", Upload{})
}

// StartIngestion starts ingesting the PDF in upload into contextID.
func (f *Factory) StartIngestion(ctx context.Context, upload Upload, contextID domain.ContextID) (Record, error) {
	id := f.newID()
	t := &IngestionTask{
		processor:  newProcessor(id, TypeIngestion, f.deps.Records),
		upload:     upload,
		contextID:  contextID,
		documentID: uuid.New(),
		chunkSize:  f.deps.ChunkSize,
		batchSize:  f.deps.EmbeddingBatchSize,
		extractor:  f.deps.Extractor,
		embedder:   f.deps.Embedder,
		documents:  f.deps.Documents,
	}
	return f.start(ctx, t, contextID.String(), upload)
}

// StartDeepgramTranscription starts transcribing upload with the confidence-reporting recognizer.
func (f *Factory) StartDeepgramTranscription(ctx context.Context, upload Upload) (Record, error) {
	id := f.newID()
	t := &DeepgramTask{
		processor:  newProcessor(id, TypeDeepgramTranscription, f.deps.Records),
		upload:     upload,
		recognizer: f.deps.Recognizer,
	}
	return f.start(ctx, t, "", upload)
}

// start writes the initial record and submits t. When the record cannot be
// written the upload is removed since no task will consume it.
func (f *Factory) start(ctx context.Context, t Task, contextID string, upload Upload) (Record, error) {
	rec := f.deps.Records.New(t.ID(), t.Type(), contextID)
	if err := f.deps.Records.Create(ctx, rec); err != nil {
		upload.remove(ctx)
		return Record{}, err
	}

	if err := f.deps.Runner.Submit(ctx, t); err != nil {
		upload.remove(ctx)
		if ferr := f.deps.Records.Reporter(t.ID()).Fail(ctx, "task could not be started"); ferr != nil {
			return Record{}, fmt.Errorf("failed to submit task: %w (and failed to record failure: %v)", err, ferr)
		}
		return Record{}, fmt.Errorf("failed to submit task: %w", err)
	}
	return rec, nil
}
