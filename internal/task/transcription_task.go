package task

import (
	"context"
	"fmt"
	"os"

	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// DefaultTargetLanguage is the language that needs no translation.
const DefaultTargetLanguage = "en"

// TranscriptionTask transcribes an uploaded audio file and, when a target
// language other than English is requested, translates the transcript.
type TranscriptionTask struct {
	processor
	upload         Upload
	targetLanguage string
	transcriber    provider.Transcriber
	translator     provider.ChatCompleter
}

// Execute implements Task.
func (t *TranscriptionTask) Execute(ctx context.Context) error {
	defer t.upload.remove(ctx)

	text, err := t.transcribe(ctx)
	if err != nil {
		return t.fail(ctx, "", err)
	}
	if err := t.advance(ctx, "transcribed", StatusProcessing, 50); err != nil {
		return t.fail(ctx, "", err)
	}

	result := Result{Transcription: text}
	if t.targetLanguage != "" && t.targetLanguage != DefaultTargetLanguage {
		translated, err := t.translator.Complete(ctx, provider.ChatRequest{
			Prompt: fmt.Sprintf("Translate the following text to %s: %s", t.targetLanguage, text),
		})
		if err != nil {
			return t.fail(ctx, "", fmt.Errorf("failed to translate transcript: %w", err))
		}
		result.Translation = &translated
		if err := t.advance(ctx, "translated", StatusProcessing, 90); err != nil {
			return t.fail(ctx, "", err)
		}
	}

	return t.reporter.Complete(ctx, result)
}

func (t *TranscriptionTask) transcribe(ctx context.Context) (string, error) {
	f, err := os.Open(t.upload.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	text, err := t.transcriber.Transcribe(ctx, f, t.upload.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return text, nil
}
