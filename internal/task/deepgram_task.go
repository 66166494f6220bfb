package task

import (
	"context"
	"fmt"
	"os"

	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// DeepgramTask transcribes an uploaded file with a recognizer that reports confidence.
type DeepgramTask struct {
	processor
	upload     Upload
	recognizer provider.SpeechRecognizer
}

// Execute implements Task.
func (t *DeepgramTask) Execute(ctx context.Context) error {
	defer t.upload.remove(ctx)

	recognition, err := t.recognize(ctx)
	if err != nil {
		return t.fail(ctx, "Transcription failed: ", err)
	}
	if err := t.advance(ctx, "recognized", StatusProcessing, 50); err != nil {
		return t.fail(ctx, "Transcription failed: ", err)
	}

	confidence := recognition.Confidence
	return t.reporter.Complete(ctx, Result{
		Transcription: recognition.Transcript,
		Confidence:    &confidence,
	})
}

func (t *DeepgramTask) recognize(ctx context.Context) (provider.Recognition, error) {
	f, err := os.Open(t.upload.Path)
	if err != nil {
		return provider.Recognition{}, fmt.Errorf("failed to open audio upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	return t.recognizer.Recognize(ctx, f, t.upload.ContentType)
}
