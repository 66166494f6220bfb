package task

import (
	"context"
	"fmt"
	"io"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// SpeechContentType is the media type of generated speech.
const SpeechContentType = "audio/mpeg"

// FileSaver stores generated files.
type FileSaver interface {
	// Save writes r under name and returns the location the file can be read back from.
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

// SpeechFileName is the stored name of the audio generated by task id.
func SpeechFileName(id string) string {
	return id + ".mp3"
}

// SpeechTask synthesizes text to MP3 and stores the file.
type SpeechTask struct {
	processor
	text        string
	voice       domain.Voice
	synthesizer provider.SpeechSynthesizer
	files       FileSaver
}

// Execute implements Task.
func (t *SpeechTask) Execute(ctx context.Context) error {
	audio, err := t.synthesizer.Synthesize(ctx, t.text, t.voice)
	if err != nil {
		return t.fail(ctx, "Speech generation failed: ", err)
	}
	defer func() { _ = audio.Close() }()

	if err := t.advance(ctx, "synthesized", StatusProcessing, 50); err != nil {
		return t.fail(ctx, "Speech generation failed: ", err)
	}

	path, err := t.files.Save(ctx, SpeechFileName(t.id), audio, SpeechContentType)
	if err != nil {
		return t.fail(ctx, "Speech generation failed: ", fmt.Errorf("failed to store audio: %w", err))
	}

	return t.reporter.Complete(ctx, Result{FilePath: path, ContentType: SpeechContentType})
}
