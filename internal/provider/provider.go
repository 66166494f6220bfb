package provider

import (
	"context"
	"io"

	"github.com/dudoxx/dudoxx-api/internal/domain"
)

// Transcriber turns speech audio into text.
type Transcriber interface {
	// Transcribe reads audio and returns its transcript. filename carries the
	// extension some providers use to detect the codec.
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Recognition is a transcript with the provider's confidence in it.
type Recognition struct {
	Transcript string
	Confidence float64
}

// SpeechRecognizer transcribes audio and reports confidence.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, audio io.Reader, contentType string) (Recognition, error)
}

// SpeechSynthesizer turns text into MP3 audio. The caller closes the stream.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voice domain.Voice) (io.ReadCloser, error)
}

// Embedder converts texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatRequest is a single-turn chat completion request.
type ChatRequest struct {
	System string
	Prompt string
	// JSON asks the model to answer with a single JSON object.
	JSON bool
}

// ChatCompleter answers a single-turn prompt.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ImageDescriber describes an image.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, image []byte, contentType, prompt string) (string, error)
}

// WebSearcher runs a web search.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}

// TextExtractor pulls plain text out of a document file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}
