package openai

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	goopenai "github.com/sashabaranov/go-openai"
)

// Transcribe sends audio to the Whisper endpoint. filename is forwarded so the
// API can infer the codec from its extension.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "audio.mp3"
	}

	resp, err := c.api.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.transcriptionModel,
		Reader:   audio,
		FilePath: filepath.Base(filename),
	})
	if err != nil {
		return "", classify("transcribe", err)
	}

	c.logger.DebugContext(ctx, "audio transcribed",
		"model", c.transcriptionModel,
		"transcript_length", len(resp.Text))
	return resp.Text, nil
}

// Synthesize generates MP3 speech for text. The caller must close the stream.
func (c *Client) Synthesize(ctx context.Context, text string, voice domain.Voice) (io.ReadCloser, error) {
	if text == "" {
		return nil, provider.NewError(ProviderName, "synthesize", provider.ErrMalformedInput,
			errors.New("text cannot be empty"))
	}

	resp, err := c.api.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          c.speechModel,
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, classify("synthesize", err)
	}

	c.logger.DebugContext(ctx, "speech synthesized",
		"model", string(c.speechModel),
		"voice", string(voice),
		"text_length", len(text))
	return resp, nil
}
