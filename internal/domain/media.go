package domain

import "fmt"

// MaxSpeechTextLength bounds text-to-speech input.
const MaxSpeechTextLength = 4096

// Voice is a text-to-speech voice name.
type Voice string

// Supported voices.
const (
	VoiceAlloy   Voice = "alloy"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceNova    Voice = "nova"
	VoiceShimmer Voice = "shimmer"

	DefaultVoice = VoiceNova
)

var voices = map[Voice]struct{}{
	VoiceAlloy: {}, VoiceEcho: {}, VoiceFable: {}, VoiceOnyx: {}, VoiceNova: {}, VoiceShimmer: {},
}

// ResolveVoice returns name when it is a supported voice and DefaultVoice otherwise.
func ResolveVoice(name string) Voice {
	if _, ok := voices[Voice(name)]; ok {
		return Voice(name)
	}
	return DefaultVoice
}

// MediaPolicy is the set of content types an upload endpoint accepts.
type MediaPolicy map[string]struct{}

// Accepted upload types per endpoint.
var (
	TranscriptionAudioTypes = NewMediaPolicy("audio/mpeg", "audio/wav", "audio/x-m4a")
	DeepgramAudioTypes      = NewMediaPolicy("audio/wav", "audio/mpeg", "audio/flac")
	DescribableImageTypes   = NewMediaPolicy("image/jpeg", "image/png")
)

// NewMediaPolicy builds a MediaPolicy from content types.
func NewMediaPolicy(types ...string) MediaPolicy {
	p := make(MediaPolicy, len(types))
	for _, t := range types {
		p[t] = struct{}{}
	}
	return p
}

// Check returns ErrUnsupportedMediaType when contentType is not accepted.
func (p MediaPolicy) Check(contentType string) error {
	if _, ok := p[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}
	return nil
}
