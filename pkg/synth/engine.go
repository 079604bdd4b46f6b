// Package synth defines the contract for speech-synthesis vendors and
// the fixed language-to-voice configuration.
package synth

import "context"

// Engine is the contract for any speech-synthesis vendor implementation.
type Engine interface {
	// Name returns the engine name for logging.
	Name() string
	// Synthesize renders text with the given voice and format, writing
	// the encoded audio bytes to destPath.
	Synthesize(ctx context.Context, voiceID string, format Format, text string, destPath string) error
}

// Format describes the synthesis output profile. This is the
// intermediate quality requested from the vendor, not the final
// telephony format; transcoding happens afterwards.
type Format struct {
	Container   string
	SampleRate  int
	BitrateKbps int
	Channels    int
}

// DefaultFormat is the intermediate profile used by the pipeline:
// mono MP3 suitable as transcoder input.
func DefaultFormat() Format {
	return Format{
		Container:   "mp3",
		SampleRate:  24000,
		BitrateKbps: 96,
		Channels:    1,
	}
}
