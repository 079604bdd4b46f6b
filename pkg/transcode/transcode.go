// Package transcode converts synthesized audio into the telephony
// delivery format.
package transcode

import "context"

// DefaultSampleRate is the telephony target rate in Hz.
const DefaultSampleRate = 8000

// Profile describes the conversion target.
type Profile struct {
	SampleRate int
	Format     string
	Channels   int
}

// TelephonyProfile returns the fixed delivery profile: mono WAV at the
// given rate (8 kHz when rate is zero).
func TelephonyProfile(sampleRate int) Profile {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return Profile{
		SampleRate: sampleRate,
		Format:     "wav",
		Channels:   1,
	}
}

// Transcoder is the contract for any audio conversion backend.
type Transcoder interface {
	// Name returns the backend name for logging.
	Name() string
	// Transcode converts srcPath into destPath per the profile.
	Transcode(ctx context.Context, srcPath, destPath string, profile Profile) error
}
