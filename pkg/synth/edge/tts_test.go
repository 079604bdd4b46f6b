package edge

import (
	"testing"

	"github.com/voztel/ttsgate/pkg/synth"
)

func TestOutputFormatString(t *testing.T) {
	got := outputFormat(synth.DefaultFormat())
	if got != "audio-24khz-96kbitrate-mono-mp3" {
		t.Fatalf("unexpected output format %q", got)
	}
}

func TestOutputFormatStereo(t *testing.T) {
	f := synth.Format{Container: "mp3", SampleRate: 48000, BitrateKbps: 192, Channels: 2}
	if got := outputFormat(f); got != "audio-48khz-192kbitrate-stereo-mp3" {
		t.Fatalf("unexpected output format %q", got)
	}
}
