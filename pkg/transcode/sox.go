package transcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/voztel/ttsgate/pkg/errorsx"
)

// Sox shells out to the sox binary for format and rate conversion.
type Sox struct {
	// Binary overrides the executable name, default "sox".
	Binary string
}

// NewSox returns a sox-backed transcoder.
func NewSox() *Sox { return &Sox{Binary: "sox"} }

func (s *Sox) Name() string { return "sox" }

// Transcode runs sox src -r RATE -c CHANNELS -t FORMAT dest. Stderr is
// folded into the returned error.
func (s *Sox) Transcode(ctx context.Context, srcPath, destPath string, profile Profile) error {
	bin := s.Binary
	if bin == "" {
		bin = "sox"
	}
	args := soxArgs(srcPath, destPath, profile)
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Debug("transcoding audio",
		slog.String("src", srcPath),
		slog.String("dest", destPath),
		slog.Int("sample_rate", profile.SampleRate))

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if msg != "" {
			err = fmt.Errorf("sox: %w: %s", err, msg)
		}
		return errorsx.Wrap(err, errorsx.ReasonTranscode)
	}
	return nil
}

// soxArgs builds the argv tail; kept separate so tests can check it
// without a sox install.
func soxArgs(srcPath, destPath string, profile Profile) []string {
	return []string{
		srcPath,
		"-r", strconv.Itoa(profile.SampleRate),
		"-c", strconv.Itoa(profile.Channels),
		"-t", profile.Format,
		destPath,
	}
}
