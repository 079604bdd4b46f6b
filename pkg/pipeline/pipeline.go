// Package pipeline chains synthesis and transcoding into a sequence of
// tracked audio artifacts.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/voztel/ttsgate/pkg/errorsx"
	"github.com/voztel/ttsgate/pkg/synth"
	"github.com/voztel/ttsgate/pkg/tempfiles"
	"github.com/voztel/ttsgate/pkg/transcode"
)

// ArtifactKind distinguishes the two pipeline outputs.
type ArtifactKind string

const (
	KindSynthesized ArtifactKind = "synthesized"
	KindTranscoded  ArtifactKind = "transcoded"
)

// Artifact is one file produced during the pipeline. Its path is never
// reused: every stem comes from a fresh random token.
type Artifact struct {
	Path           string
	Kind           ArtifactKind
	CreatedAt      time.Time
	OwnerSessionID string
}

// Pipeline runs the two-stage synthesize-then-transcode chain. It is
// stateless; per-call state lives in the tracker the caller passes in.
type Pipeline struct {
	dir        *tempfiles.Dir
	engine     synth.Engine
	transcoder transcode.Transcoder
	sampleRate int
	logger     *slog.Logger
}

// New returns a pipeline writing into dir with the given collaborators.
// sampleRate is the telephony target rate; zero means 8 kHz.
func New(dir *tempfiles.Dir, engine synth.Engine, transcoder transcode.Transcoder, sampleRate int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		dir:        dir,
		engine:     engine,
		transcoder: transcoder,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Synthesize renders text with the voice mapped to language, writing to
// a freshly allocated unique path. The path is registered with tracker
// before the function returns, so a failure in a later stage still
// leaves this artifact cleanable.
func (p *Pipeline) Synthesize(ctx context.Context, sessionID string, tracker *tempfiles.Tracker, text, language string) (Artifact, error) {
	voice := synth.VoiceFor(language)
	srcPath := p.dir.NewPath(".mp3")

	p.logger.Info("synthesizing",
		slog.String("session_id", sessionID),
		slog.String("language", language),
		slog.String("voice", voice))

	if err := p.engine.Synthesize(ctx, voice, synth.DefaultFormat(), text, srcPath); err != nil {
		return Artifact{}, errorsx.Wrap(err, errorsx.ReasonSynthesis)
	}
	tracker.Register(srcPath)
	return Artifact{
		Path:           srcPath,
		Kind:           KindSynthesized,
		CreatedAt:      time.Now(),
		OwnerSessionID: sessionID,
	}, nil
}

// Transcode converts a synthesized artifact into the telephony profile,
// writing to a path derived from the source's unique stem. The target
// path is registered before the job runs: a partially written output
// must be cleanable too. There is no rollback on failure — the source
// artifact stays registered and on disk, and cleanup is the caller's
// recovery mechanism.
func (p *Pipeline) Transcode(ctx context.Context, src Artifact, tracker *tempfiles.Tracker) (Artifact, error) {
	destPath := tempfiles.DerivedPath(src.Path, "_converted", ".wav")
	tracker.Register(destPath)

	p.logger.Info("transcoding",
		slog.String("session_id", src.OwnerSessionID),
		slog.String("dest", destPath))

	profile := transcode.TelephonyProfile(p.sampleRate)
	if err := p.transcoder.Transcode(ctx, src.Path, destPath, profile); err != nil {
		return Artifact{}, errorsx.Wrap(err, errorsx.ReasonTranscode)
	}
	return Artifact{
		Path:           destPath,
		Kind:           KindTranscoded,
		CreatedAt:      time.Now(),
		OwnerSessionID: src.OwnerSessionID,
	}, nil
}

// Run composes both stages and returns the artifacts in production
// order; on full success the last one is the transcoded file.
func (p *Pipeline) Run(ctx context.Context, sessionID string, tracker *tempfiles.Tracker, text, language string) ([]Artifact, error) {
	src, err := p.Synthesize(ctx, sessionID, tracker, text, language)
	if err != nil {
		return nil, err
	}
	dest, err := p.Transcode(ctx, src, tracker)
	if err != nil {
		return []Artifact{src}, err
	}
	return []Artifact{src, dest}, nil
}
