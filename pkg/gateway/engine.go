// Package gateway wires the collaborators into the running daemon: the
// AGI server that spawns sessions, the audio pipeline, and the
// background sweeper over the shared temp directory.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/voztel/ttsgate/pkg/configutil"
	"github.com/voztel/ttsgate/pkg/logging"
	"github.com/voztel/ttsgate/pkg/pipeline"
	"github.com/voztel/ttsgate/pkg/runner"
	"github.com/voztel/ttsgate/pkg/session"
	"github.com/voztel/ttsgate/pkg/sweeper"
	"github.com/voztel/ttsgate/pkg/synth"
	"github.com/voztel/ttsgate/pkg/synth/edge"
	synthmock "github.com/voztel/ttsgate/pkg/synth/mock"
	"github.com/voztel/ttsgate/pkg/telephony"
	"github.com/voztel/ttsgate/pkg/telephony/agi"
	"github.com/voztel/ttsgate/pkg/tempfiles"
	"github.com/voztel/ttsgate/pkg/transcode"
)

// Engine owns every long-lived component of the daemon.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	dir    *tempfiles.Dir
	pipe   *pipeline.Pipeline
	server *agi.Server
	sweep  *sweeper.Sweeper
	lc     *runner.LifecycleRunner

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

type edgeSettings struct {
	DialTimeoutMS int `mapstructure:"dial_timeout_ms"`
}

// NewEngine builds the engine from config. The temp directory is
// created here; a missing directory is a startup failure, not a
// per-call one.
func NewEngine(cfg Config) (*Engine, error) {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	dir := tempfiles.NewDir(cfg.TempDir)
	if err := dir.Init(); err != nil {
		return nil, fmt.Errorf("init temp dir: %w", err)
	}

	engine, err := newSynthEngine(cfg.Synth)
	if err != nil {
		return nil, err
	}
	transcoder, err := newTranscoder(cfg.Transcoder)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		dir:    dir,
		pipe: pipeline.New(dir, engine, transcoder, cfg.SampleRate,
			logging.NewComponentLogger(logger, "pipeline")),
		sweep: sweeper.New(dir.Path(),
			time.Duration(cfg.Sweep.MaxAgeMinutes)*time.Minute,
			time.Duration(cfg.Sweep.IntervalMinutes)*time.Minute,
			logging.NewComponentLogger(logger, "sweeper")),
		sweepDone: make(chan struct{}),
	}
	e.server = agi.NewServer(cfg.ListenAddr, e.handleCall,
		logging.NewComponentLogger(logger, "agi"))
	e.lc = runner.NewLifecycleRunner(runner.DrainerFunc(e.drain), runner.Hooks{}, 30*time.Second)

	slog.Info("ttsgate_init",
		"listen_addr", cfg.ListenAddr,
		"temp_dir", dir.Path(),
		"synth_provider", engine.Name(),
		"transcoder", transcoder.Name(),
		"sample_rate", cfg.SampleRate)
	return e, nil
}

// Run starts the AGI server and the sweeper, then blocks until ctx is
// cancelled. Shutdown drains in-flight calls and runs a final sweep.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.server.Start(ctx); err != nil {
		return fmt.Errorf("start agi server: %w", err)
	}
	sweepCtx, cancel := context.WithCancel(context.Background())
	e.sweepCancel = cancel
	go func() {
		defer close(e.sweepDone)
		e.sweep.Run(sweepCtx)
	}()
	return e.lc.Run(ctx)
}

// Stop triggers the same drain path as context cancellation.
func (e *Engine) Stop() error { return e.lc.Stop() }

// Addr returns the AGI listener address once Run has started it.
func (e *Engine) Addr() net.Addr { return e.server.Addr() }

// drain stops accepting calls, waits for in-flight sessions, then lets
// the sweeper run its shutdown sweep.
func (e *Engine) drain() error {
	err := e.server.Stop()
	if e.sweepCancel != nil {
		e.sweepCancel()
		<-e.sweepDone
	}
	return err
}

// handleCall runs one session per AGI connection. Dialplan contract:
// arg 1 = text, arg 2 = language, arg 3 = "any" to collect a digit.
// A failed session only ends the call flow; the daemon carries on.
func (e *Engine) handleCall(ctx context.Context, ch telephony.Channel) {
	req := ch.Request()
	text := req.Arg(1)
	language := req.Arg(2)
	if language == "" {
		language = e.cfg.DefaultLanguage
	}
	mode := session.ModeStream
	if req.Arg(3) == "any" {
		mode = session.ModeCollectDigit
	}

	sess := session.New(text, language, mode, e.logger)
	sess.DigitTimeout = time.Duration(configutil.DurationMS(e.cfg.DigitTimeoutMS, 5000)) * time.Millisecond
	if err := sess.Run(ctx, e.pipe, ch); err != nil {
		e.logger.Warn("call session failed",
			slog.String("session_id", sess.ID),
			slog.String("caller_id", req.CallerID),
			slog.String("error", err.Error()))
	}
}

func newSynthEngine(cfg ProviderConfig) (synth.Engine, error) {
	switch cfg.Provider {
	case "", "edge":
		var settings edgeSettings
		if err := configutil.DecodeSettings(cfg.Settings, &settings); err != nil {
			return nil, fmt.Errorf("synth settings: %w", err)
		}
		return edge.New(edge.Config{
			DialTimeout: time.Duration(settings.DialTimeoutMS) * time.Millisecond,
		}), nil
	case "mock":
		return synthmock.New(), nil
	default:
		return nil, fmt.Errorf("unknown synth provider %q", cfg.Provider)
	}
}

func newTranscoder(cfg TranscoderConfig) (transcode.Transcoder, error) {
	switch cfg.Provider {
	case "", "sox":
		t := transcode.NewSox()
		if cfg.Binary != "" {
			t.Binary = cfg.Binary
		}
		return t, nil
	case "mock":
		return transcode.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown transcoder %q", cfg.Provider)
	}
}
