// Package session drives one call end to end: validate input, run the
// audio pipeline, deliver to the call leg, and clean up every temp file
// the session created, on every exit path.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voztel/ttsgate/pkg/errorsx"
	"github.com/voztel/ttsgate/pkg/pipeline"
	"github.com/voztel/ttsgate/pkg/telephony"
	"github.com/voztel/ttsgate/pkg/tempfiles"
)

// Mode selects how the transcoded audio is delivered.
type Mode int

const (
	// ModeStream plays the audio and returns.
	ModeStream Mode = iota
	// ModeCollectDigit plays the audio and waits for one touch-tone
	// digit, which reroutes the call.
	ModeCollectDigit
)

func (m Mode) String() string {
	if m == ModeCollectDigit {
		return "collect_digit"
	}
	return "stream"
}

// DefaultDigitTimeout bounds the wait for a touch-tone digit.
const DefaultDigitTimeout = 5 * time.Second

// RoutePriority is the dialplan priority a collected digit routes to.
const RoutePriority = 1

// Session is the end-to-end handling of one text-to-speech request.
// Sessions run concurrently and share nothing but the temp directory.
type Session struct {
	ID       string
	Text     string
	Language string
	Mode     Mode
	Tracker  *tempfiles.Tracker

	// DigitTimeout overrides DefaultDigitTimeout when positive.
	DigitTimeout time.Duration

	fsm       *stateMachine
	logger    *slog.Logger
	artifacts []pipeline.Artifact
	err       error
}

// New creates a session with a fresh identifier and an empty tracker.
func New(text, language string, mode Mode, logger *slog.Logger) *Session {
	id := uuid.NewString()
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:       id,
		Text:     text,
		Language: language,
		Mode:     mode,
		Tracker:  tempfiles.NewTracker(logger),
		fsm:      newStateMachine(id),
		logger:   logger.With(slog.String("session_id", id)),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.fsm.State() }

// Err returns the failure that moved the session to Errored, if any.
func (s *Session) Err() error { return s.err }

// Artifacts returns the files the pipeline produced, in order.
func (s *Session) Artifacts() []pipeline.Artifact { return s.artifacts }

// AddListener registers a state-change listener.
func (s *Session) AddListener(l StateListener) { s.fsm.AddListener(l) }

// Run executes the session to a terminal state and returns the error
// that failed it, if any. Cleanup is unconditional: whatever happens
// during synthesis, transcoding or delivery — including a panic — the
// session passes through CleaningUp and releases every tracked file
// before reaching Done or Errored.
func (s *Session) Run(ctx context.Context, pipe *pipeline.Pipeline, ch telephony.Channel) error {
	s.err = s.work(ctx, pipe, ch)
	if s.err != nil {
		s.transition(StateErrored, s.err.Error())
	}

	s.transition(StateCleaningUp, "releasing temp files")
	s.Tracker.ReleaseAll()

	if s.err != nil {
		s.transition(StateErrored, "session failed")
		s.logger.Warn("session ended with error",
			slog.String("reason", string(errorsx.Reason(s.err))),
			slog.String("error", s.err.Error()))
	} else {
		s.transition(StateDone, "session complete")
		s.logger.Info("session complete")
	}
	return s.err
}

// work is the productive part of the session; it never touches cleanup.
func (s *Session) work(ctx context.Context, pipe *pipeline.Pipeline, ch telephony.Channel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorsx.Wrap(fmt.Errorf("session panic: %v", r), errorsx.ReasonDelivery)
		}
	}()

	if strings.TrimSpace(s.Text) == "" {
		return errorsx.Wrap(fmt.Errorf("no text to synthesize"), errorsx.ReasonInput)
	}

	if err := s.transition(StateSynthesizing, "input validated"); err != nil {
		return err
	}
	src, err := pipe.Synthesize(ctx, s.ID, s.Tracker, s.Text, s.Language)
	if err != nil {
		return err
	}
	s.artifacts = append(s.artifacts, src)

	if err := s.transition(StateTranscoding, "synthesis complete"); err != nil {
		return err
	}
	dest, err := pipe.Transcode(ctx, src, s.Tracker)
	if err != nil {
		return err
	}
	s.artifacts = append(s.artifacts, dest)

	if err := s.transition(StateDelivering, "transcode complete"); err != nil {
		return err
	}
	return s.deliver(ch, dest)
}

// deliver hands the transcoded artifact to the call leg. The channel
// addresses files without their extension.
func (s *Session) deliver(ch telephony.Channel, artifact pipeline.Artifact) error {
	prompt := tempfiles.StripExt(artifact.Path)

	if s.Mode == ModeStream {
		if err := ch.StreamFile(prompt); err != nil {
			return errorsx.Wrap(err, errorsx.ReasonDelivery)
		}
		return nil
	}

	timeout := s.DigitTimeout
	if timeout <= 0 {
		timeout = DefaultDigitTimeout
	}
	s.logger.Info("waiting for digit", slog.Duration("timeout", timeout))
	result, err := ch.GetData(prompt, timeout, 1)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonDelivery)
	}
	if result.Failure {
		s.logger.Warn("digit collection failed on channel")
		return nil
	}
	if result.Digits == "" {
		// Caller pressed nothing; an expected outcome, not a failure.
		s.logger.Info("no digit received")
		return nil
	}
	return s.route(ch, string(result.Digits[0]))
}

// route sends the call to the collected digit's extension within its
// original dialplan context. Routing failures end the flow but are not
// session errors; the original context stays on the call.
func (s *Session) route(ch telephony.Channel, digit string) error {
	s.logger.Info("digit received", slog.String("digit", digit))
	if err := ch.SetExtension(digit); err != nil {
		s.logger.Warn("routing failed", slog.String("error", err.Error()))
		return nil
	}
	if err := ch.SetPriority(RoutePriority); err != nil {
		s.logger.Warn("routing failed", slog.String("error", err.Error()))
		return nil
	}
	if err := ch.SetContext(ch.Request().Context); err != nil {
		s.logger.Warn("routing failed", slog.String("error", err.Error()))
		return nil
	}
	return nil
}

// transition applies one FSM edge; an invalid edge is a programming
// error, logged rather than silently dropped.
func (s *Session) transition(to State, reason string) error {
	if err := s.fsm.Transition(to, reason); err != nil {
		s.logger.Error("state transition rejected",
			slog.String("to", to.String()),
			slog.String("error", err.Error()))
		return err
	}
	s.logger.Debug("state", slog.String("to", to.String()), slog.String("reason", reason))
	return nil
}
