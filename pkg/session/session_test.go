package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/voztel/ttsgate/pkg/errorsx"
	"github.com/voztel/ttsgate/pkg/pipeline"
	synthmock "github.com/voztel/ttsgate/pkg/synth/mock"
	"github.com/voztel/ttsgate/pkg/telephony"
	telmock "github.com/voztel/ttsgate/pkg/telephony/mock"
	"github.com/voztel/ttsgate/pkg/tempfiles"
	"github.com/voztel/ttsgate/pkg/transcode"
)

type fixture struct {
	pipe    *pipeline.Pipeline
	engine  *synthmock.Engine
	tc      *transcode.Mock
	dir     *tempfiles.Dir
	channel *telmock.Channel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := tempfiles.NewDir(t.TempDir())
	if err := dir.Init(); err != nil {
		t.Fatalf("dir init: %v", err)
	}
	engine := synthmock.New()
	tc := transcode.NewMock()
	ch := telmock.New()
	ch.Req = telephony.Request{CallerID: "42", Context: "ivr-menu"}
	return &fixture{
		pipe:    pipeline.New(dir, engine, tc, 8000, nil),
		engine:  engine,
		tc:      tc,
		dir:     dir,
		channel: ch,
	}
}

func assertNoFilesLeft(t *testing.T, sess *Session) {
	t.Helper()
	for _, a := range sess.Artifacts() {
		if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
			t.Fatalf("artifact %s still on disk (stat err=%v)", a.Path, err)
		}
	}
	if sess.Tracker.Len() != 0 {
		t.Fatalf("tracker not cleared: %d paths", sess.Tracker.Len())
	}
}

func TestStreamSessionEndToEnd(t *testing.T) {
	f := newFixture(t)
	sess := New("Hola", "es", ModeStream, nil)

	if err := sess.Run(context.Background(), f.pipe, f.channel); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sess.State() != StateDone {
		t.Fatalf("expected DONE, got %s", sess.State())
	}

	artifacts := sess.Artifacts()
	if len(artifacts) != 2 ||
		artifacts[0].Kind != pipeline.KindSynthesized ||
		artifacts[1].Kind != pipeline.KindTranscoded {
		t.Fatalf("unexpected artifacts %+v", artifacts)
	}

	streamed := f.channel.Streamed()
	if len(streamed) != 1 {
		t.Fatalf("expected one StreamFile call, got %d", len(streamed))
	}
	want := tempfiles.StripExt(artifacts[1].Path)
	if streamed[0] != want {
		t.Fatalf("StreamFile got %q, want extension-stripped %q", streamed[0], want)
	}
	assertNoFilesLeft(t, sess)
}

func TestEmptyTextErrorsWithoutPipeline(t *testing.T) {
	f := newFixture(t)
	sess := New("   ", "es", ModeStream, nil)

	err := sess.Run(context.Background(), f.pipe, f.channel)
	if err == nil || !errorsx.HasReason(err, errorsx.ReasonInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if sess.State() != StateErrored {
		t.Fatalf("expected ERRORED, got %s", sess.State())
	}
	if len(f.engine.Calls()) != 0 {
		t.Fatal("pipeline must not be invoked for empty text")
	}
	assertNoFilesLeft(t, sess)
}

func TestSynthesisFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.engine.Err = errors.New("engine down")
	sess := New("Hola", "es", ModeStream, nil)

	err := sess.Run(context.Background(), f.pipe, f.channel)
	if err == nil || !errorsx.HasReason(err, errorsx.ReasonSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	if sess.State() != StateErrored {
		t.Fatalf("expected ERRORED, got %s", sess.State())
	}
	if len(f.channel.Streamed()) != 0 {
		t.Fatal("delivery must be skipped on pipeline failure")
	}
	assertNoFilesLeft(t, sess)
}

func TestTranscodeFailureCleansUpSynthesized(t *testing.T) {
	f := newFixture(t)
	f.tc.Err = errors.New("sox exploded")
	sess := New("Hola", "es", ModeStream, nil)

	err := sess.Run(context.Background(), f.pipe, f.channel)
	if err == nil || !errorsx.HasReason(err, errorsx.ReasonTranscode) {
		t.Fatalf("expected transcode error, got %v", err)
	}
	if len(sess.Artifacts()) != 1 {
		t.Fatalf("expected one artifact, got %d", len(sess.Artifacts()))
	}
	assertNoFilesLeft(t, sess)
}

func TestStreamDeliveryFailureStillCleansUp(t *testing.T) {
	f := newFixture(t)
	f.channel.StreamErr = errors.New("channel hung up")
	sess := New("Hola", "es", ModeStream, nil)

	err := sess.Run(context.Background(), f.pipe, f.channel)
	if err == nil || !errorsx.HasReason(err, errorsx.ReasonDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if sess.State() != StateErrored {
		t.Fatalf("expected ERRORED, got %s", sess.State())
	}
	assertNoFilesLeft(t, sess)
}

func TestCollectDigitRoutesCall(t *testing.T) {
	f := newFixture(t)
	f.channel.DataRes = telephony.DigitResult{Digits: "7"}
	sess := New("Pulse una tecla", "es", ModeCollectDigit, nil)

	if err := sess.Run(context.Background(), f.pipe, f.channel); err != nil {
		t.Fatalf("run: %v", err)
	}
	routed, ext, priority, dialplanContext := f.channel.Routing()
	if !routed || ext != "7" || priority != RoutePriority || dialplanContext != "ivr-menu" {
		t.Fatalf("unexpected routing routed=%v ext=%q prio=%d ctx=%q",
			routed, ext, priority, dialplanContext)
	}
	if len(f.channel.DataPrompts()) != 1 {
		t.Fatalf("expected one GetData call, got %d", len(f.channel.DataPrompts()))
	}
	assertNoFilesLeft(t, sess)
}

func TestCollectDigitTimeoutIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.channel.DataRes = telephony.DigitResult{Digits: ""}
	sess := New("Pulse una tecla", "es", ModeCollectDigit, nil)

	if err := sess.Run(context.Background(), f.pipe, f.channel); err != nil {
		t.Fatalf("empty digits must not fail the session: %v", err)
	}
	if sess.State() != StateDone {
		t.Fatalf("expected DONE, got %s", sess.State())
	}
	if routed, _, _, _ := f.channel.Routing(); routed {
		t.Fatal("no routing call expected without digits")
	}
	assertNoFilesLeft(t, sess)
}

func TestCollectDigitChannelFailureIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.channel.DataRes = telephony.DigitResult{Failure: true}
	sess := New("Pulse una tecla", "es", ModeCollectDigit, nil)

	if err := sess.Run(context.Background(), f.pipe, f.channel); err != nil {
		t.Fatalf("reported channel failure must not fail the session: %v", err)
	}
	if routed, _, _, _ := f.channel.Routing(); routed {
		t.Fatal("no routing call expected on failure result")
	}
	assertNoFilesLeft(t, sess)
}

type panicChannel struct{ *telmock.Channel }

func (p panicChannel) StreamFile(string) error { panic("wire fault") }

func TestPanicDuringDeliveryStillCleansUp(t *testing.T) {
	f := newFixture(t)
	sess := New("Hola", "es", ModeStream, nil)

	err := sess.Run(context.Background(), f.pipe, panicChannel{f.channel})
	if err == nil || !errorsx.HasReason(err, errorsx.ReasonDelivery) {
		t.Fatalf("expected delivery error from panic, got %v", err)
	}
	if sess.State() != StateErrored {
		t.Fatalf("expected ERRORED, got %s", sess.State())
	}
	assertNoFilesLeft(t, sess)
}

func TestConcurrentSessionsProduceDistinctArtifacts(t *testing.T) {
	f := newFixture(t)
	const n = 16
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	seen := make(map[string]bool)
	ids := make(map[string]bool)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := telmock.New()
			sess := New("Hola", "es", ModeStream, nil)
			if err := sess.Run(context.Background(), f.pipe, ch); err != nil {
				t.Errorf("run: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ids[sess.ID] {
				t.Errorf("duplicate session id %s", sess.ID)
			}
			ids[sess.ID] = true
			for _, a := range sess.Artifacts() {
				if seen[a.Path] {
					t.Errorf("duplicate artifact path %s", a.Path)
				}
				seen[a.Path] = true
			}
		}()
	}
	wg.Wait()
	if len(seen) != 2*n {
		t.Fatalf("expected %d distinct artifact paths, got %d", 2*n, len(seen))
	}
}

func TestListenerObservesCleaningUpOnEveryPath(t *testing.T) {
	for name, breakIt := range map[string]func(*fixture){
		"success":        func(*fixture) {},
		"synth_failure":  func(f *fixture) { f.engine.Err = errors.New("down") },
		"stream_failure": func(f *fixture) { f.channel.StreamErr = errors.New("hangup") },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			breakIt(f)
			sess := New("Hola", "es", ModeStream, nil)
			rec := &stateRecorder{}
			sess.AddListener(rec)
			_ = sess.Run(context.Background(), f.pipe, f.channel)
			if !rec.saw(StateCleaningUp) {
				t.Fatalf("CLEANING_UP not observed; states: %v", rec.states())
			}
		})
	}
}

type stateRecorder struct {
	mu     sync.Mutex
	events []StateChange
}

func (r *stateRecorder) OnStateChange(e StateChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *stateRecorder) saw(s State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ToState == s {
			return true
		}
	}
	return false
}

func (r *stateRecorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.ToState)
	}
	return out
}
