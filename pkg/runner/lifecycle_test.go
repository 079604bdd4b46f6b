package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLifecycleRunsHooksAndDrain(t *testing.T) {
	var started, stopped, drained atomic.Bool
	lc := NewLifecycleRunner(
		DrainerFunc(func() error { drained.Store(true); return nil }),
		Hooks{
			OnStart: func() { started.Store(true) },
			OnStop:  func() { stopped.Store(true) },
		},
		time.Second,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for lc.State() != StateRunning {
		if time.Now().After(deadline) {
			t.Fatal("runner never reached running state")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	if !started.Load() || !stopped.Load() || !drained.Load() {
		t.Fatalf("hooks not fired: start=%v stop=%v drain=%v",
			started.Load(), stopped.Load(), drained.Load())
	}
	if lc.State() != StateStopped {
		t.Fatalf("expected stopped, got %d", lc.State())
	}
}

func TestLifecycleDrainTimeout(t *testing.T) {
	lc := NewLifecycleRunner(
		DrainerFunc(func() error {
			time.Sleep(time.Second)
			return nil
		}),
		Hooks{},
		10*time.Millisecond,
	)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = lc.Stop()
	}()
	if err := lc.Run(context.Background()); err == nil {
		t.Fatal("expected drain timeout error")
	}
}

func TestSecondRunRejected(t *testing.T) {
	lc := NewLifecycleRunner(nil, Hooks{}, time.Second)
	_ = lc.Stop()
	// State machine already left New; a fresh Run must fail.
	if err := lc.Run(context.Background()); err == nil {
		t.Fatal("expected invalid state transition")
	}
}
