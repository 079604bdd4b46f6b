package session

import (
	"errors"
	"testing"
)

func TestHappyPathTransitions(t *testing.T) {
	m := newStateMachine("s1")
	steps := []State{StateSynthesizing, StateTranscoding, StateDelivering, StateCleaningUp, StateDone}
	for _, to := range steps {
		if err := m.Transition(to, "test"); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if m.State() != StateDone {
		t.Fatalf("expected DONE, got %s", m.State())
	}
}

func TestErroredReachableFromEveryProductiveState(t *testing.T) {
	paths := [][]State{
		{},
		{StateSynthesizing},
		{StateSynthesizing, StateTranscoding},
		{StateSynthesizing, StateTranscoding, StateDelivering},
	}
	for _, path := range paths {
		m := newStateMachine("s1")
		for _, to := range path {
			if err := m.Transition(to, "test"); err != nil {
				t.Fatalf("setup transition to %s: %v", to, err)
			}
		}
		if err := m.Transition(StateErrored, "failure"); err != nil {
			t.Fatalf("errored not reachable from %s: %v", m.State(), err)
		}
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	m := newStateMachine("s1")
	// Skipping straight to delivery is not allowed.
	err := m.Transition(StateDelivering, "test")
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if ite.From != StateReceived || ite.To != StateDelivering {
		t.Fatalf("unexpected error detail %+v", ite)
	}
}

func TestErroredTerminalAfterCleanup(t *testing.T) {
	m := newStateMachine("s1")
	for _, to := range []State{StateErrored, StateCleaningUp, StateErrored} {
		if err := m.Transition(to, "test"); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if err := m.Transition(StateCleaningUp, "again"); err == nil {
		t.Fatal("errored must be terminal once cleanup has run")
	}
}

func TestDoneIsTerminal(t *testing.T) {
	m := newStateMachine("s1")
	for _, to := range []State{StateSynthesizing, StateTranscoding, StateDelivering, StateCleaningUp, StateDone} {
		if err := m.Transition(to, "test"); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if err := m.Transition(StateCleaningUp, "test"); err == nil {
		t.Fatal("done must be terminal")
	}
}
