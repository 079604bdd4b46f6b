package session

import (
	"sync"
	"time"
)

// State is one phase of a call session's lifecycle.
type State int

const (
	StateReceived State = iota
	StateSynthesizing
	StateTranscoding
	StateDelivering
	StateCleaningUp
	StateDone
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateSynthesizing:
		return "SYNTHESIZING"
	case StateTranscoding:
		return "TRANSCODING"
	case StateDelivering:
		return "DELIVERING"
	case StateCleaningUp:
		return "CLEANING_UP"
	case StateDone:
		return "DONE"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// StateChange represents a state transition event.
type StateChange struct {
	SessionID string
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes session state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}

// validTransitions encodes the session lifecycle. Errored absorbs a
// failure from any productive state; both Errored and Delivering exit
// only through CleaningUp, which is how cleanup is made unavoidable.
var validTransitions = map[State][]State{
	StateReceived:     {StateSynthesizing, StateErrored},
	StateSynthesizing: {StateTranscoding, StateErrored},
	StateTranscoding:  {StateDelivering, StateErrored},
	StateDelivering:   {StateCleaningUp, StateErrored},
	StateErrored:      {StateCleaningUp},
	StateCleaningUp:   {StateDone, StateErrored},
	StateDone:         nil,
}

// stateMachine guards the session lifecycle. Each session owns one
// instance; nothing is shared between sessions.
type stateMachine struct {
	mu           sync.RWMutex
	sessionID    string
	currentState State
	cleanedUp    bool
	listeners    []StateListener
}

func newStateMachine(sessionID string) *stateMachine {
	return &stateMachine{sessionID: sessionID, currentState: StateReceived}
}

// State returns the current state.
func (m *stateMachine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// transitionValid checks one edge (must be called with lock held).
// Errored becomes terminal once cleanup has run.
func (m *stateMachine) transitionValid(from, to State) bool {
	if from == StateErrored && m.cleanedUp {
		return false
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (m *stateMachine) Transition(to State, reason string) error {
	m.mu.Lock()
	if !m.transitionValid(m.currentState, to) {
		defer m.mu.Unlock()
		return &InvalidTransitionError{From: m.currentState, To: to}
	}
	from := m.currentState
	m.currentState = to
	if from == StateCleaningUp {
		m.cleanedUp = true
	}
	event := StateChange{
		SessionID: m.sessionID,
		FromState: from,
		ToState:   to,
		Timestamp: time.Now(),
		Reason:    reason,
	}
	listeners := make([]StateListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener.OnStateChange(event)
	}
	return nil
}

// AddListener registers a listener for state change events.
func (m *stateMachine) AddListener(listener StateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}
