// Package mock provides an in-memory synthesis engine for local testing
// and integration, with no network dependency.
package mock

import (
	"context"
	"os"
	"sync"

	"github.com/voztel/ttsgate/pkg/synth"
)

// Call records one Synthesize invocation.
type Call struct {
	VoiceID  string
	Format   synth.Format
	Text     string
	DestPath string
}

// Engine writes a fixed payload to the destination path and records
// every call. Err, when set, is returned instead of writing anything.
type Engine struct {
	Payload []byte
	Err     error

	mu    sync.Mutex
	calls []Call
}

func New() *Engine {
	return &Engine{Payload: []byte("mock-mp3-audio")}
}

func (e *Engine) Name() string { return "mock_tts" }

func (e *Engine) Synthesize(_ context.Context, voiceID string, format synth.Format, text string, destPath string) error {
	e.mu.Lock()
	e.calls = append(e.calls, Call{VoiceID: voiceID, Format: format, Text: text, DestPath: destPath})
	err := e.Err
	e.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, e.Payload, 0o644)
}

// Calls returns a snapshot of recorded invocations.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}
