package transcode

import (
	"context"
	"os"
	"sync"
)

// MockCall records one Transcode invocation.
type MockCall struct {
	SrcPath  string
	DestPath string
	Profile  Profile
}

// Mock copies the source file to the destination (or fails with Err)
// and records the requested profile.
type Mock struct {
	Err error

	mu    sync.Mutex
	calls []MockCall
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock_transcoder" }

func (m *Mock) Transcode(_ context.Context, srcPath, destPath string, profile Profile) error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{SrcPath: srcPath, DestPath: destPath, Profile: profile})
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

// Calls returns a snapshot of recorded invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}
