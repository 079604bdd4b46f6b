package tempfiles

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Tracker records every file one session has written so the session can
// delete them all when it finishes. Each session owns exactly one Tracker;
// nothing is shared between sessions.
type Tracker struct {
	mu     sync.Mutex
	paths  map[string]struct{}
	logger *slog.Logger
}

// NewTracker returns an empty tracker logging through logger.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		paths:  make(map[string]struct{}),
		logger: logger,
	}
}

// Register adds a path to the tracked set. Registering the same path
// twice is a no-op.
func (t *Tracker) Register(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths[path] = struct{}{}
}

// Len reports how many paths are currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.paths)
}

// Paths returns a snapshot of the tracked set.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.paths))
	for p := range t.paths {
		out = append(out, p)
	}
	return out
}

// ReleaseAll deletes every tracked path plus any extra paths the caller
// supplies, then clears the set unconditionally. A caller may pass paths
// it holds outside the tracker; the union is deleted. ReleaseAll never
// fails: individual deletion errors are logged and absorbed so one bad
// file cannot block cleanup of the rest.
func (t *Tracker) ReleaseAll(extra ...string) {
	t.mu.Lock()
	union := make(map[string]struct{}, len(t.paths)+len(extra))
	for p := range t.paths {
		union[p] = struct{}{}
	}
	for _, p := range extra {
		if p != "" {
			union[p] = struct{}{}
		}
	}
	t.paths = make(map[string]struct{})
	t.mu.Unlock()

	for p := range union {
		t.remove(p)
	}
}

// remove deletes one file. An already-absent path counts as success: the
// sweeper or a duplicate cleanup may have beaten us to it.
func (t *Tracker) remove(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		t.logger.Debug("temp file removed", slog.String("path", path))
	case errors.Is(err, fs.ErrNotExist):
		// Already gone, nothing to do.
	default:
		t.logger.Warn("temp file removal failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}
