// Package sweeper reclaims old files from the shared temp directory,
// independent of any live session.
package sweeper

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultMaxAge is the retention threshold for generated audio files.
	DefaultMaxAge = time.Hour
	// DefaultInterval is how often the periodic sweep runs.
	DefaultInterval = time.Hour
)

// Sweeper periodically removes files older than MaxAge from Dir. It has
// no notion of session ownership: reclamation is purely age-based, which
// bounds disk growth from crashed or abandoned sessions. A session whose
// pipeline outlives MaxAge can have its in-flight artifact swept; that
// narrow race is accepted rather than solved with reference counting.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// New returns a sweeper for dir. Non-positive maxAge or interval fall
// back to the defaults.
func New(dir string, maxAge, interval time.Duration, logger *slog.Logger) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{dir: dir, maxAge: maxAge, interval: interval, logger: logger}
}

// Run sweeps once immediately, then on every interval tick, then one
// final time when ctx is cancelled (graceful shutdown).
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started",
		slog.String("dir", s.dir),
		slog.Duration("max_age", s.maxAge),
		slog.Duration("interval", s.interval))
	s.SweepOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.SweepOnce()
		case <-ctx.Done():
			s.SweepOnce()
			s.logger.Info("sweeper stopped")
			return
		}
	}
}

// SweepOnce removes every regular file in the directory whose
// modification time is older than now minus MaxAge, and returns how many
// it removed. Individual stat or remove errors are logged and skipped:
// a file vanishing mid-sweep is expected when a session's own cleanup
// runs concurrently.
func (s *Sweeper) SweepOnce() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("sweep: read dir failed",
			slog.String("dir", s.dir),
			slog.String("error", err.Error()))
		return 0
	}
	cutoff := time.Now().Add(-s.maxAge)
	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Debug("sweep: stat failed",
				slog.String("name", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Debug("sweep: remove failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("sweep: removed stale file", slog.String("path", path))
		removed++
	}
	return removed
}
