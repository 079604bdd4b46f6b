// Package tempfiles owns the shared temporary directory and the per-session
// accounting of audio artifacts written into it.
package tempfiles

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultDirName is the subdirectory of the OS temp dir used when no
// location is configured.
const DefaultDirName = "ttsgate"

// Dir is the process-wide shared location for generated audio files.
// It is created once and never removed; sessions and the sweeper both
// operate inside it concurrently.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path, or at the default OS temp
// location when path is empty.
func NewDir(path string) *Dir {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(os.TempDir(), DefaultDirName)
	}
	return &Dir{path: path}
}

// Init creates the directory if it does not exist yet.
func (d *Dir) Init() error {
	return os.MkdirAll(d.path, 0o755)
}

// Path returns the directory location.
func (d *Dir) Path() string { return d.path }

// NewPath allocates a globally unique file path inside the directory.
// The name comes from a random UUID, never from caller input, so paths
// cannot collide across concurrently active sessions.
func (d *Dir) NewPath(ext string) string {
	return filepath.Join(d.path, uuid.NewString()+ext)
}

// DerivedPath builds a sibling path from src by appending suffix and
// swapping the extension. The result stays unique because the stem is.
func DerivedPath(src, suffix, ext string) string {
	stem := strings.TrimSuffix(src, filepath.Ext(src))
	return stem + suffix + ext
}

// StripExt removes the file extension, per the telephony channel's
// convention of addressing audio files without one.
func StripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
