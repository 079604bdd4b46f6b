// Package telephony abstracts the live call leg: playing audio files
// and collecting touch-tone digits.
package telephony

import (
	"context"
	"time"
)

// Request carries the call metadata handed over when a channel
// connects.
type Request struct {
	CallerID  string
	Extension string
	Context   string
	// Args are the positional dialplan arguments (arg_1, arg_2, ...).
	Args []string
}

// Arg returns the n-th (1-based) dialplan argument, or "" when absent.
func (r Request) Arg(n int) string {
	if n < 1 || n > len(r.Args) {
		return ""
	}
	return r.Args[n-1]
}

// DigitResult is the outcome of a prompt-and-collect operation. An
// empty Digits with Failure false means the caller simply pressed
// nothing before the timeout, which is a valid outcome.
type DigitResult struct {
	Failure bool
	Digits  string
}

// Channel is one live call leg. Audio paths are passed without their
// file extension, per the telephony server's convention.
type Channel interface {
	// Request returns the call metadata.
	Request() Request
	// StreamFile plays an audio file to the caller.
	StreamFile(pathWithoutExt string) error
	// GetData plays an audio file and waits up to timeout for at most
	// maxDigits touch-tone digits.
	GetData(pathWithoutExt string, timeout time.Duration, maxDigits int) (DigitResult, error)
	// SetExtension, SetPriority and SetContext reroute the call after
	// the channel returns to the dialplan.
	SetExtension(ext string) error
	SetPriority(priority int) error
	SetContext(dialplanContext string) error
}

// Handler processes one connected channel. The call ends when the
// handler returns.
type Handler func(ctx context.Context, ch Channel)
