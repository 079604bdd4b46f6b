// Package mock provides a scripted telephony channel for tests, with no
// network dependency.
package mock

import (
	"sync"
	"time"

	"github.com/voztel/ttsgate/pkg/telephony"
)

// Channel records every operation and answers from scripted results.
type Channel struct {
	Req telephony.Request

	StreamErr error
	DataRes   telephony.DigitResult
	DataErr   error
	RouteErr  error

	mu          sync.Mutex
	streamed    []string
	dataPrompts []string
	extension   string
	priority    int
	context     string
	routed      bool
}

func New() *Channel { return &Channel{} }

func (c *Channel) Request() telephony.Request { return c.Req }

func (c *Channel) StreamFile(pathWithoutExt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamed = append(c.streamed, pathWithoutExt)
	return c.StreamErr
}

func (c *Channel) GetData(pathWithoutExt string, _ time.Duration, _ int) (telephony.DigitResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataPrompts = append(c.dataPrompts, pathWithoutExt)
	return c.DataRes, c.DataErr
}

func (c *Channel) SetExtension(ext string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RouteErr != nil {
		return c.RouteErr
	}
	c.extension = ext
	c.routed = true
	return nil
}

func (c *Channel) SetPriority(priority int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RouteErr != nil {
		return c.RouteErr
	}
	c.priority = priority
	return nil
}

func (c *Channel) SetContext(dialplanContext string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RouteErr != nil {
		return c.RouteErr
	}
	c.context = dialplanContext
	return nil
}

// Streamed returns the paths passed to StreamFile.
func (c *Channel) Streamed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.streamed))
	copy(out, c.streamed)
	return out
}

// DataPrompts returns the paths passed to GetData.
func (c *Channel) DataPrompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.dataPrompts))
	copy(out, c.dataPrompts)
	return out
}

// Routing reports whether the call was rerouted and to where.
func (c *Channel) Routing() (routed bool, ext string, priority int, dialplanContext string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routed, c.extension, c.priority, c.context
}
