package agi

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/voztel/ttsgate/pkg/telephony"
)

// channel is one FastAGI connection. Commands and replies alternate
// over a single line-oriented TCP stream, so operations are serialized
// with a mutex.
type channel struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	req    telephony.Request
}

func newChannel(conn net.Conn, reader *bufio.Reader, req telephony.Request) *channel {
	return &channel{conn: conn, reader: reader, req: req}
}

func (c *channel) Request() telephony.Request { return c.req }

func (c *channel) StreamFile(pathWithoutExt string) error {
	_, err := c.command(fmt.Sprintf("STREAM FILE %s \"\"", pathWithoutExt))
	return err
}

func (c *channel) GetData(pathWithoutExt string, timeout time.Duration, maxDigits int) (telephony.DigitResult, error) {
	result, err := c.command(fmt.Sprintf("GET DATA %s %d %d",
		pathWithoutExt, timeout.Milliseconds(), maxDigits))
	if err != nil {
		return telephony.DigitResult{Failure: true}, err
	}
	if result == "-1" {
		return telephony.DigitResult{Failure: true}, nil
	}
	return telephony.DigitResult{Digits: result}, nil
}

func (c *channel) SetExtension(ext string) error {
	_, err := c.command("SET EXTENSION " + ext)
	return err
}

func (c *channel) SetPriority(priority int) error {
	_, err := c.command("SET PRIORITY " + strconv.Itoa(priority))
	return err
}

func (c *channel) SetContext(dialplanContext string) error {
	_, err := c.command("SET CONTEXT " + dialplanContext)
	return err
}

// command writes one AGI command and parses the reply's result value.
func (c *channel) command(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.conn, "%s\n", cmd); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return parseReply(line)
}
