// Package agi implements the telephony.Channel contract over FastAGI,
// the line-oriented TCP protocol Asterisk uses to hand calls to an
// external application.
package agi

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/voztel/ttsgate/pkg/telephony"
)

// DefaultAddr is the conventional FastAGI listen address.
const DefaultAddr = ":4573"

// Server accepts FastAGI connections and runs the configured handler
// on each, one goroutine per call.
type Server struct {
	addr    string
	handler telephony.Handler
	logger  *slog.Logger

	ln      net.Listener
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewServer returns a server listening on addr (DefaultAddr when empty).
func NewServer(addr string, handler telephony.Handler, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, handler: handler, logger: logger}
}

// Start begins accepting connections. It returns once the listener is
// bound; calls are handled in background goroutines until Stop.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("agi server listening", slog.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

// Addr returns the bound listener address, useful when addr was ":0".
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listener and waits for in-flight calls to finish.
func (s *Server) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.wg.Wait()
	s.logger.Info("agi server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.stopped.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("agi accept failed", slog.String("error", err.Error()))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn parses the agi_* variable block and hands the channel to
// the handler. The connection closes when the handler returns.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	env, err := readEnv(reader)
	if err != nil {
		s.logger.Warn("agi env parse failed",
			slog.String("remote", conn.RemoteAddr().String()),
			slog.String("error", err.Error()))
		return
	}
	req := requestFromEnv(env)
	s.logger.Info("incoming call",
		slog.String("caller_id", req.CallerID),
		slog.String("extension", req.Extension),
		slog.String("context", req.Context))

	if s.handler != nil {
		s.handler(ctx, newChannel(conn, reader, req))
	}
}
