package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/connect4-rooms/transport/hub"
)

// Handler serves one connection until it ends
type Handler interface {
	Serve(ctx context.Context, conn hub.Conn) error
}

// Server accepts game clients on a listener
type Server struct {
	handler  Handler
	log      *zap.SugaredLogger
	maxFrame int
	idle     time.Duration

	wg sync.WaitGroup
}

// Option configures a Server
type Option func(*Server)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = log }
}

func WithMaxFrame(n int) Option {
	return func(s *Server) { s.maxFrame = n }
}

// WithIdleTimeout disconnects clients silent for longer than d
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idle = d }
}

// NewServer creates a server handing each accepted connection to handler
func NewServer(handler Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed,
// then waits for every session to finish. Cancelling ctx also ends the
// sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Infow("accepting game connections", "addr", ln.Addr().String())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			// Transient accept failures such as EMFILE back off.
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, time.Second)
			}
			s.log.Warnw("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
			}
			break
		}
		backoff = 0

		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}

	s.wg.Wait()
	s.log.Info("game listener stopped")
	return nil
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer s.wg.Done()
	defer c.Close()

	remote := c.RemoteAddr().String()
	s.log.Debugw("connection accepted", "remote", remote)

	if err := s.handler.Serve(ctx, NewConn(c, s.maxFrame, s.idle)); err != nil {
		s.log.Debugw("connection ended", "remote", remote, "error", err)
	}
}
