// Package server runs the HTTP listener and drains it on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Varun5711/authlocal/internal/logger"
)

type Server struct {
	httpServer      *http.Server
	log             *logger.Logger
	shutdownTimeout time.Duration
	releasers       []func()
}

func New(addr string, handler http.Handler, log *logger.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          log.StdLogger(),
		},
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// SetHandler replaces the root handler. It must be called before Run.
func (s *Server) SetHandler(h http.Handler) {
	s.httpServer.Handler = h
}

// OnShutdown registers fn to run after in-flight requests have drained.
// Functions run in reverse registration order.
func (s *Server) OnShutdown(fn func()) {
	s.releasers = append(s.releasers, fn)
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.Release()
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then stops accepting,
// waits up to the shutdown timeout for in-flight requests and releases
// registered resources.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Release()

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("Listening on %s", ln.Addr())
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Waiting for client connections to end")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Forcing close after %s: %v", s.shutdownTimeout, err)
		_ = s.httpServer.Close()
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Release runs the registered shutdown functions in reverse order. Each runs
// at most once, so callers may defer Release to cover start-up failures.
func (s *Server) Release() {
	for i := len(s.releasers) - 1; i >= 0; i-- {
		s.releasers[i]()
	}
	s.releasers = nil
}
