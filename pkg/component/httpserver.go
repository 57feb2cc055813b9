package component

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer is the listener lifecycle shared by the HTTP facing components.
type HTTPServer struct {
	logger  *slog.Logger
	handler http.Handler

	mu      sync.RWMutex
	addr    string
	server  *http.Server
	running bool
}

func NewHTTPServer(addr string, handler http.Handler, log *slog.Logger) *HTTPServer {
	return &HTTPServer{addr: addr, handler: handler, logger: log}
}

// Start binds the listener before returning so address errors surface to
// the caller, then serves on a goroutine owned by b.
func (s *HTTPServer) Start(b *Base) error {
	s.mu.RLock()
	addr := s.addr
	s.mu.RUnlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return b.Ctx },
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.server = srv
	s.running = true
	s.mu.Unlock()

	b.Go(func(ctx context.Context) {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	})
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Addr is the bound address once started.
func (s *HTTPServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *HTTPServer) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
