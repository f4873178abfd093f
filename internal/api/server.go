package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/logger"
)

// Server serves the orchestration API over HTTP, supporting graceful
// shutdown the same way a production HTTP server does.
type Server struct {
	server       *http.Server
	addr         string
	shutdownOnce sync.Once
}

// NewServer builds a Server bound to addr, routing to core's orchestration
// API. allowOrigins configures CORS for a browser-based operator console;
// pass nil to disable cross-origin requests entirely.
func NewServer(addr string, core *fib.Core, allowOrigins []string) *Server {
	router := NewRouter(core, allowOrigins)
	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("fib api server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("fib api server failed: %w", err)
	}
}

// Stop gracefully shuts down the server. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if shutdownErr := s.server.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("fib api server shutdown: %w", shutdownErr)
			return
		}
		logger.Info("fib api server stopped")
	})
	return err
}
