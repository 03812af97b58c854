// Package server exposes the management API and the published endpoints
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/koustreak/sqlgate/internal/connection"
	"github.com/koustreak/sqlgate/internal/endpoint"
	"github.com/koustreak/sqlgate/internal/logger"
)

// Config holds the listener settings.
type Config struct {
	Addr string

	// RequestTimeout bounds every request. Zero disables the bound.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds the graceful shutdown once the serve context
	// is cancelled.
	ShutdownTimeout time.Duration
}

// DefaultShutdownTimeout is used when Config.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 10 * time.Second

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	handler http.Handler
	log     *logger.Logger
}

// New builds the router over the given services.
func New(cfg Config, conns *connection.Service, published *endpoint.Service, log *logger.Logger) *Server {
	if log == nil {
		log = logger.L()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	h := &handlers{conns: conns, published: published}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(log),
		recoverer(log),
	)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	h.routes(r)

	return &Server{cfg: cfg, handler: r, log: log}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on cfg.Addr and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.log.InfoWith("http server listening", map[string]any{
			"addr":            ln.Addr().String(),
			"request_timeout": s.cfg.RequestTimeout.String(),
		})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
