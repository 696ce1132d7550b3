package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cuemby/lookout/pkg/config"
	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
)

// Server is the authenticated API listener
type Server struct {
	cfg        *config.Config
	routes     *RouteTable
	dispatcher *Dispatcher
	health     *HealthServer

	srv      *http.Server
	listener net.Listener
}

// NewServer creates the API server. The ops listener is started alongside
// it when cfg.MetricsAddr is set.
func NewServer(cfg *config.Config, routes *RouteTable, dispatcher *Dispatcher) *Server {
	s := &Server{
		cfg:        cfg,
		routes:     routes,
		dispatcher: dispatcher,
	}
	if cfg.MetricsAddr != "" {
		s.health = NewHealthServer(cfg.MetricsAddr)
	}

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the router. Every bound prefix, and every unmatched
// request, goes through the dispatcher so authentication runs first.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(accessLog)

	for _, prefix := range s.routes.Prefixes() {
		mux.Handle(prefix, s.dispatcher)
	}
	mux.NotFound(s.dispatcher.ServeHTTP)
	mux.MethodNotAllowed(s.dispatcher.ServeHTTP)

	return mux
}

// Listen binds the API listener
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	lis, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr(), err)
	}
	s.listener = lis
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves until ctx is cancelled or, in run-once mode, until the first
// request completes. It then shuts the listeners down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := log.WithComponent("server")

	if err := s.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.srv.Serve(s.listener)
	}()
	if s.health != nil {
		go func() {
			errCh <- s.health.Start()
		}()
	}

	metrics.UpdateComponent(metrics.ComponentAPI, true, "listening")
	logger.Info().
		Str("addr", s.listener.Addr().String()).
		Strs("prefixes", s.routes.Prefixes()).
		Int("max_concurrent", s.cfg.MaxConcurrentRequests).
		Bool("run_once", s.cfg.RunOnce).
		Msg("API listening")

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case <-s.dispatcher.Done():
		logger.Info().Msg("Run-once request served, shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	metrics.UpdateComponent(metrics.ComponentAPI, false, "stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("failed to shut down API listener: %w", err)
	}
	if s.health != nil {
		if err := s.health.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to shut down ops listener")
		}
	}

	return serveErr
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 10 * time.Second
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger := log.WithRequestID(middleware.GetReqID(r.Context()))
		logger.Info().
			Str("component", "server").
			Str("remote", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}
