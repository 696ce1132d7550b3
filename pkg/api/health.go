package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cuemby/lookout/pkg/metrics"
)

// HealthServer provides the unauthenticated ops endpoints
type HealthServer struct {
	srv *http.Server
}

// NewHealthServer creates the ops listener for addr
func NewHealthServer(addr string) *HealthServer {
	return &HealthServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      OpsHandler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// OpsHandler routes /metrics, /livez, /readyz and /healthz
func OpsHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Method(http.MethodGet, "/metrics", metrics.Handler())
	mux.Get("/livez", metrics.LivenessHandler())
	mux.Get("/readyz", metrics.ReadyHandler())
	mux.Get("/healthz", metrics.HealthHandler())
	return mux
}

// Start serves the ops endpoints until Shutdown
func (hs *HealthServer) Start() error {
	err := hs.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the ops listener
func (hs *HealthServer) Shutdown(ctx context.Context) error {
	return hs.srv.Shutdown(ctx)
}
