package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/cuemby/lookout/pkg/config"
	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
	"github.com/cuemby/lookout/pkg/security"
	"github.com/cuemby/lookout/pkg/types"
)

// Request is what a handler receives for an authenticated call
type Request struct {
	User   string
	HTTP   *http.Request
	Query  url.Values
	Config *config.Config
}

// Authenticator checks Basic credentials
type Authenticator interface {
	Authenticate(username, password string) (security.AuthResult, error)
}

// Dispatcher runs the request lifecycle: acquire a slot, authenticate,
// route, handle and write exactly one envelope
type Dispatcher struct {
	routes *RouteTable
	auth   Authenticator
	cfg    *config.Config
	sem    *semaphore.Weighted

	runOnce  bool
	claimed  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// NewDispatcher creates a dispatcher over an immutable route table and
// credential store
func NewDispatcher(routes *RouteTable, auth Authenticator, cfg *config.Config) *Dispatcher {
	slots := int64(cfg.MaxConcurrentRequests)
	if slots < 1 {
		slots = 1
	}
	return &Dispatcher{
		routes:  routes,
		auth:    auth,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(slots),
		runOnce: cfg.RunOnce,
		done:    make(chan struct{}),
	}
}

// Done is closed after the first completed request in run-once mode. Every
// request after the first is aborted without reaching a handler.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// ServeHTTP implements http.Handler
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := d.sem.Acquire(r.Context(), 1); err != nil {
		// client went away while queued
		return
	}
	defer d.sem.Release(1)

	// run-once serves the first request only; later connections are dropped
	if d.runOnce && !d.claimed.CompareAndSwap(false, true) {
		panic(http.ErrAbortHandler)
	}

	metrics.APIInFlight.Inc()
	defer metrics.APIInFlight.Dec()

	timer := metrics.NewTimer()
	logger := log.WithRequestID(middleware.GetReqID(r.Context())).With().
		Str("component", "dispatcher").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Logger()

	g := &guardedWriter{w: w}
	routeName := "unmatched"

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")
			g.write(http.StatusInternalServerError, types.UncaughtServerError, nil)
		}
		if !g.written {
			logger.Error().Msg("Handler returned without a response")
			g.write(http.StatusInternalServerError, types.UncaughtServerError, nil)
		}

		metrics.APIRequestsTotal.WithLabelValues(routeName, g.code.String()).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, routeName)

		if d.runOnce {
			d.doneOnce.Do(func() { close(d.done) })
		}
	}()

	user, ok := d.authenticate(g, r, &logger)
	if !ok {
		return
	}

	route, err := d.routes.Lookup(r.Method, r.URL.Path)
	if err != nil {
		logger.Debug().Err(err).Msg("No route")
		g.write(http.StatusNotFound, types.UnknownRoute, nil)
		return
	}
	routeName = route.Name

	outcome, err := route.Handle(r.Context(), &Request{
		User:   user,
		HTTP:   r,
		Query:  r.URL.Query(),
		Config: d.cfg,
	})
	if err != nil {
		logger.Error().Err(err).Str("route", route.Name).Msg("Handler failed")
		g.write(http.StatusInternalServerError, types.UncaughtServerError, nil)
		return
	}
	if outcome.Status < 100 || outcome.Status > 599 {
		logger.Error().Int("status", outcome.Status).Str("route", route.Name).Msg("Handler returned an invalid status")
		g.write(http.StatusInternalServerError, types.UncaughtServerError, nil)
		return
	}

	g.write(outcome.Status, outcome.Code, outcome.Data)
}

func (d *Dispatcher) authenticate(g *guardedWriter, r *http.Request, logger *zerolog.Logger) (string, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		d.challenge(g, types.NoAuthentication, "no_auth")
		return "", false
	}

	result, err := d.auth.Authenticate(username, password)
	if err != nil {
		logger.Error().Err(err).Str("username", username).Msg("Stored credential is unusable")
		g.write(http.StatusInternalServerError, types.UncaughtServerError, nil)
		return "", false
	}

	switch result {
	case security.AuthOK:
		return username, true
	case security.AuthUnknownUser:
		logger.Info().Str("username", username).Msg("Unknown user")
		d.challenge(g, types.UnknownUser, result.String())
	default:
		logger.Info().Str("username", username).Msg("Incorrect password")
		d.challenge(g, types.IncorrectPassword, result.String())
	}
	return "", false
}

func (d *Dispatcher) challenge(g *guardedWriter, code types.ErrorCode, reason string) {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	g.w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", d.cfg.Realm))
	g.write(http.StatusUnauthorized, code, nil)
}

// guardedWriter writes at most one envelope
type guardedWriter struct {
	w       http.ResponseWriter
	written bool
	code    types.ErrorCode
}

var errAlreadyWritten = errors.New("response already written")

func (g *guardedWriter) write(status int, code types.ErrorCode, data any) error {
	if g.written {
		return errAlreadyWritten
	}

	body, err := encodeEnvelope(code, data)
	if err != nil {
		status, code = http.StatusInternalServerError, types.UncaughtServerError
		body, _ = encodeEnvelope(code, nil)
	}

	g.written = true
	g.code = code

	g.w.Header().Set("Content-Type", "application/json")
	g.w.WriteHeader(status)
	_, werr := g.w.Write(body)
	return werr
}
