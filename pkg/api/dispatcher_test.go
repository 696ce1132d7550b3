package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/lookout/pkg/types"
)

func TestDispatcherAuthentication(t *testing.T) {
	h := newGatewayHandler(t, &mockInventory{})

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode types.ErrorCode
	}{
		{
			name:     "no authorization header",
			setup:    func(r *http.Request) {},
			wantCode: types.NoAuthentication,
		},
		{
			name:     "non-basic scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") },
			wantCode: types.NoAuthentication,
		},
		{
			name:     "malformed basic payload",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") },
			wantCode: types.NoAuthentication,
		},
		{
			name:     "unknown user",
			setup:    func(r *http.Request) { r.SetBasicAuth("mallory", testPassword) },
			wantCode: types.UnknownUser,
		},
		{
			name:     "wrong password",
			setup:    func(r *http.Request) { r.SetBasicAuth(testUser, "wrong") },
			wantCode: types.IncorrectPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/hello", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, []string{`Basic realm="lookout"`}, w.Header().Values("WWW-Authenticate"))
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			env := decodeSingle(t, w.Body)
			assert.Equal(t, tt.wantCode, env.ErrorCode)
			assert.JSONEq(t, "null", string(env.Data))
		})
	}
}

func TestDispatcherAuthenticatesBeforeRouting(t *testing.T) {
	h := newGatewayHandler(t, &mockInventory{})

	w := do(h, http.MethodGet, "/does-not-exist", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, types.NoAuthentication, decodeSingle(t, w.Body).ErrorCode)
}

func TestDispatcherUnknownRoute(t *testing.T) {
	h := newGatewayHandler(t, &mockInventory{})

	tests := []struct {
		name   string
		method string
		target string
	}{
		{"unknown path", http.MethodGet, "/nope"},
		{"unknown method", http.MethodDelete, "/hello"},
		{"known path wrong method", http.MethodPost, "/servers"},
		{"trailing slash", http.MethodGet, "/hello/"},
		{"root", http.MethodGet, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, tt.method, tt.target, true)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, types.UnknownRoute, decodeSingle(t, w.Body).ErrorCode)
			assert.Empty(t, w.Header().Values("WWW-Authenticate"))
		})
	}
}

func TestDispatcherHandlerPanicWritesOnce(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), []Endpoint{
		{
			Name:  "boom",
			Route: &RouteDescriptor{Method: http.MethodGet, Path: "/boom"},
			Handle: func(ctx context.Context, req *Request) (Outcome, error) {
				panic("mid-handler failure")
			},
		},
	})

	w := do(h, http.MethodGet, "/boom", true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeSingle(t, w.Body)
	assert.Equal(t, types.UncaughtServerError, env.ErrorCode)
	assert.JSONEq(t, "null", string(env.Data))
}

func TestDispatcherHandlerErrorHidesDetail(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), []Endpoint{
		{
			Name:  "fail",
			Route: &RouteDescriptor{Method: http.MethodGet, Path: "/fail"},
			Handle: func(ctx context.Context, req *Request) (Outcome, error) {
				return Outcome{}, errors.New("secret internal detail")
			},
		},
	})

	w := do(h, http.MethodGet, "/fail", true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internal detail")
	assert.Equal(t, types.UncaughtServerError, decodeSingle(t, w.Body).ErrorCode)
}

func TestDispatcherInvalidOutcome(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), []Endpoint{
		{
			Name:  "zero",
			Route: &RouteDescriptor{Method: http.MethodGet, Path: "/zero"},
			Handle: func(ctx context.Context, req *Request) (Outcome, error) {
				return Outcome{}, nil
			},
		},
		{
			Name:  "unencodable",
			Route: &RouteDescriptor{Method: http.MethodGet, Path: "/chan"},
			Handle: func(ctx context.Context, req *Request) (Outcome, error) {
				return OK(make(chan int)), nil
			},
		},
	})

	for _, path := range []string{"/zero", "/chan"} {
		w := do(h, http.MethodGet, path, true)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Equal(t, types.UncaughtServerError, decodeSingle(t, w.Body).ErrorCode, path)
	}
}

func TestDispatcherPassesRequestContext(t *testing.T) {
	var got *Request
	h, _ := newTestHandler(t, testConfig(), []Endpoint{
		{
			Name:  "echo",
			Route: &RouteDescriptor{Method: http.MethodPost, Path: "/echo"},
			Handle: func(ctx context.Context, req *Request) (Outcome, error) {
				got = req
				return OK(nil), nil
			},
		},
	})

	w := do(h, http.MethodPost, "/echo?a=1&b=2", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, testUser, got.User)
	assert.Equal(t, "1", got.Query.Get("a"))
	assert.Equal(t, "lookout", got.Config.Realm)
}

func concurrencyProbe(inFlight, peak *atomic.Int32) HandlerFunc {
	return func(ctx context.Context, req *Request) (Outcome, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return OK(nil), nil
	}
}

func runConcurrent(t *testing.T, maxConcurrent, requests int) int32 {
	t.Helper()
	var inFlight, peak atomic.Int32

	cfg := testConfig()
	cfg.MaxConcurrentRequests = maxConcurrent
	h, _ := newTestHandler(t, cfg, []Endpoint{
		{Name: "slow", Route: &RouteDescriptor{Method: http.MethodGet, Path: "/slow"}, Handle: concurrencyProbe(&inFlight, &peak)},
	})

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := do(h, http.MethodGet, "/slow", true)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()
	return peak.Load()
}

func TestDispatcherSerialByDefault(t *testing.T) {
	assert.Equal(t, int32(1), runConcurrent(t, 1, 6))
}

func TestDispatcherConcurrencyLimit(t *testing.T) {
	assert.LessOrEqual(t, runConcurrent(t, 3, 9), int32(3))
}

func TestDispatcherDoneInRunOnceMode(t *testing.T) {
	cfg := testConfig()
	cfg.RunOnce = true
	h, d := newTestHandler(t, cfg, NewHandlers(&mockInventory{}, "test").Endpoints())

	select {
	case <-d.Done():
		t.Fatal("Done closed before any request")
	default:
	}

	w := do(h, http.MethodGet, "/hello", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after first request")
	}
}

func TestDispatcherRunOnceAbortsLaterRequests(t *testing.T) {
	cfg := testConfig()
	cfg.RunOnce = true
	h, _ := newTestHandler(t, cfg, NewHandlers(&mockInventory{}, "test").Endpoints())

	w := do(h, http.MethodGet, "/hello", true)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		do(h, http.MethodGet, "/hello", true)
	})
}

func TestDispatcherDoneNeverClosesWithoutRunOnce(t *testing.T) {
	h, d := newTestHandler(t, testConfig(), NewHandlers(&mockInventory{}, "test").Endpoints())

	do(h, http.MethodGet, "/hello", true)

	select {
	case <-d.Done():
		t.Fatal("Done closed outside run-once mode")
	default:
	}
}
