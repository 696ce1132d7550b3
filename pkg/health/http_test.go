package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakePrometheus answers /-/ready with status and requires Basic auth when
// user is set
func fakePrometheus(t *testing.T, status int, user, pass string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/-/ready" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if user != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != user || p != pass {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(http.StatusText(status)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPCheckerReadyEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		serverUser  string
		serverPass  string
		clientUser  string
		clientPass  string
		path        string
		wantHealthy bool
		wantMessage string
	}{
		{
			name:        "ready",
			status:      http.StatusOK,
			path:        "/-/ready",
			wantHealthy: true,
			wantMessage: "HTTP 200 OK",
		},
		{
			name:        "starting up",
			status:      http.StatusServiceUnavailable,
			path:        "/-/ready",
			wantMessage: "HTTP 503 Service Unavailable (expected 200-299)",
		},
		{
			name:        "wrong path",
			status:      http.StatusOK,
			path:        "/ready",
			wantMessage: "HTTP 404 Not Found (expected 200-299)",
		},
		{
			name:        "credentials required but missing",
			status:      http.StatusOK,
			serverUser:  "lookout",
			serverPass:  "scrape",
			path:        "/-/ready",
			wantMessage: "HTTP 401 Unauthorized (expected 200-299)",
		},
		{
			name:        "credentials accepted",
			status:      http.StatusOK,
			serverUser:  "lookout",
			serverPass:  "scrape",
			clientUser:  "lookout",
			clientPass:  "scrape",
			path:        "/-/ready",
			wantHealthy: true,
			wantMessage: "HTTP 200 OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakePrometheus(t, tt.status, tt.serverUser, tt.serverPass)

			checker := NewHTTPChecker(srv.URL + tt.path).WithStatusRange(200, 299)
			if tt.clientUser != "" {
				checker = checker.WithBasicAuth(tt.clientUser, tt.clientPass)
			}

			result := checker.Check(context.Background())
			assert.Equal(t, tt.wantHealthy, result.Healthy, result.Message)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.False(t, result.CheckedAt.IsZero())
		})
	}
}

func TestHTTPCheckerDefaultRangeAcceptsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	result := NewHTTPChecker(srv.URL).Check(context.Background())
	assert.True(t, result.Healthy, result.Message)
}

func TestHTTPCheckerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.Header.Get("User-Agent") != "lookout/test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	plain := NewHTTPChecker(srv.URL).Check(context.Background())
	assert.False(t, plain.Healthy)

	custom := NewHTTPChecker(srv.URL).
		WithHeader("User-Agent", "lookout/test").
		Check(context.Background())
	assert.True(t, custom.Healthy, custom.Message)
}

func TestHTTPCheckerSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	t.Run("client timeout", func(t *testing.T) {
		result := NewHTTPChecker(srv.URL).WithTimeout(50 * time.Millisecond).Check(context.Background())
		assert.False(t, result.Healthy)
		assert.Contains(t, result.Message, "request failed")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := NewHTTPChecker(srv.URL).Check(ctx)
		assert.False(t, result.Healthy)
	})
}

func TestHTTPCheckerInvalidURL(t *testing.T) {
	result := NewHTTPChecker("http://[::1]:namedport").Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Contains(t, result.Message, "failed to create request")
	assert.Equal(t, CheckTypeHTTP, NewHTTPChecker("http://localhost").Type())
}
