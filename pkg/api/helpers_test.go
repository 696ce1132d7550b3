package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/lookout/pkg/config"
	"github.com/cuemby/lookout/pkg/security"
	"github.com/cuemby/lookout/pkg/types"
)

const (
	testUser     = "admin"
	testPassword = "hunter2"
)

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) BuildServerList(ctx context.Context) ([]*types.ServerView, error) {
	args := m.Called(ctx)
	servers, _ := args.Get(0).([]*types.ServerView)
	return servers, args.Error(1)
}

func (m *mockInventory) FindServer(ctx context.Context, id string) (*types.ServerView, error) {
	args := m.Called(ctx, id)
	server, _ := args.Get(0).(*types.ServerView)
	return server, args.Error(1)
}

type envelope struct {
	ErrorCode types.ErrorCode `json:"errorCode"`
	Data      json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.MetricsAddr = ""
	cfg.Contact = types.Contact{Name: "Ops", Email: "ops@example.com", URL: "https://example.com"}
	return cfg
}

func testStore(t *testing.T) *security.CredentialStore {
	t.Helper()
	hash, err := security.HashPasswordWith(testPassword, 1000, []byte("api-test-salt-01"))
	require.NoError(t, err)
	store, err := security.BuildCredentialStore([]types.Credential{
		{Username: testUser, Password: hash},
	})
	require.NoError(t, err)
	return store
}

func newTestHandler(t *testing.T, cfg *config.Config, endpoints []Endpoint) (http.Handler, *Dispatcher) {
	t.Helper()
	routes, err := BuildRouteTable(endpoints)
	require.NoError(t, err)
	d := NewDispatcher(routes, testStore(t), cfg)
	return NewServer(cfg, routes, d).Handler(), d
}

func newGatewayHandler(t *testing.T, inv Inventory) http.Handler {
	t.Helper()
	h, _ := newTestHandler(t, testConfig(), NewHandlers(inv, "1.0.0-test").Endpoints())
	return h
}

func do(h http.Handler, method, target string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth {
		req.SetBasicAuth(testUser, testPassword)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decodeSingle decodes the body and fails if anything follows the first value
func decodeSingle(t *testing.T, body io.Reader) envelope {
	t.Helper()
	dec := json.NewDecoder(body)
	var env envelope
	require.NoError(t, dec.Decode(&env))
	var extra json.RawMessage
	require.ErrorIs(t, dec.Decode(&extra), io.EOF, "response must contain exactly one envelope")
	return env
}
