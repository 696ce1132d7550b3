package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/cuemby/lookout/pkg/inventory"
	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/types"
)

// Inventory is the server list the handlers read from
type Inventory interface {
	BuildServerList(ctx context.Context) ([]*types.ServerView, error)
	FindServer(ctx context.Context, id string) (*types.ServerView, error)
}

var (
	powerActions = map[string]bool{
		"reboot":   true,
		"shutdown": true,
		"wake":     true,
	}

	serviceActions = map[string]bool{
		"start":   true,
		"stop":    true,
		"restart": true,
	}
)

// Handlers serves the gateway routes
type Handlers struct {
	inventory Inventory
	version   string
}

// NewHandlers creates the route handlers
func NewHandlers(inv Inventory, version string) *Handlers {
	return &Handlers{
		inventory: inv,
		version:   version,
	}
}

// Endpoints returns the statically declared route list
func (h *Handlers) Endpoints() []Endpoint {
	return []Endpoint{
		{Name: "hello", Route: &RouteDescriptor{Method: http.MethodGet, Path: "/hello"}, Handle: h.Hello},
		{Name: "servers", Route: &RouteDescriptor{Method: http.MethodGet, Path: "/servers"}, Handle: h.ListServers},
		{Name: "server", Route: &RouteDescriptor{Method: http.MethodGet, Path: "/server"}, Handle: h.GetServer},
		{Name: "server_action", Route: &RouteDescriptor{Method: http.MethodPost, Path: "/server"}, Handle: h.ServerAction},
		{Name: "service_action", Route: &RouteDescriptor{Method: http.MethodPost, Path: "/service"}, Handle: h.ServiceAction},
	}
}

// Hello greets the authenticated user with the gateway version and contact
func (h *Handlers) Hello(ctx context.Context, req *Request) (Outcome, error) {
	var contact types.Contact
	if req.Config != nil {
		contact = req.Config.Contact
	}
	return OK(map[string]any{
		"user":    req.User,
		"version": h.version,
		"contact": contact,
	}), nil
}

// ListServers returns every known server
func (h *Handlers) ListServers(ctx context.Context, req *Request) (Outcome, error) {
	servers, err := h.inventory.BuildServerList(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return OK(servers), nil
}

// GetServer returns one server by id
func (h *Handlers) GetServer(ctx context.Context, req *Request) (Outcome, error) {
	if out, ok := RequireParams(req.Query, "id"); !ok {
		return out, nil
	}

	id, ok := parseID(req.Query.Get("id"))
	if !ok {
		return InvalidParam("id"), nil
	}

	server, out, err := h.find(ctx, id)
	if server == nil {
		return out, err
	}
	return OK(server), nil
}

// ServerAction acknowledges a power action on a server
func (h *Handlers) ServerAction(ctx context.Context, req *Request) (Outcome, error) {
	if out, ok := RequireParams(req.Query, "id", "action"); !ok {
		return out, nil
	}

	id, ok := parseID(req.Query.Get("id"))
	if !ok {
		return InvalidParam("id"), nil
	}
	action := req.Query.Get("action")
	if !powerActions[action] {
		return InvalidParam("action"), nil
	}

	server, out, err := h.find(ctx, id)
	if server == nil {
		return out, err
	}
	if !server.Online() && action != "wake" {
		return Offline(id), nil
	}

	logger := log.WithServerID(id)
	logger.Info().
		Str("user", req.User).
		Str("action", action).
		Msg("Power action accepted")

	return Example(map[string]any{
		"id":       id,
		"action":   action,
		"accepted": true,
	}), nil
}

// ServiceAction acknowledges a start, stop or restart of a service on a server
func (h *Handlers) ServiceAction(ctx context.Context, req *Request) (Outcome, error) {
	if out, ok := RequireParams(req.Query, "server", "name", "action"); !ok {
		return out, nil
	}

	id, ok := parseID(req.Query.Get("server"))
	if !ok {
		return InvalidParam("server"), nil
	}
	name := req.Query.Get("name")
	action := req.Query.Get("action")
	if !serviceActions[action] {
		return InvalidParam("action"), nil
	}

	server, out, err := h.find(ctx, id)
	if server == nil {
		return out, err
	}
	if !server.Online() {
		return Offline(id), nil
	}

	logger := log.WithServerID(id)
	logger.Info().
		Str("user", req.User).
		Str("service", name).
		Str("action", action).
		Msg("Service action accepted")

	return Example(map[string]any{
		"server":   id,
		"name":     name,
		"action":   action,
		"accepted": true,
	}), nil
}

// find returns the server, or the outcome/error to respond with when it is absent
func (h *Handlers) find(ctx context.Context, id string) (*types.ServerView, Outcome, error) {
	server, err := h.inventory.FindServer(ctx, id)
	switch {
	case errors.Is(err, inventory.ErrServerNotFound), err == nil && server == nil:
		logger := log.WithServerID(id)
		logger.Debug().Msg("Server not found")
		return nil, NotFound(id), nil
	case err != nil:
		return nil, Outcome{}, err
	}
	return server, Outcome{}, nil
}

func parseID(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
