package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingDescriptor is returned for an endpoint without a usable route
	ErrMissingDescriptor = errors.New("endpoint has no route descriptor")

	// ErrDuplicateRoute is returned when two endpoints share a method and path
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrUnknownMethod is returned by Lookup when no route uses the method
	ErrUnknownMethod = errors.New("unknown method")

	// ErrUnknownPath is returned by Lookup when the method has no such path
	ErrUnknownPath = errors.New("unknown path")
)

// HandlerFunc handles an authenticated request. Expected client errors are
// returned as an Outcome; a non-nil error is reported as UncaughtServerError.
type HandlerFunc func(ctx context.Context, req *Request) (Outcome, error)

// RouteDescriptor declares the method and path an endpoint answers
type RouteDescriptor struct {
	Method string
	Path   string
}

// Endpoint pairs a handler with its route
type Endpoint struct {
	Name   string
	Route  *RouteDescriptor
	Handle HandlerFunc
}

// Route is a resolved entry of the route table
type Route struct {
	Name   string
	Method string
	Path   string
	Handle HandlerFunc
}

// RouteTable maps method and path to a handler. It is read-only once built.
type RouteTable struct {
	routes map[string]map[string]*Route
}

// BuildRouteTable registers every endpoint, failing on a missing descriptor
// or a repeated (method, path) pair
func BuildRouteTable(endpoints []Endpoint) (*RouteTable, error) {
	routes := make(map[string]map[string]*Route)

	for _, ep := range endpoints {
		if ep.Route == nil || ep.Route.Method == "" || ep.Route.Path == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingDescriptor, ep.Name)
		}
		if !strings.HasPrefix(ep.Route.Path, "/") {
			return nil, fmt.Errorf("%w: %s path %q must start with /", ErrMissingDescriptor, ep.Name, ep.Route.Path)
		}
		if ep.Handle == nil {
			return nil, fmt.Errorf("endpoint %s has no handler", ep.Name)
		}

		method := strings.ToUpper(ep.Route.Method)
		paths, ok := routes[method]
		if !ok {
			paths = make(map[string]*Route)
			routes[method] = paths
		}

		if existing, dup := paths[ep.Route.Path]; dup {
			return nil, fmt.Errorf("%w: %s %s registered by %s and %s",
				ErrDuplicateRoute, method, ep.Route.Path, existing.Name, ep.Name)
		}

		paths[ep.Route.Path] = &Route{
			Name:   ep.Name,
			Method: method,
			Path:   ep.Route.Path,
			Handle: ep.Handle,
		}
	}

	return &RouteTable{routes: routes}, nil
}

// Lookup resolves method and path to a route
func (t *RouteTable) Lookup(method, path string) (*Route, error) {
	paths, ok := t.routes[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	route, ok := paths[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownPath, method, path)
	}
	return route, nil
}

// Prefixes returns the sorted, method-independent paths the listener binds
func (t *RouteTable) Prefixes() []string {
	seen := make(map[string]struct{})
	for _, paths := range t.routes {
		for path := range paths {
			seen[path] = struct{}{}
		}
	}

	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Routes returns every route ordered by path, then method
func (t *RouteTable) Routes() []Route {
	var out []Route
	for _, paths := range t.routes {
		for _, r := range paths {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
