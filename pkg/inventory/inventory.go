package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
	"github.com/cuemby/lookout/pkg/types"
)

const (
	// LabelName carries the server name on the uptime metric
	LabelName = "name"

	// LabelInstance carries the scrape address on the uptime metric
	LabelInstance = "instance"
)

var (
	// ErrServerNotFound is returned when no server has the requested id
	ErrServerNotFound = errors.New("server not found")

	// ErrInvalidValue is returned when a live sample value is not a finite number
	ErrInvalidValue = errors.New("invalid sample value")
)

// Sample is one series of an instant query result
type Sample struct {
	Labels    map[string]string
	Timestamp time.Time
	Value     string
}

// QueryClient is the read side of the metrics store
type QueryClient interface {
	// Query runs an instant query for metric
	Query(ctx context.Context, metric string) ([]Sample, error)

	// HistoricalRegistry returns every server that ever reported metric,
	// keyed by id, all in the offline state
	HistoricalRegistry(ctx context.Context, metric string) (map[string]*types.ServerView, error)

	// LastScrapeTime returns when address was last scraped. ok is false when
	// the store has no scrape target for address.
	LastScrapeTime(ctx context.Context, address string) (ts time.Time, ok bool, err error)
}

// Engine reconciles the historical registry with the live snapshot
type Engine struct {
	client QueryClient
	metric string
}

// NewEngine creates an engine that reads the given liveness metric
func NewEngine(client QueryClient, metric string) *Engine {
	return &Engine{
		client: client,
		metric: metric,
	}
}

// Metric returns the liveness metric name
func (e *Engine) Metric() string {
	return e.metric
}

// BuildServerList returns every known server. Servers reporting in the live
// snapshot carry their uptime and last scrape time; the rest keep the
// OfflineUptime sentinel. The result is sorted by name, then address.
func (e *Engine) BuildServerList(ctx context.Context) ([]*types.ServerView, error) {
	logger := log.WithComponent("inventory")

	registry, err := e.client.HistoricalRegistry(ctx, e.metric)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server registry: %w", err)
	}

	samples, err := e.client.Query(ctx, e.metric)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", e.metric, err)
	}

	for _, sample := range samples {
		name, ok := sample.Labels[LabelName]
		if !ok || name == "" {
			logger.Warn().
				Interface("labels", sample.Labels).
				Msg("Sample has no name label, skipping")
			metrics.InventorySkippedSamples.WithLabelValues("missing_name").Inc()
			continue
		}

		address := sample.Labels[LabelInstance]
		id := types.ServerID(address, name)

		uptime, err := parseUptime(sample.Value)
		if err != nil {
			return nil, fmt.Errorf("server %s (%s): %w", name, address, err)
		}

		lastUpdate, found, err := e.client.LastScrapeTime(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch last scrape for %s: %w", address, err)
		}
		if !found {
			logger.Debug().
				Str("address", address).
				Msg("No scrape target for address, using sample timestamp")
			lastUpdate = sample.Timestamp
		}

		view, ok := registry[id]
		if !ok {
			logger.Warn().
				Str("server_id", id).
				Str("name", name).
				Str("address", address).
				Msg("Sample has no registry entry, skipping")
			metrics.InventorySkippedSamples.WithLabelValues("unknown_identity").Inc()
			continue
		}

		ts := lastUpdate
		view.UptimeSeconds = uptime
		view.LastUpdate = &ts
	}

	servers := make([]*types.ServerView, 0, len(registry))
	for _, view := range registry {
		servers = append(servers, view)
	}
	sort.Slice(servers, func(i, j int) bool {
		if servers[i].Name != servers[j].Name {
			return servers[i].Name < servers[j].Name
		}
		return servers[i].Address < servers[j].Address
	})

	return servers, nil
}

// FindServer returns the server with the given id
func (e *Engine) FindServer(ctx context.Context, id string) (*types.ServerView, error) {
	servers, err := e.BuildServerList(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range servers {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrServerNotFound, id)
}

func parseUptime(value string) (int64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidValue, value, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if v < 0 || v >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidValue, value)
	}
	return int64(v), nil
}
