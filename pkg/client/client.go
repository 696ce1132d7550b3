package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	promconfig "github.com/prometheus/common/config"
	"github.com/prometheus/common/model"

	"github.com/cuemby/lookout/pkg/inventory"
	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
	"github.com/cuemby/lookout/pkg/types"
)

// ErrUnexpectedResult is returned when Prometheus answers with a result type
// other than the one requested
var ErrUnexpectedResult = errors.New("unexpected query result type")

// DefaultTargetsTTL is how long the scrape target list is reused between calls
const DefaultTargetsTTL = 5 * time.Second

// Config configures the Prometheus client
type Config struct {
	// URL is the Prometheus server base URL
	URL string

	// Username and Password enable Basic authentication when Username is set
	Username string
	Password string

	// Timeout bounds every HTTP API call
	Timeout time.Duration

	// Lookback is how far back the historical registry reaches. Zero means
	// the Unix epoch.
	Lookback time.Duration

	// TargetsTTL is how long the scrape target list is cached
	TargetsTTL time.Duration
}

// Client reads server liveness from the Prometheus HTTP API
type Client struct {
	api        v1.API
	timeout    time.Duration
	lookback   time.Duration
	targetsTTL time.Duration
	now        func() time.Time

	mu        sync.Mutex
	scrapes   map[string]time.Time
	fetchedAt time.Time
}

var _ inventory.QueryClient = (*Client)(nil)

// NewClient creates a client for the Prometheus server at cfg.URL
func NewClient(cfg Config) (*Client, error) {
	var rt http.RoundTripper = api.DefaultRoundTripper
	if cfg.Username != "" {
		rt = promconfig.NewBasicAuthRoundTripper(
			promconfig.NewInlineSecret(cfg.Username),
			promconfig.NewInlineSecret(cfg.Password),
			rt,
		)
	}

	c, err := api.NewClient(api.Config{
		Address:      cfg.URL,
		RoundTripper: rt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}

	ttl := cfg.TargetsTTL
	if ttl == 0 {
		ttl = DefaultTargetsTTL
	}

	return &Client{
		api:        v1.NewAPI(c),
		timeout:    cfg.Timeout,
		lookback:   cfg.Lookback,
		targetsTTL: ttl,
		now:        time.Now,
	}, nil
}

// Query runs an instant query for metric and returns one sample per series
func (c *Client) Query(ctx context.Context, metric string) ([]inventory.Sample, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	timer := metrics.NewTimer()
	value, warnings, err := c.api.Query(ctx, metric, c.now())
	timer.ObserveDurationVec(metrics.UpstreamRequestDuration, "query")
	logWarnings("query", warnings)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("query").Inc()
		return nil, fmt.Errorf("instant query %s: %w", metric, err)
	}

	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("%w: got %s, want vector", ErrUnexpectedResult, value.Type())
	}

	samples := make([]inventory.Sample, 0, len(vector))
	for _, s := range vector {
		samples = append(samples, inventory.Sample{
			Labels:    labelMap(model.LabelSet(s.Metric)),
			Timestamp: s.Timestamp.Time().UTC(),
			Value:     s.Value.String(),
		})
	}
	return samples, nil
}

// HistoricalRegistry lists every (instance, name) pair that reported metric
// within the lookback window
func (c *Client) HistoricalRegistry(ctx context.Context, metric string) (map[string]*types.ServerView, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	end := c.now()
	start := time.Unix(0, 0)
	if c.lookback > 0 {
		start = end.Add(-c.lookback)
	}

	timer := metrics.NewTimer()
	series, warnings, err := c.api.Series(ctx, []string{metric}, start, end)
	timer.ObserveDurationVec(metrics.UpstreamRequestDuration, "series")
	logWarnings("series", warnings)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("series").Inc()
		return nil, fmt.Errorf("series %s: %w", metric, err)
	}

	registry := make(map[string]*types.ServerView, len(series))
	for _, ls := range series {
		name := string(ls[model.LabelName(inventory.LabelName)])
		if name == "" {
			continue
		}
		address := string(ls[model.LabelName(inventory.LabelInstance)])
		view := types.NewServerView(address, name)
		if _, exists := registry[view.ID]; !exists {
			registry[view.ID] = view
		}
	}
	return registry, nil
}

// LastScrapeTime returns the last scrape of the active target whose instance
// label equals address
func (c *Client) LastScrapeTime(ctx context.Context, address string) (time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scrapes == nil || c.now().Sub(c.fetchedAt) >= c.targetsTTL {
		if err := c.refreshTargets(ctx); err != nil {
			return time.Time{}, false, err
		}
	}

	ts, ok := c.scrapes[address]
	return ts, ok, nil
}

// refreshTargets must be called with c.mu held
func (c *Client) refreshTargets(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	timer := metrics.NewTimer()
	result, err := c.api.Targets(ctx)
	timer.ObserveDurationVec(metrics.UpstreamRequestDuration, "targets")
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("targets").Inc()
		return fmt.Errorf("targets: %w", err)
	}

	scrapes := make(map[string]time.Time, len(result.Active))
	for _, target := range result.Active {
		instance := string(target.Labels[model.InstanceLabel])
		if instance == "" || target.LastScrape.IsZero() {
			continue
		}
		if prev, ok := scrapes[instance]; !ok || target.LastScrape.After(prev) {
			scrapes[instance] = target.LastScrape.UTC()
		}
	}

	c.scrapes = scrapes
	c.fetchedAt = c.now()
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func labelMap(ls model.LabelSet) map[string]string {
	out := make(map[string]string, len(ls))
	for k, v := range ls {
		out[string(k)] = string(v)
	}
	return out
}

func logWarnings(operation string, warnings v1.Warnings) {
	if len(warnings) == 0 {
		return
	}
	logger := log.WithComponent("client")
	logger.Warn().
		Str("operation", operation).
		Str("warnings", strings.Join(warnings, "; ")).
		Msg("Prometheus returned warnings")
}
