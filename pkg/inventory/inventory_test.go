package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/lookout/pkg/metrics"
	"github.com/cuemby/lookout/pkg/types"
)

type fakeClient struct {
	registry    []*types.ServerView
	samples     []Sample
	scrapes     map[string]time.Time
	registryErr error
	queryErr    error
	scrapeErr   error
	scrapeCalls []string
}

func (f *fakeClient) Query(ctx context.Context, metric string) ([]Sample, error) {
	return f.samples, f.queryErr
}

func (f *fakeClient) HistoricalRegistry(ctx context.Context, metric string) (map[string]*types.ServerView, error) {
	if f.registryErr != nil {
		return nil, f.registryErr
	}
	out := make(map[string]*types.ServerView, len(f.registry))
	for _, v := range f.registry {
		cp := *v
		out[cp.ID] = &cp
	}
	return out, nil
}

func (f *fakeClient) LastScrapeTime(ctx context.Context, address string) (time.Time, bool, error) {
	f.scrapeCalls = append(f.scrapeCalls, address)
	if f.scrapeErr != nil {
		return time.Time{}, false, f.scrapeErr
	}
	ts, ok := f.scrapes[address]
	return ts, ok, nil
}

func sample(name, instance, value string, ts time.Time) Sample {
	labels := map[string]string{"__name__": "lookout_uptime_seconds"}
	if name != "" {
		labels[LabelName] = name
	}
	if instance != "" {
		labels[LabelInstance] = instance
	}
	return Sample{Labels: labels, Timestamp: ts, Value: value}
}

func twoServerClient() (*fakeClient, time.Time) {
	scrape := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &fakeClient{
		registry: []*types.ServerView{
			types.NewServerView("10.0.0.1", "a"),
			types.NewServerView("10.0.0.2", "b"),
		},
		samples: []Sample{
			sample("a", "10.0.0.1", "345", scrape.Add(-5*time.Second)),
		},
		scrapes: map[string]time.Time{"10.0.0.1": scrape},
	}, scrape
}

func TestBuildServerListMergesLiveSnapshot(t *testing.T) {
	client, scrape := twoServerClient()
	engine := NewEngine(client, "lookout_uptime_seconds")

	servers, err := engine.BuildServerList(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 2)

	s1, s2 := servers[0], servers[1]
	assert.Equal(t, "a", s1.Name)
	assert.Equal(t, types.ServerID("10.0.0.1", "a"), s1.ID)
	assert.Equal(t, int64(345), s1.UptimeSeconds)
	require.NotNil(t, s1.LastUpdate)
	assert.True(t, scrape.Equal(*s1.LastUpdate))

	assert.Equal(t, "b", s2.Name)
	assert.Equal(t, types.OfflineUptime, s2.UptimeSeconds)
	assert.Nil(t, s2.LastUpdate)
}

func TestBuildServerListSkipsMissingName(t *testing.T) {
	client, _ := twoServerClient()
	client.samples = append([]Sample{sample("", "10.0.0.2", "99", time.Now())}, client.samples...)

	before := testutil.ToFloat64(metrics.InventorySkippedSamples.WithLabelValues("missing_name"))

	servers, err := NewEngine(client, "m").BuildServerList(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 2)

	assert.Equal(t, int64(345), servers[0].UptimeSeconds, "valid sample still merged")
	assert.Equal(t, types.OfflineUptime, servers[1].UptimeSeconds)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.InventorySkippedSamples.WithLabelValues("missing_name")))
	assert.Equal(t, []string{"10.0.0.1"}, client.scrapeCalls)
}

func TestBuildServerListSkipsUnknownIdentity(t *testing.T) {
	client, _ := twoServerClient()
	client.samples = append(client.samples, sample("c", "10.0.0.3", "10", time.Now()))

	before := testutil.ToFloat64(metrics.InventorySkippedSamples.WithLabelValues("unknown_identity"))

	servers, err := NewEngine(client, "m").BuildServerList(context.Background())
	require.NoError(t, err)
	assert.Len(t, servers, 2)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.InventorySkippedSamples.WithLabelValues("unknown_identity")))
}

func TestBuildServerListFallsBackToSampleTimestamp(t *testing.T) {
	client, _ := twoServerClient()
	client.scrapes = nil
	sampleTS := client.samples[0].Timestamp

	servers, err := NewEngine(client, "m").BuildServerList(context.Background())
	require.NoError(t, err)
	require.NotNil(t, servers[0].LastUpdate)
	assert.True(t, sampleTS.Equal(*servers[0].LastUpdate))
}

func TestBuildServerListTruncatesFractionalUptime(t *testing.T) {
	client, _ := twoServerClient()
	client.samples[0].Value = "345.97"

	servers, err := NewEngine(client, "m").BuildServerList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(345), servers[0].UptimeSeconds)
}

func TestBuildServerListInvalidValueAborts(t *testing.T) {
	for _, value := range []string{"abc", "", "NaN", "+Inf", "-1", "-0.5", "1e30", "9223372036854775808"} {
		t.Run(value, func(t *testing.T) {
			client, _ := twoServerClient()
			client.samples[0].Value = value

			_, err := NewEngine(client, "m").BuildServerList(context.Background())
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestBuildServerListUptimeBounds(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"0", 0},
		{"12.9", 12},
		{"9.2e18", 9200000000000000000},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			client, _ := twoServerClient()
			client.samples[0].Value = tt.value

			servers, err := NewEngine(client, "m").BuildServerList(context.Background())
			require.NoError(t, err)

			var found bool
			for _, s := range servers {
				if s.Name == client.samples[0].Labels[LabelName] {
					found = true
					assert.Equal(t, tt.want, s.UptimeSeconds)
					assert.True(t, s.Online())
				}
			}
			assert.True(t, found)
		})
	}
}

func TestBuildServerListUpstreamErrors(t *testing.T) {
	upstream := errors.New("connection refused")

	tests := []struct {
		name   string
		mutate func(*fakeClient)
	}{
		{"registry", func(c *fakeClient) { c.registryErr = upstream }},
		{"query", func(c *fakeClient) { c.queryErr = upstream }},
		{"last scrape", func(c *fakeClient) { c.scrapeErr = upstream }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := twoServerClient()
			tt.mutate(client)

			_, err := NewEngine(client, "m").BuildServerList(context.Background())
			assert.ErrorIs(t, err, upstream)
		})
	}
}

func TestBuildServerListEmptyRegistry(t *testing.T) {
	servers, err := NewEngine(&fakeClient{}, "m").BuildServerList(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, servers)
	assert.Empty(t, servers)
}

func TestFindServer(t *testing.T) {
	client, _ := twoServerClient()
	engine := NewEngine(client, "m")

	view, err := engine.FindServer(context.Background(), types.ServerID("10.0.0.2", "b"))
	require.NoError(t, err)
	assert.Equal(t, "b", view.Name)
	assert.False(t, view.Online())

	_, err = engine.FindServer(context.Background(), types.ServerID("10.0.0.9", "z"))
	assert.ErrorIs(t, err, ErrServerNotFound)
}
