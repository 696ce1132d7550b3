/*
Package client provides the Prometheus query client used by the inventory.

The client wraps the official Prometheus HTTP API client
(github.com/prometheus/client_golang/api/prometheus/v1) and implements
inventory.QueryClient on top of three endpoints:

	┌────────────────────┬─────────────────────┬───────────────────────────┐
	│ Method             │ Endpoint            │ Used for                  │
	├────────────────────┼─────────────────────┼───────────────────────────┤
	│ Query              │ /api/v1/query       │ live uptime samples       │
	│ HistoricalRegistry │ /api/v1/series      │ every server ever seen    │
	│ LastScrapeTime     │ /api/v1/targets     │ lastUpdate of a server    │
	└────────────────────┴─────────────────────┴───────────────────────────┘

# Historical Registry

The series endpoint is asked for every series of the liveness metric between
now minus Lookback and now. A zero Lookback starts at the Unix epoch, so the
registry covers the full retention of the Prometheus server. Series without a
name label cannot be identified and are ignored. Duplicate (instance, name)
pairs collapse onto one server view.

# Last Scrape

The active target list is fetched once and reused for TargetsTTL (default 5s),
so one /servers request makes a single targets call no matter how many
samples it reconciles. A target is matched by its instance label.

# Usage

	c, err := client.NewClient(client.Config{
		URL:      "http://prometheus:9090",
		Timeout:  10 * time.Second,
		Lookback: 30 * 24 * time.Hour,
	})
	if err != nil {
		return err
	}

	engine := inventory.NewEngine(c, "lookout_uptime_seconds")

Every call is timed in lookout_upstream_request_duration_seconds and failures
are counted in lookout_upstream_errors_total.
*/
package client
