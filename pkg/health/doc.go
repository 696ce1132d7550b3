/*
Package health provides upstream health checks for lookout.

The gateway depends on a Prometheus server for every inventory request. This
package checks that dependency on a schedule and publishes the outcome to the
readiness registry in package metrics, so /readyz on the ops listener turns
503 while Prometheus is unreachable.

# Architecture

	┌──────────────────────────────────────────────┐
	│                  Monitor                      │
	│  every Interval:                              │
	│    checker.Check(ctx) ──► Status.Update       │
	│                              │                │
	│              ┌───────────────┴──────────┐     │
	│              ▼                          ▼     │
	│   metrics.UpdateComponent     lookout_upstream_up
	│   ("prometheus", healthy)                     │
	└──────────────────────────────────────────────┘
	                    │
	                    ▼
	          HTTPChecker GET <prometheus>/-/ready

## Health Check Flow

 1. NewMonitor starts in the unhealthy state
 2. The first check runs immediately when Run is called
 3. Every Interval: run the check with Timeout
 4. A success marks the upstream healthy and resets the failure count
 5. Failures >= Retries mark the upstream unhealthy
 6. Failures inside StartPeriod are not counted

# Usage

	checker := health.NewHTTPChecker(promURL + "/-/ready").
		WithStatusRange(200, 299).
		WithTimeout(5 * time.Second)

	monitor := health.NewMonitor(metrics.ComponentPrometheus, checker, health.Config{
		Interval: 30 * time.Second,
		Timeout:  5 * time.Second,
		Retries:  3,
	}).WithGauge(metrics.UpstreamUp)

	go monitor.Run(ctx)

The monitor only affects readiness. API requests are still dispatched while
the upstream is down; they fail with UncaughtServerError when the query client
cannot reach Prometheus.
*/
package health
