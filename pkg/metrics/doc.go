/*
Package metrics provides Prometheus metrics and health state for lookout.

The metrics package defines and registers the gateway's self-metrics using the
Prometheus client library, keeps a registry of component health used by the
liveness and readiness endpoints, and runs a collector that refreshes the
inventory gauges in the background. Everything is served on the ops listener,
separate from the authenticated API.

# Architecture

	┌──────────────────── METRICS SYSTEM ─────────────────────┐
	│                                                          │
	│  ┌──────────────────────────────────────────┐            │
	│  │          Prometheus Registry              │            │
	│  │  - Global DefaultRegistry                 │            │
	│  │  - MustRegister at package init           │            │
	│  └─────────────────┬────────────────────────┘            │
	│                    │                                      │
	│  ┌─────────────────▼────────────────────────┐            │
	│  │           Metric Categories               │            │
	│  │  API: requests, duration, in-flight       │            │
	│  │  Auth: failures, migrations, users        │            │
	│  │  Inventory: servers, skipped samples      │            │
	│  │  Upstream: call duration, errors, up      │            │
	│  └─────────────────┬────────────────────────┘            │
	│                    │                                      │
	│  ┌─────────────────▼────────────────────────┐            │
	│  │          Ops Listener                     │            │
	│  │  /metrics  promhttp.Handler()             │            │
	│  │  /livez    LivenessHandler()              │            │
	│  │  /readyz   ReadyHandler()                 │            │
	│  │  /healthz  HealthHandler()                │            │
	│  └──────────────────────────────────────────┘            │
	└──────────────────────────────────────────────────────────┘

# Metrics

API:
  - lookout_api_requests_total{route,code}: requests by route and errorCode name
  - lookout_api_request_duration_seconds{route}: full dispatcher lifecycle
  - lookout_api_requests_in_flight: requests holding a dispatcher slot

Authentication:
  - lookout_auth_failures_total{reason}: no_auth, unknown_user, incorrect_password
  - lookout_password_migrations_total: plaintext passwords hashed at startup
  - lookout_credentials_total: users in the credential store

Inventory:
  - lookout_inventory_servers{state}: online and offline servers
  - lookout_inventory_skipped_samples_total{reason}: missing_name, unknown_identity

Upstream:
  - lookout_upstream_request_duration_seconds{operation}: query, series, targets
  - lookout_upstream_errors_total{operation}
  - lookout_upstream_up: last readiness check result

# Timing

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.APIRequestDuration, route)

# Readiness

Readiness waits for the "api" and "prometheus" components. The API listener
registers itself once bound; the upstream monitor in package health updates
the "prometheus" component after every check. A component that has never
reported keeps the gateway not ready.
*/
package metrics
