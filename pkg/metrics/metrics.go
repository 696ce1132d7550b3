package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookout_api_requests_total",
			Help: "Total number of API requests by route and error code",
		},
		[]string{"route", "code"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lookout_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	APIInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lookout_api_requests_in_flight",
			Help: "Number of requests holding a dispatcher slot",
		},
	)

	// Authentication metrics
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookout_auth_failures_total",
			Help: "Total number of rejected authentications by reason",
		},
		[]string{"reason"},
	)

	PasswordMigrationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lookout_password_migrations_total",
			Help: "Total number of plaintext passwords hashed at startup",
		},
	)

	CredentialsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lookout_credentials_total",
			Help: "Number of users in the credential store",
		},
	)

	// Inventory metrics
	InventorySkippedSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookout_inventory_skipped_samples_total",
			Help: "Total number of live samples dropped during reconciliation by reason",
		},
		[]string{"reason"},
	)

	InventoryServers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lookout_inventory_servers",
			Help: "Number of known servers by state",
		},
		[]string{"state"},
	)

	// Upstream metrics
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lookout_upstream_request_duration_seconds",
			Help:    "Prometheus HTTP API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookout_upstream_errors_total",
			Help: "Total number of failed Prometheus HTTP API calls",
		},
		[]string{"operation"},
	)

	UpstreamUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lookout_upstream_up",
			Help: "Whether the Prometheus server passes its readiness check (1 = up, 0 = down)",
		},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(APIInFlight)
	prometheus.MustRegister(AuthFailuresTotal)
	prometheus.MustRegister(PasswordMigrationsTotal)
	prometheus.MustRegister(CredentialsTotal)
	prometheus.MustRegister(InventorySkippedSamples)
	prometheus.MustRegister(InventoryServers)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamErrorsTotal)
	prometheus.MustRegister(UpstreamUp)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
