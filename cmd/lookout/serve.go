package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/lookout/pkg/api"
	"github.com/cuemby/lookout/pkg/client"
	"github.com/cuemby/lookout/pkg/config"
	"github.com/cuemby/lookout/pkg/health"
	"github.com/cuemby/lookout/pkg/inventory"
	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
	"github.com/cuemby/lookout/pkg/security"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway",
	Long: `Run the gateway API and, when metricsAddr is set, the ops listener
serving /metrics, /livez, /readyz and /healthz.

Plaintext passwords in the configuration are hashed at startup and the
resulting canonical hashes are logged so they can be pasted back into the
file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := applyOverrides(cmd, cfg); err != nil {
			return err
		}

		log.Init(log.Config{
			Level:      log.ParseLevel(cfg.Log.Level),
			JSONOutput: cfg.Log.JSON,
		})
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func init() {
	registerServeFlags(serveCmd)
}

func registerServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "lookout.yaml", "Path to the configuration file")
	cmd.Flags().String("listen", "", "API listen address (host:port), overrides listen")
	cmd.Flags().String("metrics-addr", "", "Ops listener address, overrides metricsAddr")
	cmd.Flags().Bool("run-once", false, "Serve a single request and exit")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("log-json", false, "Emit JSON logs")
}

// applyOverrides copies explicitly set flags over the file configuration
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("listen") {
		addr, _ := flags.GetString("listen")
		if err := cfg.SetListenAddr(addr); err != nil {
			return err
		}
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("run-once") {
		cfg.RunOnce, _ = flags.GetBool("run-once")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}

	return cfg.Validate()
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := log.WithComponent("main")

	store, err := security.BuildCredentialStore(cfg.Credentials)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if store.Len() == 0 {
		logger.Warn().Msg("No credentials configured, every request will be rejected")
	}

	prom, err := client.NewClient(client.Config{
		URL:      cfg.Prometheus.URL,
		Username: cfg.Prometheus.Username,
		Password: cfg.Prometheus.Password,
		Timeout:  cfg.Prometheus.Timeout,
		Lookback: cfg.Prometheus.Lookback,
	})
	if err != nil {
		return fmt.Errorf("failed to create prometheus client: %w", err)
	}
	engine := inventory.NewEngine(prom, cfg.Prometheus.UptimeMetric)

	routes, err := api.BuildRouteTable(api.NewHandlers(engine, Version).Endpoints())
	if err != nil {
		return fmt.Errorf("failed to build route table: %w", err)
	}
	dispatcher := api.NewDispatcher(routes, store, cfg)
	srv := api.NewServer(cfg, routes, dispatcher)

	metrics.SetVersion(Version)
	checker := newUpstreamChecker(cfg)
	monitor := health.NewMonitor(metrics.ComponentPrometheus, checker, health.Config{
		Interval: cfg.Prometheus.HealthInterval,
		Timeout:  cfg.Prometheus.Timeout,
		Retries:  3,
	}).WithGauge(metrics.UpstreamUp)
	go monitor.Run(ctx)

	if cfg.Prometheus.CollectInterval > 0 && !cfg.RunOnce {
		collector := metrics.NewCollector(engine, cfg.Prometheus.CollectInterval, cfg.Prometheus.Timeout)
		collector.Start()
		defer collector.Stop()
	}

	logger.Info().
		Str("version", Version).
		Str("prometheus", cfg.Prometheus.URL).
		Str("metric", engine.Metric()).
		Int("credentials", store.Len()).
		Strs("users", store.Usernames()).
		Msg("Starting lookout")

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}

// newUpstreamChecker probes the Prometheus readiness endpoint
func newUpstreamChecker(cfg *config.Config) *health.HTTPChecker {
	checker := health.NewHTTPChecker(strings.TrimRight(cfg.Prometheus.URL, "/") + "/-/ready").
		WithStatusRange(200, 299).
		WithHeader("User-Agent", "lookout/"+Version).
		WithTimeout(cfg.Prometheus.Timeout)
	if cfg.Prometheus.Username != "" {
		checker = checker.WithBasicAuth(cfg.Prometheus.Username, cfg.Prometheus.Password)
	}
	return checker
}
