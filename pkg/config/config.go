package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/lookout/pkg/types"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config is the gateway configuration file
type Config struct {
	Listen                ListenConfig       `yaml:"listen"`
	MetricsAddr           string             `yaml:"metricsAddr"`
	Realm                 string             `yaml:"realm"`
	MaxConcurrentRequests int                `yaml:"maxConcurrentRequests"`
	RunOnce               bool               `yaml:"runOnce"`
	ShutdownTimeout       time.Duration      `yaml:"shutdownTimeout"`
	Contact               types.Contact      `yaml:"contact"`
	Prometheus            PrometheusConfig   `yaml:"prometheus"`
	Credentials           []types.Credential `yaml:"credentials"`
	Log                   LogConfig          `yaml:"log"`
}

// ListenConfig is the API listener address
type ListenConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// PrometheusConfig describes the upstream metrics store
type PrometheusConfig struct {
	URL             string        `yaml:"url"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	UptimeMetric    string        `yaml:"uptimeMetric"`
	Lookback        time.Duration `yaml:"lookback"`
	Timeout         time.Duration `yaml:"timeout"`
	HealthInterval  time.Duration `yaml:"healthInterval"`
	CollectInterval time.Duration `yaml:"collectInterval"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when a key is absent from the file
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Address: "0.0.0.0",
			Port:    8080,
		},
		MetricsAddr:           "127.0.0.1:9100",
		Realm:                 "lookout",
		MaxConcurrentRequests: 1,
		ShutdownTimeout:       10 * time.Second,
		Prometheus: PrometheusConfig{
			URL:             "http://127.0.0.1:9090",
			UptimeMetric:    "lookout_uptime_seconds",
			Timeout:         10 * time.Second,
			HealthInterval:  30 * time.Second,
			CollectInterval: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the gateway cannot start with
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return invalid("listen.port %d out of range", c.Listen.Port)
	}

	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return invalid("metricsAddr %q: %v", c.MetricsAddr, err)
		}
	}

	if c.Realm == "" {
		return invalid("realm cannot be empty")
	}
	if strings.ContainsAny(c.Realm, "\"\r\n") {
		return invalid("realm %q contains a quote or newline", c.Realm)
	}

	if c.MaxConcurrentRequests < 1 {
		return invalid("maxConcurrentRequests must be at least 1, got %d", c.MaxConcurrentRequests)
	}

	if c.ShutdownTimeout < 0 {
		return invalid("shutdownTimeout cannot be negative")
	}

	u, err := url.Parse(c.Prometheus.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("prometheus.url %q must be an absolute http(s) URL", c.Prometheus.URL)
	}

	if c.Prometheus.UptimeMetric == "" {
		return invalid("prometheus.uptimeMetric cannot be empty")
	}

	if c.Prometheus.Lookback < 0 {
		return invalid("prometheus.lookback cannot be negative")
	}
	if c.Prometheus.Timeout <= 0 {
		return invalid("prometheus.timeout must be positive")
	}
	if c.Prometheus.HealthInterval <= 0 {
		return invalid("prometheus.healthInterval must be positive")
	}
	if c.Prometheus.CollectInterval < 0 {
		return invalid("prometheus.collectInterval cannot be negative")
	}

	for i, cred := range c.Credentials {
		if cred.Username == "" {
			return invalid("credentials[%d].username cannot be empty", i)
		}
	}

	return nil
}

// ListenAddr returns the host:port the API listener binds
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Listen.Address, strconv.Itoa(c.Listen.Port))
}

// SetListenAddr overrides the listener from a host:port string
func (c *Config) SetListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return invalid("listen address %q: %v", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return invalid("listen port %q: %v", port, err)
	}
	c.Listen.Address = host
	c.Listen.Port = p
	return c.Validate()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
