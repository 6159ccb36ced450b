package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Amkushu999/Proxych/internal/checker"
)

// Config holds everything the CLI and the server need beyond the
// per-call verification options.
type Config struct {
	Addr   string // API bind address, e.g. "127.0.0.1:8080"
	LogDir string // logs directory

	ConnectTimeout  time.Duration
	ProbeTimeout    time.Duration
	OverallDeadline time.Duration

	HTTPEchoURL  string
	HTTPSEchoURL string

	Concurrency int
	ProbeSOCKS  bool

	// MaxMind database paths; empty disables local geo lookup.
	MMDBCityPath string
	MMDBASNPath  string
}

func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		LogDir:          "logs",
		ConnectTimeout:  checker.DefaultConnectTimeout,
		ProbeTimeout:    checker.DefaultProbeTimeout,
		OverallDeadline: checker.DefaultOverallDeadline,
		HTTPEchoURL:     checker.DefaultHTTPEchoURL,
		HTTPSEchoURL:    checker.DefaultHTTPSEchoURL,
		Concurrency:     20,
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for everything unset.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("PROXYCH_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PROXYCH_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if d, ok := envDuration("PROXYCH_CONNECT_TIMEOUT"); ok {
		cfg.ConnectTimeout = d
	}
	if d, ok := envDuration("PROXYCH_PROBE_TIMEOUT"); ok {
		cfg.ProbeTimeout = d
	}
	if d, ok := envDuration("PROXYCH_OVERALL_DEADLINE"); ok {
		cfg.OverallDeadline = d
	}
	if v := os.Getenv("PROXYCH_HTTP_ECHO_URL"); v != "" {
		cfg.HTTPEchoURL = v
	}
	if v := os.Getenv("PROXYCH_HTTPS_ECHO_URL"); v != "" {
		cfg.HTTPSEchoURL = v
	}
	if v := os.Getenv("PROXYCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("PROXYCH_PROBE_SOCKS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ProbeSOCKS = b
		}
	}
	if v := os.Getenv("PROXYCH_MMDB_CITY"); v != "" {
		cfg.MMDBCityPath = v
	}
	if v := os.Getenv("PROXYCH_MMDB_ASN"); v != "" {
		cfg.MMDBASNPath = v
	}

	return cfg
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// fileConfig is the YAML shape; durations are strings so the file can
// say "5s" or "1m30s".
type fileConfig struct {
	Addr            string `yaml:"addr"`
	LogDir          string `yaml:"log_dir"`
	ConnectTimeout  string `yaml:"connect_timeout"`
	ProbeTimeout    string `yaml:"probe_timeout"`
	OverallDeadline string `yaml:"overall_deadline"`
	HTTPEchoURL     string `yaml:"http_echo_url"`
	HTTPSEchoURL    string `yaml:"https_echo_url"`
	Concurrency     int    `yaml:"concurrency"`
	ProbeSOCKS      bool   `yaml:"probe_socks"`
	MMDBCityPath    string `yaml:"mmdb_city"`
	MMDBASNPath     string `yaml:"mmdb_asn"`
}

// LoadFile overlays a YAML config file onto base. Unset fields keep the
// base values; malformed durations are errors, not silent fallbacks.
func LoadFile(path string, base Config) (Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(blob, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := base
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.ConnectTimeout != "" {
		if cfg.ConnectTimeout, err = time.ParseDuration(fc.ConnectTimeout); err != nil {
			return Config{}, fmt.Errorf("connect_timeout: %w", err)
		}
	}
	if fc.ProbeTimeout != "" {
		if cfg.ProbeTimeout, err = time.ParseDuration(fc.ProbeTimeout); err != nil {
			return Config{}, fmt.Errorf("probe_timeout: %w", err)
		}
	}
	if fc.OverallDeadline != "" {
		if cfg.OverallDeadline, err = time.ParseDuration(fc.OverallDeadline); err != nil {
			return Config{}, fmt.Errorf("overall_deadline: %w", err)
		}
	}
	if fc.HTTPEchoURL != "" {
		cfg.HTTPEchoURL = fc.HTTPEchoURL
	}
	if fc.HTTPSEchoURL != "" {
		cfg.HTTPSEchoURL = fc.HTTPSEchoURL
	}
	if fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if fc.ProbeSOCKS {
		cfg.ProbeSOCKS = true
	}
	if fc.MMDBCityPath != "" {
		cfg.MMDBCityPath = fc.MMDBCityPath
	}
	if fc.MMDBASNPath != "" {
		cfg.MMDBASNPath = fc.MMDBASNPath
	}
	return cfg, nil
}

// Options derives the engine options from this config. The geo resolver
// is attached separately by the caller, which owns its lifecycle.
func (c Config) Options() checker.Options {
	return checker.Options{
		ConnectTimeout:  c.ConnectTimeout,
		ProbeTimeout:    c.ProbeTimeout,
		OverallDeadline: c.OverallDeadline,
		HTTPEchoURL:     c.HTTPEchoURL,
		HTTPSEchoURL:    c.HTTPSEchoURL,
		ProbeSOCKS:      c.ProbeSOCKS,
	}
}
