package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("default addr: got %q", cfg.Addr)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Fatalf("default connect timeout: got %v", cfg.ConnectTimeout)
	}
	if cfg.Concurrency != 20 {
		t.Fatalf("default concurrency: got %d", cfg.Concurrency)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PROXYCH_ADDR", ":9090")
	t.Setenv("PROXYCH_CONNECT_TIMEOUT", "2s")
	t.Setenv("PROXYCH_CONCURRENCY", "7")
	t.Setenv("PROXYCH_PROBE_SOCKS", "true")
	t.Setenv("PROXYCH_HTTP_ECHO_URL", "http://echo.internal/get")

	cfg := FromEnv()
	if cfg.Addr != ":9090" {
		t.Fatalf("addr: got %q", cfg.Addr)
	}
	if cfg.ConnectTimeout != 2*time.Second {
		t.Fatalf("connect timeout: got %v", cfg.ConnectTimeout)
	}
	if cfg.Concurrency != 7 {
		t.Fatalf("concurrency: got %d", cfg.Concurrency)
	}
	if !cfg.ProbeSOCKS {
		t.Fatalf("probe socks should be on")
	}
	if cfg.HTTPEchoURL != "http://echo.internal/get" {
		t.Fatalf("echo url: got %q", cfg.HTTPEchoURL)
	}
}

func TestFromEnv_BadValuesKeepDefaults(t *testing.T) {
	t.Setenv("PROXYCH_CONNECT_TIMEOUT", "soon")
	t.Setenv("PROXYCH_CONCURRENCY", "-3")

	cfg := FromEnv()
	if cfg.ConnectTimeout != 5*time.Second {
		t.Fatalf("bad duration should keep default, got %v", cfg.ConnectTimeout)
	}
	if cfg.Concurrency != 20 {
		t.Fatalf("bad concurrency should keep default, got %d", cfg.Concurrency)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxych.yaml")
	content := `
addr: ":7070"
connect_timeout: 3s
overall_deadline: 45s
https_echo_url: https://echo.internal/get
concurrency: 11
probe_socks: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, Default())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ConnectTimeout != 3*time.Second || cfg.OverallDeadline != 45*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HTTPSEchoURL != "https://echo.internal/get" || cfg.Concurrency != 11 || !cfg.ProbeSOCKS {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// Unset fields keep the base.
	if cfg.ProbeTimeout != Default().ProbeTimeout {
		t.Fatalf("unset field should keep base value, got %v", cfg.ProbeTimeout)
	}
}

func TestLoadFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxych.yaml")
	if err := os.WriteFile(path, []byte("probe_timeout: whenever\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path, Default()); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.ProbeSOCKS = true
	opts := cfg.Options()
	if opts.ConnectTimeout != cfg.ConnectTimeout || opts.HTTPEchoURL != cfg.HTTPEchoURL || !opts.ProbeSOCKS {
		t.Fatalf("options do not mirror config: %+v", opts)
	}
}
