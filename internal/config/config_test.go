package config

import (
	"testing"
	"time"
)

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("SHIPSHAPE_BACKEND_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without SHIPSHAPE_BACKEND_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHIPSHAPE_BACKEND_URL", "https://api.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AuthURL != "https://api.example.com" {
		t.Errorf("auth url = %q, want backend url", cfg.AuthURL)
	}
	if cfg.ListenAddr != "127.0.0.1:8793" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.ProbeInterval != 30*time.Second {
		t.Errorf("probe interval = %v", cfg.ProbeInterval)
	}
	if cfg.OutboxRetention != 30*24*time.Hour {
		t.Errorf("outbox retention = %v", cfg.OutboxRetention)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHIPSHAPE_BACKEND_URL", "https://api.example.com")
	t.Setenv("SHIPSHAPE_AUTH_URL", "https://auth.example.com")
	t.Setenv("SHIPSHAPE_PROBE_INTERVAL", "5s")
	t.Setenv("SHIPSHAPE_OUTBOX_RETENTION", "72h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AuthURL != "https://auth.example.com" {
		t.Errorf("auth url = %q", cfg.AuthURL)
	}
	if cfg.ProbeInterval != 5*time.Second {
		t.Errorf("probe interval = %v", cfg.ProbeInterval)
	}
	if cfg.OutboxRetention != 72*time.Hour {
		t.Errorf("retention = %v", cfg.OutboxRetention)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SHIPSHAPE_BACKEND_URL", "https://api.example.com")
	t.Setenv("SHIPSHAPE_PROBE_INTERVAL", "every so often")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
