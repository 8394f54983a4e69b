package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/linkctl/internal/testutil/testlog"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadSettingsExample(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadSettings("ex.settings.toml")
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Fatalf("unexpected debounce: %v", cfg.Debounce)
	}
	if cfg.Session.Backoff.InitialDelay != 2*time.Second || cfg.Session.Backoff.MaxDelay != 30*time.Second {
		t.Fatalf("unexpected backoff: %+v", cfg.Session.Backoff)
	}
	if cfg.Session.Backoff.Multiplier != 2.0 {
		t.Fatalf("unexpected multiplier: %v", cfg.Session.Backoff.Multiplier)
	}
	if cfg.MetricsAddr != "127.0.0.1:9470" {
		t.Fatalf("unexpected metrics addr: %q", cfg.MetricsAddr)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.CORSOrigins)
	}
	if cfg.PipeWire.DumpBinary != "pw-dump" || cfg.PipeWire.CLIBinary != "pw-cli" || cfg.PipeWire.Remote != "" {
		t.Fatalf("unexpected pipewire config: %+v", cfg.PipeWire)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadSettings(writeSettings(t, "# nothing set\n"))
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	def := defaultSettings()
	if cfg.Debounce != def.Debounce || cfg.Session.Backoff != def.Session.Backoff {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("metrics server should be off by default: %q", cfg.MetricsAddr)
	}
}

func TestLoadSettingsRetryDelayStaysConstant(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadSettings(writeSettings(t, "retry_delay = \"5s\"\n"))
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if cfg.Session.Backoff.InitialDelay != 5*time.Second || cfg.Session.Backoff.MaxDelay != 5*time.Second {
		t.Fatalf("unexpected backoff: %+v", cfg.Session.Backoff)
	}
}

func TestLoadSettingsRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown key":   "debounse = \"1s\"\n",
		"bad duration":  "debounce = \"soon\"\n",
		"zero duration": "retry_delay = \"0s\"\n",
		"low multiple":  "retry_multiplier = 0.5\n",
		"bad toml":      "debounce = \n",
	}
	for name, content := range cases {
		if _, err := loadSettings(writeSettings(t, content)); !errors.Is(err, ErrSettings) {
			t.Fatalf("%s: expected settings error, got %v", name, err)
		}
	}
	if _, err := loadSettings(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrSettings) {
		t.Fatalf("missing file: expected settings error, got %v", err)
	}
}
