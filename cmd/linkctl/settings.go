package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/linkctl/internal/pipewire"
	"github.com/danmuck/linkctl/internal/reconcile"
	"github.com/danmuck/linkctl/internal/session"
)

var ErrSettings = errors.New("linkctl: invalid settings")

type fileSettings struct {
	Debounce        string   `toml:"debounce"`
	RetryDelay      string   `toml:"retry_delay"`
	RetryMultiplier float64  `toml:"retry_multiplier"`
	RetryMaxDelay   string   `toml:"retry_max_delay"`
	MetricsAddr     string   `toml:"metrics_addr"`
	CORSOrigins     []string `toml:"cors_origins"`
	PWDump          string   `toml:"pw_dump"`
	PWCLI           string   `toml:"pw_cli"`
	Remote          string   `toml:"remote"`
}

// settings are the daemon tunables; links live in the separate config file.
type settings struct {
	Debounce    time.Duration
	Session     session.Config
	MetricsAddr string
	CORSOrigins []string
	PipeWire    pipewire.Config
}

func defaultSettings() settings {
	return settings{
		Debounce: reconcile.DefaultDebounce,
		Session:  session.DefaultConfig(),
		PipeWire: pipewire.Config{}.WithDefaults(),
	}
}

func loadSettings(path string) (settings, error) {
	cfg := defaultSettings()

	var raw fileSettings
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return settings{}, fmt.Errorf("%w (%s): %w", ErrSettings, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return settings{}, fmt.Errorf("%w (%s): unknown keys %s", ErrSettings, path, strings.Join(keys, ", "))
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"debounce", raw.Debounce, &cfg.Debounce},
		{"retry_delay", raw.RetryDelay, &cfg.Session.Backoff.InitialDelay},
		{"retry_max_delay", raw.RetryMaxDelay, &cfg.Session.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil || v <= 0 {
			return settings{}, fmt.Errorf("%w (%s): parse %s %q", ErrSettings, path, d.key, d.raw)
		}
		*d.dst = v
	}
	// a retry_delay without retry_max_delay keeps the schedule flat
	if meta.IsDefined("retry_delay") && !meta.IsDefined("retry_max_delay") {
		cfg.Session.Backoff.MaxDelay = cfg.Session.Backoff.InitialDelay
	}

	if meta.IsDefined("retry_multiplier") {
		if raw.RetryMultiplier < 1.0 {
			return settings{}, fmt.Errorf("%w (%s): retry_multiplier must be >= 1, got %v", ErrSettings, path, raw.RetryMultiplier)
		}
		cfg.Session.Backoff.Multiplier = raw.RetryMultiplier
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins)
	}
	if meta.IsDefined("pw_dump") {
		cfg.PipeWire.DumpBinary = strings.TrimSpace(raw.PWDump)
	}
	if meta.IsDefined("pw_cli") {
		cfg.PipeWire.CLIBinary = strings.TrimSpace(raw.PWCLI)
	}
	if meta.IsDefined("remote") {
		cfg.PipeWire.Remote = strings.TrimSpace(raw.Remote)
	}
	cfg.PipeWire = cfg.PipeWire.WithDefaults()
	cfg.Session = cfg.Session.WithDefaults()
	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
