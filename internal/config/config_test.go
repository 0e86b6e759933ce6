package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Theme != "solarized-dark" {
		t.Errorf("expected default theme 'solarized-dark', got %q", cfg.Theme)
	}
	if cfg.MinPollInterval != time.Second {
		t.Errorf("expected min poll interval 1s, got %v", cfg.MinPollInterval)
	}
	if cfg.Estimator.MaxHistory != 1000 {
		t.Errorf("expected max history 1000, got %d", cfg.Estimator.MaxHistory)
	}
	if cfg.Estimator.Retention != time.Hour {
		t.Errorf("expected retention 1h, got %v", cfg.Estimator.Retention)
	}
	if cfg.Router.Port != 161 {
		t.Errorf("expected router port 161, got %d", cfg.Router.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Theme = "dracula"
	cfg.Estimator.Retention = 15 * time.Minute
	cfg.Router.Host = "10.0.0.1"
	cfg.Router.Identity = "huawei-ro"
	cfg.Router.Interfaces = []string{"GigabitEthernet0/0/1", "Dialer1"}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Theme != "dracula" {
		t.Errorf("expected theme 'dracula', got %q", loaded.Theme)
	}
	if loaded.Estimator.Retention != 15*time.Minute {
		t.Errorf("expected retention 15m, got %v", loaded.Estimator.Retention)
	}
	if loaded.Router.Identity != "huawei-ro" {
		t.Errorf("expected identity 'huawei-ro', got %q", loaded.Router.Identity)
	}
	if len(loaded.Router.Interfaces) != 2 || loaded.Router.Interfaces[1] != "Dialer1" {
		t.Errorf("unexpected interfaces %v", loaded.Router.Interfaces)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadConfig() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Theme != "solarized-dark" {
		t.Errorf("expected default theme, got %q", cfg.Theme)
	}
}

func TestConfigLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "poll_interval = \"5s\"\n\n[router]\nhost = \"192.168.3.1\"\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %v", cfg.PollInterval)
	}
	if cfg.Router.Host != "192.168.3.1" || cfg.Router.Port != 161 {
		t.Errorf("expected overridden host with default port, got %+v", cfg.Router)
	}
	if cfg.Estimator.MaxHistory != 1000 {
		t.Errorf("expected default max history, got %d", cfg.Estimator.MaxHistory)
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad duration", "poll_interval = \"soon\"\n"},
		{"zero history", "[estimator]\nmax_history = 0\n"},
		{"negative retention", "[estimator]\nretention = \"-1m\"\n"},
		{"bad port", "[router]\nport = 70000\n"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}
