package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watcher.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const minimalYAML = `
instance:
  id: test-watcher
telegram:
  token: test-token
database:
  host: localhost
  name: quotewatch
  user: testuser
  password: testpass
`

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-watcher
telegram:
  token: test-token
api:
  base_url: https://example.test/api
database:
  host: localhost
  port: 5432
  name: quotewatch
  user: testuser
  password: testpass
monitor:
  signal_interval: 2s
  venues: [okx, binance]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-watcher" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-watcher")
	}
	if cfg.API.BaseURL != "https://example.test/api" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://example.test/api")
	}
	if cfg.Monitor.SignalInterval.Seconds() != 2 {
		t.Errorf("Monitor.SignalInterval = %v, want 2s", cfg.Monitor.SignalInterval)
	}
	if len(cfg.Monitor.Venues) != 2 {
		t.Errorf("Monitor.Venues = %v, want 2 venues", cfg.Monitor.Venues)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "secret123")

	yaml := `
instance:
  id: test-watcher
telegram:
  token: ${TEST_BOT_TOKEN}
database:
  host: localhost
  name: quotewatch
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Token != "secret123" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, minimalYAML)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultAPIBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultAPIBaseURL)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Monitor.SignalInterval != DefaultSignalInterval {
		t.Errorf("Monitor.SignalInterval = %v, want default %v", cfg.Monitor.SignalInterval, DefaultSignalInterval)
	}
	if cfg.Monitor.ArbInterval != DefaultArbInterval {
		t.Errorf("Monitor.ArbInterval = %v, want default %v", cfg.Monitor.ArbInterval, DefaultArbInterval)
	}
	if cfg.Monitor.MarketViewInterval != DefaultMarketViewInterval {
		t.Errorf("Monitor.MarketViewInterval = %v, want default %v", cfg.Monitor.MarketViewInterval, DefaultMarketViewInterval)
	}
	if cfg.Monitor.RenotifyDelta != DefaultRenotifyDelta {
		t.Errorf("Monitor.RenotifyDelta = %v, want default %v", cfg.Monitor.RenotifyDelta, DefaultRenotifyDelta)
	}
	if len(cfg.Monitor.Venues) != len(DefaultVenues) {
		t.Errorf("Monitor.Venues = %v, want defaults %v", cfg.Monitor.Venues, DefaultVenues)
	}
	if cfg.Health.Port != DefaultHealthPort {
		t.Errorf("Health.Port = %d, want default %d", cfg.Health.Port, DefaultHealthPort)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, minimalYAML)

	if _, err := LoadAndValidate(path); err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *WatcherConfig {
		cfg := &WatcherConfig{
			Instance: InstanceConfig{ID: "test"},
			Telegram: TelegramConfig{Token: "tok"},
			Database: DBConfig{Host: "localhost", Name: "db", User: "u", Password: "p"},
		}
		cfg.applyDefaults()
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := base()
		cfg.Telegram.Token = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for missing token")
		}
	})

	t.Run("missing db password", func(t *testing.T) {
		cfg := base()
		cfg.Database.Password = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for missing password")
		}
	})

	t.Run("one venue", func(t *testing.T) {
		cfg := base()
		cfg.Monitor.Venues = []string{"okx"}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for single venue")
		}
	})

	t.Run("bad health port", func(t *testing.T) {
		cfg := base()
		cfg.Health.Port = 99999
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for invalid port")
		}
	})

	t.Run("min conns exceed max", func(t *testing.T) {
		cfg := base()
		cfg.Database.MinConns = 20
		cfg.Database.MaxConns = 5
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error for min > max conns")
		}
	})
}
