package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *WatcherConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required (set TELEGRAM_BOT_TOKEN)")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Monitor.SignalInterval <= 0 {
		return errors.New("monitor.signal_interval must be > 0")
	}
	if c.Monitor.ArbInterval <= 0 {
		return errors.New("monitor.arb_interval must be > 0")
	}
	if c.Monitor.MarketViewInterval <= 0 {
		return errors.New("monitor.market_view_interval must be > 0")
	}
	if c.Monitor.SuppressionWindow <= 0 {
		return errors.New("monitor.suppression_window must be > 0")
	}
	if c.Monitor.RenotifyDelta < 0 {
		return errors.New("monitor.renotify_delta must be >= 0")
	}
	if c.Monitor.DefaultThresholdPct < 0 {
		return errors.New("monitor.default_threshold_pct must be >= 0")
	}
	if c.Monitor.DefaultThresholdAbs < 0 {
		return errors.New("monitor.default_threshold_abs must be >= 0")
	}
	if c.Monitor.MaxEmptyTicks < 1 {
		return errors.New("monitor.max_empty_ticks must be >= 1")
	}
	if len(c.Monitor.Venues) < 2 {
		return errors.New("monitor.venues must name at least 2 venues")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
