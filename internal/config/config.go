package config

import "time"

// WatcherConfig is the root configuration for a quotewatch instance.
type WatcherConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Telegram TelegramConfig `yaml:"telegram"`
	API      APIConfig      `yaml:"api"`
	Database DBConfig       `yaml:"database"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this watcher.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token       string        `yaml:"token"`        // Bot token; usually ${TELEGRAM_BOT_TOKEN}
	BaseURL     string        `yaml:"base_url"`     // Override for tests
	PollTimeout time.Duration `yaml:"poll_timeout"` // getUpdates long-poll timeout
}

// APIConfig holds GoMarket quote API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	WSURL      string        `yaml:"ws_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MonitorConfig holds the polling, detection and notification tunables.
// Each monitor type keeps its own interval.
type MonitorConfig struct {
	SignalInterval     time.Duration `yaml:"signal_interval"`      // Pairwise CBBO report loop
	ArbInterval        time.Duration `yaml:"arb_interval"`         // Arbitrage check loop
	MarketViewInterval time.Duration `yaml:"market_view_interval"` // Broad market-view refresh
	SuppressionWindow  time.Duration `yaml:"suppression_window"`   // Repeat-alert window per (symbol, buy, sell)

	// RenotifyDelta is the absolute mid-price move that forces a re-send.
	// Too coarse for low-priced assets at the default, hence configurable.
	RenotifyDelta float64 `yaml:"renotify_delta"`

	DefaultThresholdPct float64 `yaml:"default_threshold_pct"` // Percent
	DefaultThresholdAbs float64 `yaml:"default_threshold_abs"` // Quote currency

	// MaxEmptyTicks is the number of consecutive no-data ticks after which
	// a pair monitor gives up and stops itself.
	MaxEmptyTicks int `yaml:"max_empty_ticks"`

	Symbols []string `yaml:"symbols"` // Symbols for the broad market view
	Venues  []string `yaml:"venues"`  // Default venue set
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
