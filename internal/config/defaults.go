package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPIBaseURL  = "https://gomarket-api.goquant.io/api"
	DefaultAPIWSURL    = "wss://gomarket-api.goquant.io/ws"
	DefaultAPITimeout  = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultPollTimeout = 30 * time.Second

	DefaultTelegramBaseURL = "https://api.telegram.org"

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultSignalInterval     = 5 * time.Second
	DefaultArbInterval        = 10 * time.Second
	DefaultMarketViewInterval = 30 * time.Second
	DefaultSuppressionWindow  = 5 * time.Minute
	DefaultRenotifyDelta      = 1.0
	DefaultThresholdPct       = 0.5
	DefaultThresholdAbs       = 10.0
	DefaultMaxEmptyTicks      = 3

	DefaultHealthPort = 8080
	DefaultHealthPath = "/health"
)

// DefaultSymbols and DefaultVenues back the broad market view when the
// config omits them.
var (
	DefaultSymbols = []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"}
	DefaultVenues  = []string{"okx", "binance", "bybit", "deribit"}
)

func (c *WatcherConfig) applyDefaults() {
	// Telegram defaults
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = DefaultTelegramBaseURL
	}
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = DefaultPollTimeout
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultAPIWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Monitor defaults
	if c.Monitor.SignalInterval == 0 {
		c.Monitor.SignalInterval = DefaultSignalInterval
	}
	if c.Monitor.ArbInterval == 0 {
		c.Monitor.ArbInterval = DefaultArbInterval
	}
	if c.Monitor.MarketViewInterval == 0 {
		c.Monitor.MarketViewInterval = DefaultMarketViewInterval
	}
	if c.Monitor.SuppressionWindow == 0 {
		c.Monitor.SuppressionWindow = DefaultSuppressionWindow
	}
	if c.Monitor.RenotifyDelta == 0 {
		c.Monitor.RenotifyDelta = DefaultRenotifyDelta
	}
	if c.Monitor.DefaultThresholdPct == 0 {
		c.Monitor.DefaultThresholdPct = DefaultThresholdPct
	}
	if c.Monitor.DefaultThresholdAbs == 0 {
		c.Monitor.DefaultThresholdAbs = DefaultThresholdAbs
	}
	if c.Monitor.MaxEmptyTicks == 0 {
		c.Monitor.MaxEmptyTicks = DefaultMaxEmptyTicks
	}
	if len(c.Monitor.Symbols) == 0 {
		c.Monitor.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if len(c.Monitor.Venues) == 0 {
		c.Monitor.Venues = append([]string(nil), DefaultVenues...)
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}
