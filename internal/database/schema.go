package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the DDL for all quotewatch tables. Alerts and quote history
// are append-only; pairs and subscribers are small mutable registries.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS monitored_pairs (
		id            BIGSERIAL PRIMARY KEY,
		symbol        TEXT NOT NULL,
		venue_a       TEXT NOT NULL,
		venue_b       TEXT NOT NULL,
		threshold_pct NUMERIC NOT NULL,
		threshold_abs NUMERIC NOT NULL,
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_monitored_pairs_active
		ON monitored_pairs (symbol) WHERE active`,
	`CREATE TABLE IF NOT EXISTS arbitrage_alerts (
		id          UUID PRIMARY KEY,
		symbol      TEXT NOT NULL,
		buy_venue   TEXT NOT NULL,
		sell_venue  TEXT NOT NULL,
		buy_price   NUMERIC NOT NULL,
		sell_price  NUMERIC NOT NULL,
		spread_abs  NUMERIC NOT NULL,
		spread_pct  NUMERIC NOT NULL,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		detected_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_arbitrage_alerts_route
		ON arbitrage_alerts (symbol, buy_venue, sell_venue, detected_at DESC)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		chat_id             TEXT PRIMARY KEY,
		active              BOOLEAN NOT NULL DEFAULT TRUE,
		arbitrage_enabled   BOOLEAN NOT NULL DEFAULT FALSE,
		market_view_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS quote_history (
		id          BIGSERIAL PRIMARY KEY,
		symbol      TEXT NOT NULL,
		venue       TEXT NOT NULL,
		best_bid    NUMERIC,
		best_ask    NUMERIC,
		bid_size    NUMERIC,
		ask_size    NUMERIC,
		observed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quote_history_symbol
		ON quote_history (symbol, venue, observed_at DESC)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
