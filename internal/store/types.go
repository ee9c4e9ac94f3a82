package store

import (
	"context"
	"time"

	"github.com/goquant/quotewatch/internal/model"
)

// PairStore manages monitored venue pairs.
type PairStore interface {
	// Create persists a pair and returns it with its assigned ID.
	Create(ctx context.Context, pair model.MonitoredPair) (model.MonitoredPair, error)

	// ActiveBySymbol returns active pairs for a symbol.
	ActiveBySymbol(ctx context.Context, symbol string) ([]model.MonitoredPair, error)

	// Deactivate marks one pair inactive.
	Deactivate(ctx context.Context, symbol, venueA, venueB string) error

	// DeactivateAll marks every pair inactive.
	DeactivateAll(ctx context.Context) error
}

// OpportunityStore persists arbitrage detections.
type OpportunityStore interface {
	// InsertIfQuiet persists the opportunity unless an active record for
	// the same (symbol, buy_venue, sell_venue) exists within the window.
	// The check and insert are atomic; it reports whether the record was
	// inserted (false = suppressed).
	InsertIfQuiet(ctx context.Context, opp model.ArbitrageOpportunity, window time.Duration) (bool, error)

	// Recent returns the most recent active records, newest first.
	Recent(ctx context.Context, limit int) ([]model.ArbitrageOpportunity, error)

	// DeactivateRoute marks records for the route inactive, in both
	// directions, so a restarted monitor re-alerts from scratch.
	DeactivateRoute(ctx context.Context, symbol, venueA, venueB string) error

	// Clear removes all records (operator reset).
	Clear(ctx context.Context) error
}

// SubscriberStore manages chats and their enabled signal types.
type SubscriberStore interface {
	// Register upserts a chat as active.
	Register(ctx context.Context, chatID string) error

	Get(ctx context.Context, chatID string) (model.Subscriber, bool, error)

	SetArbitrageEnabled(ctx context.Context, chatID string, enabled bool) error
	SetMarketViewEnabled(ctx context.Context, chatID string, enabled bool) error

	// Disable turns off all signal types for a chat.
	Disable(ctx context.Context, chatID string) error

	// ArbitrageSubscribers returns active chats with arbitrage alerts on.
	ArbitrageSubscribers(ctx context.Context) ([]model.Subscriber, error)

	// MarketViewSubscribers returns active chats with market view on.
	MarketViewSubscribers(ctx context.Context) ([]model.Subscriber, error)
}

// QuoteHistoryStore appends per-venue quote observations.
type QuoteHistoryStore interface {
	Append(ctx context.Context, quotes []model.Quote) error
}

// Stores bundles all stores behind one handle.
type Stores struct {
	Pairs         PairStore
	Opportunities OpportunityStore
	Subscribers   SubscriberStore
	History       QuoteHistoryStore
}
