package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Market Data Types
// -----------------------------------------------------------------------------

// Quote is one venue's top of book for a symbol at one polling tick.
// Quotes are produced fresh on every poll and replaced, never mutated.
type Quote struct {
	Venue      string          // Venue id (e.g., "okx")
	Symbol     string          // Symbol in canonical BASE-QUOTE form (e.g., "BTC-USDT")
	Bid        decimal.Decimal // Best bid price; zero = no bid
	Ask        decimal.Decimal // Best ask price; zero = no ask
	BidSize    decimal.Decimal // Quantity at best bid; zero if unknown
	AskSize    decimal.Decimal // Quantity at best ask; zero if unknown
	ObservedAt time.Time       // When the quote was fetched
}

// HasBid reports whether the bid side is present.
func (q Quote) HasBid() bool { return q.Bid.IsPositive() }

// HasAsk reports whether the ask side is present.
func (q Quote) HasAsk() bool { return q.Ask.IsPositive() }

// TwoSided reports whether both sides are present. Aggregation only
// credits venues with a full two-sided quote.
func (q Quote) TwoSided() bool { return q.HasBid() && q.HasAsk() }

// VenueQuoteSet maps venue id to its most recent Quote for one symbol.
// Scoped to a single polling tick; rebuilt each cycle.
type VenueQuoteSet map[string]Quote

// PriceLevel represents a single price level in an L2 orderbook.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is an L2 snapshot for one (venue, symbol). Levels are ordered
// best-first: bids descending, asks ascending.
type OrderBook struct {
	Venue      string
	Symbol     string
	Bids       []PriceLevel
	Asks       []PriceLevel
	ObservedAt time.Time
}

// TopOfBook reduces an L2 book to an L1 quote. Empty sides stay zero.
func (b OrderBook) TopOfBook() Quote {
	q := Quote{
		Venue:      b.Venue,
		Symbol:     b.Symbol,
		ObservedAt: b.ObservedAt,
	}
	if len(b.Bids) > 0 {
		q.Bid = b.Bids[0].Price
		q.BidSize = b.Bids[0].Size
	}
	if len(b.Asks) > 0 {
		q.Ask = b.Asks[0].Price
		q.AskSize = b.Asks[0].Size
	}
	return q
}

// -----------------------------------------------------------------------------
// Signal Types
// -----------------------------------------------------------------------------

// AggregateSignal is the consolidated best bid/offer across venues for a
// symbol. BestBidVenue/BestAskVenue are set iff their side is defined;
// MidPrice, Spread and SpreadPct are set iff both sides are defined.
type AggregateSignal struct {
	Symbol       string
	BestBid      decimal.Decimal
	BestBidVenue string
	BestAsk      decimal.Decimal
	BestAskVenue string
	MidPrice     decimal.Decimal // (BestBid+BestAsk)/2 rounded to 4 decimal places
	Spread       decimal.Decimal // BestAsk - BestBid (may be negative on crossed books)
	SpreadPct    decimal.Decimal // Spread / MidPrice * 100
	VenueQuotes  VenueQuoteSet   // Per-venue quotes the signal was computed from
	ComputedAt   time.Time
}

// -----------------------------------------------------------------------------
// Monitoring Types
// -----------------------------------------------------------------------------

// MonitoredPair is an operator-created arbitrage monitor between two venues.
// Immutable once created except for Active.
type MonitoredPair struct {
	ID           int64
	Symbol       string
	VenueA       string
	VenueB       string
	ThresholdPct decimal.Decimal // Minimum spread in percent
	ThresholdAbs decimal.Decimal // Minimum spread in quote currency
	Active       bool
	CreatedAt    time.Time
}

// Key returns the monitor key identifying this pair's polling task.
func (p MonitoredPair) Key() string {
	return fmt.Sprintf("%s:%s:%s", p.Symbol, p.VenueA, p.VenueB)
}

// ArbitrageOpportunity is one detection event. Never mutated; subject to
// the suppression window on (Symbol, BuyVenue, SellVenue).
type ArbitrageOpportunity struct {
	ID         uuid.UUID
	Symbol     string
	BuyVenue   string // Venue whose ask is lifted
	SellVenue  string // Venue whose bid is hit
	BuyPrice   decimal.Decimal
	SellPrice  decimal.Decimal
	SpreadAbs  decimal.Decimal
	SpreadPct  decimal.Decimal
	DetectedAt time.Time
}

// Subscriber is a chat registered with the bot and its enabled signal types.
type Subscriber struct {
	ChatID            string
	Active            bool
	ArbitrageEnabled  bool
	MarketViewEnabled bool
	CreatedAt         time.Time
}
