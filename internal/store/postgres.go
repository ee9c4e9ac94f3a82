package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

// NewPostgres returns stores backed by a shared connection pool.
func NewPostgres(db *pgxpool.Pool) *Stores {
	return &Stores{
		Pairs:         &pgPairs{db: db},
		Opportunities: &pgOpportunities{db: db},
		Subscribers:   &pgSubscribers{db: db},
		History:       &pgHistory{db: db},
	}
}

// -----------------------------------------------------------------------------
// Monitored pairs
// -----------------------------------------------------------------------------

type pgPairs struct {
	db *pgxpool.Pool
}

func (s *pgPairs) Create(ctx context.Context, pair model.MonitoredPair) (model.MonitoredPair, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO monitored_pairs (symbol, venue_a, venue_b, threshold_pct, threshold_abs, active)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, TRUE)
		RETURNING id, created_at`,
		pair.Symbol, pair.VenueA, pair.VenueB,
		pair.ThresholdPct.String(), pair.ThresholdAbs.String(),
	).Scan(&pair.ID, &pair.CreatedAt)
	if err != nil {
		return model.MonitoredPair{}, fmt.Errorf("create monitored pair: %w", err)
	}
	pair.Active = true
	return pair, nil
}

func (s *pgPairs) ActiveBySymbol(ctx context.Context, symbol string) ([]model.MonitoredPair, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, symbol, venue_a, venue_b, threshold_pct::text, threshold_abs::text, created_at
		FROM monitored_pairs
		WHERE symbol = $1 AND active
		ORDER BY id`,
		symbol)
	if err != nil {
		return nil, fmt.Errorf("query monitored pairs: %w", err)
	}
	defer rows.Close()

	var pairs []model.MonitoredPair
	for rows.Next() {
		var (
			p        model.MonitoredPair
			pct, abs string
		)
		if err := rows.Scan(&p.ID, &p.Symbol, &p.VenueA, &p.VenueB, &pct, &abs, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan monitored pair: %w", err)
		}
		if p.ThresholdPct, err = decimal.NewFromString(pct); err != nil {
			return nil, fmt.Errorf("parse threshold_pct: %w", err)
		}
		if p.ThresholdAbs, err = decimal.NewFromString(abs); err != nil {
			return nil, fmt.Errorf("parse threshold_abs: %w", err)
		}
		p.Active = true
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *pgPairs) Deactivate(ctx context.Context, symbol, venueA, venueB string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE monitored_pairs SET active = FALSE
		WHERE symbol = $1 AND venue_a = $2 AND venue_b = $3 AND active`,
		symbol, venueA, venueB)
	if err != nil {
		return fmt.Errorf("deactivate monitored pair: %w", err)
	}
	return nil
}

func (s *pgPairs) DeactivateAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `UPDATE monitored_pairs SET active = FALSE WHERE active`); err != nil {
		return fmt.Errorf("deactivate monitored pairs: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Arbitrage alerts
// -----------------------------------------------------------------------------

type pgOpportunities struct {
	db *pgxpool.Pool
}

// InsertIfQuiet runs the window check and the insert as one statement inside
// a transaction holding a per-route advisory lock, so two concurrent
// detections of the same route cannot both pass the check.
func (s *pgOpportunities) InsertIfQuiet(ctx context.Context, opp model.ArbitrageOpportunity, window time.Duration) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	route := opp.Symbol + "|" + opp.BuyVenue + "|" + opp.SellVenue
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, route); err != nil {
		return false, fmt.Errorf("acquire route lock: %w", err)
	}

	cutoff := opp.DetectedAt.Add(-window)
	tag, err := tx.Exec(ctx, `
		INSERT INTO arbitrage_alerts
			(id, symbol, buy_venue, sell_venue, buy_price, sell_price, spread_abs, spread_pct, active, detected_at)
		SELECT $1::uuid, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, TRUE, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM arbitrage_alerts
			WHERE symbol = $2 AND buy_venue = $3 AND sell_venue = $4
			  AND active AND detected_at > $10
		)`,
		opp.ID.String(), opp.Symbol, opp.BuyVenue, opp.SellVenue,
		opp.BuyPrice.String(), opp.SellPrice.String(),
		opp.SpreadAbs.String(), opp.SpreadPct.String(),
		opp.DetectedAt, cutoff)
	if err != nil {
		return false, fmt.Errorf("insert arbitrage alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *pgOpportunities) Recent(ctx context.Context, limit int) ([]model.ArbitrageOpportunity, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, symbol, buy_venue, sell_venue,
		       buy_price::text, sell_price::text, spread_abs::text, spread_pct::text, detected_at
		FROM arbitrage_alerts
		WHERE active
		ORDER BY detected_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query arbitrage alerts: %w", err)
	}
	defer rows.Close()

	var opps []model.ArbitrageOpportunity
	for rows.Next() {
		var (
			o                                   model.ArbitrageOpportunity
			id, buy, sell, spreadAbs, spreadPct string
		)
		if err := rows.Scan(&id, &o.Symbol, &o.BuyVenue, &o.SellVenue, &buy, &sell, &spreadAbs, &spreadPct, &o.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan arbitrage alert: %w", err)
		}
		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse alert id: %w", err)
		}
		if o.BuyPrice, err = decimal.NewFromString(buy); err != nil {
			return nil, fmt.Errorf("parse buy_price: %w", err)
		}
		if o.SellPrice, err = decimal.NewFromString(sell); err != nil {
			return nil, fmt.Errorf("parse sell_price: %w", err)
		}
		if o.SpreadAbs, err = decimal.NewFromString(spreadAbs); err != nil {
			return nil, fmt.Errorf("parse spread_abs: %w", err)
		}
		if o.SpreadPct, err = decimal.NewFromString(spreadPct); err != nil {
			return nil, fmt.Errorf("parse spread_pct: %w", err)
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func (s *pgOpportunities) DeactivateRoute(ctx context.Context, symbol, venueA, venueB string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE arbitrage_alerts SET active = FALSE
		WHERE symbol = $1
		  AND ((buy_venue = $2 AND sell_venue = $3) OR (buy_venue = $3 AND sell_venue = $2))
		  AND active`,
		symbol, venueA, venueB)
	if err != nil {
		return fmt.Errorf("deactivate arbitrage route: %w", err)
	}
	return nil
}

func (s *pgOpportunities) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM arbitrage_alerts`); err != nil {
		return fmt.Errorf("clear arbitrage alerts: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Subscribers
// -----------------------------------------------------------------------------

type pgSubscribers struct {
	db *pgxpool.Pool
}

func (s *pgSubscribers) Register(ctx context.Context, chatID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO subscribers (chat_id, active)
		VALUES ($1, TRUE)
		ON CONFLICT (chat_id) DO UPDATE SET active = TRUE`,
		chatID)
	if err != nil {
		return fmt.Errorf("register subscriber: %w", err)
	}
	return nil
}

func (s *pgSubscribers) Get(ctx context.Context, chatID string) (model.Subscriber, bool, error) {
	var sub model.Subscriber
	err := s.db.QueryRow(ctx, `
		SELECT chat_id, active, arbitrage_enabled, market_view_enabled, created_at
		FROM subscribers WHERE chat_id = $1`,
		chatID).Scan(&sub.ChatID, &sub.Active, &sub.ArbitrageEnabled, &sub.MarketViewEnabled, &sub.CreatedAt)
	if err == pgx.ErrNoRows {
		return model.Subscriber{}, false, nil
	}
	if err != nil {
		return model.Subscriber{}, false, fmt.Errorf("get subscriber: %w", err)
	}
	return sub, true, nil
}

func (s *pgSubscribers) SetArbitrageEnabled(ctx context.Context, chatID string, enabled bool) error {
	_, err := s.db.Exec(ctx, `
		UPDATE subscribers SET arbitrage_enabled = $2, active = TRUE
		WHERE chat_id = $1`,
		chatID, enabled)
	if err != nil {
		return fmt.Errorf("set arbitrage enabled: %w", err)
	}
	return nil
}

func (s *pgSubscribers) SetMarketViewEnabled(ctx context.Context, chatID string, enabled bool) error {
	_, err := s.db.Exec(ctx, `
		UPDATE subscribers SET market_view_enabled = $2, active = TRUE
		WHERE chat_id = $1`,
		chatID, enabled)
	if err != nil {
		return fmt.Errorf("set market view enabled: %w", err)
	}
	return nil
}

func (s *pgSubscribers) Disable(ctx context.Context, chatID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE subscribers
		SET arbitrage_enabled = FALSE, market_view_enabled = FALSE
		WHERE chat_id = $1`,
		chatID)
	if err != nil {
		return fmt.Errorf("disable subscriber: %w", err)
	}
	return nil
}

func (s *pgSubscribers) ArbitrageSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	return s.query(ctx, `
		SELECT chat_id, active, arbitrage_enabled, market_view_enabled, created_at
		FROM subscribers WHERE active AND arbitrage_enabled`)
}

func (s *pgSubscribers) MarketViewSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	return s.query(ctx, `
		SELECT chat_id, active, arbitrage_enabled, market_view_enabled, created_at
		FROM subscribers WHERE active AND market_view_enabled`)
}

func (s *pgSubscribers) query(ctx context.Context, sql string) ([]model.Subscriber, error) {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		if err := rows.Scan(&sub.ChatID, &sub.Active, &sub.ArbitrageEnabled, &sub.MarketViewEnabled, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// -----------------------------------------------------------------------------
// Quote history
// -----------------------------------------------------------------------------

type pgHistory struct {
	db *pgxpool.Pool
}

// Append writes one row per venue quote in a single batch round trip.
func (s *pgHistory) Append(ctx context.Context, quotes []model.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO quote_history (symbol, venue, best_bid, best_ask, bid_size, ask_size, observed_at)
			VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7)`,
			q.Symbol, q.Venue,
			nullableDecimal(q.Bid), nullableDecimal(q.Ask),
			nullableDecimal(q.BidSize), nullableDecimal(q.AskSize),
			q.ObservedAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range quotes {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append quote history: %w", err)
		}
	}
	return nil
}

// nullableDecimal maps a zero price (absent side) to SQL NULL.
func nullableDecimal(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
