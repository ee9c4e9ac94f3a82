package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/arb"
	"github.com/goquant/quotewatch/internal/cbbo"
	"github.com/goquant/quotewatch/internal/config"
	"github.com/goquant/quotewatch/internal/gomarket"
	"github.com/goquant/quotewatch/internal/model"
	"github.com/goquant/quotewatch/internal/notify"
	"github.com/goquant/quotewatch/internal/quotecache"
	"github.com/goquant/quotewatch/internal/scheduler"
	"github.com/goquant/quotewatch/internal/store"
)

const (
	spotMarket    = "spot"
	marketViewKey = "marketview"
)

var (
	// ErrSameVenue rejects a pair whose two venues are identical.
	ErrSameVenue = errors.New("venues must differ")

	// ErrUnknownSymbol rejects a symbol a venue does not list.
	ErrUnknownSymbol = errors.New("symbol not listed on venue")

	// ErrNoData means no venue produced a quote for a synchronous request.
	ErrNoData = errors.New("no market data available")
)

// QuoteSource is the read side of the market data API. *gomarket.Client
// implements it; tests substitute fakes.
type QuoteSource interface {
	GetL1Orderbook(ctx context.Context, venue, symbol string) (model.Quote, error)
	GetL2Orderbook(ctx context.Context, venue, symbol string) (model.OrderBook, error)
	GetSymbols(ctx context.Context, venue, marketType string) ([]string, error)
	IsValidSymbol(ctx context.Context, venue, marketType, symbol string) (bool, error)
}

// Service owns the polling loops and routes their output to storage and
// subscribers.
type Service struct {
	cfg      config.MonitorConfig
	source   QuoteSource
	stores   *store.Stores
	notifier *notify.Notifier
	cache    *quotecache.Cache
	sched    *scheduler.Scheduler
	logger   *slog.Logger
}

func New(cfg config.MonitorConfig, source QuoteSource, stores *store.Stores, notifier *notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		source:   source,
		stores:   stores,
		notifier: notifier,
		cache:    quotecache.New(),
		sched:    scheduler.New(logger),
		logger:   logger,
	}
}

func arbKey(pair model.MonitoredPair) string    { return "arb:" + pair.Key() }
func signalKey(pair model.MonitoredPair) string { return "signal:" + pair.Key() }

// -----------------------------------------------------------------------------
// Pair monitors
// -----------------------------------------------------------------------------

// StartPairMonitor validates, persists and launches an arbitrage monitor
// for one venue pair. Validation failures come back synchronously; once
// the loops are running, their failures only reach the log.
//
// Starting an already-running pair is a no-op.
func (s *Service) StartPairMonitor(ctx context.Context, chatID, symbol, venueA, venueB string, thresholdPct, thresholdAbs decimal.Decimal) (model.MonitoredPair, error) {
	if venueA == venueB {
		return model.MonitoredPair{}, ErrSameVenue
	}
	for _, venue := range []string{venueA, venueB} {
		ok, err := s.source.IsValidSymbol(ctx, venue, spotMarket, symbol)
		if err != nil {
			return model.MonitoredPair{}, fmt.Errorf("validate %s on %s: %w", symbol, venue, err)
		}
		if !ok {
			return model.MonitoredPair{}, fmt.Errorf("%w: %s on %s", ErrUnknownSymbol, symbol, venue)
		}
	}

	if thresholdPct.IsZero() {
		thresholdPct = decimal.NewFromFloat(s.cfg.DefaultThresholdPct)
	}
	if thresholdAbs.IsZero() {
		thresholdAbs = decimal.NewFromFloat(s.cfg.DefaultThresholdAbs)
	}

	pair := model.MonitoredPair{
		Symbol:       symbol,
		VenueA:       venueA,
		VenueB:       venueB,
		ThresholdPct: thresholdPct,
		ThresholdAbs: thresholdAbs,
	}

	if err := s.stores.Subscribers.Register(ctx, chatID); err != nil {
		return model.MonitoredPair{}, err
	}
	if err := s.stores.Subscribers.SetArbitrageEnabled(ctx, chatID, true); err != nil {
		return model.MonitoredPair{}, err
	}

	if s.sched.IsRunning(arbKey(pair)) {
		s.logger.Info("pair monitor already running", "key", pair.Key())
		return pair, nil
	}

	created, err := s.stores.Pairs.Create(ctx, pair)
	if err != nil {
		return model.MonitoredPair{}, err
	}

	s.sched.Start(ctx, signalKey(created), s.cfg.SignalInterval, s.signalTick(created))
	s.sched.Start(ctx, arbKey(created), s.cfg.ArbInterval, s.arbTick(created))
	return created, nil
}

// StopPairMonitor stops both loops of a pair, deactivates its record and
// retires the route's alert history so a restart re-alerts from scratch.
func (s *Service) StopPairMonitor(ctx context.Context, symbol, venueA, venueB string) error {
	pair := model.MonitoredPair{Symbol: symbol, VenueA: venueA, VenueB: venueB}
	s.sched.Stop(arbKey(pair))
	s.sched.Stop(signalKey(pair))
	if err := s.stores.Opportunities.DeactivateRoute(ctx, symbol, venueA, venueB); err != nil {
		return err
	}
	return s.stores.Pairs.Deactivate(ctx, symbol, venueA, venueB)
}

// signalTick builds the fast consolidated-quote loop for one pair.
func (s *Service) signalTick(pair model.MonitoredPair) scheduler.TickFunc {
	return func(ctx context.Context) error {
		set := s.fetchQuotes(ctx, pair.Symbol, []string{pair.VenueA, pair.VenueB})
		s.cache.Replace(pair.Symbol, set)

		signal, err := cbbo.Aggregate(pair.Symbol, []string{pair.VenueA, pair.VenueB}, set)
		if errors.Is(err, cbbo.ErrInsufficientData) {
			s.logger.Debug("no consolidated quote this tick", "key", pair.Key())
			return nil
		}
		if err != nil {
			return err
		}

		subs, err := s.stores.Subscribers.ArbitrageSubscribers(ctx)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			s.notifier.PublishSignal(ctx, sub.ChatID, signal)
		}
		return nil
	}
}

// arbTick builds the detection loop for one pair. The empty-tick counter
// lives in the closure, so a restarted monitor starts from zero.
func (s *Service) arbTick(pair model.MonitoredPair) scheduler.TickFunc {
	emptyTicks := 0
	return func(ctx context.Context) error {
		set := s.fetchQuotes(ctx, pair.Symbol, []string{pair.VenueA, pair.VenueB})
		for venue, quote := range set {
			s.cache.Put(pair.Symbol, venue, quote)
		}

		if len(set) == 0 {
			emptyTicks++
			if emptyTicks >= s.cfg.MaxEmptyTicks {
				s.logger.Warn("pair monitor giving up after consecutive empty ticks",
					"key", pair.Key(), "ticks", emptyTicks)
				s.sched.Stop(signalKey(pair))
				if err := s.stores.Pairs.Deactivate(ctx, pair.Symbol, pair.VenueA, pair.VenueB); err != nil {
					s.logger.Error("deactivate pair failed", "key", pair.Key(), "error", err)
				}
				if err := s.stores.Opportunities.DeactivateRoute(ctx, pair.Symbol, pair.VenueA, pair.VenueB); err != nil {
					s.logger.Error("deactivate alert route failed", "key", pair.Key(), "error", err)
				}
				if subs, err := s.stores.Subscribers.ArbitrageSubscribers(ctx); err == nil {
					notice := fmt.Sprintf("No data available for %s between %s and %s. Monitor stopped.",
						pair.Symbol, pair.VenueA, pair.VenueB)
					for _, sub := range subs {
						s.notifier.PublishText(ctx, sub.ChatID, notice)
					}
				}
				return scheduler.ErrStop
			}
			return nil
		}
		emptyTicks = 0

		opp, found := arb.Detect(pair, set[pair.VenueA], set[pair.VenueB])
		if !found {
			return nil
		}

		inserted, err := s.stores.Opportunities.InsertIfQuiet(ctx, opp, s.cfg.SuppressionWindow)
		if err != nil {
			return err
		}
		if !inserted {
			s.logger.Debug("opportunity suppressed",
				"symbol", opp.Symbol, "buy", opp.BuyVenue, "sell", opp.SellVenue)
			return nil
		}

		s.logger.Info("arbitrage opportunity",
			"symbol", opp.Symbol, "buy", opp.BuyVenue, "sell", opp.SellVenue,
			"spread", opp.SpreadAbs.String(), "spread_pct", opp.SpreadPct.StringFixed(4))

		subs, err := s.stores.Subscribers.ArbitrageSubscribers(ctx)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			s.notifier.PublishOpportunity(ctx, sub.ChatID, opp)
		}
		return nil
	}
}

// -----------------------------------------------------------------------------
// Market view
// -----------------------------------------------------------------------------

// StartMarketView subscribes a chat to the periodic market overview. The
// refresh loop is shared; the first subscriber starts it.
func (s *Service) StartMarketView(ctx context.Context, chatID string) error {
	if err := s.stores.Subscribers.Register(ctx, chatID); err != nil {
		return err
	}
	if err := s.stores.Subscribers.SetMarketViewEnabled(ctx, chatID, true); err != nil {
		return err
	}
	s.sched.Start(ctx, marketViewKey, s.cfg.MarketViewInterval, s.marketViewTick)
	return nil
}

func (s *Service) marketViewTick(ctx context.Context) error {
	snapshot, observed := s.snapshot(ctx)
	if len(snapshot) == 0 {
		s.logger.Warn("market view tick produced no data")
		return nil
	}

	if err := s.stores.History.Append(ctx, observed); err != nil {
		s.logger.Error("quote history write failed", "error", err)
	}

	subs, err := s.stores.Subscribers.MarketViewSubscribers(ctx)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		s.notifier.PublishMarketView(ctx, sub.ChatID, snapshot)
	}
	return nil
}

// MarketSnapshot fetches the configured symbols across the configured
// venues once, synchronously.
func (s *Service) MarketSnapshot(ctx context.Context) (map[string]model.VenueQuoteSet, error) {
	snapshot, _ := s.snapshot(ctx)
	if len(snapshot) == 0 {
		return nil, ErrNoData
	}
	return snapshot, nil
}

// snapshot polls every configured (symbol, venue) and returns both the
// per-symbol sets and the flat list of observed quotes.
func (s *Service) snapshot(ctx context.Context) (map[string]model.VenueQuoteSet, []model.Quote) {
	snapshot := make(map[string]model.VenueQuoteSet)
	var observed []model.Quote
	for _, symbol := range s.cfg.Symbols {
		set := s.fetchQuotes(ctx, symbol, s.cfg.Venues)
		if len(set) == 0 {
			continue
		}
		s.cache.Replace(symbol, set)
		snapshot[symbol] = set
		for _, quote := range set {
			observed = append(observed, quote)
		}
	}
	return snapshot, observed
}

// -----------------------------------------------------------------------------
// Synchronous queries
// -----------------------------------------------------------------------------

// GetCBBO computes the consolidated quote for a symbol across the
// configured venues, polling them fresh.
func (s *Service) GetCBBO(ctx context.Context, symbol string) (model.AggregateSignal, error) {
	set := s.fetchQuotes(ctx, symbol, s.cfg.Venues)
	if len(set) == 0 {
		return model.AggregateSignal{}, ErrNoData
	}
	s.cache.Replace(symbol, set)
	return cbbo.Aggregate(symbol, s.cfg.Venues, set)
}

// ListSymbols returns the symbols a venue offers.
func (s *Service) ListSymbols(ctx context.Context, venue string) ([]string, error) {
	return s.source.GetSymbols(ctx, venue, spotMarket)
}

// IngestQuote feeds an out-of-band quote (e.g. from a live stream) into
// the cache, alongside the polled ones.
func (s *Service) IngestQuote(quote model.Quote) {
	s.cache.Put(quote.Symbol, quote.Venue, quote)
}

// CachedQuotes returns the latest cached venue set for a symbol.
func (s *Service) CachedQuotes(symbol string) model.VenueQuoteSet {
	return s.cache.GetAll(symbol)
}

// Running returns the keys of all live polling loops.
func (s *Service) Running() []string {
	return s.sched.Running()
}

// RecentOpportunities returns the latest persisted detections.
func (s *Service) RecentOpportunities(ctx context.Context, limit int) ([]model.ArbitrageOpportunity, error) {
	return s.stores.Opportunities.Recent(ctx, limit)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// RegisterChat records a chat so later subscriptions attach to it.
func (s *Service) RegisterChat(ctx context.Context, chatID string) error {
	return s.stores.Subscribers.Register(ctx, chatID)
}

// StopChat turns off a chat's subscriptions and forgets its notification
// state. Polling loops keep running for other subscribers.
func (s *Service) StopChat(ctx context.Context, chatID string) error {
	if err := s.stores.Subscribers.Disable(ctx, chatID); err != nil {
		return err
	}
	s.notifier.Forget(chatID)
	return nil
}

// Reset clears the alert history and all notification state, so current
// conditions re-alert as if freshly detected.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.stores.Opportunities.Clear(ctx); err != nil {
		return err
	}
	s.notifier.Reset()
	return nil
}

// Shutdown stops every polling loop and waits for them.
func (s *Service) Shutdown() {
	s.sched.StopAll()
}

// -----------------------------------------------------------------------------
// Polling
// -----------------------------------------------------------------------------

// fetchQuotes polls the venues for one symbol. A venue that errors is
// logged and left out of the set; the tick works with what answered.
func (s *Service) fetchQuotes(ctx context.Context, symbol string, venues []string) model.VenueQuoteSet {
	set := make(model.VenueQuoteSet, len(venues))
	for _, venue := range venues {
		quote, err := s.source.GetL1Orderbook(ctx, venue, symbol)
		if errors.Is(err, gomarket.ErrNotFound) {
			// Some venues only publish depth; reduce L2 to top of book.
			book, l2err := s.source.GetL2Orderbook(ctx, venue, symbol)
			if l2err == nil {
				quote, err = book.TopOfBook(), nil
			}
		}
		if err != nil {
			s.logger.Warn("quote fetch failed", "venue", venue, "symbol", symbol, "error", err)
			continue
		}
		quote.ObservedAt = time.Now().UTC()
		set[venue] = quote
	}
	return set
}
