package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goquant/quotewatch/internal/model"
)

// NewMemory returns process-local stores. Used by tests and by runs
// without a database configured.
func NewMemory() *Stores {
	return &Stores{
		Pairs:         &memPairs{},
		Opportunities: &memOpportunities{},
		Subscribers:   &memSubscribers{subs: make(map[string]model.Subscriber)},
		History:       &memHistory{},
	}
}

// -----------------------------------------------------------------------------
// Monitored pairs
// -----------------------------------------------------------------------------

type memPairs struct {
	mu     sync.Mutex
	nextID int64
	pairs  []model.MonitoredPair
}

func (s *memPairs) Create(_ context.Context, pair model.MonitoredPair) (model.MonitoredPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	pair.ID = s.nextID
	pair.Active = true
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = time.Now().UTC()
	}
	s.pairs = append(s.pairs, pair)
	return pair, nil
}

func (s *memPairs) ActiveBySymbol(_ context.Context, symbol string) ([]model.MonitoredPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.MonitoredPair
	for _, p := range s.pairs {
		if p.Active && p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPairs) Deactivate(_ context.Context, symbol, venueA, venueB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.pairs {
		if p.Active && p.Symbol == symbol && p.VenueA == venueA && p.VenueB == venueB {
			s.pairs[i].Active = false
		}
	}
	return nil
}

func (s *memPairs) DeactivateAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.pairs {
		s.pairs[i].Active = false
	}
	return nil
}

// -----------------------------------------------------------------------------
// Arbitrage alerts
// -----------------------------------------------------------------------------

type memAlert struct {
	opp    model.ArbitrageOpportunity
	active bool
}

type memOpportunities struct {
	mu     sync.Mutex
	alerts []memAlert
}

func (s *memOpportunities) InsertIfQuiet(_ context.Context, opp model.ArbitrageOpportunity, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := opp.DetectedAt.Add(-window)
	for _, a := range s.alerts {
		if a.active && a.opp.Symbol == opp.Symbol &&
			a.opp.BuyVenue == opp.BuyVenue && a.opp.SellVenue == opp.SellVenue &&
			a.opp.DetectedAt.After(cutoff) {
			return false, nil
		}
	}
	s.alerts = append(s.alerts, memAlert{opp: opp, active: true})
	return true, nil
}

func (s *memOpportunities) Recent(_ context.Context, limit int) ([]model.ArbitrageOpportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ArbitrageOpportunity
	for _, a := range s.alerts {
		if a.active {
			out = append(out, a.opp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memOpportunities) DeactivateRoute(_ context.Context, symbol, venueA, venueB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.opp.Symbol != symbol {
			continue
		}
		forward := a.opp.BuyVenue == venueA && a.opp.SellVenue == venueB
		reverse := a.opp.BuyVenue == venueB && a.opp.SellVenue == venueA
		if forward || reverse {
			s.alerts[i].active = false
		}
	}
	return nil
}

func (s *memOpportunities) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = nil
	return nil
}

// -----------------------------------------------------------------------------
// Subscribers
// -----------------------------------------------------------------------------

type memSubscribers struct {
	mu   sync.Mutex
	subs map[string]model.Subscriber
}

func (s *memSubscribers) Register(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[chatID]
	if !ok {
		sub = model.Subscriber{ChatID: chatID, CreatedAt: time.Now().UTC()}
	}
	sub.Active = true
	s.subs[chatID] = sub
	return nil
}

func (s *memSubscribers) Get(_ context.Context, chatID string) (model.Subscriber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[chatID]
	return sub, ok, nil
}

func (s *memSubscribers) SetArbitrageEnabled(_ context.Context, chatID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subs[chatID]; ok {
		sub.ArbitrageEnabled = enabled
		sub.Active = true
		s.subs[chatID] = sub
	}
	return nil
}

func (s *memSubscribers) SetMarketViewEnabled(_ context.Context, chatID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subs[chatID]; ok {
		sub.MarketViewEnabled = enabled
		sub.Active = true
		s.subs[chatID] = sub
	}
	return nil
}

func (s *memSubscribers) Disable(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subs[chatID]; ok {
		sub.ArbitrageEnabled = false
		sub.MarketViewEnabled = false
		s.subs[chatID] = sub
	}
	return nil
}

func (s *memSubscribers) ArbitrageSubscribers(_ context.Context) ([]model.Subscriber, error) {
	return s.filter(func(sub model.Subscriber) bool { return sub.Active && sub.ArbitrageEnabled }), nil
}

func (s *memSubscribers) MarketViewSubscribers(_ context.Context) ([]model.Subscriber, error) {
	return s.filter(func(sub model.Subscriber) bool { return sub.Active && sub.MarketViewEnabled }), nil
}

func (s *memSubscribers) filter(keep func(model.Subscriber) bool) []model.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Subscriber
	for _, sub := range s.subs {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

// -----------------------------------------------------------------------------
// Quote history
// -----------------------------------------------------------------------------

type memHistory struct {
	mu     sync.Mutex
	quotes []model.Quote
}

func (s *memHistory) Append(_ context.Context, quotes []model.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes = append(s.quotes, quotes...)
	return nil
}
