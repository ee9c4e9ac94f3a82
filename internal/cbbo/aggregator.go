package cbbo

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

// ErrInsufficientData is returned when fewer than MinVenues venues carry a
// two-sided quote. Callers skip downstream notification for the tick.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 two-sided venues")

const (
	// MinVenues is the minimum number of two-sided venues for a signal.
	MinVenues = 2

	// MidPrecision is the decimal precision of the consolidated mid price.
	MidPrecision = 4
)

var hundred = decimal.NewFromInt(100)

// Aggregate reduces one tick's quotes into a consolidated signal.
//
// Ties on best bid/ask are broken by first-seen position in venueOrder; the
// winner is the earliest listed venue, not whichever a map iteration yields.
// Venues present in the set but missing from venueOrder are considered last,
// in lexical order.
func Aggregate(symbol string, venueOrder []string, set model.VenueQuoteSet) (model.AggregateSignal, error) {
	included := make(model.VenueQuoteSet, len(set))

	signal := model.AggregateSignal{
		Symbol:     symbol,
		ComputedAt: time.Now().UTC(),
	}

	for _, venue := range iterationOrder(venueOrder, set) {
		quote, ok := set[venue]
		if !ok || !quote.TwoSided() {
			continue
		}
		included[venue] = quote

		if signal.BestBidVenue == "" || quote.Bid.GreaterThan(signal.BestBid) {
			signal.BestBid = quote.Bid
			signal.BestBidVenue = venue
		}
		if signal.BestAskVenue == "" || quote.Ask.LessThan(signal.BestAsk) {
			signal.BestAsk = quote.Ask
			signal.BestAskVenue = venue
		}
	}

	if len(included) < MinVenues {
		return model.AggregateSignal{}, ErrInsufficientData
	}

	signal.VenueQuotes = included
	signal.MidPrice = signal.BestBid.Add(signal.BestAsk).DivRound(decimal.NewFromInt(2), MidPrecision)
	signal.Spread = signal.BestAsk.Sub(signal.BestBid)
	if signal.MidPrice.IsPositive() {
		signal.SpreadPct = signal.Spread.Div(signal.MidPrice).Mul(hundred)
	}

	return signal, nil
}

// iterationOrder returns venueOrder followed by any unlisted set members in
// lexical order, so the tie-break stays deterministic for any input.
func iterationOrder(venueOrder []string, set model.VenueQuoteSet) []string {
	listed := make(map[string]bool, len(venueOrder))
	order := make([]string, 0, len(set))
	for _, venue := range venueOrder {
		if !listed[venue] {
			listed[venue] = true
			order = append(order, venue)
		}
	}

	var extra []string
	for venue := range set {
		if !listed[venue] {
			extra = append(extra, venue)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
