package arb

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Detect evaluates both directions of a monitored pair against the current
// quotes. qa must be VenueA's quote and qb VenueB's. Venues without a full
// two-sided quote cannot be priced and yield no opportunity.
//
// Direction 1 buys at A's ask and sells at B's bid; direction 2 is the
// mirror. If both qualify (a pricing anomaly), direction 1 wins.
func Detect(pair model.MonitoredPair, qa, qb model.Quote) (model.ArbitrageOpportunity, bool) {
	if !qa.TwoSided() || !qb.TwoSided() {
		return model.ArbitrageOpportunity{}, false
	}

	if opp, ok := direction(pair, qa, qb); ok {
		return opp, true
	}
	return direction(pair, qb, qa)
}

// direction prices buying at buy's ask and selling at sell's bid.
func direction(pair model.MonitoredPair, buy, sell model.Quote) (model.ArbitrageOpportunity, bool) {
	spread := sell.Bid.Sub(buy.Ask)
	if !spread.IsPositive() {
		return model.ArbitrageOpportunity{}, false
	}

	spreadPct := spread.Div(buy.Ask).Mul(hundred)
	if spreadPct.LessThan(pair.ThresholdPct) && spread.LessThan(pair.ThresholdAbs) {
		return model.ArbitrageOpportunity{}, false
	}

	return model.ArbitrageOpportunity{
		ID:         uuid.New(),
		Symbol:     pair.Symbol,
		BuyVenue:   buy.Venue,
		SellVenue:  sell.Venue,
		BuyPrice:   buy.Ask,
		SellPrice:  sell.Bid,
		SpreadAbs:  spread,
		SpreadPct:  spreadPct,
		DetectedAt: time.Now().UTC(),
	}, true
}
