package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

// RenderSignal formats a consolidated quote as a Telegram Markdown message.
func RenderSignal(sig model.AggregateSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* consolidated quote\n", sig.Symbol)
	fmt.Fprintf(&b, "Best bid: `%s` (%s)\n", sig.BestBid.String(), sig.BestBidVenue)
	fmt.Fprintf(&b, "Best ask: `%s` (%s)\n", sig.BestAsk.String(), sig.BestAskVenue)
	fmt.Fprintf(&b, "Mid: `%s`  Spread: `%s` (%s%%)",
		sig.MidPrice.String(), sig.Spread.String(), sig.SpreadPct.StringFixed(4))
	return b.String()
}

// RenderOpportunity formats an arbitrage detection.
func RenderOpportunity(opp model.ArbitrageOpportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Arbitrage detected: *%s*\n", opp.Symbol)
	fmt.Fprintf(&b, "Buy on %s at `%s`\n", opp.BuyVenue, opp.BuyPrice.String())
	fmt.Fprintf(&b, "Sell on %s at `%s`\n", opp.SellVenue, opp.SellPrice.String())
	fmt.Fprintf(&b, "Spread: `%s` (%s%%)\n", opp.SpreadAbs.String(), opp.SpreadPct.StringFixed(4))
	fmt.Fprintf(&b, "Detected at %s", opp.DetectedAt.UTC().Format("15:04:05 MST"))
	return b.String()
}

// RenderMarketView formats per-venue quotes for a set of symbols, one
// block per symbol in sorted order.
func RenderMarketView(quotes map[string]model.VenueQuoteSet) string {
	symbols := make([]string, 0, len(quotes))
	for sym := range quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString("*Market view*\n")
	for _, sym := range symbols {
		fmt.Fprintf(&b, "\n*%s*\n", sym)
		set := quotes[sym]
		venues := make([]string, 0, len(set))
		for v := range set {
			venues = append(venues, v)
		}
		sort.Strings(venues)
		for _, v := range venues {
			q := set[v]
			fmt.Fprintf(&b, "%s: bid `%s` / ask `%s`\n", v, side(q.Bid), side(q.Ask))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// side renders a price, with "-" for an absent side.
func side(d decimal.Decimal) string {
	if !d.IsPositive() {
		return "-"
	}
	return d.String()
}
