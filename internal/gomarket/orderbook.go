package gomarket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

// l1Aliases maps each quote field to the names venues have used for it.
// Resolution is first-match in order; extend here, never at call sites.
var l1Aliases = map[string][]string{
	"bid":      {"bid", "best_bid", "bidPrice"},
	"ask":      {"ask", "best_ask", "askPrice"},
	"bid_size": {"bid_size", "bidQty", "bid_quantity"},
	"ask_size": {"ask_size", "askQty", "ask_quantity"},
}

// GetL1Orderbook fetches the top of book for a canonical symbol on a venue.
func (c *Client) GetL1Orderbook(ctx context.Context, venue, symbol string) (model.Quote, error) {
	body, err := c.get(ctx, fmt.Sprintf("/l1-orderbook/%s/%s", venue, apiSymbol(symbol)))
	if err != nil {
		return model.Quote{}, err
	}

	quote, err := parseL1(venue, symbol, body)
	if err != nil {
		return model.Quote{}, fmt.Errorf("l1 %s %s: %w", venue, symbol, err)
	}
	return quote, nil
}

// parseL1 normalizes an L1 payload into a Quote. Missing sides stay zero;
// a payload that is not an object at all is an explicit parse error.
func parseL1(venue, symbol string, body []byte) (model.Quote, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Quote{}, fmt.Errorf("unparseable payload: %w", err)
	}

	quote := model.Quote{
		Venue:      venue,
		Symbol:     symbol,
		ObservedAt: time.Now().UTC(),
	}
	quote.Bid = aliasedDecimal(raw, l1Aliases["bid"])
	quote.Ask = aliasedDecimal(raw, l1Aliases["ask"])
	quote.BidSize = aliasedDecimal(raw, l1Aliases["bid_size"])
	quote.AskSize = aliasedDecimal(raw, l1Aliases["ask_size"])
	return quote, nil
}

// aliasedDecimal returns the first alias present in the payload, accepting
// both JSON numbers and numeric strings. Absent or malformed values are zero.
func aliasedDecimal(raw map[string]any, aliases []string) decimal.Decimal {
	for _, name := range aliases {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		if d, ok := toDecimal(v); ok {
			return d
		}
	}
	return decimal.Zero
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// GetL2Orderbook fetches ordered price levels for a canonical symbol.
// The L2 endpoint takes venue-native symbol formatting.
func (c *Client) GetL2Orderbook(ctx context.Context, venue, symbol string) (model.OrderBook, error) {
	body, err := c.get(ctx, fmt.Sprintf("/l2-orderbook/%s/%s", venue, VenueSymbol(venue, symbol)))
	if err != nil {
		return model.OrderBook{}, err
	}

	book, err := parseL2(venue, symbol, body)
	if err != nil {
		return model.OrderBook{}, fmt.Errorf("l2 %s %s: %w", venue, symbol, err)
	}
	return book, nil
}

func parseL2(venue, symbol string, body []byte) (model.OrderBook, error) {
	var raw struct {
		Bids [][]any `json:"bids"`
		Asks [][]any `json:"asks"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.OrderBook{}, fmt.Errorf("unparseable payload: %w", err)
	}
	if raw.Bids == nil && raw.Asks == nil {
		return model.OrderBook{}, fmt.Errorf("payload has neither bids nor asks")
	}

	book := model.OrderBook{
		Venue:      venue,
		Symbol:     symbol,
		ObservedAt: time.Now().UTC(),
	}

	var err error
	if book.Bids, err = parseLevels(raw.Bids); err != nil {
		return model.OrderBook{}, fmt.Errorf("bids: %w", err)
	}
	if book.Asks, err = parseLevels(raw.Asks); err != nil {
		return model.OrderBook{}, fmt.Errorf("asks: %w", err)
	}
	return book, nil
}

// parseLevels converts [[price, size], ...] pairs. Venues send both numeric
// and string-encoded values.
func parseLevels(levels [][]any) ([]model.PriceLevel, error) {
	out := make([]model.PriceLevel, 0, len(levels))
	for i, level := range levels {
		if len(level) < 2 {
			return nil, fmt.Errorf("level %d has %d elements, want 2", i, len(level))
		}
		price, ok := toDecimal(level[0])
		if !ok {
			return nil, fmt.Errorf("level %d has non-numeric price %v", i, level[0])
		}
		size, ok := toDecimal(level[1])
		if !ok {
			return nil, fmt.Errorf("level %d has non-numeric size %v", i, level[1])
		}
		out = append(out, model.PriceLevel{Price: price, Size: size})
	}
	return out, nil
}
