package gomarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Symbol formatting differs per surface:
//   - canonical form (operator-facing): BTC-USDT
//   - API path form: BTC_USDT
//   - venue-native form: BTCUSDT on venues that drop the separator
//
// All formatting lives here; callers always pass canonical symbols.

// noSeparatorVenues lists venues whose native symbol format has no separator.
var noSeparatorVenues = map[string]bool{
	"binance": true,
	"bybit":   true,
}

// apiSymbol converts a canonical symbol to the API path format.
func apiSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "-", "_")
}

// canonicalSymbol converts an API-format symbol back to canonical form.
func canonicalSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "_", "-")
}

// VenueSymbol converts a canonical symbol to the venue-native format.
func VenueSymbol(venue, symbol string) string {
	if noSeparatorVenues[venue] {
		return strings.ReplaceAll(symbol, "-", "")
	}
	return symbol
}

// GetSymbols returns the symbols available on a venue in canonical form.
// marketType is typically "spot".
func (c *Client) GetSymbols(ctx context.Context, venue, marketType string) ([]string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/symbols/%s/%s", venue, marketType))
	if err != nil {
		return nil, err
	}

	symbols, err := parseSymbols(body)
	if err != nil {
		return nil, fmt.Errorf("parse symbols for %s: %w", venue, err)
	}
	return symbols, nil
}

// parseSymbols normalizes the listing payload. The API has returned a bare
// list of strings, a list of {name: ...} objects, and object wrappers with
// "symbols" or "data" keys; all are accepted here and nowhere else.
func parseSymbols(body []byte) ([]string, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unparseable payload: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"symbols", "data"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("unexpected object payload (keys: %s)", mapKeys(v))
		}
	default:
		return nil, fmt.Errorf("unexpected payload type %T", raw)
	}

	symbols := make([]string, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case string:
			symbols = append(symbols, canonicalSymbol(s))
		case map[string]any:
			if name, ok := s["name"].(string); ok {
				symbols = append(symbols, canonicalSymbol(name))
			}
		}
	}
	return symbols, nil
}

// IsValidSymbol reports whether a venue lists the given canonical symbol.
func (c *Client) IsValidSymbol(ctx context.Context, venue, marketType, symbol string) (bool, error) {
	symbols, err := c.GetSymbols(ctx, venue, marketType)
	if err != nil {
		return false, err
	}
	for _, s := range symbols {
		if s == symbol {
			return true, nil
		}
	}
	return false, nil
}

func mapKeys(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return strings.Join(keys, ",")
}
