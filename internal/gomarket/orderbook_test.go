package gomarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseL1FieldAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain fields", `{"bid": 100.5, "ask": 100.7, "bid_size": 2, "ask_size": 3}`},
		{"best_ prefix", `{"best_bid": 100.5, "best_ask": 100.7}`},
		{"camelCase", `{"bidPrice": 100.5, "askPrice": 100.7, "bidQty": 2, "askQty": 3}`},
		{"string values", `{"bid": "100.5", "ask": "100.7"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := parseL1("okx", "BTC-USDT", []byte(tt.body))
			if err != nil {
				t.Fatalf("parseL1 failed: %v", err)
			}
			if !quote.Bid.Equal(decimal.NewFromFloat(100.5)) {
				t.Errorf("Bid = %s, want 100.5", quote.Bid)
			}
			if !quote.Ask.Equal(decimal.NewFromFloat(100.7)) {
				t.Errorf("Ask = %s, want 100.7", quote.Ask)
			}
		})
	}
}

func TestParseL1MissingSide(t *testing.T) {
	quote, err := parseL1("okx", "BTC-USDT", []byte(`{"ask": 100.7}`))
	if err != nil {
		t.Fatalf("parseL1 failed: %v", err)
	}
	if quote.HasBid() {
		t.Error("bid should be absent")
	}
	if !quote.HasAsk() {
		t.Error("ask should be present")
	}
	if quote.TwoSided() {
		t.Error("one-sided quote reported as two-sided")
	}
}

func TestParseL1Unparseable(t *testing.T) {
	if _, err := parseL1("okx", "BTC-USDT", []byte(`[1,2,3]`)); err == nil {
		t.Error("non-object payload should be a parse error")
	}
}

func TestParseL2(t *testing.T) {
	body := `{"bids": [["100.5", "2"], [100.4, 10]], "asks": [[100.7, 1]]}`

	book, err := parseL2("binance", "BTC-USDT", []byte(body))
	if err != nil {
		t.Fatalf("parseL2 failed: %v", err)
	}
	if len(book.Bids) != 2 || len(book.Asks) != 1 {
		t.Fatalf("levels = %d/%d, want 2/1", len(book.Bids), len(book.Asks))
	}
	if !book.Bids[0].Price.Equal(decimal.NewFromFloat(100.5)) {
		t.Errorf("top bid = %s, want 100.5", book.Bids[0].Price)
	}

	top := book.TopOfBook()
	if !top.Bid.Equal(decimal.NewFromFloat(100.5)) || !top.Ask.Equal(decimal.NewFromFloat(100.7)) {
		t.Errorf("top of book = %s/%s, want 100.5/100.7", top.Bid, top.Ask)
	}
}

func TestParseL2Invalid(t *testing.T) {
	if _, err := parseL2("okx", "BTC-USDT", []byte(`{"other": 1}`)); err == nil {
		t.Error("payload without bids/asks should be an error")
	}
	if _, err := parseL2("okx", "BTC-USDT", []byte(`{"bids": [["abc", 1]], "asks": []}`)); err == nil {
		t.Error("non-numeric price should be an error")
	}
}

func TestGetL1OrderbookSymbolFormat(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"bid": 1, "ask": 2}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.GetL1Orderbook(context.Background(), "okx", "BTC-USDT"); err != nil {
		t.Fatalf("GetL1Orderbook failed: %v", err)
	}
	if gotPath != "/l1-orderbook/okx/BTC_USDT" {
		t.Errorf("path = %q, want %q", gotPath, "/l1-orderbook/okx/BTC_USDT")
	}
}

func TestGetL2OrderbookVenueSymbolFormat(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"bids": [], "asks": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.GetL2Orderbook(context.Background(), "binance", "BTC-USDT"); err != nil {
		t.Fatalf("GetL2Orderbook failed: %v", err)
	}
	// Binance drops the separator in its native format.
	if gotPath != "/l2-orderbook/binance/BTCUSDT" {
		t.Errorf("path = %q, want %q", gotPath, "/l2-orderbook/binance/BTCUSDT")
	}
}

func TestVenueSymbol(t *testing.T) {
	tests := []struct {
		venue, symbol, want string
	}{
		{"binance", "BTC-USDT", "BTCUSDT"},
		{"bybit", "ETH-USDT", "ETHUSDT"},
		{"okx", "BTC-USDT", "BTC-USDT"},
		{"deribit", "BTC-USDT", "BTC-USDT"},
	}
	for _, tt := range tests {
		if got := VenueSymbol(tt.venue, tt.symbol); got != tt.want {
			t.Errorf("VenueSymbol(%s, %s) = %q, want %q", tt.venue, tt.symbol, got, tt.want)
		}
	}
}

func TestParseSymbolsVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"string list", `["BTC_USDT", "ETH_USDT"]`, []string{"BTC-USDT", "ETH-USDT"}},
		{"object list", `[{"name": "BTC_USDT"}, {"name": "ETH_USDT"}]`, []string{"BTC-USDT", "ETH-USDT"}},
		{"symbols wrapper", `{"symbols": [{"name": "BTC_USDT"}]}`, []string{"BTC-USDT"}},
		{"data wrapper", `{"data": [{"name": "SOL_USDT"}]}`, []string{"SOL-USDT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSymbols([]byte(tt.body))
			if err != nil {
				t.Fatalf("parseSymbols failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("symbol[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseSymbolsUnexpected(t *testing.T) {
	if _, err := parseSymbols([]byte(`{"other": []}`)); err == nil {
		t.Error("unexpected wrapper should be an error")
	}
	if _, err := parseSymbols([]byte(`42`)); err == nil {
		t.Error("scalar payload should be an error")
	}
}
