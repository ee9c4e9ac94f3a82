package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

// fakeTransport records sends and edits and can be told to fail.
type fakeTransport struct {
	mu       sync.Mutex
	sends    []string
	edits    []string
	editErr  error
	sendErr  error
	nextID   int64
	editRefs []MessageRef
}

func (f *fakeTransport) Send(_ context.Context, chatID, text string) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return MessageRef{}, f.sendErr
	}
	f.nextID++
	f.sends = append(f.sends, text)
	return MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeTransport) Edit(_ context.Context, ref MessageRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, text)
	f.editRefs = append(f.editRefs, ref)
	return nil
}

func (f *fakeTransport) counts() (sends, edits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends), len(f.edits)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signal(bidVenue, askVenue, bid, ask string) model.AggregateSignal {
	b := decimal.RequireFromString(bid)
	a := decimal.RequireFromString(ask)
	mid := b.Add(a).DivRound(decimal.NewFromInt(2), 4)
	spread := a.Sub(b)
	return model.AggregateSignal{
		Symbol:       "BTC-USDT",
		BestBid:      b,
		BestBidVenue: bidVenue,
		BestAsk:      a,
		BestAskVenue: askVenue,
		MidPrice:     mid,
		Spread:       spread,
		SpreadPct:    spread.Div(mid).Mul(decimal.NewFromInt(100)),
		ComputedAt:   time.Now().UTC(),
	}
}

func TestFirstSignalSends(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))

	sends, edits := tr.counts()
	if sends != 1 || edits != 0 {
		t.Errorf("got %d sends, %d edits, want 1 send", sends, edits)
	}
}

func TestIdenticalSignalDeliversNothing(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())
	sig := signal("okx", "binance", "100.0", "100.1")

	n.PublishSignal(context.Background(), "chat-1", sig)
	n.PublishSignal(context.Background(), "chat-1", sig)

	sends, edits := tr.counts()
	if sends != 1 || edits != 0 {
		t.Errorf("identical payload: got %d sends, %d edits, want 1 send and 0 edits", sends, edits)
	}
}

func TestMinorDriftDeliversNothing(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))
	// Mid moves by 0.1, under the delta, same venues.
	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.1", "100.2"))

	sends, edits := tr.counts()
	if sends != 1 || edits != 0 {
		t.Errorf("minor drift: got %d sends, %d edits, want 1 send and 0 edits", sends, edits)
	}
}

func TestMinorDriftAccumulatesAgainstLastDelivery(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))
	// Each step is under the delta, but the total drift from the last
	// delivered mid eventually crosses it.
	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.6", "100.7"))
	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "101.2", "101.3"))

	sends, edits := tr.counts()
	if sends != 1 || edits != 1 {
		t.Errorf("accumulated drift: got %d sends, %d edits, want 1 send and 1 edit", sends, edits)
	}
}

func TestVenueChangeEditsInPlace(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))
	n.PublishSignal(context.Background(), "chat-1", signal("bybit", "binance", "100.0", "100.1"))

	sends, edits := tr.counts()
	if sends != 1 || edits != 1 {
		t.Errorf("venue change: got %d sends, %d edits, want 1 send and 1 edit", sends, edits)
	}
	if tr.editRefs[0].MessageID != 1 {
		t.Errorf("edit targeted message %d, want 1", tr.editRefs[0].MessageID)
	}
}

func TestLargeMidMoveEditsInPlace(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))
	// Mid moves by 2.0, over the delta.
	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "102.0", "102.1"))

	sends, edits := tr.counts()
	if sends != 1 || edits != 1 {
		t.Errorf("large move: got %d sends, %d edits, want 1 send and 1 edit", sends, edits)
	}
}

func TestEditFailureFallsBackToSend(t *testing.T) {
	tr := &fakeTransport{editErr: errors.New("message too old")}
	n := New(tr, 1.0, discardLogger())

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))
	n.PublishSignal(context.Background(), "chat-1", signal("bybit", "binance", "100.0", "100.1"))

	sends, edits := tr.counts()
	if sends != 2 || edits != 0 {
		t.Errorf("edit failure: got %d sends, %d edits, want 2 sends", sends, edits)
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	tr := &fakeTransport{sendErr: errors.New("telegram unavailable")}
	n := New(tr, 1.0, discardLogger())

	// Must not panic or propagate; next successful tick retries the send.
	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))

	tr.mu.Lock()
	tr.sendErr = nil
	tr.mu.Unlock()

	n.PublishSignal(context.Background(), "chat-1", signal("okx", "binance", "100.0", "100.1"))
	sends, _ := tr.counts()
	if sends != 1 {
		t.Errorf("got %d sends after recovery, want 1", sends)
	}
}

func TestStateIsPerChat(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())
	sig := signal("okx", "binance", "100.0", "100.1")

	n.PublishSignal(context.Background(), "chat-1", sig)
	n.PublishSignal(context.Background(), "chat-2", sig)

	sends, _ := tr.counts()
	if sends != 2 {
		t.Errorf("got %d sends for two chats, want 2", sends)
	}
}

func TestForgetTreatsNextAsFirst(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())
	sig := signal("okx", "binance", "100.0", "100.1")

	n.PublishSignal(context.Background(), "chat-1", sig)
	n.Forget("chat-1")
	n.PublishSignal(context.Background(), "chat-1", sig)

	sends, edits := tr.counts()
	if sends != 2 || edits != 0 {
		t.Errorf("after Forget: got %d sends, %d edits, want 2 sends", sends, edits)
	}
}

func TestPublishOpportunityAlwaysSends(t *testing.T) {
	tr := &fakeTransport{}
	n := New(tr, 1.0, discardLogger())

	opp := model.ArbitrageOpportunity{
		Symbol:    "BTC-USDT",
		BuyVenue:  "okx",
		SellVenue: "binance",
		BuyPrice:  decimal.RequireFromString("100.2"),
		SellPrice: decimal.RequireFromString("100.5"),
		SpreadAbs: decimal.RequireFromString("0.3"),
		SpreadPct: decimal.RequireFromString("0.2994"),
	}
	n.PublishOpportunity(context.Background(), "chat-1", opp)
	n.PublishOpportunity(context.Background(), "chat-1", opp)

	sends, _ := tr.counts()
	if sends != 2 {
		t.Errorf("got %d sends, want 2", sends)
	}
	if !strings.Contains(tr.sends[0], "okx") || !strings.Contains(tr.sends[0], "0.3") {
		t.Errorf("rendered opportunity missing route details:\n%s", tr.sends[0])
	}
}

func TestRenderSignalContents(t *testing.T) {
	text := RenderSignal(signal("okx", "binance", "100.0", "100.1"))
	for _, want := range []string{"BTC-USDT", "okx", "binance", "100.05"} {
		if !strings.Contains(text, want) {
			t.Errorf("RenderSignal() missing %q:\n%s", want, text)
		}
	}
}

func TestRenderMarketViewSortsAndMarksMissingSides(t *testing.T) {
	quotes := map[string]model.VenueQuoteSet{
		"ETH-USDT": {
			"okx": {Venue: "okx", Symbol: "ETH-USDT", Bid: decimal.RequireFromString("2000.5")},
		},
		"BTC-USDT": {
			"binance": {
				Venue: "binance", Symbol: "BTC-USDT",
				Bid: decimal.RequireFromString("100.0"),
				Ask: decimal.RequireFromString("100.1"),
			},
		},
	}
	text := RenderMarketView(quotes)
	if strings.Index(text, "BTC-USDT") > strings.Index(text, "ETH-USDT") {
		t.Error("symbols should render in sorted order")
	}
	if !strings.Contains(text, "ask `-`") {
		t.Errorf("missing ask side should render as -:\n%s", text)
	}
}
