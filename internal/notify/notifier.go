package notify

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/model"
)

// MessageRef identifies a delivered message so it can be edited later.
type MessageRef struct {
	ChatID    string
	MessageID int64
}

// Transport delivers rendered text to a chat. Implemented by the
// Telegram client; tests plug in fakes.
type Transport interface {
	Send(ctx context.Context, chatID, text string) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
}

// stateKey scopes notification state to one chat and one signal stream.
type stateKey struct {
	chatID string
	stream string
}

// signalState is what the gate compares the next signal against.
type signalState struct {
	hash     [sha256.Size]byte
	ref      MessageRef
	hasRef   bool
	mid      decimal.Decimal
	bidVenue string
	askVenue string
}

// Notifier applies the change gate and hands messages to the transport.
type Notifier struct {
	transport     Transport
	logger        *slog.Logger
	renotifyDelta decimal.Decimal

	mu    sync.Mutex
	state map[stateKey]*signalState
}

// New creates a Notifier. renotifyDelta is the absolute mid-price move
// past which an otherwise unchanged signal is worth delivering again.
func New(transport Transport, renotifyDelta float64, logger *slog.Logger) *Notifier {
	return &Notifier{
		transport:     transport,
		logger:        logger,
		renotifyDelta: decimal.NewFromFloat(renotifyDelta),
		state:         make(map[stateKey]*signalState),
	}
}

// PublishSignal delivers a consolidated quote to one chat, subject to the
// change gate: nothing is delivered unless a best venue moved, the mid
// moved beyond the delta, or this is the first signal for the key. A
// delivery edits the previous message when a handle exists, falling back
// to a fresh send on edit failure. Errors from the transport are logged,
// not returned.
func (n *Notifier) PublishSignal(ctx context.Context, chatID string, sig model.AggregateSignal) {
	text := RenderSignal(sig)
	hash := sha256.Sum256([]byte(text))
	key := stateKey{chatID: chatID, stream: sig.Symbol}

	n.mu.Lock()
	defer n.mu.Unlock()

	st, seen := n.state[key]
	if seen && st.hash == hash {
		n.logger.Debug("signal unchanged, skipping",
			"chat_id", chatID, "symbol", sig.Symbol)
		return
	}
	if seen && !n.significantChange(st, sig) {
		n.logger.Debug("signal change immaterial, skipping",
			"chat_id", chatID, "symbol", sig.Symbol)
		return
	}

	next := &signalState{
		hash:     hash,
		mid:      sig.MidPrice,
		bidVenue: sig.BestBidVenue,
		askVenue: sig.BestAskVenue,
	}

	if seen && st.hasRef {
		err := n.transport.Edit(ctx, st.ref, text)
		if err == nil {
			next.ref = st.ref
			next.hasRef = true
			n.state[key] = next
			return
		}
		n.logger.Warn("edit failed, sending fresh message",
			"chat_id", chatID, "symbol", sig.Symbol, "error", err)
	}

	ref, err := n.transport.Send(ctx, chatID, text)
	if err != nil {
		n.logger.Error("signal delivery failed",
			"chat_id", chatID, "symbol", sig.Symbol, "error", err)
		return
	}
	next.ref = ref
	next.hasRef = true
	n.state[key] = next
}

// significantChange reports whether the signal differs materially from
// the last delivered one.
func (n *Notifier) significantChange(st *signalState, sig model.AggregateSignal) bool {
	if sig.BestBidVenue != st.bidVenue || sig.BestAskVenue != st.askVenue {
		return true
	}
	return sig.MidPrice.Sub(st.mid).Abs().GreaterThan(n.renotifyDelta)
}

// PublishOpportunity always sends a fresh message; suppression of repeats
// happens upstream at the store.
func (n *Notifier) PublishOpportunity(ctx context.Context, chatID string, opp model.ArbitrageOpportunity) {
	text := RenderOpportunity(opp)
	if _, err := n.transport.Send(ctx, chatID, text); err != nil {
		n.logger.Error("opportunity delivery failed",
			"chat_id", chatID, "symbol", opp.Symbol, "error", err)
	}
}

// PublishText sends plain text with no gating. Used for one-shot notices
// such as a monitor giving up.
func (n *Notifier) PublishText(ctx context.Context, chatID, text string) {
	if _, err := n.transport.Send(ctx, chatID, text); err != nil {
		n.logger.Error("notice delivery failed", "chat_id", chatID, "error", err)
	}
}

// PublishMarketView delivers a market overview. An unchanged payload is
// dropped; a changed one edits the previous message in place, falling
// back to a fresh send when the edit fails.
func (n *Notifier) PublishMarketView(ctx context.Context, chatID string, quotes map[string]model.VenueQuoteSet) {
	text := RenderMarketView(quotes)
	hash := sha256.Sum256([]byte(text))
	key := stateKey{chatID: chatID, stream: "marketview"}

	n.mu.Lock()
	defer n.mu.Unlock()

	st, seen := n.state[key]
	if seen && st.hash == hash {
		return
	}

	next := &signalState{hash: hash}
	if seen && st.hasRef {
		err := n.transport.Edit(ctx, st.ref, text)
		if err == nil {
			next.ref = st.ref
			next.hasRef = true
			n.state[key] = next
			return
		}
		n.logger.Warn("market view edit failed, sending fresh message",
			"chat_id", chatID, "error", err)
	}

	ref, err := n.transport.Send(ctx, chatID, text)
	if err != nil {
		n.logger.Error("market view delivery failed", "chat_id", chatID, "error", err)
		return
	}
	next.ref = ref
	next.hasRef = true
	n.state[key] = next
}

// Forget drops all notification state for one chat. The next signal for
// that chat is treated as a first delivery.
func (n *Notifier) Forget(chatID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for key := range n.state {
		if key.chatID == chatID {
			delete(n.state, key)
		}
	}
}

// Reset drops all notification state.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.state = make(map[stateKey]*signalState)
}
