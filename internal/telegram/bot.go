package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goquant/quotewatch/internal/cbbo"
	"github.com/goquant/quotewatch/internal/monitor"
	"github.com/goquant/quotewatch/internal/notify"
)

const (
	defaultPollTimeout = 30 * time.Second
	pollRetryDelay     = 2 * time.Second

	// maxListedSymbols caps /list_symbols output; venues list thousands.
	maxListedSymbols = 50
)

const welcomeText = `Welcome to quotewatch.

Commands:
/list_symbols <venue>
/monitor_arb <symbol> <venueA> <venueB> [threshold_pct] [threshold_abs]
/get_cbbo <symbol>
/view_market
/status
/stop
/reset`

// Bot reads commands from chats and drives the monitor service.
type Bot struct {
	client      *Client
	svc         *monitor.Service
	pollTimeout time.Duration
	logger      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBot(client *Client, svc *monitor.Service, pollTimeout time.Duration, logger *slog.Logger) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Bot{
		client:      client,
		svc:         svc,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Start launches the update polling loop.
func (b *Bot) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.pollLoop(ctx)
	b.logger.Info("telegram bot started")
}

// Stop ends the polling loop and waits for it.
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.logger.Info("telegram bot stopped")
}

func (b *Bot) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	var offset int64
	for ctx.Err() == nil {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("getUpdates failed", "error", err)
			select {
			case <-time.After(pollRetryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			b.handle(ctx, chatID, update.Message.Text)
		}
	}
}

// handle dispatches one chat message. Replies never fail the loop.
func (b *Bot) handle(ctx context.Context, chatID, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	// Group chats address commands as /cmd@BotName.
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	b.logger.Info("command received", "chat_id", chatID, "command", cmd)

	switch cmd {
	case "/start":
		if err := b.svc.RegisterChat(ctx, chatID); err != nil {
			b.logger.Error("register chat failed", "chat_id", chatID, "error", err)
		}
		b.reply(ctx, chatID, welcomeText)
	case "/list_symbols":
		b.listSymbols(ctx, chatID, args)
	case "/monitor_arb":
		b.monitorArb(ctx, chatID, args)
	case "/get_cbbo":
		b.getCBBO(ctx, chatID, args)
	case "/view_market":
		b.viewMarket(ctx, chatID)
	case "/status":
		b.status(ctx, chatID)
	case "/stop":
		if err := b.svc.StopChat(ctx, chatID); err != nil {
			b.logger.Error("stop chat failed", "chat_id", chatID, "error", err)
			b.reply(ctx, chatID, "Could not stop subscriptions, try again.")
			return
		}
		b.reply(ctx, chatID, "Subscriptions stopped. Monitors keep running for other chats.")
	case "/reset":
		if err := b.svc.Reset(ctx); err != nil {
			b.logger.Error("reset failed", "chat_id", chatID, "error", err)
			b.reply(ctx, chatID, "Reset failed, try again.")
			return
		}
		b.reply(ctx, chatID, "Alert history cleared. Ongoing conditions will re-alert.")
	default:
		b.reply(ctx, chatID, "Unknown command. Send /start for the command list.")
	}
}

func (b *Bot) listSymbols(ctx context.Context, chatID string, args []string) {
	if len(args) != 1 {
		b.reply(ctx, chatID, "Usage: /list_symbols <venue>")
		return
	}
	venue := args[0]

	symbols, err := b.svc.ListSymbols(ctx, venue)
	if err != nil {
		b.logger.Error("list symbols failed", "venue", venue, "error", err)
		b.reply(ctx, chatID, fmt.Sprintf("Could not fetch symbols for %s.", venue))
		return
	}
	if len(symbols) == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("No symbols listed on %s.", venue))
		return
	}

	shown := symbols
	var more string
	if len(shown) > maxListedSymbols {
		more = fmt.Sprintf("\n... and %d more", len(shown)-maxListedSymbols)
		shown = shown[:maxListedSymbols]
	}
	b.reply(ctx, chatID, fmt.Sprintf("*%s* symbols:\n%s%s", venue, strings.Join(shown, "\n"), more))
}

func (b *Bot) monitorArb(ctx context.Context, chatID string, args []string) {
	const usage = "Usage: /monitor_arb <symbol> <venueA> <venueB> [threshold_pct] [threshold_abs]"
	if len(args) < 3 || len(args) > 5 {
		b.reply(ctx, chatID, usage)
		return
	}
	symbol, venueA, venueB := args[0], args[1], args[2]

	thresholdPct, thresholdAbs := decimal.Zero, decimal.Zero
	var err error
	if len(args) >= 4 {
		if thresholdPct, err = decimal.NewFromString(args[3]); err != nil {
			b.reply(ctx, chatID, usage)
			return
		}
	}
	if len(args) == 5 {
		if thresholdAbs, err = decimal.NewFromString(args[4]); err != nil {
			b.reply(ctx, chatID, usage)
			return
		}
	}

	pair, err := b.svc.StartPairMonitor(ctx, chatID, symbol, venueA, venueB, thresholdPct, thresholdAbs)
	switch {
	case errors.Is(err, monitor.ErrSameVenue):
		b.reply(ctx, chatID, "Pick two different venues.")
	case errors.Is(err, monitor.ErrUnknownSymbol):
		b.reply(ctx, chatID, fmt.Sprintf("%s is not listed on both venues.", symbol))
	case err != nil:
		b.logger.Error("start pair monitor failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, "Could not start the monitor, try again.")
	default:
		b.reply(ctx, chatID, fmt.Sprintf(
			"Monitoring *%s* between %s and %s (threshold %s%% or %s).",
			pair.Symbol, pair.VenueA, pair.VenueB,
			pair.ThresholdPct.String(), pair.ThresholdAbs.String()))
	}
}

func (b *Bot) getCBBO(ctx context.Context, chatID string, args []string) {
	if len(args) != 1 {
		b.reply(ctx, chatID, "Usage: /get_cbbo <symbol>")
		return
	}
	symbol := args[0]

	signal, err := b.svc.GetCBBO(ctx, symbol)
	switch {
	case errors.Is(err, monitor.ErrNoData), errors.Is(err, cbbo.ErrInsufficientData):
		b.reply(ctx, chatID, fmt.Sprintf("Not enough venue data for %s right now.", symbol))
	case err != nil:
		b.logger.Error("get cbbo failed", "symbol", symbol, "error", err)
		b.reply(ctx, chatID, "Could not compute the consolidated quote, try again.")
	default:
		b.reply(ctx, chatID, notify.RenderSignal(signal))
	}
}

func (b *Bot) viewMarket(ctx context.Context, chatID string) {
	if err := b.svc.StartMarketView(ctx, chatID); err != nil {
		b.logger.Error("start market view failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, "Could not subscribe to the market view, try again.")
		return
	}

	snapshot, err := b.svc.MarketSnapshot(ctx)
	if errors.Is(err, monitor.ErrNoData) {
		b.reply(ctx, chatID, "Subscribed. No market data available yet.")
		return
	}
	if err != nil {
		b.logger.Error("market snapshot failed", "error", err)
		b.reply(ctx, chatID, "Subscribed. Snapshot failed, updates will follow.")
		return
	}
	b.reply(ctx, chatID, notify.RenderMarketView(snapshot))
}

func (b *Bot) status(ctx context.Context, chatID string) {
	running := b.svc.Running()
	opps, err := b.svc.RecentOpportunities(ctx, 5)
	if err != nil {
		b.logger.Error("recent opportunities failed", "error", err)
	}

	var sb strings.Builder
	sb.WriteString("*Status*\n")
	if len(running) == 0 {
		sb.WriteString("No polling loops running.\n")
	} else {
		sb.WriteString("Running loops:\n")
		for _, key := range running {
			fmt.Fprintf(&sb, "- `%s`\n", key)
		}
	}
	fmt.Fprintf(&sb, "Recent alerts: %d", len(opps))
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) reply(ctx context.Context, chatID, text string) {
	if _, err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error("reply failed", "chat_id", chatID, "error", err)
	}
}
