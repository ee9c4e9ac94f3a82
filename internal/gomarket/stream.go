package gomarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goquant/quotewatch/internal/model"
)

// StreamConfig holds settings for a live L1 quote stream.
type StreamConfig struct {
	URL              string        // WebSocket endpoint
	Venue            string        // Venue this stream covers
	Symbols          []string      // Canonical symbols to subscribe
	HandshakeTimeout time.Duration // Dial timeout (default: 10s)
	ReadLimit        int64         // Max message size (default: 1 MiB)
}

// QuoteHandler receives quotes as they arrive on the stream.
type QuoteHandler func(model.Quote)

// Stream is a live L1 quote feed over WebSocket for venues that expose one.
// It is an alternative quote source to REST polling; received quotes are
// pushed to the handler and flow into the same cache.
type Stream struct {
	cfg     StreamConfig
	handler QuoteHandler
	logger  *slog.Logger

	conn *websocket.Conn

	writeMu sync.Mutex

	mu        sync.Mutex
	connected bool
	closed    bool
	done      chan struct{}
}

// NewStream creates a stream. The handler must not block; it runs on the
// read loop goroutine.
func NewStream(cfg StreamConfig, handler QuoteHandler, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReadLimit == 0 {
		cfg.ReadLimit = 1 << 20
	}
	return &Stream{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Connect dials the stream and subscribes to the configured symbols.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("stream already closed")
	}
	s.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	conn.SetReadLimit(s.cfg.ReadLimit)

	// Server pings, we pong.
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	if err := s.subscribe(); err != nil {
		conn.Close()
		return err
	}

	go s.readLoop()

	s.logger.Debug("quote stream connected",
		"url", s.cfg.URL,
		"venue", s.cfg.Venue,
		"symbols", len(s.cfg.Symbols),
	)
	return nil
}

// Close shuts the stream down.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connected = false
	conn := s.conn
	s.mu.Unlock()

	close(s.done)

	if conn != nil {
		s.writeMu.Lock()
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		return conn.Close()
	}
	return nil
}

// IsConnected returns current connection state.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

type subscribeCmd struct {
	Op      string   `json:"op"`
	Venue   string   `json:"venue"`
	Symbols []string `json:"symbols"`
}

func (s *Stream) subscribe() error {
	symbols := make([]string, len(s.cfg.Symbols))
	for i, sym := range s.cfg.Symbols {
		symbols[i] = apiSymbol(sym)
	}

	cmd := subscribeCmd{Op: "subscribe", Venue: s.cfg.Venue, Symbols: symbols}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

func (s *Stream) readLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.connected = false
			s.mu.Unlock()

			if !closed {
				s.logger.Warn("quote stream read failed", "venue", s.cfg.Venue, "err", err)
			}
			return
		}

		s.handleMessage(data)
	}
}

// handleMessage parses one stream frame. Frames reuse the L1 payload shape
// with venue/symbol identity fields; anything else is skipped.
func (s *Stream) handleMessage(data []byte) {
	var envelope struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Symbol == "" {
		return
	}

	quote, err := parseL1(s.cfg.Venue, canonicalSymbol(envelope.Symbol), data)
	if err != nil {
		s.logger.Debug("skipping unparseable stream frame", "venue", s.cfg.Venue, "err", err)
		return
	}
	if !quote.HasBid() && !quote.HasAsk() {
		return
	}

	if s.handler != nil {
		s.handler(quote)
	}
}
