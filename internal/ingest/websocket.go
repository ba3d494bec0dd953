package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kalshiwatch/engine/internal/store"
)

// DefaultWSURL is the Kalshi trade API WebSocket endpoint.
const DefaultWSURL = "wss://api.elections.kalshi.com/trade-api/ws/v2"

// Reconnection and liveness constants.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterPercent  = 0.2

	readTimeout  = 70 * time.Second
	writeTimeout = 10 * time.Second
)

// TapeListener subscribes to the public trade channel and accumulates the
// executed trades it sees into an in-memory tape. It only collects; the
// collected tape is analyzed in batch afterwards.
type TapeListener struct {
	url     string
	tickers []string

	conn    *websocket.Conn
	connMu  sync.Mutex
	backoff time.Duration

	tapeMu sync.Mutex
	tape   []store.Trade

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewTapeListener creates a listener for the given markets.
func NewTapeListener(url string, tickers []string) *TapeListener {
	if url == "" {
		url = DefaultWSURL
	}
	return &TapeListener{
		url:      url,
		tickers:  tickers,
		backoff:  initialBackoff,
		stopChan: make(chan struct{}),
	}
}

// Start begins collecting in the background, reconnecting on failure.
func (l *TapeListener) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.runLoop(ctx)
}

// Stop shuts the listener down and waits for the run loop to exit.
func (l *TapeListener) Stop() {
	close(l.stopChan)
	l.closeConnection()
	l.wg.Wait()
}

// Tape returns a copy of the trades collected so far.
func (l *TapeListener) Tape() []store.Trade {
	l.tapeMu.Lock()
	defer l.tapeMu.Unlock()
	out := make([]store.Trade, len(l.tape))
	copy(out, l.tape)
	return out
}

func (l *TapeListener) runLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ws_loop_stopping", "reason", "context cancelled")
			return
		case <-l.stopChan:
			slog.Info("ws_loop_stopping", "reason", "stop signal")
			return
		default:
		}

		if err := l.connect(ctx); err != nil {
			slog.Warn("ws_connect_failed", "error", err, "backoff", l.backoff)
			l.waitBackoff(ctx)
			continue
		}

		if err := l.readLoop(ctx); err != nil {
			slog.Debug("ws_read_error", "error", err)
		}
		l.closeConnection()

		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			return
		default:
			l.waitBackoff(ctx)
		}
	}
}

// connect dials the endpoint and subscribes to the trade channel.
func (l *TapeListener) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, resp, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	l.connMu.Lock()
	l.conn = conn
	l.connMu.Unlock()

	l.backoff = initialBackoff
	slog.Info("ws_connected", "endpoint", l.url)

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(NewTradeSubscription(1, l.tickers)); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	slog.Info("ws_subscribed", "channel", "trade", "ticker_count", len(l.tickers))
	return nil
}

func (l *TapeListener) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopChan:
			return nil
		default:
		}

		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()
		if conn == nil {
			return fmt.Errorf("connection is nil")
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		l.handleMessage(message)
	}
}

func (l *TapeListener) handleMessage(data []byte) {
	trade, msgType, err := ParseMessage(data)
	if err != nil {
		slog.Debug("ws_parse_error", "error", err)
		return
	}
	if trade == nil {
		if msgType != "" {
			slog.Debug("ws_message", "type", msgType)
		}
		return
	}

	l.tapeMu.Lock()
	l.tape = append(l.tape, *trade)
	collected := len(l.tape)
	l.tapeMu.Unlock()

	slog.Debug("trade_collected",
		"ticker", trade.Ticker,
		"count", trade.Count,
		"yes_price", trade.YesPrice,
		"taker_side", trade.TakerSide,
		"tape_size", collected,
	)
}

func (l *TapeListener) closeConnection() {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
		slog.Info("ws_disconnected")
	}
}

// waitBackoff sleeps for the jittered backoff and grows it for next time.
func (l *TapeListener) waitBackoff(ctx context.Context) {
	jitter := time.Duration(float64(l.backoff) * jitterPercent * (rand.Float64()*2 - 1))
	wait := l.backoff + jitter

	select {
	case <-ctx.Done():
	case <-l.stopChan:
	case <-time.After(wait):
	}

	l.backoff = time.Duration(float64(l.backoff) * backoffFactor)
	if l.backoff > maxBackoff {
		l.backoff = maxBackoff
	}
}
