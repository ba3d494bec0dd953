package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

// WSMessage is the envelope of a trade-API WebSocket message.
type WSMessage struct {
	Type string          `json:"type"`
	SID  int             `json:"sid,omitempty"`
	Seq  int             `json:"seq,omitempty"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

// WSTrade is the payload of a "trade" channel message. Prices are in cents
// and the timestamp is Unix seconds.
type WSTrade struct {
	TradeID      string `json:"trade_id"`
	MarketTicker string `json:"market_ticker"`
	YesPrice     int    `json:"yes_price"`
	NoPrice      int    `json:"no_price"`
	Count        int    `json:"count"`
	TakerSide    string `json:"taker_side"`
	Ts           int64  `json:"ts"`
}

// SubscribeCommand is the request to open channels on the WebSocket.
type SubscribeCommand struct {
	ID     int             `json:"id"`
	Cmd    string          `json:"cmd"`
	Params SubscribeParams `json:"params"`
}

// SubscribeParams selects channels and markets for a subscription.
type SubscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers,omitempty"`
}

// NewTradeSubscription builds the subscribe command for the public trade
// channel on the given markets.
func NewTradeSubscription(id int, tickers []string) SubscribeCommand {
	return SubscribeCommand{
		ID:  id,
		Cmd: "subscribe",
		Params: SubscribeParams{
			Channels:      []string{"trade"},
			MarketTickers: tickers,
		},
	}
}

// ParseMessage decodes a WebSocket message and extracts a trade when the
// message carries one. The returned message type lets callers log other
// message kinds without treating them as errors.
func ParseMessage(data []byte) (*store.Trade, string, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, "", fmt.Errorf("unmarshal message: %w", err)
	}

	if msg.Type != "trade" {
		return nil, msg.Type, nil
	}

	var wt WSTrade
	if err := json.Unmarshal(msg.Msg, &wt); err != nil {
		return nil, msg.Type, fmt.Errorf("unmarshal trade payload: %w", err)
	}
	if wt.MarketTicker == "" {
		return nil, msg.Type, nil
	}

	trade := store.Trade{
		TradeID:     wt.TradeID,
		Ticker:      wt.MarketTicker,
		Count:       wt.Count,
		YesPrice:    float64(wt.YesPrice) / 100,
		NoPrice:     float64(wt.NoPrice) / 100,
		TakerSide:   wt.TakerSide,
		CreatedTime: time.Unix(wt.Ts, 0),
	}
	return &trade, msg.Type, nil
}
