// Package ingest fetches market data from the Kalshi trade API and
// normalizes it into the engine's models.
package ingest

import (
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

// APIMarket is a market record as returned by the trade API, with prices in
// integer cents.
type APIMarket struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	LastPrice    int    `json:"last_price"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest"`
	CloseTime    string `json:"close_time"`
}

// APITrade is a tape entry as returned by the trade API.
type APITrade struct {
	TradeID     string `json:"trade_id"`
	Ticker      string `json:"ticker"`
	Count       int    `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	TakerSide   string `json:"taker_side"`
	CreatedTime string `json:"created_time"`
}

// APIOrderbook mirrors the wire layout: [price_cents, size] pairs per side.
type APIOrderbook struct {
	Yes [][2]float64 `json:"yes"`
	No  [][2]float64 `json:"no"`
}

// NormalizeMarket converts cent-denominated quote fields to [0,1] decimals.
// Missing numeric fields are zero on the wire and stay zero after division;
// normalization never fails.
func NormalizeMarket(m APIMarket) store.Market {
	return store.Market{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		Status:       m.Status,
		YesBid:       float64(m.YesBid) / 100,
		YesAsk:       float64(m.YesAsk) / 100,
		NoBid:        float64(m.NoBid) / 100,
		NoAsk:        float64(m.NoAsk) / 100,
		LastPrice:    float64(m.LastPrice) / 100,
		Volume:       m.Volume,
		OpenInterest: m.OpenInterest,
		CloseTime:    parseTime(m.CloseTime),
	}
}

// NormalizeTrade converts a wire trade into the engine model with prices in
// [0,1].
func NormalizeTrade(t APITrade) store.Trade {
	return store.Trade{
		TradeID:     t.TradeID,
		Ticker:      t.Ticker,
		Count:       t.Count,
		YesPrice:    float64(t.YesPrice) / 100,
		NoPrice:     float64(t.NoPrice) / 100,
		TakerSide:   t.TakerSide,
		CreatedTime: parseTime(t.CreatedTime),
	}
}

// NormalizeTrades converts a page of wire trades.
func NormalizeTrades(ts []APITrade) []store.Trade {
	trades := make([]store.Trade, 0, len(ts))
	for _, t := range ts {
		trades = append(trades, NormalizeTrade(t))
	}
	return trades
}

// NormalizeOrderbook converts the wire ladders into book levels. Prices stay
// in cents; only the container type changes.
func NormalizeOrderbook(ob APIOrderbook) store.OrderBook {
	return store.OrderBook{
		Yes: toLevels(ob.Yes),
		No:  toLevels(ob.No),
	}
}

func toLevels(pairs [][2]float64) []store.BookLevel {
	levels := make([]store.BookLevel, 0, len(pairs))
	for _, p := range pairs {
		levels = append(levels, store.BookLevel(p))
	}
	return levels
}

// parseTime parses the API's RFC3339 timestamps, returning the zero time on
// failure rather than an error.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
