// Package store provides the data models shared across the engine.
package store

import "time"

// Taker sides for prediction market trades.
const (
	SideYes = "yes"
	SideNo  = "no"
)

// Trade represents a single executed contract trade on a market.
type Trade struct {
	// TradeID is the venue's identifier for this trade
	TradeID string `json:"trade_id"`

	// Ticker is the market the trade executed on
	Ticker string `json:"ticker"`

	// Count is the number of contracts traded
	Count int `json:"count"`

	// YesPrice is the price paid for the YES side, normalized to [0,1]
	YesPrice float64 `json:"yes_price"`

	// NoPrice is the price paid for the NO side, normalized to [0,1]
	NoPrice float64 `json:"no_price"`

	// TakerSide is which side aggressed: "yes" or "no"
	TakerSide string `json:"taker_side"`

	// CreatedTime is when the trade executed
	CreatedTime time.Time `json:"created_time"`
}

// BookLevel is one resting level of the order book: [price_cents, size].
type BookLevel [2]float64

// Price returns the level price in cents.
func (l BookLevel) Price() float64 { return l[0] }

// Size returns the number of resting contracts at the level.
func (l BookLevel) Size() float64 { return l[1] }

// OrderBook is a snapshot of resting liquidity, best level first.
// Either side may be empty; consumers must tolerate zero depth.
type OrderBook struct {
	Yes []BookLevel `json:"yes"`
	No  []BookLevel `json:"no"`
}

// Depth sums the resting size across the given side's levels.
func Depth(levels []BookLevel) float64 {
	var total float64
	for _, l := range levels {
		total += l.Size()
	}
	return total
}

// Market holds contract metadata. Quote fields are normalized to [0,1].
type Market struct {
	Ticker       string    `json:"ticker"`
	EventTicker  string    `json:"event_ticker"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	YesBid       float64   `json:"yes_bid"`
	YesAsk       float64   `json:"yes_ask"`
	NoBid        float64   `json:"no_bid"`
	NoAsk        float64   `json:"no_ask"`
	LastPrice    float64   `json:"last_price"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
	CloseTime    time.Time `json:"close_time"`
}

// Risk levels for an analysis result.
const (
	RiskInsufficientData = "INSUFFICIENT_DATA"
	RiskLow              = "LOW"
	RiskMedium           = "MEDIUM"
	RiskHigh             = "HIGH"
	RiskCritical         = "CRITICAL"
)

// Per-signal report statuses.
const (
	StatusTriggered = "TRIGGERED"
	StatusNormal    = "NORMAL"
	StatusSkipped   = "SKIPPED"
)

// SignalHit is a triggered signal in the compact form consumed by reporting.
type SignalHit struct {
	Type        string         `json:"type"`
	Severity    int            `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data"`
}

// SignalResult is the full per-detector report entry, including the static
// registry metadata inherited from the signal definition.
type SignalResult struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Weight      int            `json:"weight"`
	Explanation string         `json:"explanation"`
	Threshold   string         `json:"threshold"`
	Citation    string         `json:"citation"`
	Triggered   bool           `json:"triggered"`
	Severity    int            `json:"severity"`
	Result      string         `json:"result"`
	Data        map[string]any `json:"data"`
	Status      string         `json:"status"`
}

// PriceRange summarizes the YES price range across the analyzed trades.
type PriceRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

// AnalysisMetrics is the trade-derived metrics block of a result.
type AnalysisMetrics struct {
	TotalTrades      int        `json:"totalTrades"`
	AvgTradeSize     int        `json:"avgTradeSize"`
	PriceRange       PriceRange `json:"priceRange"`
	TimeSpan         string     `json:"timeSpan"`
	SignalsAnalyzed  int        `json:"signalsAnalyzed"`
	SignalsTriggered int        `json:"signalsTriggered"`
}

// AnalysisResult is the engine's final output for one market.
type AnalysisResult struct {
	SuspicionScore int             `json:"suspicionScore"`
	RiskLevel      string          `json:"riskLevel"`
	Signals        []SignalHit     `json:"signals"`
	AllSignals     []SignalResult  `json:"allSignals"`
	Summary        string          `json:"summary"`
	Confidence     int             `json:"confidence"`
	Methodology    string          `json:"methodology"`
	Metrics        AnalysisMetrics `json:"metrics"`
}
