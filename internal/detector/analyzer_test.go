package detector

import (
	"testing"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// makeTrade builds a trade at a fixed offset from the test base time.
func makeTrade(offset time.Duration, count int, yesPrice float64, side string) store.Trade {
	return store.Trade{
		Count:       count,
		YesPrice:    yesPrice,
		NoPrice:     1 - yesPrice,
		TakerSide:   side,
		CreatedTime: testBase.Add(offset),
	}
}

// alternatingSide returns yes/no based on index parity.
func alternatingSide(i int) string {
	if i%2 == 0 {
		return store.SideYes
	}
	return store.SideNo
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := New(DefaultParams())

	trades := make([]store.Trade, 0, 10)
	for i := 0; i < 10; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 10, 0.5, alternatingSide(i)))
	}

	result := a.Analyze(store.Market{}, trades, store.OrderBook{})

	if result.SuspicionScore != 0 {
		t.Errorf("expected score 0, got %d", result.SuspicionScore)
	}
	if result.RiskLevel != store.RiskInsufficientData {
		t.Errorf("expected risk level %s, got %s", store.RiskInsufficientData, result.RiskLevel)
	}
	if result.Confidence != 0 {
		t.Errorf("expected confidence 0, got %d", result.Confidence)
	}
	if len(result.AllSignals) != len(Definitions) {
		t.Fatalf("expected %d signals in report, got %d", len(Definitions), len(result.AllSignals))
	}
	for _, s := range result.AllSignals {
		if s.Status != store.StatusSkipped {
			t.Errorf("signal %s: expected status SKIPPED, got %s", s.ID, s.Status)
		}
		if s.Result != "Insufficient data" {
			t.Errorf("signal %s: expected result 'Insufficient data', got %q", s.ID, s.Result)
		}
	}
	if len(result.Signals) != 0 {
		t.Errorf("expected no triggered signals, got %d", len(result.Signals))
	}
	if result.Metrics.TotalTrades != 10 {
		t.Errorf("expected 10 total trades in metrics, got %d", result.Metrics.TotalTrades)
	}
	if result.Metrics.TimeSpan != "N/A" {
		t.Errorf("expected time span N/A, got %q", result.Metrics.TimeSpan)
	}
}

func TestAnalyzeQuietMarket(t *testing.T) {
	a := New(DefaultParams())

	// 20 identical trades, evenly spaced, alternating sides, balanced book.
	trades := make([]store.Trade, 0, 20)
	for i := 0; i < 20; i++ {
		trades = append(trades, makeTrade(time.Duration(i)*time.Minute, 10, 0.5, alternatingSide(i)))
	}
	book := store.OrderBook{
		Yes: []store.BookLevel{{49, 500}},
		No:  []store.BookLevel{{49, 500}},
	}

	result := a.Analyze(store.Market{}, trades, book)

	if result.RiskLevel != store.RiskLow {
		t.Errorf("expected risk level LOW, got %s (score %d)", result.RiskLevel, result.SuspicionScore)
	}
	for _, s := range result.AllSignals {
		switch s.ID {
		case SignalOrderFlowToxicity, SignalRunLength, SignalDirectionalConviction,
			SignalOrderbookImbalance, SignalSpreadCrossing, SignalLargeBlocks:
			if s.Triggered {
				t.Errorf("signal %s should not trigger on a quiet tape: %s", s.ID, s.Result)
			}
		}
	}
	if result.Metrics.SignalsAnalyzed != len(Definitions) {
		t.Errorf("expected %d signals analyzed, got %d", len(Definitions), result.Metrics.SignalsAnalyzed)
	}
	if result.Metrics.AvgTradeSize != 10 {
		t.Errorf("expected avg trade size 10, got %d", result.Metrics.AvgTradeSize)
	}
}

func TestAnalyzePreEventSurgeScenario(t *testing.T) {
	a := New(DefaultParams())

	// 200 trades over one hour; the final 10% carries 10x the volume of the
	// baseline. Market closes an hour from now.
	trades := make([]store.Trade, 0, 200)
	start := time.Now().Add(-1 * time.Hour)
	for i := 0; i < 200; i++ {
		count := 1
		if i >= 180 {
			count = 90
		}
		trades = append(trades, store.Trade{
			Count:       count,
			YesPrice:    0.5,
			NoPrice:     0.5,
			TakerSide:   alternatingSide(i),
			CreatedTime: start.Add(time.Duration(i) * 18 * time.Second),
		})
	}
	market := store.Market{CloseTime: time.Now().Add(1 * time.Hour)}

	result := a.Analyze(market, trades, store.OrderBook{})

	var surge *store.SignalResult
	for i := range result.AllSignals {
		if result.AllSignals[i].ID == SignalPreEventSurge {
			surge = &result.AllSignals[i]
		}
	}
	if surge == nil {
		t.Fatal("pre-event surge signal missing from report")
	}
	if !surge.Triggered {
		t.Fatalf("expected pre-event surge to trigger: %s", surge.Result)
	}
	if surge.Severity != 5 {
		t.Errorf("expected severity 5, got %d", surge.Severity)
	}
	if _, ok := surge.Data["surgeRatio"]; !ok {
		t.Error("expected surgeRatio in signal data")
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, store.RiskLow},
		{17, store.RiskLow},
		{18, store.RiskMedium},
		{34, store.RiskMedium},
		{35, store.RiskHigh},
		{54, store.RiskHigh},
		{55, store.RiskCritical},
		{100, store.RiskCritical},
	}

	for _, tc := range cases {
		if got := riskLevelFor(tc.score); got != tc.want {
			t.Errorf("riskLevelFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestRegistryIntegrity(t *testing.T) {
	if len(Definitions) != 14 {
		t.Fatalf("expected 14 signal definitions, got %d", len(Definitions))
	}

	seen := make(map[string]bool)
	for _, d := range Definitions {
		if seen[d.ID] {
			t.Errorf("duplicate signal ID %s", d.ID)
		}
		seen[d.ID] = true

		if d.Weight <= 0 {
			t.Errorf("signal %s has non-positive weight %d", d.ID, d.Weight)
		}
		if d.Name == "" || d.Category == "" || d.Explanation == "" {
			t.Errorf("signal %s has incomplete metadata", d.ID)
		}
		if _, ok := Lookup(d.ID); !ok {
			t.Errorf("Lookup(%s) failed", d.ID)
		}
	}

	if total := TotalWeight(); total != 155 {
		t.Errorf("expected total weight 155, got %d", total)
	}
}
