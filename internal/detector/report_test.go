package detector

import (
	"strings"
	"testing"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

func TestBuildSignalResultNormal(t *testing.T) {
	r := buildSignalResult(SignalBenfordsLaw, notAnomalous)

	if r.Triggered {
		t.Error("expected triggered=false")
	}
	if r.Severity != 0 {
		t.Errorf("expected severity 0, got %d", r.Severity)
	}
	if r.Status != store.StatusNormal {
		t.Errorf("expected status NORMAL, got %s", r.Status)
	}
	if r.Result != "No anomaly detected" {
		t.Errorf("unexpected result: %q", r.Result)
	}
	if r.Data == nil {
		t.Error("data map should never be nil")
	}
	if r.Weight != 6 {
		t.Errorf("expected registry weight 6, got %d", r.Weight)
	}
}

func TestBuildSignalResultTriggered(t *testing.T) {
	f := finding{
		anomalous:   true,
		severity:    3,
		description: "something odd",
		data:        map[string]any{"k": "v"},
	}
	r := buildSignalResult(SignalPreEventSurge, f)

	if !r.Triggered || r.Severity != 3 {
		t.Errorf("expected triggered severity 3, got %v/%d", r.Triggered, r.Severity)
	}
	if r.Status != store.StatusTriggered {
		t.Errorf("expected status TRIGGERED, got %s", r.Status)
	}
	if r.Result != "something odd" {
		t.Errorf("unexpected result: %q", r.Result)
	}
	if r.Name == "" || r.Explanation == "" || r.Citation == "" {
		t.Error("registry metadata missing from result")
	}
}

func TestCalculateConfidence(t *testing.T) {
	cases := []struct {
		trades, signals, want int
	}{
		{200, 3, 80},
		{100, 2, 70},
		{50, 1, 60},
		{25, 0, 45},
		{10, 0, 35},
		{500, 10, 80},
	}
	for _, tc := range cases {
		if got := calculateConfidence(tc.trades, tc.signals); got != tc.want {
			t.Errorf("calculateConfidence(%d, %d) = %d, want %d", tc.trades, tc.signals, got, tc.want)
		}
	}
}

func TestGenerateSummaryBands(t *testing.T) {
	triggered := []store.SignalResult{
		{Name: "Pre-Event Volume Surge"},
		{Name: "Order Flow Toxicity (VPIN)"},
	}

	quiet := generateSummary(5, nil, 40)
	if !strings.Contains(quiet, "normal trading patterns") {
		t.Errorf("unexpected quiet summary: %q", quiet)
	}

	minor := generateSummary(20, triggered, 40)
	if !strings.Contains(minor, "Minor irregularities") || !strings.Contains(minor, "2 weak signals") {
		t.Errorf("unexpected minor summary: %q", minor)
	}
	if !strings.Contains(minor, "pre-event volume surge") {
		t.Errorf("signal names should be lowercased: %q", minor)
	}

	moderate := generateSummary(40, triggered, 40)
	if !strings.Contains(moderate, "Moderate anomalies") {
		t.Errorf("unexpected moderate summary: %q", moderate)
	}

	significant := generateSummary(60, triggered, 40)
	if !strings.Contains(significant, "Possible informed trading") {
		t.Errorf("unexpected significant summary: %q", significant)
	}

	alert := generateSummary(80, triggered, 40)
	if !strings.HasPrefix(alert, "ALERT:") {
		t.Errorf("unexpected alert summary: %q", alert)
	}

	single := generateSummary(20, triggered[:1], 40)
	if !strings.Contains(single, "1 weak signal:") {
		t.Errorf("singular form expected: %q", single)
	}
}

func TestCalculateTimeSpan(t *testing.T) {
	span := func(gap time.Duration) string {
		return calculateTimeSpan([]store.Trade{
			{CreatedTime: testBase},
			{CreatedTime: testBase.Add(gap)},
		})
	}

	if got := span(30 * time.Minute); got != "30 minutes" {
		t.Errorf("expected 30 minutes, got %q", got)
	}
	if got := span(90 * time.Minute); got != "1.5 hours" {
		t.Errorf("expected 1.5 hours, got %q", got)
	}
	if got := span(36 * time.Hour); got != "1.5 days" {
		t.Errorf("expected 1.5 days, got %q", got)
	}
	if got := calculateTimeSpan([]store.Trade{{CreatedTime: testBase}}); got != "N/A" {
		t.Errorf("expected N/A for a single trade, got %q", got)
	}
}

func TestCalculatePriceRange(t *testing.T) {
	trades := []store.Trade{
		{YesPrice: 0.30},
		{YesPrice: 0},
		{YesPrice: 0.55},
		{YesPrice: 0.42},
	}
	r := calculatePriceRange(trades)
	if r.Min != 0.30 || r.Max != 0.55 {
		t.Errorf("expected range [0.30, 0.55], got [%v, %v]", r.Min, r.Max)
	}
	if r.Range != 0.25 {
		t.Errorf("expected spread 0.25, got %v", r.Range)
	}

	empty := calculatePriceRange([]store.Trade{{YesPrice: 0}})
	if empty.Min != 0 || empty.Max != 0 || empty.Range != 0 {
		t.Errorf("expected zero range for priceless tape, got %+v", empty)
	}
}

func TestAverageTradeSize(t *testing.T) {
	trades := []store.Trade{{Count: 10}, {Count: 20}, {Count: 31}}
	if got := averageTradeSize(trades); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
	if got := averageTradeSize(nil); got != 0 {
		t.Errorf("expected 0 for empty tape, got %d", got)
	}
}

func TestClampSeverity(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{-2, 1},
		{0, 1},
		{0.1, 1},
		{1.2, 2},
		{4.9, 5},
		{17, 5},
	}
	for _, tc := range cases {
		if got := clampSeverity(tc.in); got != tc.want {
			t.Errorf("clampSeverity(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSortedByTimeDoesNotMutate(t *testing.T) {
	trades := []store.Trade{
		{TradeID: "b", CreatedTime: testBase.Add(time.Minute)},
		{TradeID: "a", CreatedTime: testBase},
	}
	sorted := sortedByTime(trades)

	if sorted[0].TradeID != "a" || sorted[1].TradeID != "b" {
		t.Errorf("expected chronological order, got %s, %s", sorted[0].TradeID, sorted[1].TradeID)
	}
	if trades[0].TradeID != "b" {
		t.Error("input slice was mutated")
	}
}

func TestTradeIntervalsDropsZeroGaps(t *testing.T) {
	trades := []store.Trade{
		{CreatedTime: testBase},
		{CreatedTime: testBase},
		{CreatedTime: testBase.Add(2 * time.Second)},
	}
	intervals := tradeIntervals(trades)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0] != 2000 {
		t.Errorf("expected 2000ms, got %v", intervals[0])
	}
}

func TestFormatInterval(t *testing.T) {
	cases := []struct {
		ms   float64
		want string
	}{
		{500, "500ms"},
		{1500, "1.5s"},
		{90_000, "1.5min"},
		{5_400_000, "1.5hr"},
	}
	for _, tc := range cases {
		if got := formatInterval(tc.ms); got != tc.want {
			t.Errorf("formatInterval(%v) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}
