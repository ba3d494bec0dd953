// Package metrics provides thread-safe aggregation of results across a
// multi-market scan.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

// topMarketsCap bounds how many of the highest-scoring markets a snapshot
// reports.
const topMarketsCap = 10

// MarketScore is one market's headline result within a scan.
type MarketScore struct {
	Ticker         string
	SuspicionScore int
	RiskLevel      string
	Confidence     int
}

// ScanSummary is a point-in-time view of a scan's progress.
type ScanSummary struct {
	MarketsScanned int64
	MarketsFailed  int64
	ByRiskLevel    map[string]int64
	SignalCounts   map[string]int64
	TopMarkets     []MarketScore
	Elapsed        time.Duration
}

// ScanTracker accumulates analysis results across concurrent workers.
type ScanTracker struct {
	mu           sync.Mutex
	scanned      int64
	failed       int64
	byRiskLevel  map[string]int64
	signalCounts map[string]int64
	topMarkets   []MarketScore
	startTime    time.Time
}

// NewScanTracker creates a ScanTracker.
func NewScanTracker() *ScanTracker {
	return &ScanTracker{
		byRiskLevel:  make(map[string]int64),
		signalCounts: make(map[string]int64),
		startTime:    time.Now(),
	}
}

// RecordResult folds one market's analysis into the scan totals.
func (s *ScanTracker) RecordResult(ticker string, result store.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scanned++
	s.byRiskLevel[result.RiskLevel]++
	for _, hit := range result.Signals {
		s.signalCounts[hit.Type]++
	}

	s.topMarkets = append(s.topMarkets, MarketScore{
		Ticker:         ticker,
		SuspicionScore: result.SuspicionScore,
		RiskLevel:      result.RiskLevel,
		Confidence:     result.Confidence,
	})
	sort.SliceStable(s.topMarkets, func(i, j int) bool {
		return s.topMarkets[i].SuspicionScore > s.topMarkets[j].SuspicionScore
	})
	if len(s.topMarkets) > topMarketsCap {
		s.topMarkets = s.topMarkets[:topMarketsCap]
	}
}

// RecordFailure counts a market whose data could not be fetched.
func (s *ScanTracker) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Snapshot returns a copy of the scan totals.
func (s *ScanTracker) Snapshot() ScanSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	byRisk := make(map[string]int64, len(s.byRiskLevel))
	for k, v := range s.byRiskLevel {
		byRisk[k] = v
	}
	signals := make(map[string]int64, len(s.signalCounts))
	for k, v := range s.signalCounts {
		signals[k] = v
	}
	top := make([]MarketScore, len(s.topMarkets))
	copy(top, s.topMarkets)

	return ScanSummary{
		MarketsScanned: s.scanned,
		MarketsFailed:  s.failed,
		ByRiskLevel:    byRisk,
		SignalCounts:   signals,
		TopMarkets:     top,
		Elapsed:        time.Since(s.startTime),
	}
}
