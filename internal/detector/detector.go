// Package detector implements the quantitative insider-trading detection
// engine: fourteen independent market-microstructure signals computed over a
// market's trade tape and order book, combined into a weighted suspicion
// score with a categorical risk level.
//
// Every detector is a pure function of its inputs and fails soft: when a
// statistic cannot be computed meaningfully (too few trades, zero variance,
// empty book) the detector reports no anomaly rather than erroring.
package detector

import (
	"math"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

// Methodology describes the analysis approach in the report output.
const Methodology = "Quantitative analysis using market microstructure research methods"

// Risk level thresholds on the 0-100 suspicion score.
const (
	riskCriticalScore = 55
	riskHighScore     = 35
	riskMediumScore   = 18
)

// Params holds the tunable constants of the engine. The zero value of any
// field falls back to its default.
type Params struct {
	// MinTrades is the global sample gate; below it every signal is skipped
	// and the result is INSUFFICIENT_DATA.
	MinTrades int

	// SurgeWindow bounds how far past a market's close time the pre-event
	// surge signal still evaluates.
	SurgeWindow time.Duration

	// SurgeBaselineSplit is the fraction of the chronological tape treated
	// as baseline; the remainder is the "recent" period.
	SurgeBaselineSplit float64

	// VPINBucketFraction is the size of each volume bucket as a fraction of
	// total traded volume.
	VPINBucketFraction float64
}

// DefaultParams returns the standard engine parameters.
func DefaultParams() Params {
	return Params{
		MinTrades:          15,
		SurgeWindow:        7 * 24 * time.Hour,
		SurgeBaselineSplit: 0.9,
		VPINBucketFraction: 0.05,
	}
}

// withDefaults fills zero-valued fields from DefaultParams.
func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.MinTrades <= 0 {
		p.MinTrades = def.MinTrades
	}
	if p.SurgeWindow <= 0 {
		p.SurgeWindow = def.SurgeWindow
	}
	if p.SurgeBaselineSplit <= 0 {
		p.SurgeBaselineSplit = def.SurgeBaselineSplit
	}
	if p.VPINBucketFraction <= 0 {
		p.VPINBucketFraction = def.VPINBucketFraction
	}
	return p
}

// Analyzer runs the full signal suite over a market's data. It holds no
// per-analysis state, so a single Analyzer is safe to share across
// concurrent analyses.
type Analyzer struct {
	params Params
	now    func() time.Time
}

// New creates an Analyzer with the given parameters.
func New(params Params) *Analyzer {
	return &Analyzer{
		params: params.withDefaults(),
		now:    time.Now,
	}
}

// riskLevelFor maps a suspicion score onto the fixed risk classification.
func riskLevelFor(score int) string {
	switch {
	case score >= riskCriticalScore:
		return store.RiskCritical
	case score >= riskHighScore:
		return store.RiskHigh
	case score >= riskMediumScore:
		return store.RiskMedium
	default:
		return store.RiskLow
	}
}

// finding is the raw verdict a detector produces before registry metadata is
// attached. The zero value means "no anomaly".
type finding struct {
	anomalous   bool
	severity    int
	description string
	data        map[string]any
}

var notAnomalous = finding{}

// Analyze runs all fourteen detectors over the given market data and
// aggregates their findings into a single result.
func (a *Analyzer) Analyze(market store.Market, trades []store.Trade, book store.OrderBook) store.AnalysisResult {
	if len(trades) < a.params.MinTrades {
		return a.insufficientData(len(trades))
	}

	type evaluation struct {
		id string
		f  finding
	}

	evals := []evaluation{
		// Timing
		{SignalPreEventSurge, a.analyzePreEventSurge(trades, market.CloseTime)},
		{SignalTimingEntropy, analyzeTimingEntropy(trades)},
		{SignalTradeClustering, analyzeClusteringCV(trades)},
		// Order flow
		{SignalOrderFlowToxicity, a.analyzeOrderFlowToxicity(trades)},
		{SignalDirectionalConviction, analyzeDirectionalConviction(trades)},
		{SignalRunLength, analyzeRunLength(trades)},
		// Price
		{SignalPriceLeadership, analyzePriceLeadership(trades)},
		{SignalPriceImpact, analyzePriceImpact(trades)},
		{SignalPriceVelocity, analyzePriceVelocity(trades)},
		// Size
		{SignalLargeBlocks, analyzeLargeBlocks(trades)},
		{SignalSpreadCrossing, analyzeSpreadCrossing(trades, book)},
		// Statistical
		{SignalBenfordsLaw, analyzeBenfordsLaw(trades)},
		{SignalVolumeAnomaly, analyzeVolumePercentile(trades)},
		{SignalOrderbookImbalance, analyzeOrderbookImbalance(book)},
	}

	allSignals := make([]store.SignalResult, 0, len(evals))
	var weightedScore float64
	for _, e := range evals {
		result := buildSignalResult(e.id, e.f)
		allSignals = append(allSignals, result)
		if e.f.anomalous {
			def := definitionsByID[e.id]
			weightedScore += float64(e.f.severity) / 5 * float64(def.Weight)
		}
	}

	suspicionScore := int(math.Round(weightedScore / float64(TotalWeight()) * 100))
	if suspicionScore > 100 {
		suspicionScore = 100
	}

	riskLevel := riskLevelFor(suspicionScore)

	triggered := make([]store.SignalResult, 0)
	hits := make([]store.SignalHit, 0)
	for _, s := range allSignals {
		if !s.Triggered {
			continue
		}
		triggered = append(triggered, s)
		hits = append(hits, store.SignalHit{
			Type:        s.ID,
			Severity:    s.Severity,
			Description: s.Result,
			Data:        s.Data,
		})
	}

	return store.AnalysisResult{
		SuspicionScore: suspicionScore,
		RiskLevel:      riskLevel,
		Signals:        hits,
		AllSignals:     allSignals,
		Summary:        generateSummary(suspicionScore, triggered, len(trades)),
		Confidence:     calculateConfidence(len(trades), len(triggered)),
		Methodology:    Methodology,
		Metrics: store.AnalysisMetrics{
			TotalTrades:      len(trades),
			AvgTradeSize:     averageTradeSize(trades),
			PriceRange:       calculatePriceRange(trades),
			TimeSpan:         calculateTimeSpan(trades),
			SignalsAnalyzed:  len(allSignals),
			SignalsTriggered: len(triggered),
		},
	}
}
