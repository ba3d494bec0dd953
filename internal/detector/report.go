package detector

import (
	"fmt"
	"math"
	"strings"

	"github.com/kalshiwatch/engine/internal/store"
)

// buildSignalResult attaches the registry metadata for a signal to a
// detector finding, producing the full report entry.
func buildSignalResult(id string, f finding) store.SignalResult {
	def := definitionsByID[id]

	status := store.StatusNormal
	result := "No anomaly detected"
	if f.anomalous {
		status = store.StatusTriggered
		result = f.description
	}
	data := f.data
	if data == nil {
		data = map[string]any{}
	}

	return store.SignalResult{
		ID:          def.ID,
		Name:        def.Name,
		Category:    def.Category,
		Weight:      def.Weight,
		Explanation: def.Explanation,
		Threshold:   def.Threshold,
		Citation:    def.Citation,
		Triggered:   f.anomalous,
		Severity:    f.severity,
		Result:      result,
		Data:        data,
		Status:      status,
	}
}

// skippedReport lists all signals as SKIPPED, used when the tape is below
// the global sample gate.
func skippedReport(tradeCount, minTrades int) []store.SignalResult {
	result := "Not analyzed"
	if tradeCount < minTrades {
		result = "Insufficient data"
	}

	report := make([]store.SignalResult, 0, len(Definitions))
	for _, def := range Definitions {
		report = append(report, store.SignalResult{
			ID:          def.ID,
			Name:        def.Name,
			Category:    def.Category,
			Weight:      def.Weight,
			Explanation: def.Explanation,
			Threshold:   def.Threshold,
			Citation:    def.Citation,
			Triggered:   false,
			Severity:    0,
			Result:      result,
			Data:        map[string]any{},
			Status:      store.StatusSkipped,
		})
	}
	return report
}

// insufficientData is the short-circuit result for tapes below the global
// trade-count gate. Insufficient data is a reported outcome, not an error.
func (a *Analyzer) insufficientData(tradeCount int) store.AnalysisResult {
	return store.AnalysisResult{
		SuspicionScore: 0,
		RiskLevel:      store.RiskInsufficientData,
		Signals:        []store.SignalHit{},
		AllSignals:     skippedReport(tradeCount, a.params.MinTrades),
		Summary: fmt.Sprintf("Insufficient trading data for analysis. Need at least %d trades, found %d.",
			a.params.MinTrades, tradeCount),
		Confidence:  0,
		Methodology: Methodology,
		Metrics: store.AnalysisMetrics{
			TotalTrades: tradeCount,
			TimeSpan:    "N/A",
		},
	}
}

// generateSummary produces the deterministic narrative for a result from
// the score band, the triggered signals, and the tape size.
func generateSummary(score int, triggered []store.SignalResult, tradeCount int) string {
	names := make([]string, 0, len(triggered))
	for _, s := range triggered {
		name := s.Name
		if name == "" {
			name = s.ID
		}
		names = append(names, strings.ToLower(name))
	}

	n := len(triggered)
	switch {
	case score < 15:
		return fmt.Sprintf("Analysis of %d trades shows normal trading patterns. No significant anomalies detected.",
			tradeCount)
	case score < 30:
		return fmt.Sprintf("Minor irregularities detected in %d trades. %d weak signal%s: %s. Likely normal market activity.",
			tradeCount, n, plural(n), joinFirst(names, 2))
	case score < 50:
		return fmt.Sprintf("Moderate anomalies found in %d trades. %d signal%s suggest unusual activity: %s. Worth monitoring.",
			tradeCount, n, plural(n), joinFirst(names, 3))
	case score < 70:
		return fmt.Sprintf("Significant suspicious patterns in %d trades. %d strong signal%s: %s. Possible informed trading.",
			tradeCount, n, plural(n), joinFirst(names, 3))
	default:
		return fmt.Sprintf("ALERT: High probability of abnormal trading. %d critical signal%s in %d trades: %s. Strongly indicates insider trading or manipulation.",
			n, plural(n), tradeCount, joinFirst(names, 4))
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

func joinFirst(names []string, k int) string {
	if len(names) > k {
		names = names[:k]
	}
	return strings.Join(names, ", ")
}

// calculateConfidence expresses how much the score can be trusted,
// independent of its magnitude: more trades and more corroborating signals
// mean higher confidence.
func calculateConfidence(tradeCount, signalCount int) int {
	confidence := 20

	switch {
	case tradeCount >= 200:
		confidence += 35
	case tradeCount >= 100:
		confidence += 30
	case tradeCount >= 50:
		confidence += 25
	case tradeCount >= 25:
		confidence += 15
	default:
		confidence += 5
	}

	switch {
	case signalCount >= 3:
		confidence += 25
	case signalCount >= 2:
		confidence += 20
	case signalCount >= 1:
		confidence += 15
	default:
		confidence += 10
	}

	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

// averageTradeSize is the rounded mean contract count of the tape.
func averageTradeSize(trades []store.Trade) int {
	if len(trades) == 0 {
		return 0
	}
	total := 0
	for _, t := range trades {
		total += t.Count
	}
	return int(math.Round(float64(total) / float64(len(trades))))
}

// calculatePriceRange reports the min/max/spread of YES prices across the
// tape, ignoring zero (missing) prices.
func calculatePriceRange(trades []store.Trade) store.PriceRange {
	var min, max float64
	seen := false
	for _, t := range trades {
		p := t.YesPrice
		if p <= 0 {
			continue
		}
		if !seen || p < min {
			min = p
		}
		if !seen || p > max {
			max = p
		}
		seen = true
	}
	if !seen {
		return store.PriceRange{}
	}
	return store.PriceRange{Min: min, Max: max, Range: max - min}
}

// calculateTimeSpan renders the tape's time extent in human units.
func calculateTimeSpan(trades []store.Trade) string {
	if len(trades) < 2 {
		return "N/A"
	}

	first := trades[0].CreatedTime
	earliest, latest := first, first
	for _, t := range trades[1:] {
		if t.CreatedTime.Before(earliest) {
			earliest = t.CreatedTime
		}
		if t.CreatedTime.After(latest) {
			latest = t.CreatedTime
		}
	}

	hours := latest.Sub(earliest).Hours()
	switch {
	case hours < 1:
		return fmt.Sprintf("%.0f minutes", math.Round(hours*60))
	case hours < 24:
		return fmt.Sprintf("%.1f hours", hours)
	default:
		return fmt.Sprintf("%.1f days", hours/24)
	}
}
