package detector

import (
	"fmt"
	"math"
	"time"

	"github.com/kalshiwatch/engine/internal/store"
)

// analyzePreEventSurge compares the per-hour trade rate of the final slice
// of the tape against the earlier baseline. Informed flow tends to
// concentrate right before resolution, so a sharp late surge near the
// market's close time is suspicious.
func (a *Analyzer) analyzePreEventSurge(trades []store.Trade, closeTime time.Time) finding {
	if closeTime.IsZero() || len(trades) < 20 {
		return notAnomalous
	}

	// Only relevant while the event is upcoming or recently resolved.
	if closeTime.Before(a.now().Add(-a.params.SurgeWindow)) {
		return notAnomalous
	}

	sorted := sortedByTime(trades)
	cutoff := int(float64(len(sorted)) * a.params.SurgeBaselineSplit)
	baseline := sorted[:cutoff]
	recent := sorted[cutoff:]

	if len(baseline) < 10 || len(recent) < 3 {
		return notAnomalous
	}

	var baselineVolume, recentVolume float64
	for _, t := range baseline {
		baselineVolume += countOrOne(t)
	}
	for _, t := range recent {
		recentVolume += countOrOne(t)
	}

	baselineSpan := baseline[len(baseline)-1].CreatedTime.Sub(baseline[0].CreatedTime).Hours()
	if baselineSpan == 0 {
		baselineSpan = 1
	}
	recentSpan := recent[len(recent)-1].CreatedTime.Sub(recent[0].CreatedTime).Hours()
	if recentSpan == 0 {
		recentSpan = 0.1
	}

	baselineRate := baselineVolume / baselineSpan
	recentRate := recentVolume / recentSpan

	var surgeRatio float64
	if baselineRate > 0 {
		surgeRatio = recentRate / baselineRate
	}

	if surgeRatio > 3 {
		return finding{
			anomalous:   true,
			severity:    clampSeverity(surgeRatio / 2),
			description: fmt.Sprintf("%.1fx volume surge in final %d trades", surgeRatio, len(recent)),
			data: map[string]any{
				"surgeRatio":   fmt.Sprintf("%.1fx", surgeRatio),
				"recentVolume": recentVolume,
				"recentTrades": len(recent),
				"baselineRate": fmt.Sprintf("%.1f/hr", baselineRate),
				"recentRate":   fmt.Sprintf("%.1f/hr", recentRate),
			},
		}
	}
	return notAnomalous
}

// analyzeTimingEntropy computes the Shannon entropy of the inter-trade
// interval histogram (30-second buckets). Natural arrivals are noisy and
// score high; coordinated or scripted flow repeats the same gaps and scores
// low.
func analyzeTimingEntropy(trades []store.Trade) finding {
	if len(trades) < 20 {
		return notAnomalous
	}

	intervals := tradeIntervals(sortedByTime(trades))
	if len(intervals) < 10 {
		return notAnomalous
	}

	const bucketSize = 30_000 // ms
	buckets := make(map[int]int)
	for _, interval := range intervals {
		buckets[int(interval/bucketSize)]++
	}

	total := float64(len(intervals))
	var entropy float64
	for _, count := range buckets {
		p := float64(count) / total
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}

	maxEntropy := 1.0
	if len(buckets) > 1 {
		maxEntropy = math.Log2(float64(len(buckets)))
	}
	normalized := 1.0
	if maxEntropy > 0 {
		normalized = entropy / maxEntropy
	}

	if normalized < 0.35 {
		interpretation := "Moderately coordinated"
		if normalized < 0.2 {
			interpretation = "Highly coordinated"
		}
		return finding{
			anomalous:   true,
			severity:    clampSeverity((0.4 - normalized) * 10),
			description: fmt.Sprintf("Trade timing entropy %.0f%% (low = coordinated)", normalized*100),
			data: map[string]any{
				"entropy":        fmt.Sprintf("%.0f%%", normalized*100),
				"interpretation": interpretation,
				"uniquePatterns": len(buckets),
			},
		}
	}
	return notAnomalous
}

// analyzeClusteringCV checks the coefficient of variation of inter-trade
// intervals. A Poisson arrival process has CV near 1; far below that looks
// automated, far above looks like burst trading.
func analyzeClusteringCV(trades []store.Trade) finding {
	if len(trades) < 20 {
		return notAnomalous
	}

	intervals := tradeIntervals(sortedByTime(trades))
	if len(intervals) < 15 {
		return notAnomalous
	}

	m := mean(intervals)
	var cv float64
	if m > 0 {
		cv = stdDev(intervals) / m
	}

	if cv < 0.4 {
		return finding{
			anomalous:   true,
			severity:    clampSeverity((0.5 - cv) * 8),
			description: fmt.Sprintf("Trade timing too regular (CV=%.2f) - possible automation", cv),
			data: map[string]any{
				"cv":           fmt.Sprintf("%.2f", cv),
				"meanInterval": formatInterval(m),
				"pattern":      "Bot-like regularity",
				"expected":     "CV ~ 1.0 for natural trading",
			},
		}
	}
	if cv > 3 {
		return finding{
			anomalous:   true,
			severity:    clampSeverity((cv - 2) / 1.5),
			description: fmt.Sprintf("Trade timing highly irregular (CV=%.2f) - bursty activity", cv),
			data: map[string]any{
				"cv":           fmt.Sprintf("%.2f", cv),
				"meanInterval": formatInterval(m),
				"pattern":      "Clustered bursts",
				"expected":     "CV ~ 1.0 for natural trading",
			},
		}
	}
	return notAnomalous
}
