package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/kalshiwatch/engine/internal/store"
)

// analyzeLargeBlocks flags tapes with an excess of extreme-size trades:
// either more than 3% of trades above the tape's own 99th percentile
// (random data puts 1% there) or a single trade dwarfing the average.
func analyzeLargeBlocks(trades []store.Trade) finding {
	var sizes []float64
	for _, t := range trades {
		if t.Count > 0 {
			sizes = append(sizes, float64(t.Count))
		}
	}
	if len(sizes) < 15 {
		return notAnomalous
	}

	ranked := make([]float64, len(sizes))
	copy(ranked, sizes)
	sort.Float64s(ranked)
	p99 := ranked[int(float64(len(ranked))*0.99)]
	max := ranked[len(ranked)-1]
	avg := mean(sizes)

	extremeTrades := 0
	for _, s := range sizes {
		if s > p99 {
			extremeTrades++
		}
	}
	extremeRatio := float64(extremeTrades) / float64(len(sizes))

	if extremeRatio > 0.03 || max > avg*10 {
		plural := ""
		if extremeTrades != 1 {
			plural = "s"
		}
		return finding{
			anomalous: true,
			severity:  clampSeverity(math.Max(extremeRatio*50, (max/avg-5)/2)),
			description: fmt.Sprintf("%d outlier trade%s (%.1f%% above P99)",
				extremeTrades, plural, extremeRatio*100),
			data: map[string]any{
				"extremeTrades": extremeTrades,
				"p99Threshold":  p99,
				"maxTrade":      max,
				"avgTrade":      int(math.Round(avg)),
				"ratio":         fmt.Sprintf("%.1fx avg", max/avg),
			},
		}
	}
	return notAnomalous
}

// analyzeSpreadCrossing estimates the spread from the top of the book (YES
// bid vs the ask implied by the best NO bid) and measures how much of the
// tape executed far from the midpoint. Informed traders pay up to get
// filled.
func analyzeSpreadCrossing(trades []store.Trade, book store.OrderBook) finding {
	if len(trades) < 20 {
		return notAnomalous
	}
	if len(book.Yes) == 0 && len(book.No) == 0 {
		return notAnomalous
	}

	var bestYesBid, bestNoBid float64
	if len(book.Yes) > 0 {
		bestYesBid = book.Yes[0].Price()
	}
	if len(book.No) > 0 {
		bestNoBid = book.No[0].Price()
	}

	impliedYesAsk := 100 - bestNoBid
	spread := impliedYesAsk - bestYesBid
	if spread <= 0 {
		return notAnomalous
	}
	midPrice := (bestYesBid + impliedYesAsk) / 2

	aggressiveTrades := 0
	var aggressiveVolume, totalVolume float64
	for _, t := range trades {
		volume := countOrOne(t)
		totalVolume += volume

		// Book levels are in cents, trade prices normalized.
		deviation := math.Abs(t.YesPrice*100 - midPrice)
		if deviation > spread*0.4 {
			aggressiveTrades++
			aggressiveVolume += volume
		}
	}

	aggressiveRatio := float64(aggressiveTrades) / float64(len(trades))
	aggressiveVolumeRatio := aggressiveVolume / totalVolume

	if aggressiveRatio > 0.25 && aggressiveVolumeRatio > 0.3 {
		return finding{
			anomalous:   true,
			severity:    clampSeverity(aggressiveRatio * 8),
			description: fmt.Sprintf("%.0f%% of trades crossed spread aggressively", aggressiveRatio*100),
			data: map[string]any{
				"aggressiveTrades":      aggressiveTrades,
				"aggressiveRatio":       fmt.Sprintf("%.0f%%", aggressiveRatio*100),
				"aggressiveVolumeRatio": fmt.Sprintf("%.0f%%", aggressiveVolumeRatio*100),
				"estimatedSpread":       fmt.Sprintf("%.0f cents", spread),
			},
		}
	}
	return notAnomalous
}
