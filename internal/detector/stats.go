package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/kalshiwatch/engine/internal/store"
)

// sortedByTime returns a copy of the trades in chronological order. The
// input slice is never mutated.
func sortedByTime(trades []store.Trade) []store.Trade {
	out := make([]store.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedTime.Before(out[j].CreatedTime)
	})
	return out
}

// tradeIntervals returns the positive inter-trade gaps of a chronologically
// sorted tape, in milliseconds.
func tradeIntervals(sorted []store.Trade) []float64 {
	intervals := make([]float64, 0, len(sorted))
	for i := 1; i < len(sorted); i++ {
		gap := float64(sorted[i].CreatedTime.Sub(sorted[i-1].CreatedTime).Milliseconds())
		if gap > 0 {
			intervals = append(intervals, gap)
		}
	}
	return intervals
}

// countOrOne treats zero-size trades as one contract so that volume ratios
// stay defined on sparse tapes.
func countOrOne(t store.Trade) float64 {
	if t.Count > 0 {
		return float64(t.Count)
	}
	return 1
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// percentileRank returns the percentage of values less than or equal to v.
func percentileRank(xs []float64, v float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	rank := 0
	for _, x := range xs {
		if x <= v {
			rank++
		}
	}
	return float64(rank) / float64(len(xs)) * 100
}

// clampSeverity maps a raw severity value onto the 1-5 scale via ceiling.
func clampSeverity(x float64) int {
	s := int(math.Ceil(x))
	if s < 1 {
		s = 1
	}
	if s > 5 {
		s = 5
	}
	return s
}

// formatInterval renders a millisecond duration for human-readable output.
func formatInterval(ms float64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%.0fms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", ms/1000)
	case ms < 3_600_000:
		return fmt.Sprintf("%.1fmin", ms/60_000)
	default:
		return fmt.Sprintf("%.1fhr", ms/3_600_000)
	}
}
