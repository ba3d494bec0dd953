package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/kalshiwatch/engine/internal/store"
)

// benfordExpected is the first-digit frequency distribution of naturally
// occurring numeric data.
var benfordExpected = [9]float64{0.301, 0.176, 0.125, 0.097, 0.079, 0.067, 0.058, 0.051, 0.046}

// firstDigit returns the leading decimal digit of a positive integer.
func firstDigit(n int) int {
	for n >= 10 {
		n /= 10
	}
	return n
}

// analyzeBenfordsLaw runs a chi-square goodness-of-fit test of trade-size
// first digits against the Benford distribution. Manufactured size
// schedules (round lots, fixed splits) drift far from it.
func analyzeBenfordsLaw(trades []store.Trade) finding {
	var sizes []int
	for _, t := range trades {
		if t.Count > 0 {
			sizes = append(sizes, t.Count)
		}
	}
	if len(sizes) < 50 {
		return notAnomalous
	}

	var digitCounts [9]int
	for _, size := range sizes {
		d := firstDigit(size)
		if d >= 1 && d <= 9 {
			digitCounts[d-1]++
		}
	}

	total := 0
	for _, c := range digitCounts {
		total += c
	}
	if total == 0 {
		return notAnomalous
	}

	var observed [9]float64
	var chiSquare float64
	for i := 0; i < 9; i++ {
		observed[i] = float64(digitCounts[i]) / float64(total)
		expectedCount := benfordExpected[i] * float64(total)
		diff := float64(digitCounts[i]) - expectedCount
		chiSquare += diff * diff / expectedCount
	}

	// Critical value for df=8 at p=0.01 is 20.09; require a margin past it.
	if chiSquare > 21 {
		return finding{
			anomalous:   true,
			severity:    clampSeverity((chiSquare - 15) / 10),
			description: fmt.Sprintf("Trade sizes violate Benford's Law (chi-square=%.1f, p<0.01)", chiSquare),
			data: map[string]any{
				"chiSquare": fmt.Sprintf("%.1f", chiSquare),
				"topDigits": fmt.Sprintf("1:%.0f%% 2:%.0f%% 3:%.0f%%",
					observed[0]*100, observed[1]*100, observed[2]*100),
				"expected":        "1:30% 2:18% 3:12%",
				"samplesAnalyzed": total,
			},
		}
	}
	return notAnomalous
}

// analyzeVolumePercentile buckets the tape by hour and compares the latest
// hour's volume against the market's own hourly distribution, requiring
// both a high percentile and a high z-score before flagging.
func analyzeVolumePercentile(trades []store.Trade) finding {
	hourlyVolumes := make(map[string]float64)
	for _, t := range trades {
		hour := t.CreatedTime.UTC().Format("2006-01-02T15")
		hourlyVolumes[hour] += countOrOne(t)
	}

	if len(hourlyVolumes) < 4 {
		return notAnomalous
	}

	hours := make([]string, 0, len(hourlyVolumes))
	volumes := make([]float64, 0, len(hourlyVolumes))
	for hour, v := range hourlyVolumes {
		hours = append(hours, hour)
		volumes = append(volumes, v)
	}
	sort.Strings(hours)
	latestVolume := hourlyVolumes[hours[len(hours)-1]]

	percentile := percentileRank(volumes, latestVolume)
	m := mean(volumes)
	sd := stdDev(volumes)
	var zScore float64
	if sd > 0 {
		zScore = (latestVolume - m) / sd
	}

	if percentile > 90 && zScore > 2 {
		return finding{
			anomalous: true,
			severity:  clampSeverity((percentile - 90) / 2),
			description: fmt.Sprintf("Volume in %.0fth percentile (%.1f sd above mean)",
				percentile, zScore),
			data: map[string]any{
				"percentile":    fmt.Sprintf("%.0f%%", percentile),
				"zScore":        fmt.Sprintf("%.2f", zScore),
				"currentVolume": latestVolume,
				"avgVolume":     int(math.Round(m)),
			},
		}
	}
	return notAnomalous
}

// analyzeOrderbookImbalance measures how lopsided resting depth is between
// the YES and NO sides of the book.
func analyzeOrderbookImbalance(book store.OrderBook) finding {
	if len(book.Yes) == 0 && len(book.No) == 0 {
		return notAnomalous
	}

	yesDepth := store.Depth(book.Yes)
	noDepth := store.Depth(book.No)
	totalDepth := yesDepth + noDepth

	// Thin books produce meaningless ratios.
	if totalDepth < 100 {
		return notAnomalous
	}

	imbalance := math.Abs(yesDepth-noDepth) / totalDepth
	dominantSide := "NO"
	if yesDepth > noDepth {
		dominantSide = "YES"
	}

	if imbalance > 0.75 {
		var ratio float64
		if min := math.Min(yesDepth, noDepth); min > 0 {
			ratio = math.Max(yesDepth, noDepth) / min
		}
		return finding{
			anomalous:   true,
			severity:    clampSeverity((imbalance - 0.6) * 8),
			description: fmt.Sprintf("Orderbook %.0f%% skewed to %s", imbalance*100, dominantSide),
			data: map[string]any{
				"imbalance":    fmt.Sprintf("%.0f%%", imbalance*100),
				"dominantSide": dominantSide,
				"yesDepth":     yesDepth,
				"noDepth":      noDepth,
				"ratio":        fmt.Sprintf("%.1f:1", ratio),
			},
		}
	}
	return notAnomalous
}
