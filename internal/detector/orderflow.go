package detector

import (
	"fmt"
	"math"

	"github.com/kalshiwatch/engine/internal/store"
)

// analyzeOrderFlowToxicity computes VPIN: average yes/no volume imbalance
// across sequential fixed-volume buckets. Persistent one-sided buckets are
// the signature of informed flow.
func (a *Analyzer) analyzeOrderFlowToxicity(trades []store.Trade) finding {
	if len(trades) < 30 {
		return notAnomalous
	}

	var totalVolume float64
	for _, t := range trades {
		totalVolume += countOrOne(t)
	}

	bucketVolume := totalVolume * a.params.VPINBucketFraction
	if bucketVolume < 10 {
		return notAnomalous
	}

	var yes, no, bucketTotal float64
	var imbalances []float64
	for _, t := range trades {
		volume := countOrOne(t)
		isYes := t.TakerSide == store.SideYes
		if isYes {
			yes += volume
		} else {
			no += volume
		}
		bucketTotal += volume

		for bucketTotal >= bucketVolume {
			overflow := bucketTotal - bucketVolume
			imbalances = append(imbalances, math.Abs(yes-no)/bucketTotal)

			// Overflow seeds the next bucket on the side of the trade that
			// filled this one.
			yes, no = 0, 0
			if isYes {
				yes = overflow
			} else {
				no = overflow
			}
			bucketTotal = overflow
		}
	}

	if len(imbalances) < 5 {
		return notAnomalous
	}

	vpin := mean(imbalances)
	if vpin > 0.5 {
		interpretation := "High - possibly informed"
		if vpin > 0.7 {
			interpretation = "Very high - likely informed"
		}
		return finding{
			anomalous:   true,
			severity:    clampSeverity((vpin - 0.3) * 7),
			description: fmt.Sprintf("High order flow toxicity (VPIN=%.0f%%)", vpin*100),
			data: map[string]any{
				"vpin":            fmt.Sprintf("%.0f%%", vpin*100),
				"bucketsAnalyzed": len(imbalances),
				"interpretation":  interpretation,
			},
		}
	}
	return notAnomalous
}

// analyzeDirectionalConviction flags tapes where both contract volume and
// dollar value are heavily skewed to one side. Either alone is common; both
// together suggests conviction rather than noise.
func analyzeDirectionalConviction(trades []store.Trade) finding {
	if len(trades) < 20 {
		return notAnomalous
	}

	var yesVolume, noVolume, yesValue, noValue float64
	for _, t := range trades {
		volume := countOrOne(t)
		price := t.YesPrice
		if price == 0 {
			price = 0.5
		}
		if t.TakerSide == store.SideYes {
			yesVolume += volume
			yesValue += volume * price
		} else {
			noVolume += volume
			noValue += volume * (1 - price)
		}
	}

	totalVolume := yesVolume + noVolume
	totalValue := yesValue + noValue
	if totalVolume == 0 || totalValue == 0 {
		return notAnomalous
	}

	volumeImbalance := math.Abs(yesVolume-noVolume) / totalVolume
	valueImbalance := math.Abs(yesValue-noValue) / totalValue

	if volumeImbalance > 0.55 && valueImbalance > 0.60 {
		direction := "NO"
		if yesVolume > noVolume {
			direction = "YES"
		}
		combined := (volumeImbalance + valueImbalance) / 2
		return finding{
			anomalous: true,
			severity:  clampSeverity((combined - 0.5) * 8),
			description: fmt.Sprintf("Strong %s conviction: %.0f%% volume, %.0f%% value",
				direction, volumeImbalance*100, valueImbalance*100),
			data: map[string]any{
				"direction":       direction,
				"volumeImbalance": fmt.Sprintf("%.0f%%", volumeImbalance*100),
				"valueImbalance":  fmt.Sprintf("%.0f%%", valueImbalance*100),
				"yesVolume":       yesVolume,
				"noVolume":        noVolume,
			},
		}
	}
	return notAnomalous
}

// analyzeRunLength applies a runs test to the taker-side sequence. For a
// random 50/50 tape the longest same-direction run is about log2(n)+1 and
// the run count about n/2; long runs or too few direction changes indicate
// coordinated one-sided pressure.
func analyzeRunLength(trades []store.Trade) finding {
	if len(trades) < 20 {
		return notAnomalous
	}

	var runs []int
	currentRun := 1
	for i := 1; i < len(trades); i++ {
		if (trades[i].TakerSide == store.SideYes) == (trades[i-1].TakerSide == store.SideYes) {
			currentRun++
		} else {
			runs = append(runs, currentRun)
			currentRun = 1
		}
	}
	runs = append(runs, currentRun)

	maxRun := 0
	sumRuns := 0
	for _, r := range runs {
		sumRuns += r
		if r > maxRun {
			maxRun = r
		}
	}
	avgRun := float64(sumRuns) / float64(len(runs))

	expectedMaxRun := math.Log2(float64(len(trades))) + 1
	expectedNumRuns := float64(len(trades)) / 2

	maxRunRatio := float64(maxRun) / expectedMaxRun
	runCountRatio := float64(len(runs)) / expectedNumRuns

	if maxRunRatio > 2.5 || runCountRatio < 0.4 {
		issue := "too few direction changes"
		if maxRunRatio > 2.5 {
			issue = "long consecutive run"
		}
		return finding{
			anomalous:   true,
			severity:    clampSeverity(math.Max(maxRunRatio-1.5, (0.5-runCountRatio)*5)),
			description: fmt.Sprintf("Suspicious %s: %d consecutive same-direction trades", issue, maxRun),
			data: map[string]any{
				"maxRun":         maxRun,
				"expectedMaxRun": int(math.Round(expectedMaxRun)),
				"totalRuns":      len(runs),
				"avgRunLength":   fmt.Sprintf("%.1f", avgRun),
			},
		}
	}
	return notAnomalous
}
