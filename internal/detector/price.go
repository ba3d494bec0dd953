package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/kalshiwatch/engine/internal/store"
)

// analyzePriceLeadership measures how often a trade's direction correctly
// predicts the price a fixed number of trades later. Rates consistently
// above coin-flip suggest the flow is informed.
func analyzePriceLeadership(trades []store.Trade) finding {
	if len(trades) < 30 {
		return notAnomalous
	}

	sorted := sortedByTime(trades)
	lookAhead := len(trades) / 10
	if lookAhead > 10 {
		lookAhead = 10
	}

	correct, total := 0, 0
	for i := 0; i < len(sorted)-lookAhead; i++ {
		current := sorted[i].YesPrice
		future := sorted[i+lookAhead].YesPrice
		if current == 0 || future == 0 {
			continue
		}

		direction := -1.0
		if sorted[i].TakerSide == store.SideYes {
			direction = 1.0
		}
		move := future - current

		// Only count meaningful moves (more than one cent).
		if math.Abs(move) > 0.01 {
			total++
			if direction*move > 0 {
				correct++
			}
		}
	}

	if total < 15 {
		return notAnomalous
	}

	rate := float64(correct) / float64(total)
	if rate > 0.58 {
		return finding{
			anomalous: true,
			severity:  clampSeverity((rate - 0.5) * 15),
			description: fmt.Sprintf("%.0f%% of trades predicted subsequent %d-trade price direction",
				rate*100, lookAhead),
			data: map[string]any{
				"leadershipRate":     fmt.Sprintf("%.0f%%", rate*100),
				"correctPredictions": correct,
				"totalPredictions":   total,
				"lookAhead":          fmt.Sprintf("%d trades", lookAhead),
				"vsRandom":           fmt.Sprintf("%.0f%% above random", (rate-0.5)*100),
			},
		}
	}
	return notAnomalous
}

// analyzePriceImpact estimates Kyle's Lambda per trade (absolute price
// change divided by contracts traded) and flags tapes where the largest
// impact dwarfs the median, a sign of thin-liquidity exploitation.
func analyzePriceImpact(trades []store.Trade) finding {
	if len(trades) < 20 {
		return notAnomalous
	}

	sorted := sortedByTime(trades)
	var impacts []float64
	for i := 1; i < len(sorted); i++ {
		priceChange := math.Abs(sorted[i].YesPrice - sorted[i-1].YesPrice)
		volume := countOrOne(sorted[i])
		if volume > 0 && priceChange > 0 {
			impacts = append(impacts, priceChange/volume)
		}
	}

	if len(impacts) < 10 {
		return notAnomalous
	}

	ranked := make([]float64, len(impacts))
	copy(ranked, impacts)
	sort.Float64s(ranked)
	median := ranked[len(ranked)/2]
	max := ranked[len(ranked)-1]

	impactRatio := max / median

	// Floor of 0.1 cents per contract filters pure noise.
	if impactRatio > 10 && max > 0.001 {
		return finding{
			anomalous:   true,
			severity:    clampSeverity(impactRatio / 5),
			description: fmt.Sprintf("Abnormal price impact detected (%.0fx median)", impactRatio),
			data: map[string]any{
				"maxImpact":      fmt.Sprintf("%.2f cents/contract", max*100),
				"medianImpact":   fmt.Sprintf("%.2f cents/contract", median*100),
				"impactRatio":    fmt.Sprintf("%.1fx", impactRatio),
				"interpretation": "Possible liquidity exploitation",
			},
		}
	}
	return notAnomalous
}

// analyzePriceVelocity ranks the latest 10-trade rolling price velocity
// against the tape's own rolling history, requiring both an extreme
// percentile and an extreme z-score before flagging.
func analyzePriceVelocity(trades []store.Trade) finding {
	if len(trades) < 15 {
		return notAnomalous
	}

	sorted := sortedByTime(trades)
	var velocities []float64
	for i := 10; i < len(sorted); i++ {
		window := sorted[i-10 : i]
		priceChange := math.Abs(window[len(window)-1].YesPrice - window[0].YesPrice)
		span := window[len(window)-1].CreatedTime.Sub(window[0].CreatedTime).Hours()
		if span > 0.01 { // at least ~36 seconds
			velocities = append(velocities, priceChange/span)
		}
	}

	if len(velocities) < 5 {
		return notAnomalous
	}

	current := velocities[len(velocities)-1]
	percentile := percentileRank(velocities, current)

	m := mean(velocities)
	sd := stdDev(velocities)
	var zScore float64
	if sd > 0 {
		zScore = (current - m) / sd
	}

	if percentile > 95 && zScore > 2 {
		return finding{
			anomalous: true,
			severity:  clampSeverity((percentile - 90) / 2),
			description: fmt.Sprintf("Price velocity at %.0fth percentile (%.1f cents/hr)",
				percentile, current*100),
			data: map[string]any{
				"percentile":  fmt.Sprintf("%.0f%%", percentile),
				"velocity":    fmt.Sprintf("%.1f cents/hr", current*100),
				"zScore":      fmt.Sprintf("%.2f", zScore),
				"avgVelocity": fmt.Sprintf("%.1f cents/hr", m*100),
			},
		}
	}
	return notAnomalous
}
