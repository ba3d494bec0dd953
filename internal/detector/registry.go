package detector

// Signal IDs. The string values are part of the report wire format.
const (
	SignalPreEventSurge         = "PRE_EVENT_SURGE"
	SignalTimingEntropy         = "TIMING_ENTROPY"
	SignalTradeClustering       = "TRADE_CLUSTERING"
	SignalOrderFlowToxicity     = "ORDER_FLOW_TOXICITY"
	SignalDirectionalConviction = "DIRECTIONAL_CONVICTION"
	SignalRunLength             = "RUN_LENGTH"
	SignalPriceLeadership       = "PRICE_LEADERSHIP"
	SignalPriceImpact           = "PRICE_IMPACT"
	SignalPriceVelocity         = "PRICE_VELOCITY"
	SignalLargeBlocks           = "LARGE_BLOCKS"
	SignalSpreadCrossing        = "SPREAD_CROSSING"
	SignalBenfordsLaw           = "BENFORDS_LAW"
	SignalVolumeAnomaly         = "VOLUME_ANOMALY"
	SignalOrderbookImbalance    = "ORDERBOOK_IMBALANCE"
)

// Signal categories.
const (
	CategoryTiming      = "Timing"
	CategoryOrderFlow   = "Order Flow"
	CategoryPrice       = "Price"
	CategorySize        = "Size"
	CategoryStatistical = "Statistical"
)

// Definition is the static metadata for one detection signal.
type Definition struct {
	ID          string
	Category    string
	Weight      int
	Name        string
	Explanation string
	Threshold   string
	Citation    string
}

// Definitions lists all signals in evaluation order. The table is read-only
// reference data: weights drive scoring and the metadata drives reporting.
var Definitions = []Definition{
	{
		ID:          SignalPreEventSurge,
		Category:    CategoryTiming,
		Weight:      18,
		Name:        "Pre-Event Volume Surge",
		Explanation: "Measures unusual increase in trading activity as event approaches. Informed traders often concentrate activity near resolution when their edge is most valuable.",
		Threshold:   "Volume in final period > 3x baseline average",
		Citation:    "Kyle (1985) - Informed traders trade more aggressively near information revelation",
	},
	{
		ID:          SignalTimingEntropy,
		Category:    CategoryTiming,
		Weight:      12,
		Name:        "Trade Timing Entropy",
		Explanation: "Shannon entropy of inter-trade arrival times. Natural trading has high entropy (random). Coordinated or automated trading shows low entropy (predictable patterns).",
		Threshold:   "Normalized entropy < 35%",
		Citation:    "Easley et al. (2012) - Flow Toxicity and Liquidity",
	},
	{
		ID:          SignalTradeClustering,
		Category:    CategoryTiming,
		Weight:      10,
		Name:        "Temporal Clustering",
		Explanation: "Coefficient of variation of trade intervals. CV ~ 1 for Poisson (random) arrivals. CV < 0.5 suggests automation, CV > 3 suggests burst trading.",
		Threshold:   "CV < 0.4 or CV > 3.0",
		Citation:    "Market microstructure - Poisson arrival assumption",
	},
	{
		ID:          SignalOrderFlowToxicity,
		Category:    CategoryOrderFlow,
		Weight:      15,
		Name:        "VPIN (Order Flow Toxicity)",
		Explanation: "Volume-Synchronized Probability of Informed Trading. Measures order flow imbalance in volume buckets. High VPIN indicates likely presence of informed traders.",
		Threshold:   "VPIN > 50%",
		Citation:    "Easley, Lopez de Prado, O'Hara (2012) - The Volume Clock",
	},
	{
		ID:          SignalDirectionalConviction,
		Category:    CategoryOrderFlow,
		Weight:      14,
		Name:        "Directional Conviction",
		Explanation: "Combined volume AND value skew in one direction. Strong conviction occurs when both trade count and dollar value are heavily one-sided.",
		Threshold:   "Volume imbalance > 55% AND Value imbalance > 60%",
		Citation:    "Informed traders show strong directional preference",
	},
	{
		ID:          SignalRunLength,
		Category:    CategoryOrderFlow,
		Weight:      10,
		Name:        "Consecutive Trade Runs",
		Explanation: "Maximum length of same-direction trades vs expected. For random 50/50, expected max run ~ log2(n). Long runs suggest coordinated one-sided pressure.",
		Threshold:   "Max run > 2.5x expected",
		Citation:    "Wald-Wolfowitz runs test for randomness",
	},
	{
		ID:          SignalPriceLeadership,
		Category:    CategoryPrice,
		Weight:      16,
		Name:        "Price Discovery Leadership",
		Explanation: "Measures how often trades correctly predict subsequent price direction. Consistently accurate predictions suggest informed trading.",
		Threshold:   "Leadership rate > 58%",
		Citation:    "Hasbrouck (1991) - Price discovery and information shares",
	},
	{
		ID:          SignalPriceImpact,
		Category:    CategoryPrice,
		Weight:      8,
		Name:        "Abnormal Price Impact",
		Explanation: "Kyle's Lambda - price change per unit volume. Abnormally high impact suggests thin liquidity exploitation or aggressive informed trading.",
		Threshold:   "Max impact > 10x median",
		Citation:    "Kyle (1985) - Continuous auctions and insider trading",
	},
	{
		ID:          SignalPriceVelocity,
		Category:    CategoryPrice,
		Weight:      8,
		Name:        "Rapid Price Movement",
		Explanation: "Price velocity relative to historical baseline. Rapid directional moves may indicate information being incorporated.",
		Threshold:   "Velocity > 95th percentile AND z-score > 2",
		Citation:    "Efficient Market Hypothesis - information incorporation speed",
	},
	{
		ID:          SignalLargeBlocks,
		Category:    CategorySize,
		Weight:      10,
		Name:        "Outsized Block Trades",
		Explanation: "Trades significantly larger than typical. Informed traders with high conviction often trade in larger sizes to maximize edge.",
		Threshold:   "> 3% of trades above P99 OR max > 10x average",
		Citation:    "Barclay & Warner (1993) - Stealth trading hypothesis",
	},
	{
		ID:          SignalSpreadCrossing,
		Category:    CategorySize,
		Weight:      12,
		Name:        "Aggressive Spread Crossing",
		Explanation: "Measures willingness to pay adverse prices (cross spread). Informed traders accept worse prices because they expect larger moves.",
		Threshold:   "> 25% of trades cross > 40% of spread",
		Citation:    "Glosten & Milgrom (1985) - Bid-ask spread as adverse selection",
	},
	{
		ID:          SignalBenfordsLaw,
		Category:    CategoryStatistical,
		Weight:      6,
		Name:        "Benford's Law Violation",
		Explanation: "Natural data follows Benford's distribution for first digits (1=30.1%, 2=17.6%, etc.). Manufactured or manipulated trade sizes often violate this.",
		Threshold:   "Chi-square > 21 (p < 0.01)",
		Citation:    "Benford (1938) - First digit phenomenon",
	},
	{
		ID:          SignalVolumeAnomaly,
		Category:    CategoryStatistical,
		Weight:      10,
		Name:        "Volume Anomaly",
		Explanation: "Current volume vs historical distribution for this market. Uses percentile ranking and z-score for double confirmation.",
		Threshold:   "> 90th percentile AND z-score > 2",
		Citation:    "Standard statistical anomaly detection",
	},
	{
		ID:          SignalOrderbookImbalance,
		Category:    CategoryStatistical,
		Weight:      6,
		Name:        "Order Book Skew",
		Explanation: "Imbalance between bid depth on YES vs NO side. Extreme imbalance may indicate informed positioning.",
		Threshold:   "Imbalance > 75%",
		Citation:    "Cao et al. (2009) - Order book imbalance and price prediction",
	},
}

// definitionsByID indexes the registry for metadata lookup.
var definitionsByID = func() map[string]Definition {
	m := make(map[string]Definition, len(Definitions))
	for _, d := range Definitions {
		m[d.ID] = d
	}
	return m
}()

// Lookup returns the definition for a signal ID.
func Lookup(id string) (Definition, bool) {
	d, ok := definitionsByID[id]
	return d, ok
}

// TotalWeight is the sum of all signal weights, the denominator when
// normalizing the weighted score to 0-100.
func TotalWeight() int {
	total := 0
	for _, d := range Definitions {
		total += d.Weight
	}
	return total
}
