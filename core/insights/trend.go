package insights

// Trend is a three-valued classification of a recent-vs-older comparison.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDeclining Trend = "DECLINING"
)

// ClassifyTrend compares a recent aggregate against an older one.
// Deltas within the margin are STABLE; the margin is policy, not physics
// (grades and rates live on different natural scales, see InsightsConfig).
func ClassifyTrend(recent, older, margin float64) Trend {
	switch delta := recent - older; {
	case delta > margin:
		return TrendImproving
	case delta < -margin:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// LinearTrendSlope fits an ordinary least-squares line to the series, treating
// list position as the independent variable. The series is ordered
// most-recent-first (index 0 = most recent sample).
//
// Degenerate inputs (len < 2, constant series) yield slope 0; it never fails.
func LinearTrendSlope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denom
}

// ChronoSlope returns the per-period slope in chronological direction for a
// most-recent-first series. Index 0 is the newest sample, so time runs
// opposite to list position; the sign flips.
func ChronoSlope(series []float64) float64 {
	return -LinearTrendSlope(series)
}
