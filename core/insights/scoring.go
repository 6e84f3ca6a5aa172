package insights

import (
	"math"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
)

// Risk is a three-valued disengagement risk bucket.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// Confidence labels for projections, chosen by data volume.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// CompositeScore blends a grade aggregate and an attendance rate into a single
// 0-100 score. Weights are caller policy (student insight 0.6/0.4, group
// member ranking 0.7/0.3).
func CompositeScore(grade, attendanceRate, gradeWeight, attendanceWeight float64) int {
	return clampScore(math.Round(grade*gradeWeight + attendanceRate*attendanceWeight))
}

// ScoreRiskLevel buckets a composite score.
func ScoreRiskLevel(score int) Risk {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// DropoutRisk estimates disengagement likelihood with an additive point
// system. Attendance is deliberately the strongest predictor (30 max points),
// then grades (25), then the grade trend slope (20). trendSlope is
// chronological: negative means declining.
func DropoutRisk(attendanceRate, avgGrade, trendSlope float64, bp core.DropoutBreakpoints) int {
	var risk int

	switch {
	case attendanceRate < bp.AttendanceCritical:
		risk += bp.AttendanceCriticalPts
	case attendanceRate < bp.AttendanceWarn:
		risk += bp.AttendanceWarnPts
	}

	switch {
	case avgGrade < bp.GradeCritical:
		risk += bp.GradeCriticalPts
	case avgGrade < bp.GradeWarn:
		risk += bp.GradeWarnPts
	}

	switch {
	case trendSlope < bp.SlopeCritical:
		risk += bp.SlopeCriticalPts
	case trendSlope < bp.SlopeWarn:
		risk += bp.SlopeWarnPts
	}

	if risk > 100 {
		risk = 100
	}
	return risk
}

// ExpectedNextValue projects a series lookaheadSteps periods ahead of its most
// recent value, clamped into [0, 100]. An empty series projects to 0
// (callers pass mostRecent 0, slope 0).
func ExpectedNextValue(mostRecent, slope float64, lookaheadSteps int) int {
	return clampScore(math.Round(mostRecent + slope*float64(lookaheadSteps)))
}

// sampleConfidence maps sample count to a projection confidence label.
func sampleConfidence(n int) string {
	switch {
	case n < 3:
		return ConfidenceLow
	case n < 6:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

// meanScore averages the non-null scores of a performance window.
// Returns (0, 0) for an empty or all-ungraded window.
func meanScore(recs []performanceSample) (avg float64, graded int) {
	var sum float64
	for _, r := range recs {
		if r.graded {
			sum += r.score
			graded++
		}
	}
	if graded == 0 {
		return 0, 0
	}
	return sum / float64(graded), graded
}

// rateF returns the percentage part/total, 0 when total is 0. Kept unrounded
// for trend comparison and alerting math; presentation rounds at the edge.
func rateF(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

type performanceSample struct {
	score  float64
	graded bool
}
