package insights

import (
	"testing"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
)

func TestCompositeScore(t *testing.T) {
	tests := []struct {
		name       string
		grade      float64
		attendance float64
		gradeW     float64
		attW       float64
		want       int
	}{
		{name: "default weights", grade: 73, attendance: 90, gradeW: 0.6, attW: 0.4, want: 80},
		{name: "group weights", grade: 80, attendance: 60, gradeW: 0.7, attW: 0.3, want: 74},
		{name: "all zero", grade: 0, attendance: 0, gradeW: 0.6, attW: 0.4, want: 0},
		{name: "perfect", grade: 100, attendance: 100, gradeW: 0.6, attW: 0.4, want: 100},
		{name: "rounds half up", grade: 72.5, attendance: 72.5, gradeW: 0.6, attW: 0.4, want: 73},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompositeScore(tt.grade, tt.attendance, tt.gradeW, tt.attW); got != tt.want {
				t.Errorf("CompositeScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreRiskLevel(t *testing.T) {
	tests := []struct {
		score int
		want  Risk
	}{
		{score: 100, want: RiskLow},
		{score: 80, want: RiskLow},
		{score: 79, want: RiskMedium},
		{score: 60, want: RiskMedium},
		{score: 59, want: RiskHigh},
		{score: 0, want: RiskHigh},
	}
	for _, tt := range tests {
		if got := ScoreRiskLevel(tt.score); got != tt.want {
			t.Errorf("ScoreRiskLevel(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestDropoutRisk(t *testing.T) {
	bp := core.NewInsightsConfig().Dropout

	tests := []struct {
		name       string
		attendance float64
		grade      float64
		slope      float64
		want       int
	}{
		{name: "healthy student", attendance: 95, grade: 90, slope: 1, want: 0},
		{name: "low attendance only", attendance: 65, grade: 90, slope: 1, want: 30},
		{name: "warn attendance only", attendance: 80, grade: 90, slope: 1, want: 15},
		{name: "low grade only", attendance: 95, grade: 50, slope: 1, want: 25},
		{name: "warn grade only", attendance: 95, grade: 70, slope: 1, want: 10},
		{name: "steep decline only", attendance: 95, grade: 90, slope: -3, want: 20},
		{name: "mild decline only", attendance: 95, grade: 90, slope: -1, want: 10},
		{name: "worst case capped contributions", attendance: 10, grade: 10, slope: -10, want: 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DropoutRisk(tt.attendance, tt.grade, tt.slope, bp)
			if got != tt.want {
				t.Errorf("DropoutRisk() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("DropoutRisk() = %v, out of [0, 100]", got)
			}
		})
	}
}

// Dropout risk never decreases as attendance drops, holding grade and slope fixed.
func TestDropoutRiskMonotoneInAttendance(t *testing.T) {
	bp := core.NewInsightsConfig().Dropout

	prev := -1
	for rateVal := 100; rateVal >= 0; rateVal-- {
		risk := DropoutRisk(float64(rateVal), 72, -1.5, bp)
		if risk < prev {
			t.Fatalf("DropoutRisk decreased from %d to %d at attendance %d", prev, risk, rateVal)
		}
		if risk < 0 || risk > 100 {
			t.Fatalf("DropoutRisk(%d) = %d, out of [0, 100]", rateVal, risk)
		}
		prev = risk
	}
}

func TestExpectedNextValue(t *testing.T) {
	tests := []struct {
		name       string
		mostRecent float64
		slope      float64
		lookahead  int
		want       int
	}{
		{name: "steady", mostRecent: 70, slope: 0, lookahead: 3, want: 70},
		{name: "improving", mostRecent: 70, slope: 2, lookahead: 3, want: 76},
		{name: "declining", mostRecent: 70, slope: -4, lookahead: 3, want: 58},
		{name: "clamped high", mostRecent: 95, slope: 5, lookahead: 3, want: 100},
		{name: "clamped low", mostRecent: 5, slope: -10, lookahead: 3, want: 0},
		{name: "empty series fallback", mostRecent: 0, slope: 0, lookahead: 3, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpectedNextValue(tt.mostRecent, tt.slope, tt.lookahead); got != tt.want {
				t.Errorf("ExpectedNextValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleConfidence(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{n: 0, want: ConfidenceLow},
		{n: 2, want: ConfidenceLow},
		{n: 3, want: ConfidenceMedium},
		{n: 5, want: ConfidenceMedium},
		{n: 6, want: ConfidenceHigh},
		{n: 12, want: ConfidenceHigh},
	}
	for _, tt := range tests {
		if got := sampleConfidence(tt.n); got != tt.want {
			t.Errorf("sampleConfidence(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestRateF(t *testing.T) {
	tests := []struct {
		part  int
		total int
		want  float64
	}{
		{part: 9, total: 10, want: 90},
		{part: 0, total: 0, want: 0},
		{part: 3, total: 4, want: 75},
		{part: 3, total: 3, want: 100},
	}
	for _, tt := range tests {
		if got := rateF(tt.part, tt.total); got != tt.want {
			t.Errorf("rateF(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}
