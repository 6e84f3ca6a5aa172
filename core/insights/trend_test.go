package insights

import (
	"math"
	"testing"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		recent float64
		older  float64
		margin float64
		want   Trend
	}{
		{name: "well above margin", recent: 90, older: 70, margin: 5, want: TrendImproving},
		{name: "well below margin", recent: 60, older: 80, margin: 5, want: TrendDeclining},
		{name: "within margin", recent: 82, older: 80, margin: 5, want: TrendStable},
		{name: "exactly at margin is stable", recent: 85, older: 80, margin: 5, want: TrendStable},
		{name: "exactly at negative margin is stable", recent: 75, older: 80, margin: 5, want: TrendStable},
		{name: "just past margin", recent: 85.5, older: 80, margin: 5, want: TrendImproving},
		{name: "rate margin wider", recent: 88, older: 80, margin: 10, want: TrendStable},
		{name: "both zero", recent: 0, older: 0, margin: 5, want: TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.recent, tt.older, tt.margin); got != tt.want {
				t.Errorf("ClassifyTrend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinearTrendSlope(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{name: "empty", series: nil, want: 0},
		{name: "single sample", series: []float64{42}, want: 0},
		{name: "constant", series: []float64{70, 70, 70, 70}, want: 0},
		// arithmetic series with common chronological difference d has
		// slope -d in most-recent-first order
		{name: "rising by 2 per period", series: []float64{70, 68, 66, 64, 62, 60}, want: -2},
		{name: "falling by 5 per period", series: []float64{50, 55, 60, 65}, want: 5},
		{name: "two samples", series: []float64{80, 70}, want: -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinearTrendSlope(tt.series); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LinearTrendSlope() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinearTrendSlopeShortSeriesIsZero(t *testing.T) {
	for _, series := range [][]float64{nil, {}, {13.5}} {
		if got := LinearTrendSlope(series); got != 0 {
			t.Errorf("LinearTrendSlope(%v) = %v, want 0", series, got)
		}
	}
}

func TestChronoSlope(t *testing.T) {
	// a student whose grades rose 60 -> 70 should have a positive
	// chronological slope
	series := []float64{70, 68, 66, 64, 62, 60} // most-recent-first
	if got := ChronoSlope(series); math.Abs(got-2) > 1e-9 {
		t.Errorf("ChronoSlope() = %v, want 2", got)
	}
}
