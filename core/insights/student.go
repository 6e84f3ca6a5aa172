package insights

import (
	"context"
	"time"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
)

var nowFunc = time.Now // mockable

type (
	// StudentTrends carries the windowed trend classifications of one student.
	StudentTrends struct {
		Grade       Trend `json:"grade"`
		Attendance  Trend `json:"attendance"`
		Performance Trend `json:"performance"` // combined
	}

	// StudentInsight is the per-student snapshot. Immutable; produced fresh on
	// every call and owned by the caller.
	StudentInsight struct {
		StudentID       string        `json:"student_id"`
		StudentName     string        `json:"student_name"`
		OverallScore    int           `json:"overall_score"`
		AverageGrade    int           `json:"average_grade"`
		AttendanceRate  int           `json:"attendance_rate"`
		Strengths       []string      `json:"strengths"`
		Weaknesses      []string      `json:"weaknesses"`
		Recommendations []string      `json:"recommendations"`
		RiskLevel       Risk          `json:"risk_level"`
		Trends          StudentTrends `json:"trends"`
		GeneratedAt     time.Time     `json:"generated_at"`
	}

	// StudentProjection is the short-horizon predictive snapshot.
	StudentProjection struct {
		StudentID         string    `json:"student_id"`
		DropoutRisk       int       `json:"dropout_risk"`
		RiskLevel         Risk      `json:"risk_level"`
		ExpectedNextScore int       `json:"expected_next_score"`
		Confidence        string    `json:"confidence"`
		GeneratedAt       time.Time `json:"generated_at"`
	}

	// StudentService generates per-student insights.
	StudentService struct {
		ds     Datastore
		conf   core.InsightsConfig
		logger core.Logger
	}
)

func NewStudentService(ds Datastore, conf core.InsightsConfig, logger core.Logger) *StudentService {
	return &StudentService{ds: ds, conf: conf, logger: logger}
}

// Insight computes the insight snapshot for one student.
// Unknown id yields ErrNotFound; a failing datastore yields ErrUnavailable.
// Neither is exceptional for callers.
func (svc *StudentService) Insight(ctx context.Context, id string) (StudentInsight, error) {
	stu, err := svc.ds.GetStudent(ctx, id)
	if err != nil {
		return StudentInsight{}, svc.fail("getting student", err)
	}

	perf, err := svc.ds.PerformanceRecords(ctx, id, svc.conf.PerformanceWindow)
	if err != nil {
		return StudentInsight{}, svc.fail("querying performance records", err)
	}
	att, err := svc.ds.AttendanceRecords(ctx, id, svc.conf.AttendanceWindow)
	if err != nil {
		return StudentInsight{}, svc.fail("querying attendance records", err)
	}

	var overdue bool
	if svc.ds.Capabilities().Payments {
		payments, err := svc.ds.PaymentRecords(ctx, id)
		if err != nil {
			return StudentInsight{}, svc.fail("querying payment records", err)
		}
		now := nowFunc().UTC()
		for _, p := range payments {
			if p.IsOverdue(now) {
				overdue = true
				break
			}
		}
	}

	samples := toSamples(perf)
	avgGrade, _ := meanScore(samples)
	attRate := attendanceRateF(att, svc.conf.LateCountsAsPresent)

	trends := svc.classifyStudentTrends(samples, att)
	overall := CompositeScore(avgGrade, attRate, svc.conf.GradeWeight, svc.conf.AttendanceWeight)

	ins := StudentInsight{
		StudentID:       stu.ID,
		StudentName:     stu.Name,
		OverallScore:    overall,
		AverageGrade:    clampScore(roundHalfUp(avgGrade)),
		AttendanceRate:  clampScore(roundHalfUp(attRate)),
		RiskLevel:       ScoreRiskLevel(overall),
		Trends:          trends,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
		GeneratedAt:     nowFunc().UTC(),
	}
	svc.applyRules(&ins, avgGrade, attRate, overdue)
	return ins, nil
}

// Projection computes the predictive risk snapshot for one student:
// dropout risk points plus the expected grade a few periods ahead.
func (svc *StudentService) Projection(ctx context.Context, id string) (StudentProjection, error) {
	if _, err := svc.ds.GetStudent(ctx, id); err != nil {
		return StudentProjection{}, svc.fail("getting student", err)
	}

	perf, err := svc.ds.PerformanceRecords(ctx, id, svc.conf.PerformanceWindow)
	if err != nil {
		return StudentProjection{}, svc.fail("querying performance records", err)
	}
	att, err := svc.ds.AttendanceRecords(ctx, id, svc.conf.AttendanceWindow)
	if err != nil {
		return StudentProjection{}, svc.fail("querying attendance records", err)
	}

	samples := toSamples(perf)
	avgGrade, graded := meanScore(samples)
	attRate := attendanceRateF(att, svc.conf.LateCountsAsPresent)

	series := gradeSeries(samples) // most-recent-first
	slope := ChronoSlope(series)

	var mostRecent float64
	if len(series) > 0 {
		mostRecent = series[0]
	}

	risk := DropoutRisk(attRate, avgGrade, slope, svc.conf.Dropout)
	return StudentProjection{
		StudentID:         id,
		DropoutRisk:       risk,
		RiskLevel:         dropoutRiskLevel(risk),
		ExpectedNextScore: ExpectedNextValue(mostRecent, slope, svc.conf.LookaheadPeriods),
		Confidence:        sampleConfidence(graded),
		GeneratedAt:       nowFunc().UTC(),
	}, nil
}

// classifyStudentTrends splits the windows by recency: grades into halves of
// 5, attendance into halves of 10, then compares the sub-window aggregates.
// The combined trend only improves when both sub-trends improve and declines
// when either declines.
func (svc *StudentService) classifyStudentTrends(samples []performanceSample, att []student.AttendanceRecord) StudentTrends {
	recentPerf, olderPerf := splitWindow(samples, 5)
	recentAvg, _ := meanScore(recentPerf)
	olderAvg, _ := meanScore(olderPerf)
	gradeTrend := ClassifyTrend(recentAvg, olderAvg, svc.conf.GradeMargin)

	recentAtt, olderAtt := splitWindow(att, 10)
	attTrend := ClassifyTrend(
		attendanceRateF(recentAtt, svc.conf.LateCountsAsPresent),
		attendanceRateF(olderAtt, svc.conf.LateCountsAsPresent),
		svc.conf.RateMargin,
	)

	combined := TrendStable
	switch {
	case gradeTrend == TrendDeclining || attTrend == TrendDeclining:
		combined = TrendDeclining
	case gradeTrend == TrendImproving && attTrend == TrendImproving:
		combined = TrendImproving
	}

	return StudentTrends{Grade: gradeTrend, Attendance: attTrend, Performance: combined}
}

// applyRules runs the fixed, independent threshold rules that derive
// strengths, weaknesses and recommendations. Each rule fires on its own;
// several may fire for the same student.
func (svc *StudentService) applyRules(ins *StudentInsight, avgGrade, attRate float64, overdue bool) {
	r := svc.conf.Rules

	if avgGrade >= r.StrongGrade {
		ins.Strengths = append(ins.Strengths, "Consistently strong memorization scores")
	}
	if avgGrade < r.WeakGrade {
		ins.Weaknesses = append(ins.Weaknesses, "Memorization scores below target")
		ins.Recommendations = append(ins.Recommendations, "Schedule additional one-on-one recitation practice")
	}

	if attRate >= r.StrongAttendance {
		ins.Strengths = append(ins.Strengths, "Excellent attendance")
	}
	if attRate < r.WeakAttendance {
		ins.Weaknesses = append(ins.Weaknesses, "Attendance below expectation")
		ins.Recommendations = append(ins.Recommendations, "Contact guardians about attendance")
	}

	switch ins.Trends.Performance {
	case TrendImproving:
		ins.Strengths = append(ins.Strengths, "Performance is improving")
	case TrendDeclining:
		ins.Weaknesses = append(ins.Weaknesses, "Performance is declining")
		ins.Recommendations = append(ins.Recommendations, "Review recent sessions with the teacher")
	}

	if overdue {
		ins.Weaknesses = append(ins.Weaknesses, "Overdue tuition payment")
		ins.Recommendations = append(ins.Recommendations, "Follow up on outstanding payments")
	}
}

// fail maps datastore errors onto the local error taxonomy and logs the cause.
func (svc *StudentService) fail(msg string, err error) error {
	if err == ErrNotFound {
		return ErrNotFound
	}
	svc.logger.Error(msg, err)
	return ErrUnavailable
}

// dropoutRiskLevel buckets a 0-100 dropout risk score. Unlike ScoreRiskLevel,
// high points mean high risk.
func dropoutRiskLevel(risk int) Risk {
	switch {
	case risk >= 50:
		return RiskHigh
	case risk >= 25:
		return RiskMedium
	default:
		return RiskLow
	}
}

func toSamples(recs []student.PerformanceRecord) []performanceSample {
	samples := make([]performanceSample, 0, len(recs))
	for _, r := range recs {
		samples = append(samples, performanceSample{
			score:  float64(r.Score.Int),
			graded: r.Score.Valid,
		})
	}
	return samples
}

func gradeSeries(samples []performanceSample) []float64 {
	series := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.graded {
			series = append(series, s.score)
		}
	}
	return series
}

// splitWindow splits a newest-first window into a recent half of up to n
// entries and an older half of up to n more.
func splitWindow[T any](recs []T, n int) (recent, older []T) {
	if len(recs) <= n {
		return recs, nil
	}
	end := 2 * n
	if len(recs) < end {
		end = len(recs)
	}
	return recs[:n], recs[n:end]
}

func attendanceRateF(recs []student.AttendanceRecord, lateCounts bool) float64 {
	if len(recs) == 0 {
		return 0
	}
	var present int
	for _, r := range recs {
		if r.IsPresent(lateCounts) {
			present++
		}
	}
	return rateF(present, len(recs))
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return float64(int(v + 0.5))
}
