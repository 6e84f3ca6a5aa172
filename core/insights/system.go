package insights

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
)

// Alert types
const (
	AlertAttendance  = "ATTENDANCE"
	AlertPerformance = "PERFORMANCE"
	AlertPayment     = "PAYMENT"
	AlertCapacity    = "CAPACITY"
)

// Alert severities
const (
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Metric trend directions (month over month)
const (
	DirectionUp     = "up"
	DirectionDown   = "down"
	DirectionStable = "stable"
)

// Insight tags for the trend-analysis narratives
const (
	TagPositive = "positive"
	TagWarning  = "warning"
	TagInfo     = "info"
)

type (
	// Alert is a system-level threshold breach with a magnitude count.
	Alert struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
		Count    int    `json:"count"`
	}

	// MonthlyMetrics is one bucket of the trailing monthly series.
	MonthlyMetrics struct {
		Month              string `json:"month"` // "2006-01"
		NewEnrollments     int    `json:"new_enrollments"`
		AveragePerformance int    `json:"average_performance"`
		AttendanceRate     int    `json:"attendance_rate"`
		BehaviorScore      int    `json:"behavior_score,omitempty"`
	}

	// SystemOverview is the whole-population snapshot.
	SystemOverview struct {
		TotalStudents      int              `json:"total_students"`
		ActiveStudents     int              `json:"active_students"`
		AttendanceRate     int              `json:"attendance_rate"`
		AveragePerformance int              `json:"average_performance"`
		OverduePayments    int              `json:"overdue_payments"`
		MonthlyTrends      []MonthlyMetrics `json:"monthly_trends"`
		Alerts             []Alert          `json:"alerts"`
		Unavailable        bool             `json:"unavailable,omitempty"`
		GeneratedAt        time.Time        `json:"generated_at"`
	}

	// MetricTrend is the month-over-month movement of one metric.
	MetricTrend struct {
		Direction string  `json:"direction"`
		ChangePct float64 `json:"change_pct"`
	}

	// TrendInsight is one qualitative narrative derived from metric movement.
	TrendInsight struct {
		Tag     string `json:"tag"`
		Message string `json:"message"`
	}

	// Prediction is the next-month projection with its confidence label.
	Prediction struct {
		PerformanceNext int    `json:"performance_next"`
		AttendanceNext  int    `json:"attendance_next"`
		Confidence      string `json:"confidence"`
	}

	// TrendAnalysis is the longer-horizon system snapshot.
	TrendAnalysis struct {
		MonthlyData []MonthlyMetrics       `json:"monthly_data"`
		Trends      map[string]MetricTrend `json:"trends"`
		Insights    []TrendInsight         `json:"insights"`
		Predictions Prediction             `json:"predictions"`
		Summary     string                 `json:"summary"`
		Unavailable bool                   `json:"unavailable,omitempty"`
		GeneratedAt time.Time              `json:"generated_at"`
	}

	// SystemService generates whole-population insights.
	SystemService struct {
		ds     Datastore
		conf   core.InsightsConfig
		logger core.Logger
	}
)

func NewSystemService(ds Datastore, conf core.InsightsConfig, logger core.Logger) *SystemService {
	return &SystemService{ds: ds, conf: conf, logger: logger}
}

// Overview computes the system snapshot over the default monthly window.
func (svc *SystemService) Overview(ctx context.Context) SystemOverview {
	return svc.OverviewWithWindow(ctx, svc.conf.TrendWindowMonths)
}

// OverviewWithWindow computes the system snapshot with the monthly trend
// series spanning the trailing months. A failing datastore yields a zeroed
// snapshot flagged unavailable; it never fails the caller.
func (svc *SystemService) OverviewWithWindow(ctx context.Context, months int) SystemOverview {
	if months <= 0 {
		months = svc.conf.TrendWindowMonths
	}

	ov := SystemOverview{
		MonthlyTrends: []MonthlyMetrics{},
		Alerts:        []Alert{},
		GeneratedAt:   nowFunc().UTC(),
	}

	total, active, err := svc.ds.CountStudents(ctx)
	if err != nil {
		return svc.unavailable(ov, "counting students", err)
	}
	ov.TotalStudents = total
	ov.ActiveStudents = active

	now := nowFunc().UTC()
	since := now.AddDate(0, 0, -30)

	att, err := svc.ds.AttendanceRecordsBetween(ctx, since, now)
	if err != nil {
		return svc.unavailable(ov, "querying attendance records", err)
	}
	attRate := attendanceRateF(att, svc.conf.LateCountsAsPresent)
	ov.AttendanceRate = clampScore(roundHalfUp(attRate))

	perf, err := svc.ds.PerformanceRecordsBetween(ctx, since, now)
	if err != nil {
		return svc.unavailable(ov, "querying performance records", err)
	}
	avgPerf, _ := meanScore(toSamples(perf))
	ov.AveragePerformance = clampScore(roundHalfUp(avgPerf))

	monthly, err := svc.monthlyMetrics(ctx, months, now)
	if err != nil {
		return svc.unavailable(ov, "bucketing monthly metrics", err)
	}
	ov.MonthlyTrends = monthly

	// A failing payments source only omits the PAYMENT alert (the record
	// type may not exist in this deployment).
	overdue := -1
	if svc.ds.Capabilities().Payments {
		if n, err := svc.ds.CountOverduePayments(ctx, now); err != nil {
			svc.logger.Warn("counting overdue payments; omitting payment alert", err)
		} else {
			overdue = n
			ov.OverduePayments = n
		}
	}

	ov.Alerts = svc.buildAlerts(ctx, float64(ov.AttendanceRate), float64(ov.AveragePerformance), overdue)
	return ov
}

// buildAlerts evaluates each alert rule independently; several may co-occur.
// attRate and avgPerf are the rounded snapshot values so the count arithmetic
// matches what the snapshot reports (11/20 present is 55, not 55.000...04).
func (svc *SystemService) buildAlerts(ctx context.Context, attRate, avgPerf float64, overdue int) []Alert {
	th := svc.conf.Alerts
	alerts := []Alert{}

	if attRate < th.AttendanceMin {
		severity := SeverityMedium
		if attRate < th.AttendanceHigh {
			severity = SeverityHigh
		}
		alerts = append(alerts, Alert{
			Type:     AlertAttendance,
			Severity: severity,
			Message:  fmt.Sprintf("System-wide attendance is %.0f%%, below the %.0f%% target", attRate, th.AttendanceMin),
			Count:    int(math.Round((th.AttendanceMin - attRate) / 10)),
		})
	}

	if avgPerf < th.PerformanceMin {
		severity := SeverityMedium
		if avgPerf < th.PerformanceHigh {
			severity = SeverityHigh
		}
		alerts = append(alerts, Alert{
			Type:     AlertPerformance,
			Severity: severity,
			Message:  fmt.Sprintf("Average performance is %.0f, below the %.0f target", avgPerf, th.PerformanceMin),
			Count:    int(math.Round((th.PerformanceMin - avgPerf) / 10)),
		})
	}

	if overdue > 0 {
		severity := SeverityMedium
		if overdue > th.OverdueHigh {
			severity = SeverityHigh
		}
		alerts = append(alerts, Alert{
			Type:     AlertPayment,
			Severity: severity,
			Message:  fmt.Sprintf("%d payments are overdue", overdue),
			Count:    overdue,
		})
	}

	if groups, err := svc.ds.AllGroups(ctx); err != nil {
		svc.logger.Warn("listing groups; omitting capacity alert", err)
	} else {
		var crowded int
		for _, g := range groups {
			if g.Capacity > 0 && float64(len(g.Roster))/float64(g.Capacity) > th.CapacityRatio {
				crowded++
			}
		}
		if crowded > 0 {
			alerts = append(alerts, Alert{
				Type:     AlertCapacity,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("%d groups are above %.0f%% capacity", crowded, th.CapacityRatio*100),
				Count:    crowded,
			})
		}
	}

	return alerts
}

// Analyze computes the longer-horizon trend analysis over the trailing
// months (<= 0 uses the configured default).
func (svc *SystemService) Analyze(ctx context.Context, months int) TrendAnalysis {
	if months <= 0 {
		months = svc.conf.TrendWindowMonths
	}

	ta := TrendAnalysis{
		MonthlyData: []MonthlyMetrics{},
		Trends:      map[string]MetricTrend{},
		Insights:    []TrendInsight{},
		GeneratedAt: nowFunc().UTC(),
	}

	monthly, err := svc.monthlyMetrics(ctx, months, nowFunc().UTC())
	if err != nil {
		svc.logger.Error("bucketing monthly metrics", err)
		ta.Unavailable = true
		ta.Predictions = Prediction{Confidence: ConfidenceLow}
		return ta
	}
	ta.MonthlyData = monthly

	hasBehavior := svc.ds.Capabilities().Behavior
	perfSeries := make([]float64, 0, len(monthly))
	attSeries := make([]float64, 0, len(monthly))
	enrollSeries := make([]float64, 0, len(monthly))
	behaviorSeries := make([]float64, 0, len(monthly))
	for _, m := range monthly { // chronological
		perfSeries = append(perfSeries, float64(m.AveragePerformance))
		attSeries = append(attSeries, float64(m.AttendanceRate))
		enrollSeries = append(enrollSeries, float64(m.NewEnrollments))
		behaviorSeries = append(behaviorSeries, float64(m.BehaviorScore))
	}

	ta.Trends["performance"] = monthOverMonth(perfSeries)
	ta.Trends["attendance"] = monthOverMonth(attSeries)
	ta.Trends["enrollment"] = monthOverMonth(enrollSeries)
	if hasBehavior {
		ta.Trends["behavior"] = monthOverMonth(behaviorSeries)
	}

	ta.Insights = narrate(ta.Trends)

	// confidence tracks the months that actually hold data, not the
	// requested window
	var dataMonths int
	for _, m := range monthly {
		if m.AveragePerformance > 0 || m.AttendanceRate > 0 || m.NewEnrollments > 0 {
			dataMonths++
		}
	}
	ta.Predictions = svc.predict(perfSeries, attSeries, dataMonths)
	ta.Summary = fmt.Sprintf(
		"Over the last %d months performance is %s and attendance is %s",
		len(monthly), ta.Trends["performance"].Direction, ta.Trends["attendance"].Direction,
	)
	return ta
}

// predict projects next month's performance and attendance from the
// chronological monthly series.
func (svc *SystemService) predict(perfSeries, attSeries []float64, dataMonths int) Prediction {
	pred := Prediction{Confidence: sampleConfidence(dataMonths)}

	if n := len(perfSeries); n > 0 {
		recentFirst := reversed(perfSeries)
		pred.PerformanceNext = ExpectedNextValue(perfSeries[n-1], ChronoSlope(recentFirst), 1)
	}
	if n := len(attSeries); n > 0 {
		recentFirst := reversed(attSeries)
		pred.AttendanceNext = ExpectedNextValue(attSeries[n-1], ChronoSlope(recentFirst), 1)
	}
	return pred
}

// monthlyMetrics buckets enrollment, performance, attendance and (when
// served) behavior per trailing calendar month, oldest first.
func (svc *SystemService) monthlyMetrics(ctx context.Context, months int, now time.Time) ([]MonthlyMetrics, error) {
	hasBehavior := svc.ds.Capabilities().Behavior
	out := make([]MonthlyMetrics, 0, months)

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := months - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		enrolled, err := svc.ds.CountEnrollmentsBetween(ctx, start, end)
		if err != nil {
			return nil, err
		}
		perf, err := svc.ds.PerformanceRecordsBetween(ctx, start, end)
		if err != nil {
			return nil, err
		}
		att, err := svc.ds.AttendanceRecordsBetween(ctx, start, end)
		if err != nil {
			return nil, err
		}

		avg, _ := meanScore(toSamples(perf))
		m := MonthlyMetrics{
			Month:              start.Format("2006-01"),
			NewEnrollments:     enrolled,
			AveragePerformance: clampScore(roundHalfUp(avg)),
			AttendanceRate:     clampScore(roundHalfUp(attendanceRateF(att, svc.conf.LateCountsAsPresent))),
		}

		if hasBehavior {
			recs, err := svc.ds.BehaviorRecordsBetween(ctx, start, end)
			if err != nil {
				return nil, err
			}
			if len(recs) > 0 {
				var sum int
				for _, r := range recs {
					sum += r.Points
				}
				m.BehaviorScore = clampScore(roundHalfUp(float64(sum) / float64(len(recs))))
			}
		}

		out = append(out, m)
	}
	return out, nil
}

func (svc *SystemService) unavailable(ov SystemOverview, msg string, err error) SystemOverview {
	svc.logger.Error(msg, err)
	return SystemOverview{
		MonthlyTrends: []MonthlyMetrics{},
		Alerts:        []Alert{},
		Unavailable:   true,
		GeneratedAt:   ov.GeneratedAt,
	}
}

// monthOverMonth compares the two newest buckets of a chronological series
// with a one-point deadband.
func monthOverMonth(series []float64) MetricTrend {
	if len(series) < 2 {
		return MetricTrend{Direction: DirectionStable}
	}

	curr := series[len(series)-1]
	prev := series[len(series)-2]
	diff := curr - prev

	direction := DirectionStable
	switch {
	case diff > 1:
		direction = DirectionUp
	case diff < -1:
		direction = DirectionDown
	}

	var pct float64
	if prev != 0 {
		pct = diff / prev * 100
	} else if curr != 0 {
		pct = 100
	}
	return MetricTrend{Direction: direction, ChangePct: math.Round(pct*100) / 100}
}

// narrate maps metric movements onto fixed narrative templates.
func narrate(trends map[string]MetricTrend) []TrendInsight {
	out := []TrendInsight{}

	type tmpl struct{ up, down string }
	templates := map[string]tmpl{
		"performance": {
			up:   "Memorization performance improved %.1f%% month over month",
			down: "Memorization performance dropped %.1f%% month over month",
		},
		"attendance": {
			up:   "Attendance improved %.1f%% month over month",
			down: "Attendance dropped %.1f%% month over month",
		},
		"enrollment": {
			up:   "New enrollments are growing (%.1f%%)",
			down: "New enrollments slowed by %.1f%%",
		},
		"behavior": {
			up:   "Behavior scores improved %.1f%% month over month",
			down: "Behavior scores dropped %.1f%% month over month",
		},
	}

	// fixed iteration order for deterministic snapshots
	for _, metric := range []string{"performance", "attendance", "enrollment", "behavior"} {
		tr, ok := trends[metric]
		if !ok {
			continue
		}
		t := templates[metric]
		switch tr.Direction {
		case DirectionUp:
			out = append(out, TrendInsight{Tag: TagPositive, Message: fmt.Sprintf(t.up, math.Abs(tr.ChangePct))})
		case DirectionDown:
			tag := TagWarning
			if metric == "enrollment" {
				tag = TagInfo
			}
			out = append(out, TrendInsight{Tag: tag, Message: fmt.Sprintf(t.down, math.Abs(tr.ChangePct))})
		}
	}

	if len(out) == 0 {
		out = append(out, TrendInsight{Tag: TagInfo, Message: "All metrics are holding steady"})
	}
	return out
}

func reversed(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[len(series)-1-i] = v
	}
	return out
}
