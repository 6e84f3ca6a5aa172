package insights_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
)

func TestSystemOverviewUnavailable(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()
	db.AddStudent(student.Student{ID: "s1", Name: "Ahmad", Status: student.StatusActive})
	db.SetErr(errors.New("connection refused"))

	svc := insights.NewSystemService(db, conf, quietLogger())
	ov := svc.Overview(context.Background())

	if !ov.Unavailable {
		t.Fatal("Overview() returned a live snapshot, want unavailable")
	}
	if ov.TotalStudents != 0 || ov.ActiveStudents != 0 {
		t.Errorf("counts = %d/%d, want zeroed", ov.TotalStudents, ov.ActiveStudents)
	}
	if len(ov.Alerts) != 0 || len(ov.MonthlyTrends) != 0 {
		t.Errorf("alerts/trends = %v/%v, want empty", ov.Alerts, ov.MonthlyTrends)
	}
}

func TestSystemOverviewLowMetricsAlerts(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()
	db.AddStudent(student.Student{ID: "s1", Name: "Ahmad", Status: student.StatusActive})
	db.AddStudent(student.Student{ID: "s2", Name: "Budi", Status: student.StatusActive})
	db.AddStudent(student.Student{ID: "s3", Name: "Citra", Status: student.StatusInactive})

	// 11 of 20 present -> 55%, well below both thresholds
	addAttendance(db, "s1", append(repeat(student.AttendancePresent, 11), repeat(student.AttendanceAbsent, 9)...)...)
	addPerformance(db, "s1", 45, 45)

	svc := insights.NewSystemService(db, conf, quietLogger())
	ov := svc.Overview(context.Background())

	if ov.TotalStudents != 3 || ov.ActiveStudents != 2 {
		t.Errorf("counts = %d/%d, want 3/2", ov.TotalStudents, ov.ActiveStudents)
	}
	if ov.AttendanceRate != 55 {
		t.Errorf("AttendanceRate = %d, want 55", ov.AttendanceRate)
	}
	if ov.AveragePerformance != 45 {
		t.Errorf("AveragePerformance = %d, want 45", ov.AveragePerformance)
	}

	if len(ov.Alerts) != 2 {
		t.Fatalf("Alerts = %v, want attendance and performance", ov.Alerts)
	}
	att, perf := ov.Alerts[0], ov.Alerts[1]
	if att.Type != insights.AlertAttendance || att.Severity != insights.SeverityHigh || att.Count != 3 {
		t.Errorf("attendance alert = %+v, want HIGH with count 3", att)
	}
	if perf.Type != insights.AlertPerformance || perf.Severity != insights.SeverityHigh || perf.Count != 3 {
		t.Errorf("performance alert = %+v, want HIGH with count 3", perf)
	}
}

func TestSystemOverviewPaymentAndCapacityAlerts(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()
	db.AddGroup(student.Group{ID: "g1", Name: "Al-Fatihah", Capacity: 1})
	db.AddStudent(student.Student{ID: "s1", Name: "Ahmad", Status: student.StatusActive, GroupID: "g1"})

	// healthy metrics so only payment and capacity rules fire
	addAttendance(db, "s1", repeat(student.AttendancePresent, 10)...)
	addPerformance(db, "s1", 85, 85)

	for i := 0; i < 2; i++ {
		db.AddPayment(student.PaymentRecord{
			StudentID: "s1",
			DueDate:   testNow.Add(-time.Duration(i+1) * 24 * time.Hour),
			Status:    student.PaymentPending,
		})
	}

	svc := insights.NewSystemService(db, conf, quietLogger())
	ov := svc.Overview(context.Background())

	if ov.OverduePayments != 2 {
		t.Errorf("OverduePayments = %d, want 2", ov.OverduePayments)
	}
	if len(ov.Alerts) != 2 {
		t.Fatalf("Alerts = %v, want payment and capacity", ov.Alerts)
	}
	pay, crowd := ov.Alerts[0], ov.Alerts[1]
	if pay.Type != insights.AlertPayment || pay.Severity != insights.SeverityMedium || pay.Count != 2 {
		t.Errorf("payment alert = %+v, want MEDIUM with count 2", pay)
	}
	if crowd.Type != insights.AlertCapacity || crowd.Count != 1 {
		t.Errorf("capacity alert = %+v, want count 1", crowd)
	}
}

// Without the payments capability overdue records must not surface at all.
func TestSystemOverviewNoPaymentsCapability(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()
	db.AddStudent(student.Student{ID: "s1", Name: "Ahmad", Status: student.StatusActive})
	db.AddPayment(student.PaymentRecord{
		StudentID: "s1",
		DueDate:   testNow.Add(-24 * time.Hour),
		Status:    student.PaymentPending,
	})
	db.SetCapabilities(insights.Capabilities{Payments: false, Behavior: false})

	svc := insights.NewSystemService(db, conf, quietLogger())
	ov := svc.Overview(context.Background())

	if ov.OverduePayments != 0 {
		t.Errorf("OverduePayments = %d, want 0", ov.OverduePayments)
	}
	for _, a := range ov.Alerts {
		if a.Type == insights.AlertPayment {
			t.Errorf("payment alert fired without the capability: %+v", a)
		}
	}
}

func TestSystemAnalyze(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()

	db.AddStudent(student.Student{ID: "s1", Name: "Ahmad", Status: student.StatusActive})

	// one assessment per month, rising 60 -> 70 through June 2026
	for m := 1; m <= 6; m++ {
		db.AddPerformance(student.PerformanceRecord{
			StudentID: "s1",
			Timestamp: time.Date(2026, time.Month(m), 10, 9, 0, 0, 0, time.UTC),
			Score:     null.IntFrom(60 + 2*(m-1)),
		})
	}
	// two enrollments in May, none in June
	db.AddStudent(student.Student{
		ID: "s2", Name: "Budi", Status: student.StatusActive,
		EnrolledAt: time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	db.AddStudent(student.Student{
		ID: "s3", Name: "Citra", Status: student.StatusActive,
		EnrolledAt: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
	})
	// behavior dipped from May to June
	db.AddBehavior(student.BehaviorRecord{
		StudentID: "s1", Date: time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC), Points: 90,
	})
	db.AddBehavior(student.BehaviorRecord{
		StudentID: "s1", Date: time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC), Points: 80,
	})

	svc := insights.NewSystemService(db, conf, quietLogger())
	ta := svc.Analyze(context.Background(), 6)

	if ta.Unavailable {
		t.Fatal("Analyze() flagged unavailable on a healthy datastore")
	}
	if len(ta.MonthlyData) != 6 {
		t.Fatalf("MonthlyData has %d buckets, want 6", len(ta.MonthlyData))
	}
	if first, last := ta.MonthlyData[0], ta.MonthlyData[5]; first.Month != "2026-01" || last.Month != "2026-06" {
		t.Errorf("month range = %s..%s, want 2026-01..2026-06", first.Month, last.Month)
	}
	if may := ta.MonthlyData[4]; may.NewEnrollments != 2 || may.AveragePerformance != 68 || may.BehaviorScore != 90 {
		t.Errorf("May bucket = %+v, want enrollments 2, performance 68, behavior 90", may)
	}

	perf := ta.Trends["performance"]
	if perf.Direction != insights.DirectionUp {
		t.Errorf("performance direction = %s, want up", perf.Direction)
	}
	if perf.ChangePct != 2.94 {
		t.Errorf("performance change = %v, want 2.94", perf.ChangePct)
	}
	if d := ta.Trends["attendance"].Direction; d != insights.DirectionStable {
		t.Errorf("attendance direction = %s, want stable", d)
	}
	if d := ta.Trends["enrollment"].Direction; d != insights.DirectionDown {
		t.Errorf("enrollment direction = %s, want down", d)
	}
	if d := ta.Trends["behavior"].Direction; d != insights.DirectionDown {
		t.Errorf("behavior direction = %s, want down", d)
	}

	if len(ta.Insights) != 3 {
		t.Fatalf("Insights = %v, want performance, enrollment and behavior entries", ta.Insights)
	}
	if ta.Insights[0].Tag != insights.TagPositive {
		t.Errorf("Insights[0] = %+v, want a positive performance entry", ta.Insights[0])
	}
	// shrinking enrollment is informational, not alarming
	if ta.Insights[1].Tag != insights.TagInfo {
		t.Errorf("Insights[1] = %+v, want an info enrollment entry", ta.Insights[1])
	}
	if ta.Insights[2].Tag != insights.TagWarning {
		t.Errorf("Insights[2] = %+v, want a warning behavior entry", ta.Insights[2])
	}

	if ta.Predictions.PerformanceNext != 72 {
		t.Errorf("PerformanceNext = %d, want 72", ta.Predictions.PerformanceNext)
	}
	if ta.Predictions.Confidence != insights.ConfidenceHigh {
		t.Errorf("Confidence = %s, want high", ta.Predictions.Confidence)
	}
	if ta.Summary == "" {
		t.Error("Summary is empty")
	}
}

// With no records at all, every trend holds steady and confidence is low.
func TestSystemAnalyzeEmpty(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()

	svc := insights.NewSystemService(db, conf, quietLogger())
	ta := svc.Analyze(context.Background(), 3)

	if len(ta.MonthlyData) != 3 {
		t.Fatalf("MonthlyData has %d buckets, want 3", len(ta.MonthlyData))
	}
	if len(ta.Insights) != 1 || ta.Insights[0].Tag != insights.TagInfo {
		t.Errorf("Insights = %v, want the single holding-steady entry", ta.Insights)
	}
	if ta.Predictions.Confidence != insights.ConfidenceLow {
		t.Errorf("Confidence = %s, want low", ta.Predictions.Confidence)
	}
	if ta.Predictions.PerformanceNext != 0 || ta.Predictions.AttendanceNext != 0 {
		t.Errorf("predictions = %+v, want zero", ta.Predictions)
	}
}

func TestSystemAnalyzeUnavailable(t *testing.T) {
	db, conf, restore := setup(t)
	defer restore()
	db.SetErr(errors.New("connection refused"))

	svc := insights.NewSystemService(db, conf, quietLogger())
	ta := svc.Analyze(context.Background(), 6)

	if !ta.Unavailable {
		t.Fatal("Analyze() returned a live snapshot, want unavailable")
	}
	if ta.Predictions.Confidence != insights.ConfidenceLow {
		t.Errorf("Confidence = %s, want low", ta.Predictions.Confidence)
	}
}
