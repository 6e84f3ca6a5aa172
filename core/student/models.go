package student

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Student statuses
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Attendance statuses
const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
	AttendanceLate    = "LATE"
	AttendanceExcused = "EXCUSED"
)

// Payment statuses
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

type (
	// Student is an individual learner (santri) tracked by the system.
	Student struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Status     string    `json:"status"`
		GroupID    string    `json:"group_id"`
		EnrolledAt time.Time `json:"enrolled_at"`
	}

	// Group is a cohort/class of students with a capacity used for
	// utilization alerts.
	Group struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		Capacity int       `json:"capacity"`
		Roster   []Student `json:"roster"`
	}

	// PerformanceRecord is one graded memorization/recitation assessment.
	// A null Score means "recorded but not yet graded": excluded from grade
	// averages but still counted as activity.
	PerformanceRecord struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		Timestamp time.Time `json:"timestamp"`
		Score     null.Int  `json:"score"` // 0-100
	}

	// AttendanceRecord is one session attendance mark.
	AttendanceRecord struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		Date      time.Time `json:"date"`
		Status    string    `json:"status"`
	}

	// PaymentRecord is one tuition invoice.
	PaymentRecord struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		DueDate   time.Time `json:"due_date"`
		Status    string    `json:"status"`
	}

	// BehaviorRecord is one behavior/adab score entry.
	BehaviorRecord struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		Date      time.Time `json:"date"`
		Points    int       `json:"points"` // 0-100
	}
)

func (s Student) IsActive() bool {
	return s.Status == StatusActive
}

// IsOverdue reports whether the payment is still pending past its due date.
func (p PaymentRecord) IsOverdue(asOf time.Time) bool {
	return p.Status == PaymentPending && p.DueDate.Before(asOf)
}

// IsPresent reports whether the record counts toward the present-equivalent
// numerator of an attendance rate. LATE is policy-dependent.
func (a AttendanceRecord) IsPresent(lateCounts bool) bool {
	if a.Status == AttendancePresent {
		return true
	}
	return lateCounts && a.Status == AttendanceLate
}
