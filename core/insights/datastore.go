package insights

import (
	"context"
	"errors"
	"time"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
)

var (
	// ErrNotFound is returned when the requested student or group does not
	// exist. Callers must treat "no insight available" as a valid outcome.
	ErrNotFound = errors.New("insight target not found")

	// ErrUnavailable is returned when the datastore cannot serve the queries
	// behind an insight. The cause is logged; it never crashes the caller.
	ErrUnavailable = errors.New("insight unavailable")
)

// Capabilities reports which record types a deployment's datastore can serve.
// Generators conditionally include the corresponding metrics/alerts instead of
// trapping query errors.
type Capabilities struct {
	Payments bool
	Behavior bool
}

// Datastore is the read-only query surface the insight generators consume.
// Record queries return newest-first sequences.
type Datastore interface {
	GetStudent(ctx context.Context, id string) (student.Student, error)
	GetGroup(ctx context.Context, id string) (student.Group, error)
	AllGroups(ctx context.Context) ([]student.Group, error)

	PerformanceRecords(ctx context.Context, studentID string, limit int) ([]student.PerformanceRecord, error)
	AttendanceRecords(ctx context.Context, studentID string, limit int) ([]student.AttendanceRecord, error)
	PaymentRecords(ctx context.Context, studentID string) ([]student.PaymentRecord, error)

	PerformanceRecordsSince(ctx context.Context, studentID string, since time.Time) ([]student.PerformanceRecord, error)
	AttendanceRecordsSince(ctx context.Context, studentID string, since time.Time) ([]student.AttendanceRecord, error)

	CountStudents(ctx context.Context) (total, active int, err error)
	CountEnrollmentsBetween(ctx context.Context, start, end time.Time) (int, error)
	CountOverduePayments(ctx context.Context, asOf time.Time) (int, error)

	PerformanceRecordsBetween(ctx context.Context, start, end time.Time) ([]student.PerformanceRecord, error)
	AttendanceRecordsBetween(ctx context.Context, start, end time.Time) ([]student.AttendanceRecord, error)
	BehaviorRecordsBetween(ctx context.Context, start, end time.Time) ([]student.BehaviorRecord, error)

	Capabilities() Capabilities
}
