package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
)

// Datastore is the postgres-backed insights.Datastore.
type Datastore struct {
	db   *sqlx.DB
	caps insights.Capabilities
}

var _ insights.Datastore = (*Datastore)(nil) // interface compliance check

// NewDatastore wraps an open connection pool. Capabilities are probed once:
// deployments without the payment/behavior tables simply don't serve those
// record types.
func NewDatastore(db *sql.DB) (*Datastore, error) {
	dbx := sqlx.NewDb(db, "postgres")
	ds := &Datastore{db: dbx}

	var err error
	if ds.caps.Payments, err = tableExists(dbx, "payment_record"); err != nil {
		return nil, errors.Wrap(err, "probing payment capability")
	}
	if ds.caps.Behavior, err = tableExists(dbx, "behavior_record"); err != nil {
		return nil, errors.Wrap(err, "probing behavior capability")
	}
	return ds, nil
}

func tableExists(db *sqlx.DB, name string) (bool, error) {
	var exists bool
	err := db.Get(&exists,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		name)
	return exists, err
}

type (
	studentRow struct {
		ID         string      `db:"id"`
		Name       string      `db:"name"`
		Status     string      `db:"status"`
		GroupID    null.String `db:"group_id"`
		EnrolledAt time.Time   `db:"enrolled_at"`
	}

	groupRow struct {
		ID       string `db:"id"`
		Name     string `db:"name"`
		Capacity int    `db:"capacity"`
	}

	performanceRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		Timestamp time.Time `db:"timestamp"`
		Score     null.Int  `db:"score"`
	}

	attendanceRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		Date      time.Time `db:"date"`
		Status    string    `db:"status"`
	}

	paymentRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		DueDate   time.Time `db:"due_date"`
		Status    string    `db:"status"`
	}

	behaviorRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		Date      time.Time `db:"date"`
		Points    int       `db:"points"`
	}
)

func (r studentRow) toDomain() student.Student {
	return student.Student{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.Status,
		GroupID:    r.GroupID.String,
		EnrolledAt: r.EnrolledAt,
	}
}

func toStudents(rows []studentRow) []student.Student {
	out := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

func toPerformance(rows []performanceRow) []student.PerformanceRecord {
	out := make([]student.PerformanceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, student.PerformanceRecord{
			ID:        r.ID,
			StudentID: r.StudentID,
			Timestamp: r.Timestamp,
			Score:     r.Score,
		})
	}
	return out
}

func toAttendance(rows []attendanceRow) []student.AttendanceRecord {
	out := make([]student.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, student.AttendanceRecord{
			ID:        r.ID,
			StudentID: r.StudentID,
			Date:      r.Date,
			Status:    r.Status,
		})
	}
	return out
}

// trapNoRowsErr maps psql "no rows" to insights.ErrNotFound.
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return insights.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (ds *Datastore) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	err := ds.db.GetContext(ctx, &row,
		`SELECT id, name, status, group_id, enrolled_at FROM student WHERE id = $1`, id)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, "getting student")
	}
	return row.toDomain(), nil
}

func (ds *Datastore) GetGroup(ctx context.Context, id string) (student.Group, error) {
	var row groupRow
	err := ds.db.GetContext(ctx, &row,
		`SELECT id, name, capacity FROM "group" WHERE id = $1`, id)
	if err != nil {
		return student.Group{}, trapNoRowsErr(err, "getting group")
	}

	var roster []studentRow
	err = ds.db.SelectContext(ctx, &roster,
		`SELECT id, name, status, group_id, enrolled_at FROM student WHERE group_id = $1 ORDER BY name`, id)
	if err != nil {
		return student.Group{}, errors.Wrap(err, "querying group roster")
	}

	return student.Group{
		ID:       row.ID,
		Name:     row.Name,
		Capacity: row.Capacity,
		Roster:   toStudents(roster),
	}, nil
}

func (ds *Datastore) AllGroups(ctx context.Context) ([]student.Group, error) {
	var rows []groupRow
	err := ds.db.SelectContext(ctx, &rows, `SELECT id, name, capacity FROM "group" ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}

	groups := make([]student.Group, 0, len(rows))
	for _, row := range rows {
		var roster []studentRow
		err = ds.db.SelectContext(ctx, &roster,
			`SELECT id, name, status, group_id, enrolled_at FROM student WHERE group_id = $1 ORDER BY name`, row.ID)
		if err != nil {
			return nil, errors.Wrap(err, "querying group roster")
		}
		groups = append(groups, student.Group{
			ID:       row.ID,
			Name:     row.Name,
			Capacity: row.Capacity,
			Roster:   toStudents(roster),
		})
	}
	return groups, nil
}

func (ds *Datastore) PerformanceRecords(ctx context.Context, studentID string, limit int) ([]student.PerformanceRecord, error) {
	var rows []performanceRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, timestamp, score FROM performance_record
		 WHERE student_id = $1 ORDER BY timestamp DESC LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying performance records")
	}
	return toPerformance(rows), nil
}

func (ds *Datastore) AttendanceRecords(ctx context.Context, studentID string, limit int) ([]student.AttendanceRecord, error) {
	var rows []attendanceRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, date, status FROM attendance_record
		 WHERE student_id = $1 ORDER BY date DESC LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return toAttendance(rows), nil
}

func (ds *Datastore) PaymentRecords(ctx context.Context, studentID string) ([]student.PaymentRecord, error) {
	var rows []paymentRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, due_date, status FROM payment_record
		 WHERE student_id = $1 ORDER BY due_date DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payment records")
	}
	out := make([]student.PaymentRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, student.PaymentRecord{ID: r.ID, StudentID: r.StudentID, DueDate: r.DueDate, Status: r.Status})
	}
	return out, nil
}

func (ds *Datastore) PerformanceRecordsSince(ctx context.Context, studentID string, since time.Time) ([]student.PerformanceRecord, error) {
	var rows []performanceRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, timestamp, score FROM performance_record
		 WHERE student_id = $1 AND timestamp >= $2 ORDER BY timestamp DESC`, studentID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying performance records")
	}
	return toPerformance(rows), nil
}

func (ds *Datastore) AttendanceRecordsSince(ctx context.Context, studentID string, since time.Time) ([]student.AttendanceRecord, error) {
	var rows []attendanceRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, date, status FROM attendance_record
		 WHERE student_id = $1 AND date >= $2 ORDER BY date DESC`, studentID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return toAttendance(rows), nil
}

func (ds *Datastore) CountStudents(ctx context.Context) (total, active int, err error) {
	row := struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}{}
	err = ds.db.GetContext(ctx, &row,
		`SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'ACTIVE') AS active FROM student`)
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting students")
	}
	return row.Total, row.Active, nil
}

func (ds *Datastore) CountEnrollmentsBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := ds.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM student WHERE enrolled_at >= $1 AND enrolled_at < $2`, start, end)
	if err != nil {
		return 0, errors.Wrap(err, "counting enrollments")
	}
	return n, nil
}

func (ds *Datastore) CountOverduePayments(ctx context.Context, asOf time.Time) (int, error) {
	var n int
	err := ds.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM payment_record WHERE status = 'PENDING' AND due_date < $1`, asOf)
	if err != nil {
		return 0, errors.Wrap(err, "counting overdue payments")
	}
	return n, nil
}

func (ds *Datastore) PerformanceRecordsBetween(ctx context.Context, start, end time.Time) ([]student.PerformanceRecord, error) {
	var rows []performanceRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, timestamp, score FROM performance_record
		 WHERE timestamp >= $1 AND timestamp < $2`, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "querying performance records")
	}
	return toPerformance(rows), nil
}

func (ds *Datastore) AttendanceRecordsBetween(ctx context.Context, start, end time.Time) ([]student.AttendanceRecord, error) {
	var rows []attendanceRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, date, status FROM attendance_record
		 WHERE date >= $1 AND date < $2`, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	return toAttendance(rows), nil
}

func (ds *Datastore) BehaviorRecordsBetween(ctx context.Context, start, end time.Time) ([]student.BehaviorRecord, error) {
	var rows []behaviorRow
	err := ds.db.SelectContext(ctx, &rows,
		`SELECT id, student_id, date, points FROM behavior_record
		 WHERE date >= $1 AND date < $2`, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "querying behavior records")
	}
	out := make([]student.BehaviorRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, student.BehaviorRecord{ID: r.ID, StudentID: r.StudentID, Date: r.Date, Points: r.Points})
	}
	return out, nil
}

func (ds *Datastore) Capabilities() insights.Capabilities {
	return ds.caps
}
