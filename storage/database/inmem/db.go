package inmemdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
)

// DB is an in-memory insights.Datastore used by tests and local dev.
type DB struct {
	mu sync.RWMutex

	students    map[string]student.Student
	groups      map[string]student.Group
	performance []student.PerformanceRecord
	attendance  []student.AttendanceRecord
	payments    []student.PaymentRecord
	behavior    []student.BehaviorRecord

	caps insights.Capabilities
	err  error // forced failure for tests
}

var _ insights.Datastore = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	return &DB{
		students: make(map[string]student.Student),
		groups:   make(map[string]student.Group),
		caps:     insights.Capabilities{Payments: true, Behavior: true},
	}, nil
}

// SetCapabilities overrides the record types this datastore claims to serve.
func (db *DB) SetCapabilities(caps insights.Capabilities) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.caps = caps
}

// SetErr forces every query to fail with err until reset with nil.
func (db *DB) SetErr(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.err = err
}

func (db *DB) AddStudent(stu student.Student) student.Student {
	db.mu.Lock()
	defer db.mu.Unlock()
	if stu.ID == "" {
		stu.ID = uuid.New().String()
	}
	db.students[stu.ID] = stu
	return stu
}

func (db *DB) AddGroup(grp student.Group) student.Group {
	db.mu.Lock()
	defer db.mu.Unlock()
	if grp.ID == "" {
		grp.ID = uuid.New().String()
	}
	grp.Roster = nil // rosters derive from student.GroupID
	db.groups[grp.ID] = grp
	return grp
}

func (db *DB) AddPerformance(rec student.PerformanceRecord) student.PerformanceRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	db.performance = append(db.performance, rec)
	return rec
}

func (db *DB) AddAttendance(rec student.AttendanceRecord) student.AttendanceRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	db.attendance = append(db.attendance, rec)
	return rec
}

func (db *DB) AddPayment(rec student.PaymentRecord) student.PaymentRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	db.payments = append(db.payments, rec)
	return rec
}

func (db *DB) AddBehavior(rec student.BehaviorRecord) student.BehaviorRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	db.behavior = append(db.behavior, rec)
	return rec
}

func (db *DB) GetStudent(_ context.Context, id string) (student.Student, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return student.Student{}, db.err
	}
	if stu, ok := db.students[id]; ok {
		return stu, nil
	}
	return student.Student{}, insights.ErrNotFound
}

func (db *DB) GetGroup(_ context.Context, id string) (student.Group, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return student.Group{}, db.err
	}
	grp, ok := db.groups[id]
	if !ok {
		return student.Group{}, insights.ErrNotFound
	}
	return db.withRoster(grp), nil
}

func (db *DB) AllGroups(_ context.Context) ([]student.Group, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	groups := make([]student.Group, 0, len(db.groups))
	for _, grp := range db.groups {
		groups = append(groups, db.withRoster(grp))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (db *DB) withRoster(grp student.Group) student.Group {
	for _, stu := range db.students {
		if stu.GroupID == grp.ID {
			grp.Roster = append(grp.Roster, stu)
		}
	}
	sort.Slice(grp.Roster, func(i, j int) bool { return grp.Roster[i].Name < grp.Roster[j].Name })
	return grp
}

func (db *DB) PerformanceRecords(_ context.Context, studentID string, limit int) ([]student.PerformanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	var out []student.PerformanceRecord
	for _, rec := range db.performance {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (db *DB) AttendanceRecords(_ context.Context, studentID string, limit int) ([]student.AttendanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	var out []student.AttendanceRecord
	for _, rec := range db.attendance {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (db *DB) PaymentRecords(_ context.Context, studentID string) ([]student.PaymentRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	var out []student.PaymentRecord
	for _, rec := range db.payments {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
	return out, nil
}

func (db *DB) PerformanceRecordsSince(ctx context.Context, studentID string, since time.Time) ([]student.PerformanceRecord, error) {
	recs, err := db.PerformanceRecords(ctx, studentID, 0)
	if err != nil {
		return nil, err
	}
	var out []student.PerformanceRecord
	for _, rec := range recs {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (db *DB) AttendanceRecordsSince(ctx context.Context, studentID string, since time.Time) ([]student.AttendanceRecord, error) {
	recs, err := db.AttendanceRecords(ctx, studentID, 0)
	if err != nil {
		return nil, err
	}
	var out []student.AttendanceRecord
	for _, rec := range recs {
		if !rec.Date.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (db *DB) CountStudents(_ context.Context) (total, active int, err error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return 0, 0, db.err
	}
	for _, stu := range db.students {
		total++
		if stu.IsActive() {
			active++
		}
	}
	return total, active, nil
}

func (db *DB) CountEnrollmentsBetween(_ context.Context, start, end time.Time) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return 0, db.err
	}
	var n int
	for _, stu := range db.students {
		if inRange(stu.EnrolledAt, start, end) {
			n++
		}
	}
	return n, nil
}

func (db *DB) CountOverduePayments(_ context.Context, asOf time.Time) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return 0, db.err
	}
	var n int
	for _, rec := range db.payments {
		if rec.IsOverdue(asOf) {
			n++
		}
	}
	return n, nil
}

func (db *DB) PerformanceRecordsBetween(_ context.Context, start, end time.Time) ([]student.PerformanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	var out []student.PerformanceRecord
	for _, rec := range db.performance {
		if inRange(rec.Timestamp, start, end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (db *DB) AttendanceRecordsBetween(_ context.Context, start, end time.Time) ([]student.AttendanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	var out []student.AttendanceRecord
	for _, rec := range db.attendance {
		if inRange(rec.Date, start, end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (db *DB) BehaviorRecordsBetween(_ context.Context, start, end time.Time) ([]student.BehaviorRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.err != nil {
		return nil, db.err
	}
	var out []student.BehaviorRecord
	for _, rec := range db.behavior {
		if inRange(rec.Date, start, end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (db *DB) Capabilities() insights.Capabilities {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.caps
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
