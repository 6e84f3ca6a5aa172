package main

import (
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/student"
	consolemail "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/services/email/console"
	logsvc "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/services/logger"
	inmemdb "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/storage/database/inmem"
)

func newTestCLI(t *testing.T) (*commandLine, *inmemdb.DB) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}

	conf := &core.Config{
		AppName:    "tpq-admin-test",
		AdminEmail: "admin@tpq.test",
		Insights:   core.NewInsightsConfig(),
	}
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	return &commandLine{
		conf:         conf,
		systemSvc:    insights.NewSystemService(db, conf.Insights, logger),
		mailSvc:      consolemail.NewService(conf.AppName, "noreply@tpq.test"),
		migrateFunc:  func() error { return nil },
		createDBFunc: func() error { return nil },
	}, db
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := newTestCLI(t)

	var migrated, created bool
	cli.migrateFunc = func() error { migrated = true; return nil }
	cli.createDBFunc = func() error { created = true; return nil }

	if err := cli.run([]string{"admin", "migrate"}); err != nil || !migrated {
		t.Errorf("migrate: err = %v, migrated = %v", err, migrated)
	}
	if err := cli.run([]string{"admin", "createdb"}); err != nil || !created {
		t.Errorf("createdb: err = %v, created = %v", err, created)
	}
	if err := cli.run([]string{"admin"}); err != errHelp {
		t.Errorf("no command: err = %v, want errHelp", err)
	}
	if err := cli.run([]string{"admin", "bogus"}); err != errHelp {
		t.Errorf("unknown command: err = %v, want errHelp", err)
	}
}

func Test_commandLine_alertDigest(t *testing.T) {
	cli, db := newTestCLI(t)
	db.AddStudent(student.Student{ID: "s1", Name: "Ahmad", Status: student.StatusActive})

	if err := cli.run([]string{"admin", "alertdigest", "-to", "head@tpq.test"}); err != nil {
		t.Fatalf("alertdigest: %v", err)
	}

	if len(consolemail.SentMessages) == 0 {
		t.Fatal("no message sent")
	}
	msg := consolemail.SentMessages[len(consolemail.SentMessages)-1]
	if got := msg.To[0].Address; got != "head@tpq.test" {
		t.Errorf("To = %s, want head@tpq.test", got)
	}
	if msg.Subject != "Daily alert digest" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.TextContent, "Students: 1 total, 1 active") {
		t.Errorf("digest body missing student counts:\n%s", msg.TextContent)
	}
}

func Test_commandLine_alertDigestUnavailable(t *testing.T) {
	cli, db := newTestCLI(t)
	db.SetErr(errors.New("connection refused"))

	if err := cli.run([]string{"admin", "alertdigest"}); err == nil {
		t.Error("alertdigest succeeded against a failing datastore")
	}
}

func Test_formatDigest(t *testing.T) {
	ov := insights.SystemOverview{
		TotalStudents:      12,
		ActiveStudents:     10,
		AttendanceRate:     75,
		AveragePerformance: 68,
		OverduePayments:    3,
		Alerts: []insights.Alert{
			{Type: insights.AlertAttendance, Severity: insights.SeverityMedium, Message: "attendance low", Count: 1},
		},
	}

	got := formatDigest(ov)
	for _, want := range []string{
		"Students: 12 total, 10 active",
		"30-day attendance: 75%",
		"Overdue payments: 3",
		"- [MEDIUM] ATTENDANCE: attendance low (count 1)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatDigest() missing %q:\n%s", want, got)
		}
	}

	if got := formatDigest(insights.SystemOverview{}); !strings.Contains(got, "No alerts.") {
		t.Errorf("empty overview digest = %q, want No alerts.", got)
	}
}
