package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/mail"
	"strings"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf      *core.Config
	systemSvc *insights.SystemService
	mailSvc   core.EmailService

	migrateFunc  func() error
	createDBFunc func() error
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb                    - create the app database if it does not exist")
	fmt.Println("  migrate                     - run pending database migrations")
	fmt.Println("  alertdigest [-to EMAIL]     - compute the system insight and email the alert summary")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	alertDigestCmd := flag.NewFlagSet("alertdigest", flag.ExitOnError)
	alertDigestTo := alertDigestCmd.String("to", "", "Recipient email. Defaults to the configured admin email.")

	switch args[1] {
	case "createdb":
		return cli.createDBFunc()
	case "migrate":
		return cli.migrateFunc()
	case "alertdigest":
		if err := alertDigestCmd.Parse(args[2:]); err != nil {
			return err
		}
		to := *alertDigestTo
		if to == "" {
			to = cli.conf.AdminEmail
		}
		return cli.alertDigest(to)
	default:
		cli.printUsage()
		return errHelp
	}
}

// alertDigest emails the current system alerts to the given address.
func (cli *commandLine) alertDigest(to string) error {
	ov := cli.systemSvc.Overview(context.Background())
	if ov.Unavailable {
		return errors.New("system insight unavailable; digest not sent")
	}

	cli.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: to}},
		Subject: "Daily alert digest",
		BodyStr: formatDigest(ov),
	})
	return nil
}

func formatDigest(ov insights.SystemOverview) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Students: %d total, %d active\n", ov.TotalStudents, ov.ActiveStudents)
	fmt.Fprintf(b, "30-day attendance: %d%%\n", ov.AttendanceRate)
	fmt.Fprintf(b, "30-day average performance: %d\n", ov.AveragePerformance)
	fmt.Fprintf(b, "Overdue payments: %d\n\n", ov.OverduePayments)

	if len(ov.Alerts) == 0 {
		b.WriteString("No alerts.\n")
		return b.String()
	}

	b.WriteString("Alerts:\n")
	for _, a := range ov.Alerts {
		fmt.Fprintf(b, "- [%s] %s: %s (count %d)\n", a.Severity, a.Type, a.Message, a.Count)
	}
	return b.String()
}
