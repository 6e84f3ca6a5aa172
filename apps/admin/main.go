package main

import (
	"log"
	"os"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
	consolemail "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/services/email/console"
	sendgridmail "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/services/email/sendgrid"
	logsvc "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/services/logger"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/storage/database"
	pgdb "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/storage/database/postgres"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, conf.AppName+" admin : ", log.LstdFlags)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		std.Fatal(err)
	}
	db, err := database.Open(conf)
	if err != nil {
		std.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ds, err := pgdb.NewDatastore(db)
	if err != nil {
		std.Fatal(err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = consolemail.NewService(conf.AppName, conf.DefaultFromEmail)
	} else {
		mailSvc = sendgridmail.NewService(conf, logger)
	}

	cli := &commandLine{
		conf:         conf,
		systemSvc:    insights.NewSystemService(ds, conf.Insights, logger),
		mailSvc:      mailSvc,
		migrateFunc:  func() error { return database.Migrate(db) },
		createDBFunc: func() error { return database.CreateIfNotExist(conf) },
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Fatal(err)
		}
		os.Exit(2)
	}
}
