package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/apps/api/echo"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
	logsvc "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/services/logger"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/storage/database"
	inmemdb "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/storage/database/inmem"
	pgdb "github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/storage/database/postgres"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, conf.AppName+" : ", log.LstdFlags|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up the datastore
	var ds insights.Datastore
	if conf.Debug && conf.Database.Host == "" {
		// local hacking without postgres
		memDB, err := inmemdb.Open()
		errAndDie(std, err)
		ds = memDB
	} else {
		db, err := database.Open(conf)
		errAndDie(std, err)
		defer func() { _ = db.Close() }()

		pgDS, err := pgdb.NewDatastore(db)
		errAndDie(std, err)
		ds = pgDS
	}

	// set up services
	studentSvc := insights.NewStudentService(ds, conf.Insights, logger)
	groupSvc := insights.NewGroupService(ds, conf.Insights, logger)
	systemSvc := insights.NewSystemService(ds, conf.Insights, logger)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:       conf.Server.Address(),
			Conf:       conf,
			Logger:     logger,
			StudentSvc: studentSvc,
			GroupSvc:   groupSvc,
			SystemSvc:  systemSvc,
		},
		shutdown,
	)
	go app.Start()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		std.Printf("stopping server: %v", err)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
