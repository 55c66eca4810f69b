package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/transcript"
	auditsvc "github.com/asprotests/hums-sub000/services/audit"
	logsvc "github.com/asprotests/hums-sub000/services/logger"
	"github.com/asprotests/hums-sub000/storage/database"
	boiledrepos "github.com/asprotests/hums-sub000/storage/database/sqlboiler"
	sqlxrepos "github.com/asprotests/hums-sub000/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	defer appLogger.Close()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// set up services
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	gradescale.InitValidators(validate, translator)

	// audit events are logged; registrar e-mails are sent by the API only
	audit := auditsvc.NewLoggerSink(appLogger)
	enrollments := sqlxrepos.NewEnrollmentRepository(db)
	students := boiledrepos.NewStudentRepository(db.DB)
	registry := gradescale.NewRegistry(sqlxrepos.NewScaleRepository(db), validate, audit, appLogger)

	// start CLI
	cli := commandLine{
		db:          db.DB,
		out:         os.Stdout,
		registry:    registry,
		grading:     grading.NewService(enrollments, registry, audit, appLogger),
		transcripts: transcript.NewService(students, boiledrepos.NewHoldRepository(db.DB), enrollments, appLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		appLogger.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
