package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"go.uber.org/dig"

	echoapi "github.com/asprotests/hums-sub000/apps/api/echo"
	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gpa"
	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/transcript"
	auditsvc "github.com/asprotests/hums-sub000/services/audit"
	emailsvc "github.com/asprotests/hums-sub000/services/email"
	logsvc "github.com/asprotests/hums-sub000/services/logger"
	"github.com/asprotests/hums-sub000/storage/database"
	boiledrepos "github.com/asprotests/hums-sub000/storage/database/sqlboiler"
	sqlxrepos "github.com/asprotests/hums-sub000/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, *sql.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db.DB
}

func newBoilExecutor(db *sql.DB) boil.ContextExecutor {
	return db
}

func newEnrollmentQuerier(repo grading.Repository) gpa.EnrollmentQuerier {
	return repo
}

func newScaleProvider(reg *gradescale.Registry) grading.ScaleProvider {
	return reg
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, os.Stdout, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newAuditSink logs every audit event and mails it to the registrar.
func newAuditSink(conf *core.Config, logger core.Logger, email core.EmailService) core.AuditSink {
	return auditsvc.MultiSink{
		auditsvc.NewLoggerSink(logger),
		auditsvc.NewMailSink(email, conf),
	}
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	gradescale.InitValidators(validate, translator)
	return validate
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newBoilExecutor))
	must(c.Provide(newEmailService))
	must(c.Provide(newAuditSink))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewEnrollmentRepository))
	must(c.Provide(sqlxrepos.NewScaleRepository))
	must(c.Provide(boiledrepos.NewStudentRepository))
	must(c.Provide(boiledrepos.NewHoldRepository))
	must(c.Provide(newEnrollmentQuerier))

	// services
	must(c.Provide(gradescale.NewRegistry))
	must(c.Provide(newScaleProvider))
	must(c.Provide(grading.NewService))
	must(c.Provide(gpa.NewService))
	must(c.Provide(transcript.NewService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
