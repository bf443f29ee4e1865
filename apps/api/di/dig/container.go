package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/syllabus/apps/api/echo"
	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/syllabus"
	emailsvc "github.com/trezcool/syllabus/services/email"
	logsvc "github.com/trezcool/syllabus/services/logger"
	"github.com/trezcool/syllabus/storage/cache"
	"github.com/trezcool/syllabus/storage/database"
	sqlxrepos "github.com/trezcool/syllabus/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type syllabusParams struct {
	dig.In
	Conf   *core.Config
	DB     core.DB
	Repo   syllabus.Repository
	Owners owner.Service
	Mail   core.EmailService
	Logger core.Logger
	Cache  syllabus.Cache
}

type serverParams struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	DB          core.DB
	Validate    *validator.Validate
	Translator  ut.Translator
	OwnerSvc    owner.Service
	SyllabusSvc syllabus.Service
}

func newZap(conf *core.Config) (*zap.SugaredLogger, error) {
	return logsvc.NewZap(conf.Debug)
}

func newLogger(conf *core.Config, zl *zap.SugaredLogger) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("API"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config, zl *zap.SugaredLogger) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("DB"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, conf.Database.Driver, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newCache returns the redis document cache, or a pass-through when redis is not configured or unreachable.
func newCache(conf *core.Config, logger core.Logger) syllabus.Cache {
	if conf.Redis.Address == "" {
		return syllabus.NopCache{}
	}
	rdb, err := cache.NewClient(context.Background(), conf)
	if err != nil {
		logger.Warn(fmt.Sprintf("document cache disabled: %v", err), err)
		return syllabus.NopCache{}
	}
	return cache.NewDocumentCache(rdb, conf.Redis.TTL, logger)
}

func newSyllabusService(p syllabusParams) syllabus.Service {
	return syllabus.NewService(syllabus.Deps{
		DB:     p.DB,
		Repo:   p.Repo,
		Owners: p.Owners,
		Mail:   p.Mail,
		Logger: p.Logger,
		Cache:  p.Cache,
		Conf:   p.Conf,
	})
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		DB:          p.DB,
		Validate:    p.Validate,
		Translator:  p.Translator,
		OwnerSvc:    p.OwnerSvc,
		SyllabusSvc: p.SyllabusSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZap))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newCache))
	must(c.Provide(sqlxrepos.NewOwnerRepository, dig.As(new(owner.Repository))))
	must(c.Provide(sqlxrepos.NewSyllabusRepository, dig.As(new(syllabus.Repository))))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(core.NewValidate))
	must(c.Provide(owner.NewService))
	must(c.Provide(newSyllabusService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
