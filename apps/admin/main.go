package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	logsvc "github.com/trezcool/syllabus/services/logger"
	"github.com/trezcool/syllabus/storage/database"
	sqlxrepos "github.com/trezcool/syllabus/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf.Debug)
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("ADMIN"), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	translator := core.NewTranslator()
	cli := commandLine{
		conf:       conf,
		db:         db,
		ownerSvc:   owner.NewService(sqlxrepos.NewOwnerRepository(db)),
		validate:   core.NewValidate(translator),
		translator: translator,
	}
	err = cli.run(os.Args, os.Stdout)
	if err != nil && err != errHelp {
		logger.Error(fmt.Sprintf("admin %v: %v", os.Args[1:], err), err)
	}

	_ = db.Close()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
