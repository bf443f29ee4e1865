package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dig_container "github.com/trezcool/syllabus/apps/api/di/dig"
	echoapi "github.com/trezcool/syllabus/apps/api/echo"
	"github.com/trezcool/syllabus/core"
)

func main() {
	c := dig_container.New()
	if err := c.Invoke(run); err != nil {
		log.Fatal(err)
	}
}

func run(
	conf *core.Config,
	zl *zap.SugaredLogger,
	apiLogger core.Logger,
	dbLoggerParam dig_container.DBLoggerParam,
	db *sqlx.DB,
	server *echoapi.Server,
) {
	// =========================================================================
	// Initialize App

	apiLogger.Info(fmt.Sprintf("Application initializing : version %q, %s mode", conf.Build, conf.OwnerKind))
	defer func() { _ = zl.Sync() }()

	dbLogger := dbLoggerParam.Logger
	defer func() {
		if err := db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	defer apiLogger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("ownerKind").Set(conf.OwnerKind)

	debug := &http.Server{Addr: conf.Server.DebugAddress, Handler: http.DefaultServeMux}

	var g errgroup.Group
	g.Go(func() error {
		if err := debug.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			return err
		}
		return nil
	})

	// =========================================================================
	// Start API Service

	g.Go(func() error {
		server.Start()
		return nil
	})

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	// asking listener to shut down and shed load
	if err := server.Shutdown(ctx); err != nil {
		apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = server.Close(); err != nil {
			apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
	if err := debug.Shutdown(ctx); err != nil {
		apiLogger.Error(fmt.Sprintf("could not stop debug server: %v", err), err)
	}

	if err := g.Wait(); err != nil {
		apiLogger.Warn(fmt.Sprintf("stopped with error: %v", err), err)
	}
}
