package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"time"

	"github.com/trezcool/darasa/apps/api/di"
	"github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/imagestore"
	"github.com/trezcool/darasa/services/jobs"
	"github.com/trezcool/darasa/services/metrics"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	logger := di.NewLogger("API : ", conf)
	defer logger.Flush()
	dbLogger := di.NewLogger("DB : ", conf)
	jobLogger := di.NewLogger("JOBS : ", conf)

	repos, closeDB, err := di.OpenRepositories(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	locker, closeLocker, err := di.NewLocker(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up locker: %v", err), err)
	}
	defer func() { _ = closeLocker() }()

	images, err := imagestore.New(conf.Uploads)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up image store: %v", err), err)
	}

	prom := metrics.NewPrometheus()
	svcs := di.NewServices(repos, di.Options{Locker: locker, Metrics: prom, Retention: conf.Cleanup})
	validate, translator := di.NewValidator()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Cleanup Job

	runner, err := jobs.NewRunner(conf.Cleanup.Spec, svcs.Schedules, locker, jobLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cleanup job: %v", err), err)
	}
	runner.Start()
	jobLogger.Info(fmt.Sprintf("schedule cleanup next run at %s", runner.Next().Format(time.RFC3339)))

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Services:   svcs,
		Images:     images,
		Metrics:    prom,
		Validate:   validate,
		Translator: translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests and the running job a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		runner.Stop(ctx)

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
