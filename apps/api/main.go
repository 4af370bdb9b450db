package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/luct/reports/apps/api/echo"
	"github.com/luct/reports/core"
	"github.com/luct/reports/core/assignment"
	"github.com/luct/reports/core/rating"
	"github.com/luct/reports/core/report"
	"github.com/luct/reports/core/user"
	"github.com/luct/reports/services/email"
	"github.com/luct/reports/services/logger"
	"github.com/luct/reports/storage/database"
	"github.com/luct/reports/storage/database/inmem"
	"github.com/luct/reports/storage/database/sqlx"
)

type repositories struct {
	user       user.Repository
	report     report.Repository
	rating     rating.Repository
	assignment assignment.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Wait()

	if err := conf.Validate(); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	// set up DB
	repos, closeDB, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, os.Stdout)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}
	usrSvc := user.NewService(repos.user)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(conf.Server.Address(), shutdown, &echoapi.Deps{
		Conf:          conf,
		Logger:        logger,
		Tokens:        user.NewTokenIssuer(conf.SecretKey, conf.AppName, conf.JWTExpirationDelta),
		UserSvc:       usrSvc,
		ReportSvc:     report.NewService(repos.report, usrSvc, mailSvc, logger, conf.EmailTimeout),
		RatingSvc:     rating.NewService(repos.rating),
		AssignmentSvc: assignment.NewService(repos.assignment),
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address()))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

// setUpRepositories opens the store selected by DATABASE_ENGINE.
func setUpRepositories(conf *core.Config) (repositories, func() error, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return repositories{
			user:       inmemdb.NewUserRepository(db),
			report:     inmemdb.NewReportRepository(db),
			rating:     inmemdb.NewRatingRepository(db),
			assignment: inmemdb.NewAssignmentRepository(db),
		}, func() error { return nil }, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	timeout := conf.Database.QueryTimeout
	return repositories{
		user:       sqlxrepos.NewUserRepository(db, timeout),
		report:     sqlxrepos.NewReportRepository(db, timeout),
		rating:     sqlxrepos.NewRatingRepository(db, timeout),
		assignment: sqlxrepos.NewAssignmentRepository(db, timeout),
	}, db.Close, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if conf.Debug {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
