package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echoapi "github.com/trezcool/safestep/apps/api/echo"
	"github.com/trezcool/safestep/core"
	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
	emailsvc "github.com/trezcool/safestep/services/email"
	sendgridmail "github.com/trezcool/safestep/services/email/sendgrid"
	logsvc "github.com/trezcool/safestep/services/logger"
	inmemdb "github.com/trezcool/safestep/storage/database/inmem"
	sqlxrepos "github.com/trezcool/safestep/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(std, conf)
		rollbarLogger.Enable(true)
		logger = rollbarLogger
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = sendgridmail.NewService(conf, logger)
	}

	// set up storage: in-memory by default, Postgres when an engine is configured
	userRepo, trainingRepo, alertRepo, closeDB, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer closeDB()

	usrSvc := user.NewService(userRepo, mailSvc, conf)
	trainingSvc := training.NewService(trainingRepo)
	alertSvc := alert.NewService(alertRepo)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Addr:        conf.Server.Address(),
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		TrainingSvc: trainingSvc,
		AlertSvc:    alertSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpStorage(conf *core.Config) (user.Repository, training.Repository, alert.Repository, func(), error) {
	if conf.Database.Engine == "" {
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err = inmemdb.Seed(context.Background(), db); err != nil {
			return nil, nil, nil, nil, err
		}
		return inmemdb.NewUserRepository(db),
			inmemdb.NewTrainingRepository(db),
			inmemdb.NewAlertRepository(db),
			func() {}, nil
	}

	db, err := sqlxrepos.Open(conf)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err = sqlxrepos.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, err
	}
	return sqlxrepos.NewUserRepository(db),
		sqlxrepos.NewTrainingRepository(db),
		sqlxrepos.NewAlertRepository(db),
		func() { _ = db.Close() }, nil
}
