package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/njitshpe/shpe-app-sub007/apps/api/echo"
	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
	emailsvc "github.com/njitshpe/shpe-app-sub007/services/email"
	logsvc "github.com/njitshpe/shpe-app-sub007/services/logger"
	pushsvc "github.com/njitshpe/shpe-app-sub007/services/push"
	"github.com/njitshpe/shpe-app-sub007/storage/database"
	sqlxrepos "github.com/njitshpe/shpe-app-sub007/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// set up services
	var mailSvc core.EmailService
	var pusher notification.Pusher
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
		pusher = pushsvc.NewConsolePusher(logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
		pusher = pushsvc.NewExpoPusher(conf.Push, logger)
	}

	evtRepo := sqlxrepos.NewEventRepository(db)
	mbrRepo := sqlxrepos.NewMemberRepository(db)
	mbrSvc := member.NewService(mbrRepo)
	notifSvc := notification.NewService(notification.Deps{
		Repo:     sqlxrepos.NewNotificationRepository(db),
		Members:  mbrRepo,
		Events:   evtRepo,
		Pusher:   pusher,
		MailSvc:  mailSvc,
		Logger:   logger,
		Validate: validate,
		Location: conf.Location(),
	})
	ciSvc := checkin.NewService(
		db, evtRepo, mbrSvc,
		checkin.NewSigner(conf.CheckIn.Secret, conf.AppName, conf.AppScheme),
		notifSvc, logger,
		checkin.Options{
			TokenTTL:    conf.CheckIn.TokenTTL,
			EarlyWindow: conf.CheckIn.EarlyWindow,
			GracePeriod: conf.CheckIn.GracePeriod,
		},
	)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			CheckInSvc:      ciSvc,
			MemberSvc:       mbrSvc,
			NotificationSvc: notifSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

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

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx := context.Background()
	if conf.Debug {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
