package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

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

var isTerminalFunc = term.IsTerminal // mockable

func main() {
	std := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(context.Background(), conf)
	if err != nil {
		std.Fatal(err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger)

	var pusher notification.Pusher
	var mailSvc core.EmailService
	if conf.Debug {
		pusher = pushsvc.NewConsolePusher(logger)
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		pusher = pushsvc.NewExpoPusher(conf.Push, logger)
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	evtRepo := sqlxrepos.NewEventRepository(db)
	mbrRepo := sqlxrepos.NewMemberRepository(db)
	mbrSvc := member.NewService(mbrRepo)

	// start CLI
	cli := commandLine{
		db:         db,
		conf:       conf,
		out:        os.Stdout,
		jsonOutput: !isTerminalFunc(int(os.Stdout.Fd())),
		validate:   validate,
		memberSvc:  mbrSvc,
		checkInSvc: checkin.NewService(
			db, evtRepo, mbrSvc,
			checkin.NewSigner(conf.CheckIn.Secret, conf.AppName, conf.AppScheme),
			nil /* check-ins are not made from the CLI */, logger,
			checkin.Options{
				TokenTTL:    conf.CheckIn.TokenTTL,
				EarlyWindow: conf.CheckIn.EarlyWindow,
				GracePeriod: conf.CheckIn.GracePeriod,
			},
		),
		notifySvc: notification.NewService(notification.Deps{
			Repo:     sqlxrepos.NewNotificationRepository(db),
			Members:  mbrRepo,
			Events:   evtRepo,
			Pusher:   pusher,
			MailSvc:  mailSvc,
			Logger:   logger,
			Validate: validate,
			Location: conf.Location(),
		}),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
