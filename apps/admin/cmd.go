package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/checkin"
	"github.com/njitshpe/shpe-app-sub007/core/member"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sqlx.DB
	conf       *core.Config
	out        io.Writer
	jsonOutput bool // machine readable output, the default when stdout is not a terminal
	validate   *validator.Validate
	memberSvc  *member.Service
	checkInSvc *checkin.Service
	notifySvc  *notification.Service
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.PersistentFlags().BoolVar(&cli.jsonOutput, "json", cli.jsonOutput, "print results as JSON")

	root.AddCommand(
		cli.migrateCmd(),
		cli.memberCmd(),
		cli.eventCmd(),
		cli.notifyCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	if len(args) > 0 {
		args = args[1:] // drop program name
	}
	root.SetArgs(args)
	return root.Execute()
}

// print writes v as JSON, or the human readable lines otherwise.
func (cli *commandLine) print(v interface{}, lines ...string) error {
	if cli.jsonOutput {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(cli.out, l); err != nil {
			return err
		}
	}
	return nil
}
