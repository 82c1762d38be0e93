package main

import (
	"github.com/spf13/cobra"

	"github.com/njitshpe/shpe-app-sub007/storage/database"
)

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		Args:  cobra.ArbitraryArgs,
		// goose commands take their own arguments (eg. up-to VERSION)
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			return migrateFunc(cmd.Context(), cli.db, args[0], args[1:]...)
		},
	}
}
