package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/member"
)

func (cli *commandLine) memberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage member profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}

	var mbr member.Member
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a member profile (profiles are normally created on sign up)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if core.CleanString(mbr.Email) == "" {
				_ = cmd.Usage()
				return errHelp
			}
			mbr.NotificationsEnabled = true
			created, err := cli.memberSvc.Create(cmd.Context(), mbr)
			if err != nil {
				return err
			}
			return cli.print(created, fmt.Sprintf("member %s created (%s)", created.ID, created.Email))
		},
	}
	add.Flags().StringVar(&mbr.ID, "id", "", "profile ID, must match the auth user ID (generated when empty)")
	add.Flags().StringVar(&mbr.Email, "email", "", "member email (required)")
	add.Flags().StringVar(&mbr.FirstName, "first-name", "", "first name")
	add.Flags().StringVar(&mbr.LastName, "last-name", "", "last name")

	cmd.AddCommand(add)
	return cmd
}
