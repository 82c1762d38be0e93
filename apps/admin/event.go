package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/njitshpe/shpe-app-sub007/core/checkin"
)

func (cli *commandLine) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage events and their check-in tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	cmd.AddCommand(cli.eventCreateCmd(), cli.eventTokenCmd())
	return cmd
}

func (cli *commandLine) eventCreateCmd() *cobra.Command {
	var (
		ne       checkin.NewEvent
		startsAt string
		duration time.Duration
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			if startsAt != "" {
				t, err := time.Parse(time.RFC3339, startsAt)
				if err != nil {
					return fmt.Errorf("--starts-at must be RFC3339 (got %q)", startsAt)
				}
				ne.StartsAt = t
				ne.EndsAt = t.Add(duration)
			}
			ev, err := cli.checkInSvc.CreateEvent(cmd.Context(), ne, cli.validate)
			if err != nil {
				return err
			}
			return cli.print(ev, fmt.Sprintf("event %s created: %s, %s - %s",
				ev.ID, ev.Name, ev.StartsAt.In(cli.conf.Location()).Format(time.RFC1123), ev.EndsAt.In(cli.conf.Location()).Format(time.Kitchen)))
		},
	}
	create.Flags().StringVar(&ne.Name, "name", "", "event name (required)")
	create.Flags().StringVar(&ne.Location, "location", "", "where the event takes place")
	create.Flags().StringVar(&startsAt, "starts-at", "", "start time, RFC3339 (required)")
	create.Flags().DurationVar(&duration, "duration", time.Hour, "event duration")
	create.Flags().IntVar(&ne.Points, "points", 0, "points awarded on check-in")
	create.Flags().BoolVar(&ne.RequiresRSVP, "requires-rsvp", false, "only members going to the event may check in")
	return create
}

func (cli *commandLine) eventTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token EVENT_ID",
		Short: "Issue a check-in token for the event, to be rendered as a QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := cli.checkInSvc.IssueToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.print(tok,
				"token:   "+tok.Token,
				"qr:      "+tok.QRPayload,
				"expires: "+tok.ExpiresAt.In(cli.conf.Location()).Format(time.RFC1123),
			)
		},
	}
}
