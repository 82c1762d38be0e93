package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

func (cli *commandLine) notifyCmd() *cobra.Command {
	var (
		req  notification.Request
		kind string
	)
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a push notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				_ = cmd.Usage()
				return errHelp
			}
			req.Kind = notification.Kind(kind)
			report, err := cli.notifySvc.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			return cli.print(report, fmt.Sprintf("%s: %d recipients, %d sent, %d emailed, %d skipped, %d failed",
				report.Kind, report.Recipients, report.Sent, report.Emailed, report.Skipped, report.Failed))
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "notification type (required)")
	cmd.Flags().StringVar(&req.EventID, "event", "", "event ID")
	cmd.Flags().StringSliceVar(&req.MemberIDs, "user", nil, "recipient member IDs (default: everyone, or members going for reminders)")
	cmd.Flags().StringVar(&req.Title, "title", "", "announcement title")
	cmd.Flags().StringVar(&req.Body, "body", "", "announcement body")
	cmd.Flags().StringToStringVar(&req.Data, "data", nil, "extra data delivered with the notification (key=value)")
	cmd.Flags().BoolVar(&req.EmailFallback, "email-fallback", false, "email members without a registered device")
	return cmd
}
