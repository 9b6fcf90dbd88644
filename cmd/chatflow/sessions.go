package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions <chatbot-id>",
	Short: "List the conversations of a chatbot (read-only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()
		if backend.Sessions == nil {
			return fmt.Errorf("the configured store does not hold sessions")
		}

		sessions, err := backend.Sessions.ListSessions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCONTACT\tSTEP\tSTATUS\tATTEMPTS\tUPDATED")
		for _, s := range sessions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", s.ID, s.ContactPhone, s.CurrentStep, s.Status, s.Attempts, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var sessionLogsCmd = &cobra.Command{
	Use:   "logs <session-id>",
	Short: "Print the messages of a conversation in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		_, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()
		if backend.Sessions == nil {
			return fmt.Errorf("the configured store does not hold sessions")
		}

		logs, err := backend.Sessions.ListSessionLogs(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		for _, l := range logs {
			arrow := "<"
			if l.Direction == domain.DirectionInbound {
				arrow = ">"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] %s\n", l.CreatedAt.Format("15:04:05"), arrow, l.StepID, l.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionLogsCmd)
	sessionLogsCmd.Flags().Int("limit", 0, "Maximum number of messages (0 = all)")
}
