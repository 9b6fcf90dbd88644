package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/spf13/cobra"
)

var chatbotCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "Manage stored chatbots",
}

var chatbotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chatbots, optionally for one tenant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenant, _ := cmd.Flags().GetString("tenant")
		ed, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()

		bots, err := ed.Store().List(cmd.Context(), tenant)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTENANT\tNAME\tMODE\tSTEPS\tUPDATED")
		for _, b := range bots {
			steps := 0
			if b.FlowConfig != nil {
				steps = len(b.FlowConfig.Steps)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", b.ID, b.TenantID, b.Name, b.EditMode, steps, b.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var chatbotGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a chatbot with its derived form and raw document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()

		session, err := ed.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, w := range session.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		return writeJSON(cmd.OutOrStdout(), session)
	},
}

var chatbotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or replace a chatbot from a form or a raw document",
	Long: `Guided mode (--form) compiles an authoring form; raw mode (--raw) stores the
document text as written. Nothing is written unless the document validates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formPath, _ := cmd.Flags().GetString("form")
		rawPath, _ := cmd.Flags().GetString("raw")
		if (formPath == "") == (rawPath == "") {
			return fmt.Errorf("exactly one of --form or --raw is required")
		}

		req := editor.SaveRequest{}
		req.ChatbotID, _ = cmd.Flags().GetString("id")
		req.TenantID, _ = cmd.Flags().GetString("tenant")
		req.Name, _ = cmd.Flags().GetString("name")
		req.CompanyName, _ = cmd.Flags().GetString("company")
		req.Form.FallbackMessage, _ = cmd.Flags().GetString("fallback")
		req.Form.MaxAttempts, _ = cmd.Flags().GetInt("max-attempts")

		if formPath != "" {
			form, err := readForm(cmd, formPath)
			if err != nil {
				return err
			}
			if req.Form.FallbackMessage != "" {
				form.FallbackMessage = req.Form.FallbackMessage
			}
			if req.Form.MaxAttempts > 0 {
				form.MaxAttempts = req.Form.MaxAttempts
			}
			req.Mode, req.Form = domain.EditModeGuided, form
		} else {
			data, err := cli.ReadInput(rawPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req.Mode, req.RawFlow, req.Format = domain.EditModeRaw, string(data), compiler.FormatFromPath(rawPath)
		}

		ed, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()

		bot, err := ed.Save(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s, %d steps)\n", bot.ID, bot.EditMode, len(bot.FlowConfig.Steps))
		return nil
	},
}

var chatbotDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a chatbot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()
		return ed.Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(chatbotCmd)
	chatbotCmd.AddCommand(chatbotListCmd, chatbotGetCmd, chatbotSaveCmd, chatbotDeleteCmd)

	chatbotListCmd.Flags().String("tenant", "", "Only list chatbots of this tenant")

	chatbotSaveCmd.Flags().String("id", "", "Chatbot id (empty creates a new one)")
	chatbotSaveCmd.Flags().String("tenant", "", "Tenant id")
	chatbotSaveCmd.Flags().String("name", "", "Display name")
	chatbotSaveCmd.Flags().String("company", "", "Company name used in the goodbye message")
	chatbotSaveCmd.Flags().String("form", "", "Authoring form file (guided mode)")
	chatbotSaveCmd.Flags().String("raw", "", "Flow document file (raw mode)")
	chatbotSaveCmd.Flags().String("fallback", "", "Message sent when a reply matches no option")
	chatbotSaveCmd.Flags().Int("max-attempts", 0, "Unmatched replies tolerated before ending (default 3)")
}
