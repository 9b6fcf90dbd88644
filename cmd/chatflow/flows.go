package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/internal/presentation/graph"
	"github.com/aretw0/chatflow/internal/presentation/tui"
	"github.com/aretw0/chatflow/pkg/compiler"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var buildCmd = &cobra.Command{
	Use:   "build [form-file]",
	Short: "Compile a guided menu form into a flow document",
	Long: `Reads an authoring form (YAML or JSON, "-" or no argument for stdin) and prints
the FlowDocument the guided builder produces. Blank fields receive the default texts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := readForm(cmd, argOrStdin(args))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), compiler.BuildFlowFromMenu(form))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow document for consistency",
	Long: `Parses the document (format taken from the extension) and reports malformed text,
the first structural problem, or warnings about unreachable steps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		ed := offlineEditor()

		if !watch {
			return cli.ValidateFile(ed, args[0], cmd.OutOrStdout())
		}

		_, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunValidateWatch(ctx, ed, args[0], cmd.OutOrStdout(), logger)
	},
}

var deriveCmd = &cobra.Command{
	Use:   "derive [flow-file]",
	Short: "Recover the guided menu options from a flow document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := argOrStdin(args)
		data, err := cli.ReadInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), compiler.DeriveMenuOptionsFromText(data, compiler.FormatFromPath(path)))
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [flow-file]",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of a flow document file, or of a stored
chatbot with --chatbot. With --session, the steps that conversation visited are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatbotID, _ := cmd.Flags().GetString("chatbot")
		sessionID, _ := cmd.Flags().GetString("session")

		if chatbotID == "" {
			doc, err := loadDocument(cmd, argOrStdin(args))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc, nil))
			return nil
		}

		ed, backend, _, _, err := openEditor(cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer backend.Close()

		bot, err := ed.Store().Load(cmd.Context(), chatbotID)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			overlay, err = sessionOverlay(cmd, backend, chatbotID, sessionID)
			if err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(bot.FlowConfig, overlay))
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview [flow-or-form-file]",
	Short: "Render a flow document in the terminal",
	Long: `Shows each step as the contact would read it. With --form the input is an
authoring form, compiled first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		isForm, _ := cmd.Flags().GetBool("form")
		company, _ := cmd.Flags().GetString("company")
		path := argOrStdin(args)

		var doc *domain.FlowDocument
		if isForm {
			form, err := readForm(cmd, path)
			if err != nil {
				return err
			}
			doc = compiler.BuildFlowFromMenu(form)
		} else {
			var err error
			if doc, err = loadDocument(cmd, path); err != nil {
				return err
			}
		}

		if cmd.OutOrStdout() == os.Stdout {
			tui.PrintBanner(os.Stdout)
		}
		out, err := tui.NewRenderer()(tui.FlowMarkdown(doc, company))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd, validateCmd, deriveCmd, graphCmd, previewCmd)

	validateCmd.Flags().BoolP("watch", "w", false, "Re-validate whenever the file changes")
	graphCmd.Flags().String("chatbot", "", "Render the stored document of this chatbot")
	graphCmd.Flags().String("session", "", "Highlight the steps visited by this session (needs --chatbot)")
	previewCmd.Flags().Bool("form", false, "Treat the input as an authoring form")
	previewCmd.Flags().String("company", "", "Company name substituted into the messages")
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// readForm decodes an authoring form. YAML is a superset of JSON, so one decoder serves both.
func readForm(cmd *cobra.Command, path string) (domain.AuthoringForm, error) {
	var form domain.AuthoringForm
	data, err := cli.ReadInput(path, cmd.InOrStdin())
	if err != nil {
		return form, err
	}
	if err := yaml.Unmarshal(data, &form); err != nil {
		return form, fmt.Errorf("failed to parse form: %w", err)
	}
	return form, nil
}

// loadDocument reads, parses and validates a flow document.
func loadDocument(cmd *cobra.Command, path string) (*domain.FlowDocument, error) {
	data, err := cli.ReadInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	doc, _, err := offlineEditor().Check(string(data), compiler.FormatFromPath(path))
	return doc, err
}

func sessionOverlay(cmd *cobra.Command, backend *cli.Backend, chatbotID, sessionID string) (*graph.GraphOverlay, error) {
	if backend.Sessions == nil {
		return nil, fmt.Errorf("the configured store does not hold sessions")
	}
	sessions, err := backend.Sessions.ListSessions(cmd.Context(), chatbotID)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if s.ID != sessionID {
			continue
		}
		logs, err := backend.Sessions.ListSessionLogs(cmd.Context(), sessionID, 0)
		if err != nil {
			return nil, err
		}
		return graph.OverlayFromLogs(s, logs), nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
