package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/editor"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "chatflow",
	Short:         "chatflow authors WhatsApp menu chatbot flows",
	Long:          `chatflow compiles guided menu forms into flow documents, validates raw documents and manages stored chatbots.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, json or toml; default ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("store", "", "Store driver: memory, sqlite, postgres, redis or loam")
	rootCmd.PersistentFlags().String("dsn", "", "SQLite path or Postgres URL")
	rootCmd.PersistentFlags().String("dir", "", "Loam repository directory")
}

// exitCode distinguishes unreadable input from rejected documents for scripts.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedDocument), errors.Is(err, editor.ErrDocumentTooLarge):
		return 2
	case errors.Is(err, domain.ErrInvalidDocument), errors.Is(err, editor.ErrNoOptions):
		return 3
	case errors.Is(err, domain.ErrChatbotNotFound):
		return 4
	default:
		return 1
	}
}

// loadConfig resolves file, environment and flag settings, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	overrides := map[string]*string{
		"log-level": &cfg.Log.Level,
		"store":     &cfg.Store.Driver,
		"dsn":       &cfg.Store.DSN,
		"dir":       &cfg.Store.Dir,
	}
	for flag, dst := range overrides {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}

	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// openEditor builds the configured backend and an editor over it.
// Callers must Close the backend.
func openEditor(cmd *cobra.Command, hooks domain.LifecycleHooks) (*editor.Editor, *cli.Backend, config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, cfg, nil, err
	}
	backend, err := cli.OpenBackend(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return nil, nil, cfg, nil, err
	}
	return cli.NewEditor(backend, logger, hooks), backend, cfg, logger, nil
}

// offlineEditor serves commands that only build or check documents.
func offlineEditor() *editor.Editor {
	return editor.New(memory.NewStore())
}
