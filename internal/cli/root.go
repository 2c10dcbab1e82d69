// Package cli implements the docchat command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docchat/internal/app"
	"docchat/internal/config"
	"docchat/internal/rag"
)

var (
	cfgFile     string
	backendFlag string
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat ingests .txt and .pdf files into a vector index and answers
questions about them, keeping the conversation so follow-up questions work.

Example usage:
  docchat ingest docs/                   # Ingest every document under docs/
  docchat ingest "papers/**/*.pdf"       # Ingest files matching a glob
  docchat ask "What is the refund policy?"
  docchat chat                           # Interactive session
  docchat serve                          # Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendFlag != "" {
			cfg.IndexBackend = backendFlag
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid --backend: %w", err)
			}
		}
		slog.SetDefault(app.NewLogger(cfg))
		return nil
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $DOCCHAT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "index backend: memory, bolt, sqlite or qdrant (default from config)")
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() *config.Config {
	return cfg
}

// openApp builds the application for a command and explains the common failures.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, GetConfig())
	if err != nil {
		if app.IsLocked(err) {
			return nil, fmt.Errorf("the index in %s is in use by another docchat process: %w", GetConfig().PersistDirectory, err)
		}
		return nil, err
	}
	return a, nil
}

// explain rewrites errors the user can act on.
func explain(err error) error {
	if errors.Is(err, rag.ErrNotReady) {
		return fmt.Errorf("no documents ingested yet; run 'docchat ingest <files>' first: %w", err)
	}
	return err
}
