package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"docchat/internal/handlers"
	"docchat/internal/http"
)

var (
	servePort   string
	serveWarmUp bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve exposes the session over HTTP:

  POST   /api/documents   upload files (multipart field "files")
  POST   /api/ask         {"question": "..."}
  GET    /api/history     conversation so far
  DELETE /api/history     forget the conversation
  GET    /api/health      readiness and provider status`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "port to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveWarmUp, "warm-up", true, "preload local models before accepting requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if serveWarmUp {
		if err := a.WarmUp(ctx); err != nil {
			slog.WarnContext(ctx, "Failed to preload local models", "error", err)
		}
	}

	port := cfg.APIPort
	if servePort != "" {
		port = servePort
	}

	router := http.NewRouter(&http.Deps{
		Assistant:      a.Assistant,
		Generator:      a.Providers.Generator,
		MaxUploadBytes: handlers.DefaultMaxUploadBytes,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on :%s (ready: %v)\n", port, a.Session.Ready())
	return http.Serve(ctx, ":"+port, router)
}
