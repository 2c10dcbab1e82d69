package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docchat/internal/app"
	"docchat/internal/corpus"
	"docchat/internal/rag"
	"docchat/internal/service"
)

var ingestWatch bool

// errNoDocuments is returned when the arguments match no ingestible file.
var errNoDocuments = errors.New("no .txt or .pdf files matched")

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir|glob>...",
	Short: "Build the index from documents",
	Long: `Ingest replaces the current index with the given documents.
Directories are searched recursively and globs may use ** to match
any number of directories. The conversation history is cleared.

Examples:
  docchat ingest notes.txt report.pdf
  docchat ingest docs/
  docchat ingest "docs/**/*.{txt,pdf}" --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest whenever a matched document changes")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	out := cmd.OutOrStdout()
	if err := ingestOnce(ctx, out, cmd.ErrOrStderr(), a, args); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}

	fmt.Fprintf(out, "\nWatching for changes (Ctrl+C to stop)...\n")
	return corpus.Watch(ctx, args, corpus.DefaultDebounce, func(ctx context.Context) error {
		fmt.Fprintf(out, "\nChange detected, re-ingesting...\n")
		return ingestOnce(ctx, out, cmd.ErrOrStderr(), a, args)
	})
}

// ingestOnce scans args, reads the matched files and replaces the index with them.
func ingestOnce(ctx context.Context, out, progressOut io.Writer, a *app.App, args []string) error {
	scanned, err := corpus.Scan(ctx, args)
	if err != nil {
		return err
	}
	if len(scanned) == 0 {
		return errNoDocuments
	}

	bar := newProgressBar(progressOut, len(scanned), "[cyan]Reading[reset]")
	files, err := corpus.ReadFiles(ctx, scanned, func(done, total int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Embedding %d file(s)...\n", len(files))
	result, err := a.Assistant.Ingest(ctx, service.IngestRequest{Files: files})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printIngestResult(out, result, a.Config.IndexBackend)
	return nil
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func printIngestResult(w io.Writer, result rag.IngestResult, backend string) {
	fmt.Fprintf(w, "\nIngest complete:\n")
	fmt.Fprintf(w, "  Documents: %d\n", result.Documents)
	fmt.Fprintf(w, "  Chunks:    %d\n", result.Chunks)
	fmt.Fprintf(w, "  Index:     %s\n", backend)

	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped:\n")
		for _, s := range result.Skipped {
			fmt.Fprintf(w, "  - %s: %s\n", s.Name, s.Reason)
		}
	}
}
