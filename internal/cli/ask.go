package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/rag"
	"docchat/internal/service"
)

var (
	askJSON      bool
	askNoSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about the ingested documents",
	Long: `Ask answers a single question from the current index.
The index must have been built with 'docchat ingest' using a durable backend.

Examples:
  docchat ask "What does the contract say about termination?"
  docchat ask --json "Who wrote the report?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askNoSources, "no-sources", false, "do not list the passages the answer is based on")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	result, err := a.Assistant.Ask(ctx, service.AskRequest{Question: strings.Join(args, " ")})
	if err != nil {
		return explain(err)
	}

	out := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printAnswer(out, result, !askNoSources)
	return nil
}

const previewRunes = 120

func printAnswer(w io.Writer, result rag.AnswerResult, showSources bool) {
	fmt.Fprintln(w, strings.TrimSpace(result.Answer))
	if !showSources || len(result.Sources) == 0 {
		return
	}

	fmt.Fprintf(w, "\nSources:\n")
	for _, src := range result.Sources {
		fmt.Fprintf(w, "  [%d] %s (chunk %d, score %.3f)\n", src.Rank, src.Source, src.Index, src.Score)
		fmt.Fprintf(w, "      %s\n", preview(src.Text))
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return text
}
