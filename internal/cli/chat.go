package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/rag"
	"docchat/internal/service"
)

var chatNoSources bool

var chatCmd = &cobra.Command{
	Use:   "chat [file|dir|glob]...",
	Short: "Start an interactive conversation",
	Long: `Chat reads questions from standard input and answers them in turn,
keeping the conversation so follow-up questions have context.
When documents are given they are ingested first; otherwise the
existing index is used.

Commands:
  /history   show the conversation so far
  /clear     forget the conversation
  /quit      leave (Ctrl+D also works)`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatNoSources, "no-sources", false, "do not list the passages each answer is based on")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		if err := ingestOnce(ctx, out, cmd.ErrOrStderr(), a, args); err != nil {
			return err
		}
	}
	if !a.Session.Ready() {
		return explain(rag.ErrNotReady)
	}

	return chatLoop(ctx, cmd.InOrStdin(), out, a.Assistant, !chatNoSources)
}

// chatLoop answers each line of in until EOF, /quit or ctx is cancelled.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, assistant service.AssistantService, showSources bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(out, "Ask a question about your documents. Type /quit to leave.")
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			assistant.ClearHistory(ctx)
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/history":
			printHistory(ctx, out, assistant)
			continue
		}

		result, err := assistant.Ask(ctx, service.AskRequest{Question: line})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", explain(err))
			continue
		}
		fmt.Fprintln(out)
		printAnswer(out, result, showSources)
	}
}

func printHistory(ctx context.Context, w io.Writer, assistant service.AssistantService) {
	turns := assistant.History(ctx)
	if len(turns) == 0 {
		fmt.Fprintln(w, "No conversation yet.")
		return
	}
	for _, turn := range turns {
		fmt.Fprintf(w, "%3d %-8s %s\n", turn.Seq, turn.Role, turn.Text)
	}
}
