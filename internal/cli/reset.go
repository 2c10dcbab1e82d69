package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every indexed document",
	Long: `Reset empties the index so the next question requires a new ingest.
The index file itself is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		if err := a.Session.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Index cleared (%s).\n", a.Config.IndexBackend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
