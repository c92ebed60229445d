package commands

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/tui"
	"github.com/marshallshelly/pebble-catalog/internal/queries"
	"github.com/spf13/cobra"
)

// browseCmd opens the interactive query browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse and run named queries interactively",
	Long: `Open a terminal UI listing the named queries. Pick one to run it with
its default parameters and scroll through the result. Queries that write
ask for confirmation first.

Keys:
  ↑/↓      navigate
  /        filter
  enter    run
  esc      back to the list
  q        quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return tui.RunBrowser(ctx, queries.New(a.db))
		})
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
