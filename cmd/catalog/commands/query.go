package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/queries"
	"github.com/spf13/cobra"
)

var queryParams map[string]string

// queryCmd groups the named query library
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run queries from the named query library",
	Long: `Run queries from the named query library.

Subcommands:
  list    - Show every query with its parameters
  run     - Run one query by name`,
}

// queryListCmd lists the library
var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the named queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQueryList()
	},
}

// queryRunCmd runs one query
var queryRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a named query",
	Long: `Run a named query and print its rows. Parameters not given take their
defaults; see 'catalog query list'.

Examples:
  catalog query run product-stats
  catalog query run orders-between --param from=2024-02-01 --param to=2024-02-29
  catalog query run raise-prices --param factor=1.05 --param category=3
  catalog query run top-product-per-category --json`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var names []string
		for _, def := range queries.Definitions() {
			if strings.HasPrefix(def.Name, toComplete) {
				names = append(names, def.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := queries.Lookup(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runQuery(ctx, a, def)
		})
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryListCmd, queryRunCmd)

	queryRunCmd.Flags().StringToStringVarP(&queryParams, "param", "p", nil, "Query parameter as name=value (repeatable)")
}

func runQueryList() error {
	defs := queries.Definitions()
	if jsonOutput {
		return output.JSON(defs)
	}

	rows := make([][]string, len(defs))
	for i, def := range defs {
		rows[i] = []string{def.Name, formatParams(def.Params), def.Description}
		if def.Mutates {
			rows[i][0] += " *"
		}
	}

	output.Println(output.Table([]string{"name", "params", "description"}, rows, ""))
	output.Muted("* writes to the database")
	return nil
}

func formatParams(params []queries.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Default == "" {
			parts[i] = p.Name
			continue
		}
		parts[i] = fmt.Sprintf("%s=%s", p.Name, p.Default)
	}
	return strings.Join(parts, " ")
}

func runQuery(ctx context.Context, a *app, def queries.Definition) error {
	result, err := def.Run(ctx, queries.New(a.db), queries.Params(queryParams))
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(result)
	}

	if def.Mutates {
		if n, ok := result.(int64); ok {
			output.Success("%s changed %d row(s)", def.Name, n)
			return nil
		}
		output.Success("%s done", def.Name)
		return nil
	}

	t := queries.Tabulate(result)
	output.Println(output.Table(t.Headers, t.Rows, queries.Null))
	output.Muted("%d row(s)", len(t.Rows))
	return nil
}
