package commands

import (
	"context"
	"io"
	"os"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/export"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var exportFile string

// exportCmd dumps schema and data
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export schema and data as a SQL script",
	Long: `Export the schema DDL and every row as a SQL script that 'catalog load'
can replay into an empty database. Rows are ordered by primary key, so the
same data always gives the same script.

Examples:
  catalog export                       # Write to stdout
  catalog export -o catalog.sql        # Write to a file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runExport)
	},
}

// loadCmd replays an export
var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a SQL script written by export",
	Long: `Run a script written by 'catalog export' in a single transaction. The
target database may be empty or migrated but must hold no rows that
collide with the script; any failure rolls the whole load back.
Use - to read from stdin.

Examples:
  catalog load catalog.sql
  catalog export --db $SOURCE | catalog load --db $TARGET -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runLoad(ctx, a, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, loadCmd)

	exportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Write the script to a file instead of stdout")
}

func runExport(ctx context.Context, a *app) error {
	var w io.Writer = os.Stdout
	if exportFile == "" {
		// The script owns stdout.
		output.Out = os.Stderr
	} else {
		f, err := os.Create(exportFile)
		if err != nil {
			return errors.Wrap(err, "create export file")
		}
		defer f.Close()
		w = f
	}

	rows, err := export.New(a.db, a.log).Export(ctx, w)
	if err != nil {
		return err
	}

	if exportFile != "" {
		output.Success("Exported %d rows to %s", rows, exportFile)
	}
	return nil
}

func runLoad(ctx context.Context, a *app, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open script")
		}
		defer f.Close()
		r = f
	}

	n, err := export.New(a.db, a.log).Load(ctx, r)
	if err != nil {
		return err
	}

	output.Success("Ran %d statements from %s", n, path)
	return nil
}
