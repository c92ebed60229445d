package commands

import (
	"context"
	"strconv"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/seed"
	"github.com/spf13/cobra"
)

var truncate bool

// seedCmd loads the reference dataset
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the reference dataset",
	Long: `Load the reference dataset: users, categories, brands, products,
orders with their items, authors, books, customers, featured product
windows and user preferences. Passwords are stored as bcrypt hashes.

The schema must exist and the catalog must be empty unless --truncate is
given.

Examples:
  catalog seed                         # Load into an empty catalog
  catalog seed --truncate              # Empty every table first`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runSeed)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&truncate, "truncate", false, "Truncate every catalog table and restart identities first")
}

func runSeed(ctx context.Context, a *app) error {
	counts, err := seed.NewLoader(a.db, a.log).Load(ctx, seed.Reference(), seed.Options{
		Truncate:   truncate,
		BcryptCost: a.cfg.Seed.BcryptCost,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(counts)
	}

	rows := make([][]string, len(counts))
	total := 0
	for i, c := range counts {
		rows[i] = []string{c.Table, strconv.Itoa(c.Rows)}
		total += c.Rows
	}

	output.Section("Reference Dataset")
	output.Println(output.Table([]string{"table", "rows"}, rows, ""))
	output.Success("Loaded %d rows into %d tables", total, len(counts))
	return nil
}
