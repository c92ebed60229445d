package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/migration"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	// Migrate flags
	dryRun   bool
	showDown bool
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or drop the catalog schema",
	Long: `Create or drop the catalog schema. The schema is a single migration
generated from the models and recorded in schema_migrations.

Subcommands:
  up      - Apply the schema migration
  down    - Drop every catalog table and enum type
  status  - Show whether the migration is applied
  sql     - Print the generated DDL`,
}

// migrateUpCmd applies the schema migration
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the schema migration",
	Long: `Apply the schema migration. Applying twice is a no-op; the DDL is also
guarded with IF NOT EXISTS.

Examples:
  catalog migrate up                   # Create the schema
  catalog migrate up --dry-run         # Print what would run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runMigrateUp)
	},
}

// migrateDownCmd rolls the schema migration back
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop the catalog schema",
	Long: `Roll back the schema migration. Every catalog table, its data and the
enum types are dropped.

Examples:
  catalog migrate down                 # Drop the schema
  catalog migrate down --dry-run       # Print what would run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runMigrateDown)
	},
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Show the status of the schema migration (pending, applied, failed).

Examples:
  catalog migrate status               # Show migration status
  catalog migrate status --json        # Output in JSON format`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runMigrateStatus)
	},
}

// migrateSQLCmd prints the generated DDL
var migrateSQLCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the generated DDL",
	Long: `Print the DDL generated from the models. No database is needed.

Examples:
  catalog migrate sql                  # CREATE statements
  catalog migrate sql --down           # DROP statements`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := schemaMigration()
		if err != nil {
			return err
		}
		if showDown {
			fmt.Println(m.DownSQL)
			return nil
		}
		fmt.Println(m.UpSQL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd, migrateSQLCmd)

	migrateUpCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the DDL without applying it")
	migrateDownCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the DDL without executing it")
	migrateSQLCmd.Flags().BoolVar(&showDown, "down", false, "Print the rollback DDL")
}

func schemaMigration() (migration.Migration, error) {
	reg, err := catalog.NewRegistry()
	if err != nil {
		return migration.Migration{}, err
	}
	return catalog.Migration(reg)
}

func (a *app) executor() *migration.Executor {
	exec := migration.NewExecutor(a.rt)
	if a.cfg.Migration.LockID != 0 {
		exec = exec.WithLockID(a.cfg.Migration.LockID)
	}
	return exec
}

func runMigrateUp(ctx context.Context, a *app) error {
	m, err := catalog.Migration(a.db.Registry())
	if err != nil {
		return err
	}

	if dryRun {
		output.Section("DRY RUN - Preview")
		output.Info("%s - %s would run:", m.Version, m.Name)
		fmt.Println(m.UpSQL)
		return nil
	}

	output.Section("Applying Migration")
	applied, err := a.executor().Apply(ctx, m)
	if err != nil {
		output.Error("Failed to apply migration %s: %v", m.Version, err)
		return errors.Wrapf(err, "apply migration %s", m.Version)
	}
	if !applied {
		output.Info("%s is already applied", m.Version)
		return nil
	}

	a.log.Info("migration applied", slog.String("version", m.Version))
	output.Success("Applied %s - %s", m.Version, m.Name)
	return nil
}

func runMigrateDown(ctx context.Context, a *app) error {
	m, err := catalog.Migration(a.db.Registry())
	if err != nil {
		return err
	}

	if dryRun {
		output.Section("DRY RUN - Preview")
		output.Info("%s - %s would be rolled back:", m.Version, m.Name)
		fmt.Println(m.DownSQL)
		return nil
	}

	output.Section("Rolling Back Migration")
	rolledBack, err := a.executor().Rollback(ctx, m)
	if err != nil {
		output.Error("Failed to roll back migration %s: %v", m.Version, err)
		return errors.Wrapf(err, "roll back migration %s", m.Version)
	}
	if !rolledBack {
		output.Info("%s is not applied", m.Version)
		return nil
	}

	a.log.Info("migration rolled back", slog.String("version", m.Version))
	output.Success("Rolled back %s", m.Version)
	return nil
}

func runMigrateStatus(ctx context.Context, a *app) error {
	m, err := catalog.Migration(a.db.Registry())
	if err != nil {
		return err
	}

	status, err := a.executor().GetStatus(ctx, []migration.Migration{m})
	if err != nil {
		return errors.Wrap(err, "get migration status")
	}

	if jsonOutput {
		return output.JSON(status)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	_, _ = fmt.Fprintln(w, "-------\t----\t------\t----------")

	for _, record := range status {
		appliedAt := "N/A"
		if record.AppliedAt != nil {
			appliedAt = record.AppliedAt.Format("2006-01-02 15:04:05")
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n",
			record.Version,
			record.Name,
			output.StatusIcon(string(record.Status)),
			record.Status,
			appliedAt,
		)
		if record.Error != nil {
			_, _ = fmt.Fprintf(w, "\t\terror: %s\t\n", *record.Error)
		}
	}
	return w.Flush()
}
