package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/verify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// verifyCmd checks schema and data
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the database against the models and the data invariants",
	Long: `Compare the database schema with the models (columns, foreign key
delete rules, indexes, checks, enum labels) and count rows that break the
data invariants: order and line totals, unique SKUs, category parents and
cycles, non-negative prices and stock, featured windows and soft deletes.

Exits with status 1 when anything is off.

Examples:
  catalog verify
  catalog verify --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runVerify)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(ctx context.Context, a *app) error {
	report, err := verify.New(a.db).Run(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := output.JSON(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if !report.OK() {
		return errors.New("verification failed")
	}
	return nil
}

func printReport(report *verify.Report) {
	output.Section("Schema")
	if len(report.Drifts) == 0 {
		output.Success("Database matches the models")
	}
	for _, d := range report.Drifts {
		output.Warning("%s", d)
	}

	if len(report.Checks) == 0 {
		output.Muted("Data checks skipped: tables are missing")
		return
	}

	output.Section("Data")
	rows := make([][]string, len(report.Checks))
	for i, c := range report.Checks {
		status := "ok"
		if c.Violations > 0 {
			status = "failed"
		}
		rows[i] = []string{
			fmt.Sprintf("%s %s", output.StatusIcon(status), c.Name),
			strconv.FormatInt(c.Violations, 10),
			c.Description,
		}
	}
	output.Println(output.Table([]string{"check", "violations", "rule"}, rows, ""))
}
