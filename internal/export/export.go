// Package export dumps the catalog as a self-contained SQL script and loads
// such a script back.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/migration"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/marshallshelly/pebble-catalog/pkg/schema"
	"github.com/pkg/errors"
)

const header = "-- pebble-catalog export\n-- schema " + catalog.MigrationVersion + " (" + catalog.MigrationName + ")\n"

type Exporter struct {
	db  *builder.DB
	log *slog.Logger
}

func New(db *builder.DB, log *slog.Logger) *Exporter {
	return &Exporter{db: db, log: log}
}

// Export writes the schema DDL, one INSERT per row for every table in
// foreign key order and the identity resets. Rows are ordered by primary
// key and every value is a quoted text literal or NULL, so equal data
// gives an identical script. It returns the number of rows written.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	reg := e.db.Registry()

	m, err := catalog.Migration(reg)
	if err != nil {
		return 0, err
	}
	tables, err := reg.Sorted()
	if err != nil {
		return 0, errors.Wrap(err, "order tables")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, header)
	fmt.Fprintf(bw, "\n%s\n", strings.TrimSpace(m.UpSQL))

	total := 0
	err = e.db.InTx(ctx, func(tx *builder.DB) error {
		for _, table := range tables {
			n, err := writeTable(ctx, tx.Runtime(), bw, table)
			if err != nil {
				return errors.Wrapf(err, "export %s", table.Name)
			}
			e.log.Debug("table exported", slog.String("table", table.Name), slog.Int("rows", n))
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	fmt.Fprintln(bw)
	for _, table := range tables {
		if stmt := identityReset(table); stmt != "" {
			fmt.Fprintln(bw, stmt)
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, errors.Wrap(err, "write export")
	}
	e.log.Info("catalog exported", slog.Int("tables", len(tables)), slog.Int("rows", total))

	return total, nil
}

func writeTable(ctx context.Context, db *runtime.DB, w io.Writer, table *schema.TableMetadata) (int, error) {
	columns := table.ColumnNames()
	selects := make([]string, len(columns))
	for i, col := range columns {
		selects[i] = col + "::text"
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), table.Name)
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) > 0 {
		sql += " ORDER BY " + strings.Join(table.PrimaryKey.Columns, ", ")
	}

	rows, err := db.Query(ctx, sql)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	fmt.Fprintf(w, "\n-- %s\n", table.Name)
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", table.Name, strings.Join(columns, ", "))

	n := 0
	values := make([]*string, len(columns))
	targets := make([]any, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(targets...); err != nil {
			return n, errors.Wrap(err, "scan row")
		}

		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = Literal(v)
		}
		fmt.Fprintf(w, "%s%s);\n", prefix, strings.Join(literals, ", "))
		n++
	}

	return n, rows.Err()
}

// Literal renders a text value as a SQL string literal, or NULL for nil.
func Literal(v *string) string {
	if v == nil {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(*v, "'", "''") + "'"
}

// identityReset moves the identity sequence past the highest exported id.
func identityReset(table *schema.TableMetadata) string {
	identity := table.IdentityColumn()
	if identity == nil {
		return ""
	}

	return fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), COALESCE((SELECT MAX(%[2]s) FROM %[1]s), 0) + 1, false);",
		table.Name, identity.Name,
	)
}

// Load runs an export script in a single transaction. The schema part is
// guarded, so the target may be empty or already migrated, but its tables
// must hold no rows that collide with the script.
func (e *Exporter) Load(ctx context.Context, r io.Reader) (int, error) {
	script, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "read script")
	}

	statements := migration.SplitStatements(string(script))
	err = e.db.InTx(ctx, func(tx *builder.DB) error {
		for i, stmt := range statements {
			if _, err := tx.Runtime().Exec(ctx, stmt); err != nil {
				return errors.Wrapf(err, "statement %d", i+1)
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "load script")
	}
	e.log.Info("script loaded", slog.Int("statements", len(statements)))

	return len(statements), nil
}
