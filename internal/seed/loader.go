// Package seed holds the reference dataset and loads it into an empty
// catalog schema.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotEmpty is returned when the users table already has rows and the
// load was not asked to truncate first.
var ErrNotEmpty = errors.New("catalog already holds data")

// Options controls a Load.
type Options struct {
	// Truncate empties every catalog table and restarts identities before
	// loading.
	Truncate bool
	// BcryptCost is the work factor for user password hashes. Zero means
	// bcrypt.DefaultCost.
	BcryptCost int
}

// TableCount is the number of rows loaded into one table.
type TableCount struct {
	Table string
	Rows  int
}

// Loader writes a Dataset table by table, each table in its own
// transaction, then moves every identity sequence past the loaded ids.
type Loader struct {
	db  *builder.DB
	log *slog.Logger
}

func NewLoader(db *builder.DB, log *slog.Logger) *Loader {
	return &Loader{db: db, log: log}
}

// Load inserts ds in foreign key order.
func (l *Loader) Load(ctx context.Context, ds *Dataset, opts Options) ([]TableCount, error) {
	if opts.Truncate {
		if err := l.Truncate(ctx); err != nil {
			return nil, err
		}
	} else {
		found, err := builder.Select[catalog.User](l.db).Exists(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "check users")
		}
		if found {
			return nil, errors.Wrap(ErrNotEmpty, "users has rows")
		}
	}

	users, err := hashPasswords(ds.Users, opts)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		table  string
		insert func(ctx context.Context, tx *builder.DB) (int, error)
	}{
		{"users", rowsOf(users)},
		{"categories", rowsOf(ds.Categories)},
		{"brands", rowsOf(ds.Brands)},
		{"products", rowsOf(ds.Products)},
		{"orders", rowsOf(ds.Orders)},
		{"order_items", rowsOf(ds.OrderItems)},
		{"authors", rowsOf(ds.Authors)},
		{"books", rowsOf(ds.Books)},
		{"customers", rowsOf(ds.Customers)},
		{"featured_products", rowsOf(ds.FeaturedProducts)},
		{"user_preferences", rowsOf(ds.UserPreferences)},
	}

	counts := make([]TableCount, 0, len(steps))
	for _, step := range steps {
		var n int
		err := l.db.InTx(ctx, func(tx *builder.DB) error {
			var err error
			if n, err = step.insert(ctx, tx); err != nil {
				return err
			}

			return resetIdentity(ctx, tx, step.table)
		})
		if err != nil {
			return counts, errors.Wrapf(err, "load %s", step.table)
		}

		l.log.Info("table loaded", slog.String("table", step.table), slog.Int("rows", n))
		counts = append(counts, TableCount{Table: step.table, Rows: n})
	}

	return counts, nil
}

// Truncate empties every registered table and restarts their identities.
func (l *Loader) Truncate(ctx context.Context) error {
	names := l.db.Registry().AllNames()
	if len(names) == 0 {
		return nil
	}

	sql := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(names, ", "))
	if _, err := l.db.Runtime().Exec(ctx, sql); err != nil {
		return errors.Wrap(err, "truncate catalog")
	}
	l.log.Info("catalog truncated", slog.Int("tables", len(names)))

	return nil
}

func rowsOf[T any](rows []T) func(ctx context.Context, tx *builder.DB) (int, error) {
	return func(ctx context.Context, tx *builder.DB) (int, error) {
		for i, row := range rows {
			if err := catalog.Validate(row); err != nil {
				return i, errors.Wrapf(err, "row %d", i)
			}
			if _, err := builder.Insert[T](tx).Values(row).Exec(ctx); err != nil {
				return i, errors.Wrapf(err, "row %d", i)
			}
		}

		return len(rows), nil
	}
}

// resetIdentity moves the table's identity sequence to MAX(id) so the next
// generated id does not collide with an explicit one.
func resetIdentity(ctx context.Context, tx *builder.DB, table string) error {
	meta, err := tx.Registry().GetByName(table)
	if err != nil {
		return err
	}
	identity := meta.IdentityColumn()
	if identity == nil {
		return nil
	}

	sql := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), COALESCE(MAX(%[2]s), 0) + 1, false) FROM %[1]s",
		table, identity.Name,
	)
	var next int64
	if err := tx.Runtime().QueryRow(ctx, sql).Scan(&next); err != nil {
		return errors.Wrapf(err, "reset identity of %s", table)
	}

	return nil
}

func hashPasswords(users []catalog.User, opts Options) ([]catalog.User, error) {
	out := make([]catalog.User, len(users))
	copy(out, users)

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	for i := range out {
		hash, err := bcrypt.GenerateFromPassword([]byte(out[i].Password), cost)
		if err != nil {
			return nil, errors.Wrapf(err, "hash password of %s", out[i].Email)
		}
		out[i].Password = string(hash)
	}

	return out, nil
}
