// Package verify compares a live database with the catalog models and
// counts rows that break the data invariants the schema cannot enforce on
// its own.
package verify

import (
	"context"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/migration"
	"github.com/pkg/errors"
)

// Check is one invariant and the number of rows violating it.
type Check struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Violations  int64  `json:"violations"`
}

type Report struct {
	Drifts []migration.Drift `json:"drifts"`
	Checks []Check           `json:"checks"`
}

// OK reports whether the schema matches and no invariant is violated.
func (r *Report) OK() bool {
	if len(r.Drifts) > 0 {
		return false
	}
	for _, c := range r.Checks {
		if c.Violations > 0 {
			return false
		}
	}
	return true
}

type Verifier struct {
	db *builder.DB
}

func New(db *builder.DB) *Verifier {
	return &Verifier{db: db}
}

// Run checks the schema first and, when no table is missing, the data.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	drifts, err := v.Schema(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{Drifts: drifts}

	for _, d := range drifts {
		if d.Kind == migration.DriftMissingTable {
			return report, nil
		}
	}

	report.Checks, err = v.Invariants(ctx)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Schema introspects the database and diffs it against the registry:
// columns, foreign key delete rules, indexes, checks and enum labels.
func (v *Verifier) Schema(ctx context.Context) ([]migration.Drift, error) {
	reg := v.db.Registry()
	tables, err := reg.Sorted()
	if err != nil {
		return nil, errors.Wrap(err, "order tables")
	}

	in := migration.NewIntrospector(v.db.Runtime())
	dbTables, err := in.IntrospectSchema(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "introspect schema")
	}
	dbEnums, err := in.EnumTypes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "introspect enum types")
	}

	return migration.NewDiffer().Compare(tables, reg.Enums(), dbTables, dbEnums), nil
}

type invariant struct {
	name        string
	description string
	count       func(ctx context.Context, db *builder.DB) (int64, error)
}

var invariants = []invariant{
	{
		name:        "order-item-totals",
		description: "order_items.total_price = quantity * unit_price",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			return builder.Select[catalog.OrderItem](db).
				Where(builder.Expr("total_price <> quantity * unit_price")).
				Count(ctx)
		},
	},
	{
		name:        "order-totals",
		description: "orders.total_amount = sum of item totals + shipping - discount",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			items := builder.Coalesce("(SELECT SUM(i.total_price) FROM order_items i WHERE i.order_id = o.id)", "0")
			return builder.Select[catalog.Order](db).
				As("o").
				Where(builder.Expr("o.total_amount <> " + items + " + o.shipping_amount - o.discount_amount")).
				Count(ctx)
		},
	},
	{
		name:        "unique-skus",
		description: "products.sku values are unique",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			var n int64
			err := db.Runtime().QueryRow(ctx,
				"SELECT COUNT(*) FROM (SELECT sku FROM products GROUP BY sku HAVING COUNT(*) > 1) d",
			).Scan(&n)
			return n, err
		},
	},
	{
		name:        "category-parents",
		description: "categories.parent_id references an existing category",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			return builder.Select[catalog.Category](db).
				As("c").
				Where(builder.IsNotNull("c.parent_id")).
				And(builder.NotExistsSubquery(builder.NewSubquery("SELECT 1 FROM categories p WHERE p.id = c.parent_id"))).
				Count(ctx)
		},
	},
	{
		name:        "category-cycles",
		description: "no category is its own ancestor",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			sql, args, err := categoryCycles()
			if err != nil {
				return 0, err
			}
			var n int64
			err = db.Runtime().QueryRow(ctx, sql, args...).Scan(&n)
			return n, err
		},
	},
	{
		name:        "product-amounts",
		description: "products.price >= 0 and products.stock >= 0",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			return builder.Select[catalog.Product](db).
				Where(builder.Lt("price", 0)).
				Or(builder.Lt("stock", 0)).
				Count(ctx)
		},
	},
	{
		name:        "featured-windows",
		description: "featured_products.end_date >= start_date",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			return builder.Select[catalog.FeaturedProduct](db).
				Where(builder.Expr("end_date < start_date")).
				Count(ctx)
		},
	},
	{
		name:        "soft-deleted-users",
		description: "users with is_deleted have deleted_at",
		count: func(ctx context.Context, db *builder.DB) (int64, error) {
			return builder.Select[catalog.User](db).
				Where(builder.Eq("is_deleted", true)).
				And(builder.IsNull("deleted_at")).
				Count(ctx)
		},
	},
}

// categoryCycles counts categories that reach themselves by following
// parent_id. The walk stops after as many steps as there are categories.
func categoryCycles() (string, []interface{}, error) {
	return builder.NewRecursiveCTE("walk", "start_id", "parent_id", "depth").
		BaseCase("SELECT id, parent_id, 1 FROM categories WHERE parent_id IS NOT NULL").
		RecursiveCase("SELECT w.start_id, c.parent_id, w.depth + 1 FROM walk w " +
			"JOIN categories c ON c.id = w.parent_id " +
			"WHERE c.parent_id IS NOT NULL AND w.parent_id <> w.start_id " +
			"AND w.depth <= (SELECT COUNT(*) FROM categories)").
		Query("SELECT COUNT(DISTINCT start_id) FROM walk WHERE parent_id = start_id")
}

// Invariants counts violations for every data invariant.
func (v *Verifier) Invariants(ctx context.Context) ([]Check, error) {
	checks := make([]Check, 0, len(invariants))
	for _, inv := range invariants {
		n, err := inv.count(ctx, v.db)
		if err != nil {
			return nil, errors.Wrapf(err, "check %s", inv.name)
		}
		checks = append(checks, Check{Name: inv.name, Description: inv.description, Violations: n})
	}

	return checks, nil
}
