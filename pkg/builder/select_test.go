package builder

import (
	"testing"

	"github.com/marshallshelly/pebble-catalog/pkg/registry"
)

type testProduct struct {
	ID       int64          `po:"id,primaryKey,identity"`
	Name     string         `po:"name,varchar(255),notNull"`
	Price    float64        `po:"price,numeric(10,2),notNull"`
	Stock    int            `po:"stock,integer,notNull,default(0)"`
	IsActive bool           `po:"is_active,boolean,notNull,default(true)"`
	Attrs    map[string]any `po:"attrs,jsonb"`
}

func (testProduct) TableName() string { return "products" }

// newTestDB returns a builder with no connection, for SQL generation only.
func newTestDB() *DB {
	return New(nil, registry.NewRegistry())
}

func TestSelectQuery_ToSQL(t *testing.T) {
	db := newTestDB()

	tests := []struct {
		name       string
		setupQuery func() *SelectQuery[testProduct]
		wantSQL    string
		wantArgLen int
	}{
		{
			name: "simple select all",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db)
			},
			wantSQL: "SELECT * FROM products",
		},
		{
			name: "select specific columns",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).Columns("id", "name")
			},
			wantSQL: "SELECT id, name FROM products",
		},
		{
			name: "select with multiple WHERE",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).
					Where(Gt("price", 100)).
					And(Eq("is_active", true))
			},
			wantSQL:    "SELECT * FROM products WHERE price > $1 AND is_active = $2",
			wantArgLen: 2,
		},
		{
			name: "select with ORDER BY, LIMIT and OFFSET",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).
					OrderByDesc("price").
					OrderByAsc("id").
					Limit(5).
					Offset(10)
			},
			wantSQL: "SELECT * FROM products ORDER BY price DESC, id ASC LIMIT 5 OFFSET 10",
		},
		{
			name: "select distinct",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).Columns("name").Distinct()
			},
			wantSQL: "SELECT DISTINCT name FROM products",
		},
		{
			name: "select for update",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).Where(Eq("id", 1)).ForUpdate()
			},
			wantSQL:    "SELECT * FROM products WHERE id = $1 FOR UPDATE",
			wantArgLen: 1,
		},
		{
			name: "alias with join args numbered before WHERE",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).
					As("p").
					Columns("p.*").
					InnerJoin("categories c", "c.id = p.category_id AND c.name <> ?", "Books").
					Where(Gt("p.price", 10))
			},
			wantSQL:    "SELECT p.* FROM products p INNER JOIN categories c ON c.id = p.category_id AND c.name <> $1 WHERE p.price > $2",
			wantArgLen: 2,
		},
		{
			name: "group by with having numbered after WHERE",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).
					Columns("stock", "COUNT(*)").
					Where(Eq("is_active", true)).
					GroupBy("stock").
					Having(Expr("COUNT(*) > ?", 1))
			},
			wantSQL:    "SELECT stock, COUNT(*) FROM products WHERE is_active = $1 GROUP BY stock HAVING COUNT(*) > $2",
			wantArgLen: 2,
		},
		{
			name: "subquery comparison",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).
					Where(GtSubquery("price", NewSubquery("SELECT AVG(price) FROM products")))
			},
			wantSQL: "SELECT * FROM products WHERE price > (SELECT AVG(price) FROM products)",
		},
		{
			name: "not exists with bound argument",
			setupQuery: func() *SelectQuery[testProduct] {
				return Select[testProduct](db).
					Where(Eq("is_active", true)).
					And(NotExistsSubquery(NewSubquery(
						"SELECT 1 FROM order_items oi WHERE oi.product_id = products.id AND oi.quantity > ?", 1)))
			},
			wantSQL:    "SELECT * FROM products WHERE is_active = $1 AND NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.product_id = products.id AND oi.quantity > $2)",
			wantArgLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.setupQuery().ToSQL()
			if err != nil {
				t.Fatalf("ToSQL() error = %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("ToSQL() sql =\n%s\nwant\n%s", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArgLen {
				t.Errorf("ToSQL() args len = %d, want %d", len(args), tt.wantArgLen)
			}
		})
	}
}

func TestSelectQuery_UsesHelpers(t *testing.T) {
	db := newTestDB()

	sql, args, err := Select[testProduct](db).
		Columns(Extract("YEAR", "created_at")+" AS year", Round("AVG(price)", 6)+" AS avg_price").
		Where(Expr(JSONBPathText("attrs", "color")+" = ?", "red")).
		GroupBy("year").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() error = %v", err)
	}

	want := "SELECT EXTRACT(YEAR FROM created_at)::int AS year, ROUND(AVG(price), 6) AS avg_price FROM products WHERE attrs->>'color' = $1 GROUP BY year"
	if sql != want {
		t.Errorf("ToSQL() sql =\n%s\nwant\n%s", sql, want)
	}
	if len(args) != 1 || args[0] != "red" {
		t.Errorf("ToSQL() args = %v, want [red]", args)
	}
}

func TestSelectQuery_PlaceholderMismatch(t *testing.T) {
	db := newTestDB()

	_, _, err := Select[testProduct](db).
		InnerJoin("categories c", "c.id = p.category_id AND c.name = ?").
		ToSQL()
	if err == nil {
		t.Fatal("expected an error for a join condition without its argument")
	}
}

func TestSelectQuery_UnregistrableModel(t *testing.T) {
	type empty struct{ Name string }

	db := newTestDB()
	if _, _, err := Select[empty](db).ToSQL(); err == nil {
		t.Fatal("expected an error for a model without tagged fields")
	}
}

func TestCol(t *testing.T) {
	db := newTestDB()

	if got := Col[testProduct](db, "IsActive"); got != "is_active" {
		t.Errorf("Col(IsActive) = %q, want is_active", got)
	}
	if got := Col[testProduct](db, "Missing"); got != "Missing" {
		t.Errorf("Col(Missing) = %q, want Missing", got)
	}
}

func TestRecursiveCTE_Query(t *testing.T) {
	sql, args, err := NewRecursiveCTE("ancestors", "id", "parent_id").
		BaseCase("SELECT id, parent_id FROM categories WHERE id = ?", 7).
		RecursiveCase("SELECT c.id, c.parent_id FROM categories c JOIN ancestors a ON c.id = a.parent_id").
		Query("SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = ?)", 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	want := "WITH RECURSIVE ancestors (id, parent_id) AS (" +
		"SELECT id, parent_id FROM categories WHERE id = $1 UNION ALL " +
		"SELECT c.id, c.parent_id FROM categories c JOIN ancestors a ON c.id = a.parent_id) " +
		"SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $2)"
	if sql != want {
		t.Errorf("Query() sql =\n%s\nwant\n%s", sql, want)
	}
	if len(args) != 2 || args[0] != 7 || args[1] != 3 {
		t.Errorf("Query() args = %v, want [7 3]", args)
	}

	if _, _, err := NewRecursiveCTE("t").BaseCase("SELECT 1").Query("SELECT 1"); err == nil {
		t.Error("expected an error without a recursive case")
	}
}
