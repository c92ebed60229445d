package builder

import "testing"

func TestUpdateQuery_ToSQL(t *testing.T) {
	db := newTestDB()

	tests := []struct {
		name    string
		query   func() (string, []interface{}, error)
		wantSQL string
		wantArg int
	}{
		{
			name: "set with where",
			query: func() (string, []interface{}, error) {
				return Update[testProduct](db).
					Set("name", "Keyboard").
					Set("stock", 4).
					Where(Eq("id", 6)).
					ToSQL()
			},
			wantSQL: "UPDATE products SET name = $1, stock = $2 WHERE id = $3",
			wantArg: 3,
		},
		{
			name: "expression assignment numbered in order",
			query: func() (string, []interface{}, error) {
				return Update[testProduct](db).
					SetExpr("price", "ROUND(price * ?, 2)", 1.1).
					Set("is_active", true).
					Where(In("id", 1, 2)).
					Returning("id", "price").
					ToSQL()
			},
			wantSQL: "UPDATE products SET price = ROUND(price * $1, 2), is_active = $2 WHERE id IN ($3, $4) RETURNING id, price",
			wantArg: 4,
		},
		{
			name: "set map is sorted",
			query: func() (string, []interface{}, error) {
				return Update[testProduct](db).
					SetMap(map[string]interface{}{"stock": 1, "name": "x"}).
					ToSQL()
			},
			wantSQL: "UPDATE products SET name = $1, stock = $2",
			wantArg: 2,
		},
		{
			name: "delete with or",
			query: func() (string, []interface{}, error) {
				return Delete[testProduct](db).
					Where(Eq("stock", 0)).
					Or(Eq("is_active", false)).
					Returning("id").
					ToSQL()
			},
			wantSQL: "DELETE FROM products WHERE stock = $1 OR is_active = $2 RETURNING id",
			wantArg: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.query()
			if err != nil {
				t.Fatalf("ToSQL() error = %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("ToSQL() sql =\n%s\nwant\n%s", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArg {
				t.Errorf("ToSQL() args len = %d, want %d", len(args), tt.wantArg)
			}
		})
	}
}

func TestUpdateQuery_Errors(t *testing.T) {
	db := newTestDB()

	if _, _, err := Update[testProduct](db).Where(Eq("id", 1)).ToSQL(); err == nil {
		t.Error("expected an error without SET columns")
	}
	if _, _, err := Update[testProduct](db).SetExpr("price", "price * ?").ToSQL(); err == nil {
		t.Error("expected an error for a placeholder without argument")
	}
}
