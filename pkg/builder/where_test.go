package builder

import (
	"strings"
	"testing"
)

func TestWhereBuilder_Build(t *testing.T) {
	tests := []struct {
		name           string
		conditions     []Condition
		expectedSQL    string
		expectedArgLen int
	}{
		{
			name:        "empty conditions",
			conditions:  []Condition{},
			expectedSQL: "",
		},
		{
			name: "multiple AND conditions",
			conditions: []Condition{
				Eq("status", "paid"),
				Gte("total_amount", 100),
			},
			expectedSQL:    "WHERE status = $1 AND total_amount >= $2",
			expectedArgLen: 2,
		},
		{
			name: "date window and not-equal",
			conditions: []Condition{
				Lte("start_date", "2024-12-24"),
				Gte("end_date", "2024-12-24"),
				NotEq("is_deleted", true),
			},
			expectedSQL:    "WHERE start_date <= $1 AND end_date >= $2 AND is_deleted != $3",
			expectedArgLen: 3,
		},
		{
			name: "OR condition",
			conditions: []Condition{
				Eq("status", "pending"),
				Or(Eq("status", "processing")),
			},
			expectedSQL:    "WHERE status = $1 OR status = $2",
			expectedArgLen: 2,
		},
		{
			name: "IN and NOT IN",
			conditions: []Condition{
				In("id", 1, 2, 3),
				NotIn("brand", "Apple"),
			},
			expectedSQL:    "WHERE id IN ($1, $2, $3) AND brand NOT IN ($4)",
			expectedArgLen: 4,
		},
		{
			name: "empty IN matches nothing",
			conditions: []Condition{
				In("id"),
				Eq("is_active", true),
			},
			expectedSQL:    "WHERE FALSE AND is_active = $1",
			expectedArgLen: 1,
		},
		{
			name: "empty NOT IN matches everything",
			conditions: []Condition{
				NotIn("id"),
			},
			expectedSQL: "WHERE TRUE",
		},
		{
			name: "null checks and between",
			conditions: []Condition{
				IsNull("deleted_at"),
				IsNotNull("phone"),
				Between("price", 10, 20),
			},
			expectedSQL:    "WHERE deleted_at IS NULL AND phone IS NOT NULL AND price BETWEEN $1 AND $2",
			expectedArgLen: 2,
		},
		{
			name: "grouped conditions",
			conditions: []Condition{
				Eq("is_active", true),
				Group(Like("name", "%Pro%"), Or(ILike("name", "%max%"))),
			},
			expectedSQL:    "WHERE is_active = $1 AND (name LIKE $2 OR name ILIKE $3)",
			expectedArgLen: 3,
		},
		{
			name: "negated condition",
			conditions: []Condition{
				Not(Eq("status", "cancelled")),
			},
			expectedSQL:    "WHERE NOT (status = $1)",
			expectedArgLen: 1,
		},
		{
			name: "raw expression keeps quoted question marks",
			conditions: []Condition{
				Eq("id", 1),
				Expr("note <> '?' AND EXTRACT(YEAR FROM order_date) = ?", 2024),
			},
			expectedSQL:    "WHERE id = $1 AND note <> '?' AND EXTRACT(YEAR FROM order_date) = $2",
			expectedArgLen: 2,
		},
		{
			name: "in subquery",
			conditions: []Condition{
				InSubquery("id", NewSubquery("SELECT customer_id FROM orders WHERE status = ?", "paid")),
			},
			expectedSQL:    "WHERE id IN (SELECT customer_id FROM orders WHERE status = $1)",
			expectedArgLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			for _, cond := range tt.conditions {
				wb.Add(cond)
			}

			sql, args, err := wb.Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if sql != tt.expectedSQL {
				t.Errorf("Build() sql = %q, want %q", sql, tt.expectedSQL)
			}
			if len(args) != tt.expectedArgLen {
				t.Errorf("Build() args len = %d, want %d", len(args), tt.expectedArgLen)
			}
		})
	}
}

func TestWhereBuilder_ParamStart(t *testing.T) {
	wb := NewWhereBuilderWithStart(4)
	wb.Add(Eq("id", 9))
	wb.Add(Expr("price > ?", 10))

	sql, _, err := wb.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if sql != "WHERE id = $4 AND price > $5" {
		t.Errorf("Build() sql = %q", sql)
	}
}

func TestWhereBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr string
	}{
		{
			name:    "too few arguments",
			cond:    Expr("a = ? AND b = ?", 1),
			wantErr: "2 placeholders but 1 arguments",
		},
		{
			name:    "unknown operator",
			cond:    Condition{Column: "a", Operator: "~~~", Value: 1},
			wantErr: "unknown operator",
		},
		{
			name:    "IN without a list",
			cond:    Condition{Column: "a", Operator: OpIn, Value: 1},
			wantErr: "IN/NOT IN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.Add(tt.cond)
			_, _, err := wb.Build()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Build() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
