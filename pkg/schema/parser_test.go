package schema

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type TestShelf struct {
	ID        int       `po:"id,integer,primaryKey,identity"`
	Label     string    `po:"label,varchar(100),notNull,unique"`
	ParentID  *int      `po:"parent_id,integer,fk(test_shelf.id),onDelete(setNull)"`
	CreatedAt time.Time `po:"created_at,timestamp,default(CURRENT_TIMESTAMP)"`
}

type TestItem struct {
	ID        int             `po:"id,integer,primaryKey,identity"`
	ShelfID   int             `po:"shelf_id,integer,notNull,fk(test_shelf.id),onDelete(cascade),index(idx_items_shelf)"`
	Price     decimal.Decimal `po:"price,numeric(10,2),notNull,index"`
	Status    string          `po:"status,enum(item_status),default('active')"`
	Settings  JSONB           `po:"settings"`
	UpdatedAt time.Time       `po:"updated_at,timestamp,default(CURRENT_TIMESTAMP),autoUpdate"`
	Note      string          // untagged
}

func (TestItem) TableName() string { return "items" }

func (TestItem) TableConstraints() []ConstraintMetadata {
	return []ConstraintMetadata{{
		Name:       "items_price_check",
		Type:       CheckConstraint,
		Expression: "price >= 0",
	}}
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	t.Run("table name falls back to snake case", func(t *testing.T) {
		table, err := parser.Parse(reflect.TypeOf(TestShelf{}))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if table.Name != "test_shelf" {
			t.Errorf("expected table name 'test_shelf', got '%s'", table.Name)
		}
	})

	t.Run("table name from method", func(t *testing.T) {
		table, err := parser.Parse(reflect.TypeOf(&TestItem{}))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if table.Name != "items" {
			t.Errorf("expected table name 'items', got '%s'", table.Name)
		}
		if len(table.Columns) != 6 {
			t.Errorf("expected 6 columns, got %d", len(table.Columns))
		}
	})

	t.Run("primary key and identity", func(t *testing.T) {
		table, _ := parser.Parse(reflect.TypeOf(TestShelf{}))
		if table.PrimaryKey == nil || table.PrimaryKey.Name != "test_shelf_pkey" {
			t.Fatalf("unexpected primary key %+v", table.PrimaryKey)
		}
		id := table.GetColumn("id")
		if id.Nullable {
			t.Error("primary key column must not be nullable")
		}
		if id.Identity == nil || *id.Identity != IdentityByDefault {
			t.Errorf("expected BY DEFAULT identity, got %v", id.Identity)
		}
		if table.IdentityColumn() != id {
			t.Error("IdentityColumn should return the id column")
		}
	})

	t.Run("self reference", func(t *testing.T) {
		table, _ := parser.Parse(reflect.TypeOf(TestShelf{}))
		if len(table.ForeignKeys) != 1 {
			t.Fatalf("expected 1 foreign key, got %d", len(table.ForeignKeys))
		}
		fk := table.ForeignKeys[0]
		if fk.ReferencedTable != "test_shelf" || fk.OnDelete != SetNull {
			t.Errorf("unexpected foreign key %+v", fk)
		}
		if deps := table.DependsOn(); len(deps) != 0 {
			t.Errorf("self reference should not be a dependency, got %v", deps)
		}
		if !table.GetColumn("parent_id").Nullable {
			t.Error("pointer column should be nullable")
		}
	})

	t.Run("foreign key cascade and indexes", func(t *testing.T) {
		table, _ := parser.Parse(reflect.TypeOf(TestItem{}))
		fk := table.ForeignKeys[0]
		if fk.Name != "fk_items_shelf_id" || fk.OnDelete != Cascade {
			t.Errorf("unexpected foreign key %+v", fk)
		}
		if !reflect.DeepEqual(table.DependsOn(), []string{"test_shelf"}) {
			t.Errorf("unexpected dependencies %v", table.DependsOn())
		}

		if len(table.Indexes) != 2 {
			t.Fatalf("expected 2 indexes, got %d", len(table.Indexes))
		}
		if table.Indexes[0].Name != "idx_items_shelf" {
			t.Errorf("expected named index, got %s", table.Indexes[0].Name)
		}
		if table.Indexes[1].Name != "idx_items_price" {
			t.Errorf("expected generated index name, got %s", table.Indexes[1].Name)
		}
	})

	t.Run("enum, jsonb and auto update", func(t *testing.T) {
		table, _ := parser.Parse(reflect.TypeOf(TestItem{}))

		status := table.GetColumn("status")
		if status.SQLType != "item_status" || status.EnumType != "item_status" {
			t.Errorf("unexpected enum column %+v", status)
		}
		if status.Default == nil || *status.Default != "'active'" {
			t.Errorf("unexpected default %v", status.Default)
		}

		settings := table.GetColumnByField("Settings")
		if settings == nil || !settings.IsJSONB || settings.SQLType != "jsonb" {
			t.Errorf("unexpected jsonb column %+v", settings)
		}

		if !table.HasAutoUpdate() || !table.GetColumn("updated_at").AutoUpdate {
			t.Error("expected updated_at to auto update")
		}

		price := table.GetColumn("price")
		if price.SQLType != "numeric(10,2)" || price.Nullable {
			t.Errorf("unexpected price column %+v", price)
		}
	})

	t.Run("table constraints", func(t *testing.T) {
		table, _ := parser.Parse(reflect.TypeOf(TestItem{}))
		if len(table.Constraints) != 1 || table.Constraints[0].Name != "items_price_check" {
			t.Errorf("unexpected constraints %+v", table.Constraints)
		}
	})

	t.Run("cached result", func(t *testing.T) {
		a, _ := parser.Parse(reflect.TypeOf(TestItem{}))
		b, _ := parser.Parse(reflect.TypeOf(TestItem{}))
		if a != b {
			t.Error("expected cached metadata")
		}
	})
}

func TestParser_ParseErrors(t *testing.T) {
	parser := NewParser()

	type noTags struct{ Name string }
	type badFK struct {
		ID int `po:"id,integer,fk(nowhere)"`
	}
	type badDefault struct {
		At time.Time `po:"at,timestamp,default(CURRENT TIMESTAMP)"`
	}
	type unknownType struct {
		C chan int `po:"c"`
	}

	tests := []struct {
		name  string
		model reflect.Type
	}{
		{"not a struct", reflect.TypeOf(42)},
		{"no tagged fields", reflect.TypeOf(noTags{})},
		{"invalid fk", reflect.TypeOf(badFK{})},
		{"invalid default", reflect.TypeOf(badDefault{})},
		{"unknown type", reflect.TypeOf(unknownType{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.Parse(tt.model); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSplitTag(t *testing.T) {
	got := splitTag("price,numeric(10,2),default(0.00),notNull")
	want := []string{"price", "numeric(10,2)", "default(0.00)", "notNull"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTag() = %v, want %v", got, want)
	}
}

func TestParseReferenceAction(t *testing.T) {
	tests := map[string]ReferenceAction{
		"cascade":   Cascade,
		"setNull":   SetNull,
		"SET NULL":  SetNull,
		"restrict":  Restrict,
		"NO ACTION": NoAction,
		"":          NoAction,
	}
	for in, want := range tests {
		if got := ParseReferenceAction(in); got != want {
			t.Errorf("ParseReferenceAction(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"User":            "user",
		"OrderItem":       "order_item",
		"UserPreferences": "user_preferences",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
