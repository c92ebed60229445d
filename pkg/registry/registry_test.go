package registry

import (
	"reflect"
	"testing"

	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

type Account struct {
	ID    int    `po:"id,integer,primaryKey,identity"`
	Email string `po:"email,varchar(150),unique,notNull"`
}

func (Account) TableName() string { return "accounts" }

type Folder struct {
	ID       int  `po:"id,integer,primaryKey,identity"`
	ParentID *int `po:"parent_id,integer,fk(folders.id),onDelete(setNull)"`
}

func (Folder) TableName() string { return "folders" }

type Document struct {
	ID        int `po:"id,integer,primaryKey,identity"`
	AccountID int `po:"account_id,integer,notNull,fk(accounts.id),onDelete(cascade)"`
	FolderID  int `po:"folder_id,integer,fk(folders.id),onDelete(setNull)"`
}

func (Document) TableName() string { return "documents" }

type Orphan struct {
	ID      int `po:"id,integer,primaryKey"`
	GhostID int `po:"ghost_id,integer,fk(ghosts.id)"`
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	t.Run("register new model", func(t *testing.T) {
		if err := registry.Register(Account{}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !registry.Has(reflect.TypeOf(Account{})) {
			t.Error("expected model to be registered")
		}
	})

	t.Run("register duplicate model", func(t *testing.T) {
		if err := registry.Register(&Account{}); err != nil {
			t.Errorf("Duplicate register failed: %v", err)
		}
		if got := len(registry.All()); got != 1 {
			t.Errorf("expected 1 table, got %d", got)
		}
	})

	t.Run("register invalid type", func(t *testing.T) {
		if err := registry.Register("not a struct"); err == nil {
			t.Error("expected error for non-struct type")
		}
	})
}

func TestRegistry_GetByName(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Account{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	table, err := registry.GetByName("accounts")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if table.GoType != reflect.TypeOf(Account{}) {
		t.Errorf("expected GoType Account, got %v", table.GoType)
	}

	if _, err := registry.GetByName("nonexistent"); err == nil {
		t.Error("expected error for non-existent table")
	}
}

func TestRegistry_GetOrRegister(t *testing.T) {
	registry := NewRegistry()

	table1, err := registry.GetOrRegister(Folder{})
	if err != nil {
		t.Fatalf("GetOrRegister failed: %v", err)
	}
	table2, _ := registry.GetOrRegister(&Folder{})
	if table1 != table2 {
		t.Error("expected same table instance")
	}
}

func TestRegistry_AllKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	for _, m := range []any{Document{}, Account{}, Folder{}} {
		if err := registry.Register(m); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	want := []string{"documents", "accounts", "folders"}
	got := registry.AllNames()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllNames() = %v, want %v", got, want)
	}
}

func TestRegistry_Sorted(t *testing.T) {
	registry := NewRegistry()
	for _, m := range []any{Document{}, Account{}, Folder{}} {
		if err := registry.Register(m); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	sorted, err := registry.Sorted()
	if err != nil {
		t.Fatalf("Sorted failed: %v", err)
	}

	var names []string
	for _, table := range sorted {
		names = append(names, table.Name)
	}

	// folders references itself, which must not block it.
	want := []string{"accounts", "folders", "documents"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Sorted() = %v, want %v", names, want)
	}
}

func TestRegistry_SortedUnregisteredReference(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Orphan{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := registry.Sorted(); err == nil {
		t.Error("expected error for reference to unregistered table")
	}
}

func TestRegistry_Enums(t *testing.T) {
	registry := NewRegistry()

	if err := registry.RegisterEnum(schema.EnumType{Name: "mood", Values: []string{"happy", "sad"}}); err != nil {
		t.Fatalf("RegisterEnum failed: %v", err)
	}
	if err := registry.RegisterEnum(schema.EnumType{Name: "mood", Values: []string{"happy", "sad", "ok"}}); err != nil {
		t.Fatalf("RegisterEnum failed: %v", err)
	}
	if err := registry.RegisterEnum(schema.EnumType{Name: "empty"}); err == nil {
		t.Error("expected error for enum without values")
	}

	enums := registry.Enums()
	if len(enums) != 1 {
		t.Fatalf("expected 1 enum, got %d", len(enums))
	}

	mood, ok := registry.Enum("mood")
	if !ok || !mood.Has("ok") {
		t.Errorf("expected mood enum to contain 'ok', got %v", mood.Values)
	}
}

func TestRegistry_Clear(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Account{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_ = registry.RegisterEnum(schema.EnumType{Name: "mood", Values: []string{"happy"}})

	registry.Clear()

	if len(registry.All()) != 0 || len(registry.Enums()) != 0 {
		t.Error("expected empty registry after clear")
	}
	if registry.HasTable("accounts") {
		t.Error("expected accounts to be cleared")
	}
}
