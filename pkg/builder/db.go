package builder

import (
	"github.com/marshallshelly/pebble-catalog/pkg/registry"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// DB wraps runtime.DB and provides query builder methods. Table metadata
// comes from the registry it was created with.
type DB struct {
	db  *runtime.DB
	reg *registry.Registry
}

// New creates a new query builder DB from a runtime DB and a registry.
// A nil runtime DB is allowed for SQL generation only.
func New(db *runtime.DB, reg *registry.Registry) *DB {
	if reg == nil {
		reg = registry.NewRegistry()
	}
	return &DB{db: db, reg: reg}
}

// Runtime returns the underlying runtime.DB.
func (d *DB) Runtime() *runtime.DB {
	return d.db
}

// Registry returns the registry backing table lookups.
func (d *DB) Registry() *registry.Registry {
	return d.reg
}

func tableFor[T any](d *DB) (*schema.TableMetadata, error) {
	var model T
	return d.reg.GetOrRegister(model)
}

// Select creates a new type-safe SELECT query.
// Usage: builder.Select[User](db).Where(...).All(ctx)
func Select[T any](d *DB) *SelectQuery[T] {
	table, err := tableFor[T](d)
	return &SelectQuery[T]{
		db:      d,
		table:   table,
		err:     err,
		columns: []string{"*"},
	}
}

// Insert creates a new type-safe INSERT query.
// Usage: builder.Insert[User](db).Values(user).Exec(ctx)
func Insert[T any](d *DB) *InsertQuery[T] {
	table, err := tableFor[T](d)
	return &InsertQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}

// Update creates a new type-safe UPDATE query.
// Usage: builder.Update[User](db).Set("name", "John").Where(...).Exec(ctx)
func Update[T any](d *DB) *UpdateQuery[T] {
	table, err := tableFor[T](d)
	return &UpdateQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}

// Delete creates a new type-safe DELETE query.
// Usage: builder.Delete[User](db).Where(...).Exec(ctx)
func Delete[T any](d *DB) *DeleteQuery[T] {
	table, err := tableFor[T](d)
	return &DeleteQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}
