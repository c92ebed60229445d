// Package catalog defines the storefront and bibliographic tables, their
// enum types and the schema migration built from them.
package catalog

import (
	"github.com/marshallshelly/pebble-catalog/pkg/migration"
	"github.com/marshallshelly/pebble-catalog/pkg/registry"
	"github.com/pkg/errors"
)

const (
	// MigrationVersion identifies the single schema migration.
	MigrationVersion = "20240101000000"
	MigrationName    = "create_catalog_schema"
)

// Models returns one zero value per table. Parents come before children.
func Models() []any {
	return []any{
		User{},
		Category{},
		Brand{},
		Product{},
		Order{},
		OrderItem{},
		Author{},
		Book{},
		Customer{},
		FeaturedProduct{},
		UserPreference{},
		Session{},
	}
}

// NewRegistry registers every model and enum type.
func NewRegistry() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	for _, enum := range EnumTypes() {
		if err := reg.RegisterEnum(enum); err != nil {
			return nil, errors.Wrapf(err, "register enum %s", enum.Name)
		}
	}
	for _, model := range Models() {
		if err := reg.Register(model); err != nil {
			return nil, errors.Wrap(err, "register model")
		}
	}

	return reg, nil
}

// Migration builds the guarded schema migration from the registry.
func Migration(reg *registry.Registry) (migration.Migration, error) {
	tables, err := reg.Sorted()
	if err != nil {
		return migration.Migration{}, errors.Wrap(err, "order tables")
	}

	planner := migration.NewPlannerWithOptions(migration.PlannerOptions{IfNotExists: true})
	up, down := planner.GenerateSchema(tables, reg.Enums())

	return migration.Migration{
		Version: MigrationVersion,
		Name:    MigrationName,
		UpSQL:   up,
		DownSQL: down,
	}, nil
}
