// Package schema describes tables as metadata and builds that metadata from
// tagged Go structs.
package schema

import "reflect"

// ReferenceAction is the action taken on a referencing row when the
// referenced row is deleted or updated.
type ReferenceAction string

const (
	NoAction   ReferenceAction = "NO ACTION"
	Restrict   ReferenceAction = "RESTRICT"
	Cascade    ReferenceAction = "CASCADE"
	SetNull    ReferenceAction = "SET NULL"
	SetDefault ReferenceAction = "SET DEFAULT"
)

// IdentityGeneration controls GENERATED { ALWAYS | BY DEFAULT } AS IDENTITY.
type IdentityGeneration string

const (
	IdentityAlways    IdentityGeneration = "ALWAYS"
	IdentityByDefault IdentityGeneration = "BY DEFAULT"
)

// ConstraintType distinguishes table-level constraints.
type ConstraintType string

const (
	CheckConstraint  ConstraintType = "CHECK"
	UniqueConstraint ConstraintType = "UNIQUE"
)

// TableMetadata is the complete description of one table.
type TableMetadata struct {
	Name        string
	GoType      reflect.Type
	Columns     []ColumnMetadata
	PrimaryKey  *PrimaryKeyMetadata
	ForeignKeys []ForeignKeyMetadata
	Indexes     []IndexMetadata
	Constraints []ConstraintMetadata
}

// ColumnMetadata describes a single column.
type ColumnMetadata struct {
	Name       string
	GoField    string
	GoType     reflect.Type
	SQLType    string
	Nullable   bool
	Default    *string
	Unique     bool
	Identity   *IdentityGeneration
	EnumType   string // set when SQLType names an enum type
	AutoUpdate bool   // refreshed to CURRENT_TIMESTAMP on every UPDATE
	IsJSONB    bool
	Position   int
}

// PrimaryKeyMetadata describes the primary key.
type PrimaryKeyMetadata struct {
	Name    string
	Columns []string
}

// ForeignKeyMetadata describes a foreign key constraint.
type ForeignKeyMetadata struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferenceAction
	OnUpdate          ReferenceAction
}

// IndexMetadata describes a secondary index.
type IndexMetadata struct {
	Name    string
	Columns []string
	Unique  bool
}

// ConstraintMetadata describes a CHECK or multi-column UNIQUE constraint.
type ConstraintMetadata struct {
	Name       string
	Type       ConstraintType
	Columns    []string
	Expression string
}

// EnumType is a named PostgreSQL enum type with its ordered literal set.
type EnumType struct {
	Name   string
	Values []string
}

// Has reports whether v is one of the enum's literals.
func (e EnumType) Has(v string) bool {
	for _, val := range e.Values {
		if val == v {
			return true
		}
	}
	return false
}

// IsPrimaryKey reports whether column is part of the primary key.
func (t *TableMetadata) IsPrimaryKey(column string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// GetColumn returns the column with the given name, or nil.
func (t *TableMetadata) GetColumn(name string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// GetColumnByField returns the column mapped to the given Go field, or nil.
func (t *TableMetadata) GetColumnByField(field string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].GoField == field {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns column names in declaration order.
func (t *TableMetadata) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IdentityColumn returns the identity column, or nil when the table has none.
func (t *TableMetadata) IdentityColumn() *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].Identity != nil {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasAutoUpdate reports whether any column is refreshed on UPDATE.
func (t *TableMetadata) HasAutoUpdate() bool {
	for _, c := range t.Columns {
		if c.AutoUpdate {
			return true
		}
	}
	return false
}

// DependsOn returns the distinct tables this table references, excluding itself.
func (t *TableMetadata) DependsOn() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		deps = append(deps, fk.ReferencedTable)
	}
	return deps
}
