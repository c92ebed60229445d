package migration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// DriftKind classifies one difference between the models and the database.
type DriftKind string

const (
	DriftMissingTable   DriftKind = "missing_table"
	DriftExtraTable     DriftKind = "extra_table"
	DriftMissingColumn  DriftKind = "missing_column"
	DriftColumnType     DriftKind = "column_type"
	DriftColumnNullable DriftKind = "column_nullable"
	DriftMissingFK      DriftKind = "missing_foreign_key"
	DriftFKRule         DriftKind = "foreign_key_rule"
	DriftMissingIndex   DriftKind = "missing_index"
	DriftMissingCheck   DriftKind = "missing_check"
	DriftMissingEnum    DriftKind = "missing_enum"
	DriftEnumValues     DriftKind = "enum_values"
)

// Drift is one difference found by Compare.
type Drift struct {
	Kind     DriftKind
	Table    string
	Object   string
	Expected string
	Actual   string
}

// String renders the drift for logs and CLI output.
func (d Drift) String() string {
	target := d.Table
	if d.Object != "" {
		target += "." + d.Object
	}
	if d.Expected == "" && d.Actual == "" {
		return fmt.Sprintf("%s: %s", d.Kind, target)
	}
	return fmt.Sprintf("%s: %s (expected %s, found %s)", d.Kind, target, d.Expected, d.Actual)
}

// Differ compares model metadata with an introspected database.
type Differ struct{}

// NewDiffer creates a new schema differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Compare reports how the database falls short of the models. The result
// is ordered by table (model order) and is empty when the database matches.
// Extra database objects are reported only for whole tables.
func (d *Differ) Compare(
	codeTables []*schema.TableMetadata,
	codeEnums []schema.EnumType,
	dbSchema map[string]*schema.TableMetadata,
	dbEnums []schema.EnumType,
) []Drift {
	var drifts []Drift

	drifts = append(drifts, d.compareEnumTypes(codeEnums, dbEnums)...)

	known := make(map[string]bool, len(codeTables))
	for _, codeTable := range codeTables {
		known[codeTable.Name] = true
		dbTable, exists := dbSchema[codeTable.Name]
		if !exists {
			drifts = append(drifts, Drift{Kind: DriftMissingTable, Table: codeTable.Name})
			continue
		}
		drifts = append(drifts, d.compareTable(codeTable, dbTable)...)
	}

	var extra []string
	for name := range dbSchema {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		drifts = append(drifts, Drift{Kind: DriftExtraTable, Table: name})
	}

	return drifts
}

// compareTable compares two versions of the same table.
func (d *Differ) compareTable(codeTable, dbTable *schema.TableMetadata) []Drift {
	var drifts []Drift
	drifts = append(drifts, d.compareColumns(codeTable, dbTable)...)
	drifts = append(drifts, d.compareForeignKeys(codeTable, dbTable)...)
	drifts = append(drifts, d.compareIndexes(codeTable, dbTable)...)
	drifts = append(drifts, d.compareConstraints(codeTable, dbTable)...)
	return drifts
}

func (d *Differ) compareColumns(codeTable, dbTable *schema.TableMetadata) []Drift {
	var drifts []Drift
	for _, codeCol := range codeTable.Columns {
		dbCol := dbTable.GetColumn(codeCol.Name)
		if dbCol == nil {
			drifts = append(drifts, Drift{Kind: DriftMissingColumn, Table: codeTable.Name, Object: codeCol.Name})
			continue
		}
		if !d.isSameType(codeCol.SQLType, dbCol.SQLType) {
			drifts = append(drifts, Drift{
				Kind:     DriftColumnType,
				Table:    codeTable.Name,
				Object:   codeCol.Name,
				Expected: codeCol.SQLType,
				Actual:   dbCol.SQLType,
			})
		}
		// Identity and primary key columns are NOT NULL whatever the tag says.
		codeNullable := codeCol.Nullable && codeCol.Identity == nil && !codeTable.IsPrimaryKey(codeCol.Name)
		if codeNullable != dbCol.Nullable {
			drifts = append(drifts, Drift{
				Kind:     DriftColumnNullable,
				Table:    codeTable.Name,
				Object:   codeCol.Name,
				Expected: nullability(codeNullable),
				Actual:   nullability(dbCol.Nullable),
			})
		}
	}
	return drifts
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

// compareForeignKeys checks every model foreign key exists with the same
// delete rule.
func (d *Differ) compareForeignKeys(codeTable, dbTable *schema.TableMetadata) []Drift {
	dbFKs := make(map[string]schema.ForeignKeyMetadata)
	for _, fk := range dbTable.ForeignKeys {
		dbFKs[fk.Name] = fk
	}

	var drifts []Drift
	for _, codeFK := range codeTable.ForeignKeys {
		dbFK, exists := dbFKs[codeFK.Name]
		if !exists {
			drifts = append(drifts, Drift{Kind: DriftMissingFK, Table: codeTable.Name, Object: codeFK.Name})
			continue
		}
		if deleteRule(codeFK.OnDelete) != deleteRule(dbFK.OnDelete) {
			drifts = append(drifts, Drift{
				Kind:     DriftFKRule,
				Table:    codeTable.Name,
				Object:   codeFK.Name,
				Expected: string(deleteRule(codeFK.OnDelete)),
				Actual:   string(deleteRule(dbFK.OnDelete)),
			})
		}
	}
	return drifts
}

func deleteRule(action schema.ReferenceAction) schema.ReferenceAction {
	if action == "" {
		return schema.NoAction
	}
	return action
}

func (d *Differ) compareIndexes(codeTable, dbTable *schema.TableMetadata) []Drift {
	dbIndexes := make(map[string]bool)
	for _, idx := range dbTable.Indexes {
		dbIndexes[idx.Name] = true
	}

	var drifts []Drift
	for _, idx := range codeTable.Indexes {
		if !dbIndexes[idx.Name] {
			drifts = append(drifts, Drift{Kind: DriftMissingIndex, Table: codeTable.Name, Object: idx.Name})
		}
	}
	return drifts
}

// compareConstraints checks CHECK constraints by name. The stored
// expression is normalized by PostgreSQL, so only presence is compared.
func (d *Differ) compareConstraints(codeTable, dbTable *schema.TableMetadata) []Drift {
	dbChecks := make(map[string]bool)
	for _, c := range dbTable.Constraints {
		if c.Type == schema.CheckConstraint {
			dbChecks[c.Name] = true
		}
	}

	var drifts []Drift
	for _, c := range codeTable.Constraints {
		if c.Type == schema.CheckConstraint && !dbChecks[c.Name] {
			drifts = append(drifts, Drift{Kind: DriftMissingCheck, Table: codeTable.Name, Object: c.Name})
		}
	}
	return drifts
}

// compareEnumTypes requires every model enum to exist with the same labels
// in the same order.
func (d *Differ) compareEnumTypes(codeEnums, dbEnums []schema.EnumType) []Drift {
	dbByName := make(map[string]schema.EnumType, len(dbEnums))
	for _, e := range dbEnums {
		dbByName[e.Name] = e
	}

	var drifts []Drift
	for _, codeEnum := range codeEnums {
		dbEnum, exists := dbByName[codeEnum.Name]
		if !exists {
			drifts = append(drifts, Drift{Kind: DriftMissingEnum, Object: codeEnum.Name})
			continue
		}
		if !isSameStringSlice(codeEnum.Values, dbEnum.Values) {
			drifts = append(drifts, Drift{
				Kind:     DriftEnumValues,
				Object:   codeEnum.Name,
				Expected: strings.Join(codeEnum.Values, ","),
				Actual:   strings.Join(dbEnum.Values, ","),
			})
		}
	}
	return drifts
}

// isSameType compares SQL types, normalizing for common variations.
func (d *Differ) isSameType(type1, type2 string) bool {
	return normalizeType(type1) == normalizeType(type2)
}

// normalizeType normalizes SQL type strings for comparison.
func normalizeType(sqlType string) string {
	normalized := strings.ToLower(strings.TrimSpace(sqlType))
	normalized = strings.ReplaceAll(normalized, " ", "")

	switch {
	case normalized == "int" || normalized == "int4":
		return "integer"
	case normalized == "int8":
		return "bigint"
	case normalized == "int2":
		return "smallint"
	case normalized == "bool":
		return "boolean"
	case normalized == "timestampwithouttimezone":
		return "timestamp"
	case strings.HasPrefix(normalized, "charactervarying"):
		return "varchar" + strings.TrimPrefix(normalized, "charactervarying")
	case strings.HasPrefix(normalized, "decimal"):
		return "numeric" + strings.TrimPrefix(normalized, "decimal")
	}
	return normalized
}

func isSameStringSlice(slice1, slice2 []string) bool {
	if len(slice1) != len(slice2) {
		return false
	}
	for i := range slice1 {
		if slice1[i] != slice2[i] {
			return false
		}
	}
	return true
}
