package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// liveCopy returns what the introspector would read back for a freshly
// migrated fixture.
func liveCopy(tables []*schema.TableMetadata) map[string]*schema.TableMetadata {
	live := make(map[string]*schema.TableMetadata, len(tables))
	for _, table := range tables {
		clone := *table
		clone.Columns = append([]schema.ColumnMetadata(nil), table.Columns...)
		for i := range clone.Columns {
			if clone.Columns[i].Identity != nil {
				clone.Columns[i].Nullable = false
			}
		}
		clone.ForeignKeys = append([]schema.ForeignKeyMetadata(nil), table.ForeignKeys...)
		live[table.Name] = &clone
	}
	return live
}

func TestCompareInSync(t *testing.T) {
	tables, enums := plannerFixture()

	drifts := NewDiffer().Compare(tables, enums, liveCopy(tables), enums)
	assert.Empty(t, drifts)
}

func TestCompareMissingTable(t *testing.T) {
	tables, enums := plannerFixture()
	live := liveCopy(tables)
	delete(live, "entries")
	live["legacy"] = &schema.TableMetadata{Name: "legacy"}

	drifts := NewDiffer().Compare(tables, enums, live, enums)
	require.Len(t, drifts, 2)
	assert.Equal(t, Drift{Kind: DriftMissingTable, Table: "entries"}, drifts[0])
	assert.Equal(t, Drift{Kind: DriftExtraTable, Table: "legacy"}, drifts[1])
}

func TestCompareForeignKeyRule(t *testing.T) {
	tables, enums := plannerFixture()
	live := liveCopy(tables)
	live["entries"].ForeignKeys[0].OnDelete = schema.NoAction

	drifts := NewDiffer().Compare(tables, enums, live, enums)
	require.Len(t, drifts, 1)
	assert.Equal(t, DriftFKRule, drifts[0].Kind)
	assert.Equal(t, "fk_entries_account_id", drifts[0].Object)
	assert.Equal(t, "CASCADE", drifts[0].Expected)
	assert.Equal(t, "NO ACTION", drifts[0].Actual)
	assert.Contains(t, drifts[0].String(), "entries.fk_entries_account_id")
}

func TestCompareColumnsIndexesChecks(t *testing.T) {
	tables, enums := plannerFixture()
	live := liveCopy(tables)
	entries := live["entries"]
	entries.Columns = entries.Columns[:len(entries.Columns)-1]
	entries.Columns[3].SQLType = "numeric(12,2)"
	entries.Indexes = nil
	entries.Constraints = nil

	drifts := NewDiffer().Compare(tables, enums, live, enums)

	kinds := make([]DriftKind, 0, len(drifts))
	for _, d := range drifts {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []DriftKind{DriftColumnType, DriftMissingColumn, DriftMissingIndex, DriftMissingCheck}, kinds)
}

func TestCompareEnums(t *testing.T) {
	tables, enums := plannerFixture()
	live := liveCopy(tables)

	drifts := NewDiffer().Compare(tables, enums, live, nil)
	require.Len(t, drifts, 1)
	assert.Equal(t, DriftMissingEnum, drifts[0].Kind)

	reordered := []schema.EnumType{{Name: "account_status", Values: []string{"inactive", "active"}}}
	drifts = NewDiffer().Compare(tables, enums, live, reordered)
	require.Len(t, drifts, 1)
	assert.Equal(t, DriftEnumValues, drifts[0].Kind)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "integer", normalizeType("INT4"))
	assert.Equal(t, "varchar(100)", normalizeType("character varying(100)"))
	assert.Equal(t, "numeric(10,2)", normalizeType("DECIMAL(10, 2)"))
	assert.Equal(t, "timestamp", normalizeType("timestamp without time zone"))
	assert.Equal(t, "boolean", normalizeType("bool"))
}
