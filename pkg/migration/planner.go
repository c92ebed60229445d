package migration

import (
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// UpdatedAtFunction is the trigger function that refreshes autoUpdate
// columns. The column name is passed as the first trigger argument.
const UpdatedAtFunction = "set_updated_at"

// quoteIdent quotes a PostgreSQL identifier (table name, column name, etc.)
// to handle reserved keywords and special characters.
func quoteIdent(name string) string {
	return fmt.Sprintf(`"%s"`, name)
}

// quoteLiteral quotes a string literal, doubling embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// PlannerOptions configures migration generation behavior.
type PlannerOptions struct {
	// IfNotExists guards every CREATE so the generated script can run
	// against a database that already has the schema.
	// Default: true
	IfNotExists bool
}

// Planner generates SQL migration statements from table metadata.
type Planner struct {
	options PlannerOptions
}

// NewPlanner creates a new migration planner with default options.
func NewPlanner() *Planner {
	return &Planner{
		options: PlannerOptions{
			IfNotExists: true,
		},
	}
}

// NewPlannerWithOptions creates a new migration planner with custom options.
func NewPlannerWithOptions(opts PlannerOptions) *Planner {
	return &Planner{
		options: opts,
	}
}

// GenerateSchema generates up and down SQL that creates the given enum
// types and tables from scratch. Tables must already be in dependency
// order (see registry.Sorted).
//
// Up order: enum types, the updated_at trigger function, tables with their
// foreign keys and CHECK constraints, indexes, triggers.
// Down order: tables in reverse, then the function, then enum types.
func (p *Planner) GenerateSchema(tables []*schema.TableMetadata, enums []schema.EnumType) (upSQL, downSQL string) {
	var up []string
	var down []string

	for _, enum := range enums {
		up = append(up, p.generateCreateEnumType(enum))
	}

	needsTrigger := false
	for _, table := range tables {
		if table.HasAutoUpdate() {
			needsTrigger = true
			break
		}
	}
	if needsTrigger {
		up = append(up, p.generateUpdatedAtFunction())
	}

	for _, table := range tables {
		up = append(up, p.generateCreateTable(table))
	}

	for _, table := range tables {
		for _, col := range table.Columns {
			if col.AutoUpdate {
				up = append(up, p.generateAutoUpdateTrigger(table.Name, col.Name))
			}
		}
	}

	for i := len(tables) - 1; i >= 0; i-- {
		down = append(down, p.generateDropTable(tables[i].Name))
	}
	if needsTrigger {
		down = append(down, fmt.Sprintf("DROP FUNCTION IF EXISTS %s();", UpdatedAtFunction))
	}
	for i := len(enums) - 1; i >= 0; i-- {
		down = append(down, p.generateDropEnumType(enums[i].Name))
	}

	return strings.Join(up, "\n\n") + "\n", strings.Join(down, "\n") + "\n"
}

// generateCreateTable generates a CREATE TABLE statement followed by its
// CREATE INDEX statements.
func (p *Planner) generateCreateTable(table *schema.TableMetadata) string {
	var parts []string

	var singlePKColumn string
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) == 1 {
		singlePKColumn = table.PrimaryKey.Columns[0]
	}

	for _, col := range table.Columns {
		colDef := p.generateColumnDefinition(col)
		if singlePKColumn != "" && col.Name == singlePKColumn {
			colDef += " PRIMARY KEY"
		}
		parts = append(parts, "    "+colDef)
	}

	// Composite primary key
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) > 1 {
		pkCols := strings.Join(table.PrimaryKey.Columns, ", ")
		parts = append(parts, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)", table.PrimaryKey.Name, pkCols))
	}

	for _, fk := range table.ForeignKeys {
		parts = append(parts, "    "+p.generateForeignKeyDefinition(fk))
	}

	for _, constraint := range table.Constraints {
		switch constraint.Type {
		case schema.CheckConstraint:
			parts = append(parts, fmt.Sprintf("    CONSTRAINT %s CHECK (%s)", constraint.Name, constraint.Expression))
		case schema.UniqueConstraint:
			cols := strings.Join(constraint.Columns, ", ")
			parts = append(parts, fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)", constraint.Name, cols))
		}
	}

	createClause := "CREATE TABLE"
	if p.options.IfNotExists {
		createClause = "CREATE TABLE IF NOT EXISTS"
	}
	sql := fmt.Sprintf("%s %s (\n%s\n);", createClause, table.Name, strings.Join(parts, ",\n"))

	var indexStatements []string
	for _, idx := range table.Indexes {
		indexStatements = append(indexStatements, p.generateCreateIndex(table.Name, idx))
	}
	if len(indexStatements) > 0 {
		sql += "\n\n" + strings.Join(indexStatements, "\n")
	}

	return sql
}

// generateColumnDefinition generates a column definition.
func (p *Planner) generateColumnDefinition(col schema.ColumnMetadata) string {
	parts := []string{col.Name, col.SQLType}

	// Identity columns are implicitly NOT NULL and take no DEFAULT.
	if col.Identity != nil {
		parts = append(parts, fmt.Sprintf("GENERATED %s AS IDENTITY", *col.Identity))
		return strings.Join(parts, " ")
	}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, "DEFAULT", *col.Default)
	}

	if col.Unique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " ")
}

// generateForeignKeyDefinition generates a foreign key constraint.
func (p *Planner) generateForeignKeyDefinition(fk schema.ForeignKeyMetadata) string {
	localCols := strings.Join(fk.Columns, ", ")
	refCols := strings.Join(fk.ReferencedColumns, ", ")

	parts := []string{
		fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s)", fk.Name, localCols),
		fmt.Sprintf("REFERENCES %s (%s)", fk.ReferencedTable, refCols),
	}

	if fk.OnDelete != schema.NoAction && fk.OnDelete != "" {
		parts = append(parts, "ON DELETE "+string(fk.OnDelete))
	}

	if fk.OnUpdate != schema.NoAction && fk.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+string(fk.OnUpdate))
	}

	return strings.Join(parts, " ")
}

// generateCreateIndex generates a CREATE INDEX statement.
func (p *Planner) generateCreateIndex(tableName string, idx schema.IndexMetadata) string {
	var parts []string

	if idx.Unique {
		parts = append(parts, "CREATE UNIQUE INDEX")
	} else {
		parts = append(parts, "CREATE INDEX")
	}

	if p.options.IfNotExists {
		parts = append(parts, "IF NOT EXISTS")
	}

	parts = append(parts, idx.Name, "ON", tableName)
	parts = append(parts, fmt.Sprintf("(%s)", strings.Join(idx.Columns, ", ")))

	return strings.Join(parts, " ") + ";"
}

// generateDropTable generates a DROP TABLE statement.
func (p *Planner) generateDropTable(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", quoteIdent(tableName))
}

// generateCreateEnumType generates a CREATE TYPE statement for an enum.
// PostgreSQL has no CREATE TYPE IF NOT EXISTS, so the guarded form swallows
// duplicate_object inside a DO block.
func (p *Planner) generateCreateEnumType(enumType schema.EnumType) string {
	quotedValues := make([]string, len(enumType.Values))
	for i, val := range enumType.Values {
		quotedValues[i] = quoteLiteral(val)
	}

	create := fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);", enumType.Name, strings.Join(quotedValues, ", "))
	if !p.options.IfNotExists {
		return create
	}
	return fmt.Sprintf("DO $$ BEGIN\n    %s\nEXCEPTION\n    WHEN duplicate_object THEN null;\nEND $$;", create)
}

// generateDropEnumType generates a DROP TYPE statement for an enum.
func (p *Planner) generateDropEnumType(enumName string) string {
	return fmt.Sprintf("DROP TYPE IF EXISTS %s;", enumName)
}

// generateUpdatedAtFunction emits the trigger function behind autoUpdate
// columns. It only touches the column when some other value changed, and
// writes local time since the columns are timestamp without time zone.
func (p *Planner) generateUpdatedAtFunction() string {
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
    IF NEW IS DISTINCT FROM OLD THEN
        NEW := jsonb_populate_record(NEW, jsonb_build_object(TG_ARGV[0], LOCALTIMESTAMP));
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;`, UpdatedAtFunction)
}

// generateAutoUpdateTrigger attaches the updated_at function to one column.
func (p *Planner) generateAutoUpdateTrigger(tableName, column string) string {
	return fmt.Sprintf(
		"CREATE OR REPLACE TRIGGER trg_%s_%s BEFORE UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION %s(%s);",
		tableName, column, tableName, UpdatedAtFunction, quoteLiteral(column),
	)
}
