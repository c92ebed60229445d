package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// Introspector inspects the live schema of the public namespace.
type Introspector struct {
	db *runtime.DB
}

// NewIntrospector creates a new database introspector.
func NewIntrospector(db *runtime.DB) *Introspector {
	return &Introspector{db: db}
}

// IntrospectSchema introspects every table except schema_migrations.
func (i *Introspector) IntrospectSchema(ctx context.Context) (map[string]*schema.TableMetadata, error) {
	tables := make(map[string]*schema.TableMetadata)

	tableNames, err := i.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		table, err := i.IntrospectTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", tableName, err)
		}
		tables[tableName] = table
	}

	return tables, nil
}

// IntrospectTable introspects a single table.
func (i *Introspector) IntrospectTable(ctx context.Context, tableName string) (*schema.TableMetadata, error) {
	table := &schema.TableMetadata{Name: tableName}

	columns, err := i.getColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	table.Columns = columns

	pk, err := i.getPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}
	table.PrimaryKey = pk

	fks, err := i.ForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	indexes, err := i.getIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	table.Indexes = indexes

	constraints, err := i.getConstraints(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get constraints: %w", err)
	}
	table.Constraints = constraints

	return table, nil
}

// TableNames retrieves all base table names in the public schema, sorted.
func (i *Introspector) TableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		  AND table_name != 'schema_migrations'
		ORDER BY table_name
	`

	rows, err := i.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// EnumTypes retrieves the enum types of the public schema with their
// labels in declaration order.
func (i *Introspector) EnumTypes(ctx context.Context) ([]schema.EnumType, error) {
	query := `
		SELECT t.typname, array_agg(e.enumlabel ORDER BY e.enumsortorder)
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = 'public'
		GROUP BY t.typname
		ORDER BY t.typname
	`

	rows, err := i.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enums []schema.EnumType
	for rows.Next() {
		var enum schema.EnumType
		if err := rows.Scan(&enum.Name, &enum.Values); err != nil {
			return nil, err
		}
		enums = append(enums, enum)
	}

	return enums, rows.Err()
}

// getColumns retrieves column information for a table.
func (i *Introspector) getColumns(ctx context.Context, tableName string) ([]schema.ColumnMetadata, error) {
	query := `
		SELECT
			column_name,
			data_type,
			udt_name,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			is_nullable,
			column_default,
			is_identity,
			identity_generation,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.ColumnMetadata
	for rows.Next() {
		var col schema.ColumnMetadata
		var dataType, udtName, isNullable, isIdentity string
		var maxLength, precision, scale *int
		var defaultVal, identityGen *string
		var position int

		err := rows.Scan(
			&col.Name,
			&dataType,
			&udtName,
			&maxLength,
			&precision,
			&scale,
			&isNullable,
			&defaultVal,
			&isIdentity,
			&identityGen,
			&position,
		)
		if err != nil {
			return nil, err
		}

		col.SQLType = buildSQLType(dataType, udtName, maxLength, precision, scale)
		col.Nullable = isNullable == "YES"
		col.Default = defaultVal
		col.Position = position - 1
		if dataType == "USER-DEFINED" {
			col.EnumType = udtName
		}
		if isIdentity == "YES" && identityGen != nil {
			gen := schema.IdentityGeneration(*identityGen)
			col.Identity = &gen
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// getPrimaryKey retrieves primary key information.
func (i *Introspector) getPrimaryKey(ctx context.Context, tableName string) (*schema.PrimaryKeyMetadata, error) {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position) as columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'PRIMARY KEY'
		GROUP BY tc.constraint_name
	`

	var name string
	var columns []string

	err := i.db.QueryRow(ctx, query, tableName).Scan(&name, &columns)
	if errors.Is(err, runtime.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &schema.PrimaryKeyMetadata{
		Name:    name,
		Columns: columns,
	}, nil
}

// ForeignKeys reads the foreign keys of a table, including the update and
// delete rules recorded in information_schema.referential_constraints.
func (i *Introspector) ForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKeyMetadata, error) {
	query := `
		SELECT
			tc.constraint_name,
			array_agg(DISTINCT kcu.column_name) as columns,
			ccu.table_name as foreign_table,
			array_agg(DISTINCT ccu.column_name) as foreign_columns,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.constraint_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'FOREIGN KEY'
		GROUP BY tc.constraint_name, ccu.table_name, rc.update_rule, rc.delete_rule
		ORDER BY tc.constraint_name
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foreignKeys []schema.ForeignKeyMetadata
	for rows.Next() {
		var fk schema.ForeignKeyMetadata
		var updateRule, deleteRule string

		err := rows.Scan(
			&fk.Name,
			&fk.Columns,
			&fk.ReferencedTable,
			&fk.ReferencedColumns,
			&updateRule,
			&deleteRule,
		)
		if err != nil {
			return nil, err
		}

		fk.OnUpdate = schema.ParseReferenceAction(updateRule)
		fk.OnDelete = schema.ParseReferenceAction(deleteRule)

		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}

// getIndexes retrieves standalone indexes. Indexes backing PRIMARY KEY or
// UNIQUE constraints belong to the constraint and are left out.
func (i *Introspector) getIndexes(ctx context.Context, tableName string) ([]schema.IndexMetadata, error) {
	query := `
		SELECT
			i.relname as index_name,
			array_agg(a.attname ORDER BY x.ordinality) as columns,
			ix.indisunique as is_unique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS x(attnum, ordinality)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = x.attnum
		LEFT JOIN pg_constraint c ON c.conindid = ix.indexrelid
		WHERE t.relname = $1
			AND t.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = 'public')
			AND NOT ix.indisprimary
			AND c.conindid IS NULL
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.IndexMetadata
	for rows.Next() {
		var idx schema.IndexMetadata
		if err := rows.Scan(&idx.Name, &idx.Columns, &idx.Unique); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// getConstraints retrieves CHECK and UNIQUE constraint information. CHECK
// expressions are returned without the surrounding CHECK ( ... ).
func (i *Introspector) getConstraints(ctx context.Context, tableName string) ([]schema.ConstraintMetadata, error) {
	query := `
		SELECT
			con.conname as constraint_name,
			con.contype::text as constraint_type,
			pg_get_constraintdef(con.oid) as constraint_def,
			ARRAY(
				SELECT a.attname
				FROM unnest(con.conkey) AS u(attnum)
				JOIN pg_attribute AS a ON a.attrelid = con.conrelid AND a.attnum = u.attnum
				ORDER BY u.attnum
			) as column_names
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace nsp ON nsp.oid = connamespace
		WHERE nsp.nspname = 'public'
			AND rel.relname = $1
			AND con.contype IN ('c', 'u')
		ORDER BY con.conname
	`

	rows, err := i.db.Query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.ConstraintMetadata
	for rows.Next() {
		var c schema.ConstraintMetadata
		var contype, def string
		var columnNames []string

		if err := rows.Scan(&c.Name, &contype, &def, &columnNames); err != nil {
			return nil, err
		}

		c.Columns = columnNames
		switch contype {
		case "c":
			c.Type = schema.CheckConstraint
			c.Expression = stripCheck(def)
		case "u":
			c.Type = schema.UniqueConstraint
		}

		constraints = append(constraints, c)
	}

	return constraints, rows.Err()
}

// stripCheck turns "CHECK ((a >= b))" into "(a >= b)".
func stripCheck(def string) string {
	def = strings.TrimSpace(def)
	def = strings.TrimPrefix(def, "CHECK ")
	if strings.HasPrefix(def, "(") && strings.HasSuffix(def, ")") {
		def = def[1 : len(def)-1]
	}
	return def
}

// buildSQLType constructs the SQL type string from column metadata.
func buildSQLType(dataType, udtName string, maxLength, precision, scale *int) string {
	switch dataType {
	case "character varying":
		if maxLength != nil {
			return fmt.Sprintf("varchar(%d)", *maxLength)
		}
		return "varchar"
	case "character":
		if maxLength != nil {
			return fmt.Sprintf("char(%d)", *maxLength)
		}
		return "char"
	case "numeric":
		if precision != nil && scale != nil {
			return fmt.Sprintf("numeric(%d,%d)", *precision, *scale)
		}
		return "numeric"
	case "timestamp without time zone":
		return "timestamp"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}
