package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const (
	// StructTagKey is the key used in struct tags (e.g., `po:"..."`).
	StructTagKey = "po"
)

// Tabler is implemented by models that name their own table.
type Tabler interface {
	TableName() string
}

// Constrainer is implemented by models that declare table-level
// constraints the column tags cannot express.
type Constrainer interface {
	TableConstraints() []ConstraintMetadata
}

// Parser parses struct definitions to extract table metadata.
type Parser struct {
	typeMapper *TypeMapper
	mu         sync.Mutex
	cache      map[reflect.Type]*TableMetadata
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		typeMapper: DefaultTypeMapper,
		cache:      make(map[reflect.Type]*TableMetadata),
	}
}

// Parse extracts TableMetadata from a Go struct type.
//
// Tag format: "column_name,option1,option2(value),..." where options are
// SQL types (integer, varchar(n), numeric(p,s), ...), enum(type_name),
// notNull, unique, primaryKey, identity, identityAlways, default(expr),
// fk(table.column), onDelete(action), onUpdate(action), index,
// index(name) and autoUpdate.
func (p *Parser) Parse(modelType reflect.Type) (*TableMetadata, error) {
	for modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.cache[modelType]; ok {
		return cached, nil
	}

	table := &TableMetadata{
		Name:        extractTableName(modelType),
		GoType:      modelType,
		Columns:     make([]ColumnMetadata, 0, modelType.NumField()),
		ForeignKeys: make([]ForeignKeyMetadata, 0),
		Indexes:     make([]IndexMetadata, 0),
		Constraints: make([]ConstraintMetadata, 0),
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" || tagValue == "-" {
			continue
		}
		opts, err := parseTag(tagValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tag for field %s: %w", field.Name, err)
		}

		column, err := p.createColumnMetadata(field, opts, i)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		if opts.Has("primaryKey") {
			if table.PrimaryKey == nil {
				table.PrimaryKey = &PrimaryKeyMetadata{
					Name:    table.Name + "_pkey",
					Columns: []string{column.Name},
				}
			} else {
				table.PrimaryKey.Columns = append(table.PrimaryKey.Columns, column.Name)
			}
		}

		if ref := opts.Get("fk"); ref != "" {
			fk, err := parseForeignKey(table.Name, column.Name, ref, opts)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}

		if opts.Has("index") {
			name := opts.Get("index")
			if name == "" {
				name = fmt.Sprintf("idx_%s_%s", table.Name, column.Name)
			}
			table.Indexes = append(table.Indexes, IndexMetadata{
				Name:    name,
				Columns: []string{column.Name},
			})
		}

		table.Columns = append(table.Columns, column)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("model %s has no %s-tagged fields", modelType.Name(), StructTagKey)
	}

	if c, ok := reflect.New(modelType).Interface().(Constrainer); ok {
		table.Constraints = append(table.Constraints, c.TableConstraints()...)
	}

	p.cache[modelType] = table
	return table, nil
}

// extractTableName prefers the model's TableName method and falls back to
// snake_case of the struct name.
func extractTableName(modelType reflect.Type) string {
	if t, ok := reflect.New(modelType).Interface().(Tabler); ok {
		return t.TableName()
	}
	if t, ok := reflect.Zero(modelType).Interface().(Tabler); ok {
		return t.TableName()
	}
	return toSnakeCase(modelType.Name())
}

// createColumnMetadata creates a ColumnMetadata from a struct field.
func (p *Parser) createColumnMetadata(field reflect.StructField, opts *TagOptions, position int) (ColumnMetadata, error) {
	column := ColumnMetadata{
		Name:     opts.Name,
		GoField:  field.Name,
		GoType:   field.Type,
		Position: position,
	}

	if enumName := opts.Get("enum"); enumName != "" {
		column.SQLType = enumName
		column.EnumType = enumName
	} else if sqlType := opts.GetSQLType(); sqlType != "" {
		column.SQLType = sqlType
	} else {
		column.SQLType = p.typeMapper.GoTypeToPostgreSQL(field.Type)
	}
	if column.SQLType == "" {
		return column, fmt.Errorf("cannot infer SQL type for %s", field.Type)
	}
	column.IsJSONB = column.SQLType == "jsonb" || column.SQLType == "json"

	column.Nullable = !opts.Has("notNull") && !opts.Has("primaryKey")
	if IsNullable(field.Type) && !opts.Has("notNull") {
		column.Nullable = true
	}

	if opts.Has("default") {
		defaultVal := opts.Get("default")
		if err := ValidateDefaultValue(defaultVal); err != nil {
			return column, err
		}
		column.Default = &defaultVal
	}

	column.Unique = opts.Has("unique")
	column.AutoUpdate = opts.Has("autoUpdate")

	switch {
	case opts.Has("identityAlways"):
		gen := IdentityAlways
		column.Identity = &gen
	case opts.Has("identity"):
		gen := IdentityByDefault
		column.Identity = &gen
	}

	return column, nil
}

// parseForeignKey parses "table.column" or "table(column)".
func parseForeignKey(tableName, columnName, ref string, opts *TagOptions) (ForeignKeyMetadata, error) {
	var refTable, refColumn string
	if strings.Contains(ref, ".") {
		parts := strings.SplitN(ref, ".", 2)
		refTable, refColumn = parts[0], parts[1]
	} else if idx := strings.Index(ref, "("); idx > 0 && strings.HasSuffix(ref, ")") {
		refTable, refColumn = ref[:idx], ref[idx+1:len(ref)-1]
	}
	if refTable == "" || refColumn == "" {
		return ForeignKeyMetadata{}, fmt.Errorf("invalid fk reference %q", ref)
	}

	return ForeignKeyMetadata{
		Name:              fmt.Sprintf("fk_%s_%s", tableName, columnName),
		Columns:           []string{columnName},
		ReferencedTable:   refTable,
		ReferencedColumns: []string{refColumn},
		OnDelete:          ParseReferenceAction(opts.Get("onDelete")),
		OnUpdate:          ParseReferenceAction(opts.Get("onUpdate")),
	}, nil
}

// ParseReferenceAction converts a tag or information_schema rule to a
// ReferenceAction. Unknown values map to NoAction.
func ParseReferenceAction(action string) ReferenceAction {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "CASCADE":
		return Cascade
	case "RESTRICT":
		return Restrict
	case "SETNULL", "SET NULL", "SET_NULL":
		return SetNull
	case "SETDEFAULT", "SET DEFAULT", "SET_DEFAULT":
		return SetDefault
	default:
		return NoAction
	}
}

// TagOptions represents parsed tag options.
type TagOptions struct {
	Name    string            // Column name (first element)
	Options map[string]string // Other options
}

// parseTag parses a struct tag value into TagOptions.
func parseTag(tag string) (*TagOptions, error) {
	parts := splitTag(tag)
	if len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("empty tag value")
	}
	opts := &TagOptions{
		Name:    parts[0],
		Options: make(map[string]string),
	}
	for _, opt := range parts[1:] {
		if idx := strings.Index(opt, "("); idx != -1 {
			if !strings.HasSuffix(opt, ")") {
				return nil, fmt.Errorf("invalid option format: %s", opt)
			}
			opts.Options[opt[:idx]] = opt[idx+1 : len(opt)-1]
			continue
		}
		opts.Options[opt] = ""
	}
	return opts, nil
}

// Has checks if an option exists.
func (t *TagOptions) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Get returns the value of an option.
func (t *TagOptions) Get(key string) string {
	return t.Options[key]
}

// GetSQLType returns the SQL type from tag options.
func (t *TagOptions) GetSQLType() string {
	pgTypes := []string{
		"varchar", "text", "char",
		"smallint", "integer", "bigint",
		"numeric", "decimal", "real", "double precision",
		"boolean",
		"date", "timestamp", "timestamptz",
		"json", "jsonb",
		"uuid", "bytea",
	}
	for _, pgType := range pgTypes {
		if !t.Has(pgType) {
			continue
		}
		if value := t.Get(pgType); value != "" {
			return fmt.Sprintf("%s(%s)", pgType, value)
		}
		return pgType
	}
	return ""
}

// splitTag splits a tag value by commas, handling nested parentheses.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// toSnakeCase converts a string from PascalCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && ch >= 'A' && ch <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(ch)
	}
	return strings.ToLower(result.String())
}
