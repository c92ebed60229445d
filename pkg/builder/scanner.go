package builder

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/pebble-catalog/pkg/schema"
)

// queryRows runs sql and scans every row into a T.
func queryRows[T any](ctx context.Context, d *DB, table *schema.TableMetadata, sql string, args []interface{}) ([]T, error) {
	rows, err := d.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		if err := scanIntoStruct(rows, &item, table); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// scanIntoStruct scans a database row into a struct. Result columns that
// map to no field are discarded.
func scanIntoStruct(rows pgx.Rows, dest interface{}, table *schema.TableMetadata) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	destValue = destValue.Elem()
	if destValue.Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	fieldDescriptions := rows.FieldDescriptions()

	scanTargets := make([]interface{}, len(fieldDescriptions))
	jsonbTargets := make(map[int]*jsonbScanTarget)
	columnMap := make(map[string]int)

	for i, fd := range fieldDescriptions {
		columnMap[fd.Name] = i
	}

	for _, col := range table.Columns {
		idx, ok := columnMap[col.Name]
		if !ok {
			continue
		}

		field := destValue.FieldByName(col.GoField)
		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// JSONB columns whose type has no Scan method are decoded with
		// encoding/json after the row is read.
		if col.IsJSONB && !implementsScanner(field.Type()) {
			target := &jsonbScanTarget{field: field}
			scanTargets[idx] = target
			jsonbTargets[idx] = target
		} else {
			scanTargets[idx] = field.Addr().Interface()
		}
	}

	var dummy interface{}
	for i := range scanTargets {
		if scanTargets[i] == nil {
			scanTargets[i] = &dummy
		}
	}

	if err := rows.Scan(scanTargets...); err != nil {
		return fmt.Errorf("failed to scan row: %w", err)
	}

	for _, target := range jsonbTargets {
		if err := target.unmarshalIntoField(); err != nil {
			return fmt.Errorf("failed to unmarshal JSONB: %w", err)
		}
	}

	return nil
}

// jsonbScanTarget is an intermediate scan target for JSONB columns
// that don't implement sql.Scanner.
type jsonbScanTarget struct {
	field reflect.Value
	data  []byte
}

// Scan implements sql.Scanner for intermediate JSONB scanning.
func (j *jsonbScanTarget) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		j.data = v
	case string:
		j.data = []byte(v)
	default:
		// pgx already decoded it; round-trip through JSON into the field type
		var err error
		j.data, err = json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal decoded JSONB: %w", err)
		}
	}
	return nil
}

// unmarshalIntoField unmarshals the scanned JSON data into the target field.
func (j *jsonbScanTarget) unmarshalIntoField() error {
	if j.data == nil {
		return nil
	}
	return json.Unmarshal(j.data, j.field.Addr().Interface())
}

var (
	scannerType = reflect.TypeOf((*interface{ Scan(interface{}) error })(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// implementsScanner checks if a type implements sql.Scanner.
func implementsScanner(t reflect.Type) bool {
	return t.Implements(scannerType) || reflect.PointerTo(t).Implements(scannerType)
}

// implementsValuer checks if a type implements driver.Valuer.
func implementsValuer(t reflect.Type) bool {
	return t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType)
}

// structToValues converts a struct to column names and values for INSERT.
// A field is omitted when its Go value is zero and the column either has a
// database default or is an identity column, so the database fills it in.
// Bool fields are always written since false is a meaningful value.
// JSONB values without a Value method are marshalled with encoding/json.
func structToValues(model interface{}, table *schema.TableMetadata) ([]string, []interface{}, error) {
	modelValue := reflect.ValueOf(model)
	if modelValue.Kind() == reflect.Ptr {
		modelValue = modelValue.Elem()
	}

	if modelValue.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct")
	}

	var columns []string
	var values []interface{}

	for _, col := range table.Columns {
		field := modelValue.FieldByName(col.GoField)
		if !field.IsValid() {
			continue
		}

		if (col.Default != nil || col.Identity != nil) && field.Kind() != reflect.Bool && field.IsZero() {
			continue
		}

		columns = append(columns, col.Name)

		if col.IsJSONB && !implementsValuer(field.Type()) {
			jsonValue, err := marshalJSONB(field.Interface())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to marshal JSONB field %s: %w", col.GoField, err)
			}
			values = append(values, jsonValue)
		} else {
			values = append(values, field.Interface())
		}
	}

	return columns, values, nil
}

// marshalJSONB marshals a value to a JSON string for JSONB columns, or nil
// for a nil pointer, map or slice. A string is used because pgx encodes it
// as jsonb, while []byte could be sent as bytea.
func marshalJSONB(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
	}

	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}
