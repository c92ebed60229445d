package queries

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Null is how a NULL cell is rendered.
const Null = "NULL"

// Table is a query result flattened to text cells, for terminal output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Tabulate flattens a query result. A slice of structs gives one row per
// element with the json field names as headers, a single struct gives one
// row, anything else a one-cell "value" table. Fields tagged json:"-" and
// the volatile timestamps are skipped.
func Tabulate(result any) *Table {
	v := reflect.ValueOf(result)
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Slice && isStruct(v.Type().Elem()):
		t := &Table{Headers: headers(v.Type().Elem())}
		for i := 0; i < v.Len(); i++ {
			t.Rows = append(t.Rows, cells(v.Index(i)))
		}
		return t
	case v.Kind() == reflect.Struct && !isScalarStruct(v.Type()):
		return &Table{Headers: headers(v.Type()), Rows: [][]string{cells(v)}}
	default:
		return &Table{Headers: []string{"value"}, Rows: [][]string{{formatCell(v)}}}
	}
}

func isStruct(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !isScalarStruct(t)
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
)

// isScalarStruct reports struct types rendered as a single cell.
func isScalarStruct(t reflect.Type) bool {
	return t == timeType || t == decimalType || t == nullDecimalType
}

func columnName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	switch {
	case name == "-":
		return "", false
	case name == "":
		name = f.Name
	}
	if volatileKeys[name] {
		return "", false
	}
	return name, true
}

func headers(t reflect.Type) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		if name, ok := columnName(t.Field(i)); ok {
			out = append(out, name)
		}
	}
	return out
}

func cells(v reflect.Value) []string {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	var out []string
	for i := 0; i < t.NumField(); i++ {
		if _, ok := columnName(t.Field(i)); ok {
			out = append(out, formatCell(v.Field(i)))
		}
	}
	return out
}

func formatCell(v reflect.Value) string {
	if !v.IsValid() {
		return Null
	}
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Map || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Null
		}
		if v.Kind() != reflect.Map {
			return formatCell(v.Elem())
		}
	}

	switch x := v.Interface().(type) {
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	case decimal.Decimal:
		return formatDecimal(x)
	case decimal.NullDecimal:
		if !x.Valid {
			return Null
		}
		return formatDecimal(x.Decimal)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatDecimal shows money with two places and keeps the extra digits of
// averages.
func formatDecimal(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}
