package builder

import "fmt"

// PostgreSQL expression helpers. They return SQL fragments for Columns,
// GroupBy, OrderBy and Expr.

// JSONBPathText extracts value at specified path as text
// Usage: JSONBPathText("data", "user", "name") -> data->'user'->>'name'
func JSONBPathText(column string, path ...string) string {
	if len(path) == 0 {
		return column
	}
	result := column
	for i, p := range path {
		if i == len(path)-1 {
			result += fmt.Sprintf("->>'%s'", p)
		} else {
			result += fmt.Sprintf("->'%s'", p)
		}
	}
	return result
}

// Extract extracts field from timestamp as an integer.
// Usage: Extract("YEAR", "order_date") -> EXTRACT(YEAR FROM order_date)::int
func Extract(field, column string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)::int", field, column)
}

// Round rounds a number to specified decimal places
func Round(expr string, decimals int) string {
	return fmt.Sprintf("ROUND(%s, %d)", expr, decimals)
}

// Coalesce returns the first non-null expression.
func Coalesce(expr, fallback string) string {
	return fmt.Sprintf("COALESCE(%s, %s)", expr, fallback)
}
