package builder

import (
	"fmt"
	"strings"
)

// RecursiveCTE represents a recursive Common Table Expression
type RecursiveCTE struct {
	Name           string
	Columns        []string
	BaseQuery      string
	BaseArgs       []interface{}
	RecursiveQuery string
	RecursiveArgs  []interface{}
}

// CTERecursiveBuilder helps build recursive CTEs. Both cases and the main
// query use ? placeholders, numbered in that order by Query.
type CTERecursiveBuilder struct {
	cte RecursiveCTE
}

// NewRecursiveCTE creates a new recursive CTE builder
func NewRecursiveCTE(name string, columns ...string) *CTERecursiveBuilder {
	return &CTERecursiveBuilder{
		cte: RecursiveCTE{
			Name:    name,
			Columns: columns,
		},
	}
}

// BaseCase sets the base case query
func (r *CTERecursiveBuilder) BaseCase(query string, args ...interface{}) *CTERecursiveBuilder {
	r.cte.BaseQuery = query
	r.cte.BaseArgs = args
	return r
}

// RecursiveCase sets the recursive case query
func (r *CTERecursiveBuilder) RecursiveCase(query string, args ...interface{}) *CTERecursiveBuilder {
	r.cte.RecursiveQuery = query
	r.cte.RecursiveArgs = args
	return r
}

// Query prefixes main with the WITH RECURSIVE clause and returns the
// statement with $n placeholders.
//
//	sql, args, err := NewRecursiveCTE("tree", "id", "parent_id").
//	    BaseCase("SELECT id, parent_id FROM categories WHERE id = ?", id).
//	    RecursiveCase("SELECT c.id, c.parent_id FROM categories c JOIN tree t ON c.id = t.parent_id").
//	    Query("SELECT id FROM tree")
func (r *CTERecursiveBuilder) Query(main string, args ...interface{}) (string, []interface{}, error) {
	if r.cte.BaseQuery == "" || r.cte.RecursiveQuery == "" {
		return "", nil, fmt.Errorf("recursive CTE %s needs a base and a recursive case", r.cte.Name)
	}

	var columnsPart string
	if len(r.cte.Columns) > 0 {
		columnsPart = fmt.Sprintf(" (%s)", strings.Join(r.cte.Columns, ", "))
	}

	paramNum := 1
	base, err := bindPlaceholders(r.cte.BaseQuery, paramNum, len(r.cte.BaseArgs))
	if err != nil {
		return "", nil, fmt.Errorf("base case: %w", err)
	}
	paramNum += len(r.cte.BaseArgs)

	recursive, err := bindPlaceholders(r.cte.RecursiveQuery, paramNum, len(r.cte.RecursiveArgs))
	if err != nil {
		return "", nil, fmt.Errorf("recursive case: %w", err)
	}
	paramNum += len(r.cte.RecursiveArgs)

	body, err := bindPlaceholders(main, paramNum, len(args))
	if err != nil {
		return "", nil, fmt.Errorf("main query: %w", err)
	}

	sql := fmt.Sprintf("WITH RECURSIVE %s%s AS (%s UNION ALL %s) %s",
		r.cte.Name,
		columnsPart,
		base,
		recursive,
		body,
	)

	allArgs := make([]interface{}, 0, len(r.cte.BaseArgs)+len(r.cte.RecursiveArgs)+len(args))
	allArgs = append(allArgs, r.cte.BaseArgs...)
	allArgs = append(allArgs, r.cte.RecursiveArgs...)
	allArgs = append(allArgs, args...)
	return sql, allArgs, nil
}
