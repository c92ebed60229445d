package builder

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Set sets a column value for the UPDATE.
func (q *UpdateQuery[T]) Set(column string, value interface{}) *UpdateQuery[T] {
	q.sets = append(q.sets, setClause{Column: column, Value: value})
	return q
}

// SetExpr assigns a raw expression with ? placeholders, e.g.
// SetExpr("price", "ROUND(price * ?, 2)", factor).
func (q *UpdateQuery[T]) SetExpr(column, expr string, args ...interface{}) *UpdateQuery[T] {
	q.sets = append(q.sets, setClause{Column: column, Expr: expr, Args: args})
	return q
}

// SetMap sets multiple column values from a map, in column name order.
func (q *UpdateQuery[T]) SetMap(values map[string]interface{}) *UpdateQuery[T] {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		q.Set(col, values[col])
	}
	return q
}

// Where adds a WHERE condition.
func (q *UpdateQuery[T]) Where(condition Condition) *UpdateQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// And adds an AND condition.
func (q *UpdateQuery[T]) And(condition Condition) *UpdateQuery[T] {
	condition.Logic = LogicAnd
	return q.Where(condition)
}

// Or adds an OR condition.
func (q *UpdateQuery[T]) Or(condition Condition) *UpdateQuery[T] {
	condition.Logic = LogicOr
	return q.Where(condition)
}

// Returning specifies columns to return after update.
func (q *UpdateQuery[T]) Returning(columns ...string) *UpdateQuery[T] {
	q.returning = columns
	return q
}

// ToSQL generates the UPDATE SQL and arguments.
func (q *UpdateQuery[T]) ToSQL() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, fmt.Errorf("table metadata not available: %w", q.err)
	}

	if len(q.sets) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}

	var sql strings.Builder
	var args []interface{}
	paramNum := 1

	sql.WriteString("UPDATE ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" SET ")

	setClauses := make([]string, 0, len(q.sets))
	for _, set := range q.sets {
		if set.Expr == "" {
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", set.Column, paramNum))
			args = append(args, set.Value)
			paramNum++
			continue
		}

		expr, err := bindPlaceholders(set.Expr, paramNum, len(set.Args))
		if err != nil {
			return "", nil, fmt.Errorf("failed to build SET %s: %w", set.Column, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", set.Column, expr))
		args = append(args, set.Args...)
		paramNum += len(set.Args)
	}
	sql.WriteString(strings.Join(setClauses, ", "))

	if len(q.where) > 0 {
		whereBuilder := NewWhereBuilderWithStart(paramNum)
		whereBuilder.conditions = q.where
		whereSQL, whereArgs, err := whereBuilder.Build()
		if err != nil {
			return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
		}

		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the UPDATE query and returns the number of affected rows.
func (q *UpdateQuery[T]) Exec(ctx context.Context) (int64, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}

	if len(q.returning) == 0 {
		return q.db.db.Exec(ctx, sql, args...)
	}

	rows, err := q.db.db.Query(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}

	return count, rows.Err()
}

// ExecReturning executes the UPDATE and returns the updated rows.
func (q *UpdateQuery[T]) ExecReturning(ctx context.Context) ([]T, error) {
	if len(q.returning) == 0 {
		q.Returning("*")
	}

	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	return queryRows[T](ctx, q.db, q.table, sql, args)
}
