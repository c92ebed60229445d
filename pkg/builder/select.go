package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
)

// Columns specifies which columns to select.
func (q *SelectQuery[T]) Columns(cols ...string) *SelectQuery[T] {
	q.columns = cols
	return q
}

// As aliases the model table in the FROM clause.
func (q *SelectQuery[T]) As(alias string) *SelectQuery[T] {
	q.alias = alias
	return q
}

// Where adds a WHERE condition.
func (q *SelectQuery[T]) Where(condition Condition) *SelectQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// And adds an AND condition (alias for Where).
func (q *SelectQuery[T]) And(condition Condition) *SelectQuery[T] {
	condition.Logic = LogicAnd
	return q.Where(condition)
}

// Or adds an OR condition.
func (q *SelectQuery[T]) Or(condition Condition) *SelectQuery[T] {
	condition.Logic = LogicOr
	return q.Where(condition)
}

// OrderBy adds an ORDER BY clause.
func (q *SelectQuery[T]) OrderBy(column string, direction OrderDirection) *SelectQuery[T] {
	q.orderBy = append(q.orderBy, OrderBy{
		Column:    column,
		Direction: direction,
		NullsPos:  NullsDefault,
	})
	return q
}

// OrderByAsc adds an ascending ORDER BY clause.
func (q *SelectQuery[T]) OrderByAsc(column string) *SelectQuery[T] {
	return q.OrderBy(column, Asc)
}

// OrderByDesc adds a descending ORDER BY clause.
func (q *SelectQuery[T]) OrderByDesc(column string) *SelectQuery[T] {
	return q.OrderBy(column, Desc)
}

// OrderByNulls adds an ORDER BY clause with explicit NULL placement.
func (q *SelectQuery[T]) OrderByNulls(column string, direction OrderDirection, nulls NullsPosition) *SelectQuery[T] {
	q.orderBy = append(q.orderBy, OrderBy{
		Column:    column,
		Direction: direction,
		NullsPos:  nulls,
	})
	return q
}

// Limit sets the LIMIT clause.
func (q *SelectQuery[T]) Limit(limit int) *SelectQuery[T] {
	q.limit = &limit
	return q
}

// Offset sets the OFFSET clause.
func (q *SelectQuery[T]) Offset(offset int) *SelectQuery[T] {
	q.offset = &offset
	return q
}

// Distinct adds DISTINCT to the query.
func (q *SelectQuery[T]) Distinct() *SelectQuery[T] {
	q.distinct = true
	return q
}

// ForUpdate adds FOR UPDATE lock.
func (q *SelectQuery[T]) ForUpdate() *SelectQuery[T] {
	q.forUpdate = true
	return q
}

// GroupBy adds a GROUP BY clause.
func (q *SelectQuery[T]) GroupBy(columns ...string) *SelectQuery[T] {
	q.groupBy = append(q.groupBy, columns...)
	return q
}

// Having adds a HAVING condition.
func (q *SelectQuery[T]) Having(condition Condition) *SelectQuery[T] {
	q.having = append(q.having, condition)
	return q
}

// InnerJoin adds an INNER JOIN. The condition may use ? placeholders.
func (q *SelectQuery[T]) InnerJoin(table string, condition string, args ...interface{}) *SelectQuery[T] {
	q.joins = append(q.joins, Join{
		Type:      InnerJoin,
		Table:     table,
		Condition: condition,
		Args:      args,
	})
	return q
}

// LeftJoin adds a LEFT JOIN. The condition may use ? placeholders.
func (q *SelectQuery[T]) LeftJoin(table string, condition string, args ...interface{}) *SelectQuery[T] {
	q.joins = append(q.joins, Join{
		Type:      LeftJoin,
		Table:     table,
		Condition: condition,
		Args:      args,
	})
	return q
}

func (q *SelectQuery[T]) from() string {
	if q.alias != "" {
		return q.table.Name + " " + q.alias
	}
	return q.table.Name
}

// ToSQL generates the SQL query and arguments.
func (q *SelectQuery[T]) ToSQL() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, fmt.Errorf("table metadata not available: %w", q.err)
	}

	var sql strings.Builder
	var args []interface{}
	paramNum := 1

	sql.WriteString("SELECT ")
	if q.distinct {
		sql.WriteString("DISTINCT ")
	}

	if len(q.columns) == 0 {
		sql.WriteString("*")
	} else {
		sql.WriteString(strings.Join(q.columns, ", "))
	}

	sql.WriteString(" FROM ")
	sql.WriteString(q.from())

	for _, join := range q.joins {
		condition, err := bindPlaceholders(join.Condition, paramNum, len(join.Args))
		if err != nil {
			return "", nil, fmt.Errorf("failed to build JOIN %s: %w", join.Table, err)
		}
		sql.WriteString(" ")
		sql.WriteString(string(join.Type))
		sql.WriteString(" ")
		sql.WriteString(join.Table)
		sql.WriteString(" ON ")
		sql.WriteString(condition)

		args = append(args, join.Args...)
		paramNum += len(join.Args)
	}

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
		paramNum += len(whereArgs)
	}

	if len(q.groupBy) > 0 {
		sql.WriteString(" GROUP BY ")
		sql.WriteString(strings.Join(q.groupBy, ", "))
	}

	if len(q.having) > 0 {
		havingSQL, havingArgs, err := newHavingBuilder(paramNum, q.having).Build()
		if err != nil {
			return "", nil, fmt.Errorf("failed to build HAVING clause: %w", err)
		}

		sql.WriteString(" ")
		sql.WriteString(havingSQL)
		args = append(args, havingArgs...)
	}

	if len(q.orderBy) > 0 {
		sql.WriteString(" ORDER BY ")
		orderParts := make([]string, len(q.orderBy))
		for i, order := range q.orderBy {
			orderParts[i] = order.Column + " " + string(order.Direction)
			if order.NullsPos != NullsDefault {
				orderParts[i] += " " + string(order.NullsPos)
			}
		}
		sql.WriteString(strings.Join(orderParts, ", "))
	}

	if q.limit != nil {
		sql.WriteString(fmt.Sprintf(" LIMIT %d", *q.limit))
	}

	if q.offset != nil {
		sql.WriteString(fmt.Sprintf(" OFFSET %d", *q.offset))
	}

	if q.forUpdate {
		sql.WriteString(" FOR UPDATE")
	}

	return sql.String(), args, nil
}

// All executes the query and returns all results.
func (q *SelectQuery[T]) All(ctx context.Context) ([]T, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		if err := scanIntoStruct(rows, &item, q.table); err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// First executes the query and returns the first result, or
// runtime.ErrNotFound when nothing matched.
func (q *SelectQuery[T]) First(ctx context.Context) (*T, error) {
	q.Limit(1)

	results, err := q.All(ctx)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%s: %w", q.table.Name, runtime.ErrNotFound)
	}

	return &results[0], nil
}

// Count executes a COUNT query over the FROM, JOIN and WHERE clauses.
func (q *SelectQuery[T]) Count(ctx context.Context) (int64, error) {
	countQuery := *q
	countQuery.columns = []string{"COUNT(*)"}
	countQuery.orderBy = nil
	countQuery.limit = nil
	countQuery.offset = nil
	countQuery.forUpdate = false
	countQuery.distinct = false

	sql, args, err := countQuery.ToSQL()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := q.db.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any rows match the query.
func (q *SelectQuery[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
