package builder

import (
	"fmt"
	"strings"
)

// WhereBuilder helps build WHERE clauses.
type WhereBuilder struct {
	conditions []Condition
	paramStart int
	keyword    string
}

// NewWhereBuilder creates a new WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return NewWhereBuilderWithStart(1)
}

// NewWhereBuilderWithStart creates a new WhereBuilder with a starting parameter number.
func NewWhereBuilderWithStart(paramStart int) *WhereBuilder {
	return &WhereBuilder{
		conditions: make([]Condition, 0),
		paramStart: paramStart,
		keyword:    "WHERE",
	}
}

// newHavingBuilder builds a HAVING clause with the same rules.
func newHavingBuilder(paramStart int, conditions []Condition) *WhereBuilder {
	return &WhereBuilder{conditions: conditions, paramStart: paramStart, keyword: "HAVING"}
}

// Add adds a condition to the WHERE clause.
func (w *WhereBuilder) Add(condition Condition) {
	w.conditions = append(w.conditions, condition)
}

// Build generates the WHERE clause SQL and arguments.
func (w *WhereBuilder) Build() (string, []interface{}, error) {
	if len(w.conditions) == 0 {
		return "", nil, nil
	}

	sql, args, err := w.buildConditions(w.conditions, w.paramStart)
	if err != nil {
		return "", nil, err
	}

	return w.keyword + " " + sql, args, nil
}

// buildConditions recursively builds conditions.
func (w *WhereBuilder) buildConditions(conditions []Condition, paramStart int) (string, []interface{}, error) {
	var parts []string
	var args []interface{}
	paramNum := paramStart

	for i, cond := range conditions {
		var condSQL string
		var condArgs []interface{}
		var err error

		if len(cond.Group) > 0 {
			condSQL, condArgs, err = w.buildConditions(cond.Group, paramNum)
			condSQL = "(" + condSQL + ")"
		} else {
			condSQL, condArgs, err = w.buildCondition(cond, paramNum)
		}
		if err != nil {
			return "", nil, err
		}

		if cond.Not {
			condSQL = "NOT (" + condSQL + ")"
		}

		if i > 0 {
			logic := cond.Logic
			if logic == "" {
				logic = LogicAnd
			}
			parts = append(parts, string(logic))
		}
		parts = append(parts, condSQL)
		args = append(args, condArgs...)
		paramNum += len(condArgs)
	}

	return strings.Join(parts, " "), args, nil
}

// buildCondition builds a single condition.
func (w *WhereBuilder) buildCondition(cond Condition, paramNum int) (string, []interface{}, error) {
	column := cond.Column
	operator := cond.Operator
	value := cond.Value

	if cond.Raw {
		fragment, ok := value.(string)
		if !ok {
			return "", nil, fmt.Errorf("raw condition on %q requires an SQL string", column)
		}
		bound, err := bindPlaceholders(fragment, paramNum, len(cond.Args))
		if err != nil {
			return "", nil, err
		}
		switch operator {
		case OpExpr:
			return bound, cond.Args, nil
		case OpExists, OpNotExists:
			return fmt.Sprintf("%s %s", operator, bound), cond.Args, nil
		default:
			return fmt.Sprintf("%s %s %s", column, operator, bound), cond.Args, nil
		}
	}

	switch operator {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return fmt.Sprintf("%s %s $%d", column, operator, paramNum), []interface{}{value}, nil

	case OpLike, OpILike, OpNotLike:
		return fmt.Sprintf("%s %s $%d", column, operator, paramNum), []interface{}{value}, nil

	case OpIn, OpNotIn:
		values, ok := value.([]interface{})
		if !ok {
			return "", nil, fmt.Errorf("IN/NOT IN operator requires []interface{} value")
		}

		// An empty list matches nothing (IN) or everything (NOT IN).
		if len(values) == 0 {
			if operator == OpIn {
				return "FALSE", nil, nil
			}
			return "TRUE", nil, nil
		}

		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = fmt.Sprintf("$%d", paramNum+i)
		}

		sql := fmt.Sprintf("%s %s (%s)", column, operator, strings.Join(placeholders, ", "))
		return sql, values, nil

	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", column), nil, nil

	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", column), nil, nil

	case OpBetween:
		values, ok := value.([]interface{})
		if !ok || len(values) != 2 {
			return "", nil, fmt.Errorf("BETWEEN operator requires [min, max] array")
		}

		sql := fmt.Sprintf("%s BETWEEN $%d AND $%d", column, paramNum, paramNum+1)
		return sql, values, nil

	default:
		return "", nil, fmt.Errorf("unknown operator: %s", operator)
	}
}

// bindPlaceholders rewrites ? placeholders into $n starting at paramNum.
// Question marks inside single-quoted literals are left alone. The number
// of placeholders must equal want.
func bindPlaceholders(fragment string, paramNum, want int) (string, error) {
	var sb strings.Builder
	inString := false
	found := 0

	for i := 0; i < len(fragment); i++ {
		ch := fragment[i]
		switch {
		case ch == '\'':
			inString = !inString
			sb.WriteByte(ch)
		case ch == '?' && !inString:
			fmt.Fprintf(&sb, "$%d", paramNum+found)
			found++
		default:
			sb.WriteByte(ch)
		}
	}

	if found != want {
		return "", fmt.Errorf("fragment %q has %d placeholders but %d arguments", fragment, found, want)
	}
	return sb.String(), nil
}

// Helper functions for building conditions

// Eq creates an equality condition.
func Eq(column string, value interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpEqual,
		Value:    value,
		Logic:    LogicAnd,
	}
}

// NotEq creates a not-equal condition.
func NotEq(column string, value interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpNotEqual,
		Value:    value,
		Logic:    LogicAnd,
	}
}

// Gt creates a greater-than condition.
func Gt(column string, value interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpGreaterThan,
		Value:    value,
		Logic:    LogicAnd,
	}
}

// Gte creates a greater-than-or-equal condition.
func Gte(column string, value interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpGreaterThanOrEqual,
		Value:    value,
		Logic:    LogicAnd,
	}
}

// Lt creates a less-than condition.
func Lt(column string, value interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpLessThan,
		Value:    value,
		Logic:    LogicAnd,
	}
}

// Lte creates a less-than-or-equal condition.
func Lte(column string, value interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpLessThanOrEqual,
		Value:    value,
		Logic:    LogicAnd,
	}
}

// In creates an IN condition.
func In(column string, values ...interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpIn,
		Value:    values,
		Logic:    LogicAnd,
	}
}

// NotIn creates a NOT IN condition.
func NotIn(column string, values ...interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpNotIn,
		Value:    values,
		Logic:    LogicAnd,
	}
}

// Like creates a LIKE condition.
func Like(column string, pattern string) Condition {
	return Condition{
		Column:   column,
		Operator: OpLike,
		Value:    pattern,
		Logic:    LogicAnd,
	}
}

// ILike creates an ILIKE condition (case-insensitive).
func ILike(column string, pattern string) Condition {
	return Condition{
		Column:   column,
		Operator: OpILike,
		Value:    pattern,
		Logic:    LogicAnd,
	}
}

// IsNull creates an IS NULL condition.
func IsNull(column string) Condition {
	return Condition{
		Column:   column,
		Operator: OpIsNull,
		Logic:    LogicAnd,
	}
}

// IsNotNull creates an IS NOT NULL condition.
func IsNotNull(column string) Condition {
	return Condition{
		Column:   column,
		Operator: OpIsNotNull,
		Logic:    LogicAnd,
	}
}

// Between creates a BETWEEN condition.
func Between(column string, min, max interface{}) Condition {
	return Condition{
		Column:   column,
		Operator: OpBetween,
		Value:    []interface{}{min, max},
		Logic:    LogicAnd,
	}
}

// Expr creates a raw predicate, e.g. Expr("EXTRACT(YEAR FROM order_date) = ?", 2024).
func Expr(sql string, args ...interface{}) Condition {
	return Condition{
		Operator: OpExpr,
		Value:    sql,
		Raw:      true,
		Args:     args,
		Logic:    LogicAnd,
	}
}

// Or sets the logic operator to OR for the next condition.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}

// Not negates a condition.
func Not(cond Condition) Condition {
	cond.Not = true
	return cond
}

// Group creates a grouped condition.
func Group(conditions ...Condition) Condition {
	return Condition{
		Group: conditions,
		Logic: LogicAnd,
	}
}
