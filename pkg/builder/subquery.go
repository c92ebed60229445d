package builder

import (
	"fmt"
)

// Subquery represents a subquery that can be used in various parts of a SQL
// statement. Its SQL uses ? placeholders for Args.
type Subquery struct {
	SQL   string
	Args  []interface{}
	Alias string
}

// NewSubquery creates a new subquery
func NewSubquery(sql string, args ...interface{}) *Subquery {
	return &Subquery{
		SQL:  sql,
		Args: args,
	}
}

// As sets an alias for the subquery
func (s *Subquery) As(alias string) *Subquery {
	s.Alias = alias
	return s
}

// ToSQL returns the SQL representation of the subquery
func (s *Subquery) ToSQL() (string, []interface{}) {
	if s.Alias != "" {
		return fmt.Sprintf("(%s) AS %s", s.SQL, s.Alias), s.Args
	}
	return fmt.Sprintf("(%s)", s.SQL), s.Args
}

func subqueryCondition(column string, operator Operator, subquery *Subquery) Condition {
	sql, args := subquery.ToSQL()
	return Condition{
		Column:   column,
		Operator: operator,
		Value:    sql,
		Raw:      true,
		Args:     args,
		Logic:    LogicAnd,
	}
}

// InSubquery creates an IN condition with a subquery
func InSubquery(column string, subquery *Subquery) Condition {
	return subqueryCondition(column, OpIn, subquery)
}

// NotExistsSubquery creates a NOT EXISTS condition with a subquery
func NotExistsSubquery(subquery *Subquery) Condition {
	return subqueryCondition("", OpNotExists, subquery)
}

// GtSubquery creates a > (subquery) condition
func GtSubquery(column string, subquery *Subquery) Condition {
	return subqueryCondition(column, OpGreaterThan, subquery)
}

// EqSubquery creates a = (subquery) condition
func EqSubquery(column string, subquery *Subquery) Condition {
	return subqueryCondition(column, OpEqual, subquery)
}

// Example usage:
//
// Subquery in WHERE clause:
// avg := NewSubquery("SELECT AVG(price) FROM products")
// products, err := Select[Product](db).Where(GtSubquery("price", avg)).All(ctx)
//
// Correlated EXISTS:
// orders := NewSubquery("SELECT 1 FROM orders o WHERE o.customer_id = users.id")
// users, err := Select[User](db).Where(NotExistsSubquery(orders)).All(ctx)
