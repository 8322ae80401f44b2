// Package query composes parameterized SQL predicates. Clauses carry '?'
// placeholders together with their arguments; placeholder numbering is
// rewritten centrally, so callers never track positional indexes and user
// input never reaches the query text.
package query

import (
	"strconv"
	"strings"
)

// Clause is one boolean SQL fragment with its bound arguments.
type Clause struct {
	expr string
	args []interface{}
}

// Expr builds a clause from a raw fragment using '?' placeholders.
func Expr(expr string, args ...interface{}) Clause {
	return Clause{expr: expr, args: args}
}

// Eq binds column = value.
func Eq(column string, value interface{}) Clause {
	return Clause{expr: column + " = ?", args: []interface{}{value}}
}

// Gte binds column >= value.
func Gte(column string, value interface{}) Clause {
	return Clause{expr: column + " >= ?", args: []interface{}{value}}
}

// Lte binds column <= value.
func Lte(column string, value interface{}) Clause {
	return Clause{expr: column + " <= ?", args: []interface{}{value}}
}

// ILike binds a case-insensitive substring match. The wildcards are part of
// the bound argument, never of the query text.
func ILike(column, substring string) Clause {
	return Clause{expr: column + " ILIKE ?", args: []interface{}{"%" + substring + "%"}}
}

// Exists wraps a correlated subquery.
func Exists(subquery string, args ...interface{}) Clause {
	return Clause{expr: "EXISTS (" + subquery + ")", args: args}
}

// And joins clauses with AND, skipping empty ones.
func And(clauses ...Clause) Clause {
	return join(clauses, " AND ")
}

// Or joins clauses with OR, skipping empty ones.
func Or(clauses ...Clause) Clause {
	return join(clauses, " OR ")
}

func join(clauses []Clause, sep string) Clause {
	parts := make([]string, 0, len(clauses))
	var args []interface{}
	for _, c := range clauses {
		if c.Empty() {
			continue
		}
		parts = append(parts, c.expr)
		args = append(args, c.args...)
	}
	switch len(parts) {
	case 0:
		return Clause{}
	case 1:
		return Clause{expr: parts[0], args: args}
	default:
		return Clause{expr: "(" + strings.Join(parts, sep) + ")", args: args}
	}
}

// Empty reports whether the clause contributes nothing.
func (c Clause) Empty() bool {
	return c.expr == ""
}

// Where renders the clause as a WHERE fragment with sequential $n
// placeholders starting at 1. An empty clause renders as an empty string.
// The same clause renders identically for data and count queries, which is
// what keeps their predicate sets from diverging.
func (c Clause) Where() (string, []interface{}) {
	if c.Empty() {
		return "", nil
	}
	return " WHERE " + rebind(c.expr, 1), append([]interface{}(nil), c.args...)
}

// ArgCount returns the number of bound arguments.
func (c Clause) ArgCount() int {
	return len(c.args)
}

// rebind rewrites '?' placeholders into $n starting at the given index.
func rebind(expr string, start int) string {
	var b strings.Builder
	b.Grow(len(expr) + 8)
	n := start
	for i := 0; i < len(expr); i++ {
		if expr[i] != '?' {
			b.WriteByte(expr[i])
			continue
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
		n++
	}
	return b.String()
}

// Placeholder returns the $n placeholder that would follow the clause's own
// arguments, offset by extra positions. Used for LIMIT/OFFSET binding.
func (c Clause) Placeholder(extra int) string {
	return "$" + strconv.Itoa(len(c.args)+extra)
}
