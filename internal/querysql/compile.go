// Package querysql compiles translation plans to parameterized SQLite SQL.
//
// Only the flat part of a plan has a SQL form: root scalar columns, a
// filter over root scalars, scalar ordering keys and paging. Anything that
// needs a join (navigation paths, count ordering, nested projections) is
// rejected with ErrUnsupported.
//
// Every query orders by rowid last. Rows are inserted in input order, so
// the tiebreaker reproduces the stable ordering of the in-memory provider.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/translate"
	"github.com/roach88/expandql/internal/typeinfo"
)

// ErrUnsupported is wrapped by every plan the compiler cannot express.
var ErrUnsupported = errors.New("not expressible in SQL")

// SQLCompiler compiles translation plans to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a plan to a SELECT over the root type's table.
// Returns (sql, params, error).
//
// Example:
//
//	SELECT "Id", "Name" FROM "Customer" WHERE ("City" IS ?)
//	ORDER BY "Name" COLLATE BINARY DESC, rowid ASC LIMIT ? OFFSET ?
func (c *SQLCompiler) Compile(plan *translate.Plan) (string, []any, error) {
	if plan == nil || plan.Root == nil {
		return "", nil, fmt.Errorf("cannot compile nil plan")
	}

	columns, err := c.compileColumns(plan.Selectors)
	if err != nil {
		return "", nil, fmt.Errorf("compile select: %w", err)
	}

	var b strings.Builder
	var params []any
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), Quote(TableName(plan.Root)))

	if plan.Filter != nil {
		where, whereParams, err := c.compilePredicate(plan.Filter.Body, plan.Filter.Param)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, whereParams...)
	}

	order, err := c.compileOrder(plan.Steps)
	if err != nil {
		return "", nil, fmt.Errorf("compile orderby: %w", err)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	limit, limitParams := c.compilePage(len(plan.Steps) > 0, plan.Page)
	b.WriteString(limit)
	params = append(params, limitParams...)

	return b.String(), params, nil
}

// compileColumns maps root scalar selectors (i => i.Name) to quoted
// column names.
func (c *SQLCompiler) compileColumns(selectors []*expr.Lambda) ([]string, error) {
	if len(selectors) == 0 {
		return nil, fmt.Errorf("%w: empty projection", ErrUnsupported)
	}
	columns := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		name, err := column(expr.Unbox(sel.Body), sel.Param)
		if err != nil {
			return nil, fmt.Errorf("selector %s: %w", sel, err)
		}
		columns = append(columns, Quote(name))
	}
	return columns, nil
}

// column returns the member name of param.Member. Longer chains need a
// join.
func column(e expr.Expr, param *expr.Parameter) (string, error) {
	m, ok := e.(*expr.Member)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a column", ErrUnsupported, e)
	}
	p, ok := m.Target.(*expr.Parameter)
	if !ok || p.Name != param.Name {
		return "", fmt.Errorf("%w: navigation %s", ErrUnsupported, e)
	}
	if !m.T.IsScalar() {
		return "", fmt.Errorf("%w: %s is not a scalar column", ErrUnsupported, e)
	}
	return m.Name, nil
}

// compilePredicate compiles a bound filter body to a WHERE fragment.
//
// Equality uses IS and IS NOT so that null compares equal to null, as in
// the in-memory provider. Ordered comparisons with null are false in both.
func (c *SQLCompiler) compilePredicate(e expr.Expr, param *expr.Parameter) (string, []any, error) {
	switch n := e.(type) {
	case *expr.Binary:
		left, lp, err := c.compilePredicate(n.Left, param)
		if err != nil {
			return "", nil, err
		}
		right, rp, err := c.compilePredicate(n.Right, param)
		if err != nil {
			return "", nil, err
		}
		op, ok := sqlOperators[n.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %s", ErrUnsupported, n.Op)
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), append(lp, rp...), nil

	case *expr.Unary:
		operand, params, err := c.compilePredicate(n.Operand, param)
		if err != nil {
			return "", nil, err
		}
		if n.Op == expr.Not {
			return "NOT " + operand, params, nil
		}
		return "-" + operand, params, nil

	case *expr.Constant:
		if n.T != nil && n.T.IsCollection() {
			return "", nil, fmt.Errorf("%w: collection constant", ErrUnsupported)
		}
		return "?", []any{n.Value}, nil

	case *expr.Convert:
		return c.compilePredicate(n.Operand, param)

	case *expr.Member:
		name, err := column(n, param)
		if err != nil {
			return "", nil, err
		}
		return Quote(name), nil, nil

	default:
		return "", nil, fmt.Errorf("%w: %s in filter", ErrUnsupported, e)
	}
}

var sqlOperators = map[expr.BinaryOp]string{
	expr.Equal:              "IS",
	expr.NotEqual:           "IS NOT",
	expr.GreaterThan:        ">",
	expr.GreaterThanOrEqual: ">=",
	expr.LessThan:           "<",
	expr.LessThanOrEqual:    "<=",
	expr.AndAlso:            "AND",
	expr.OrElse:             "OR",
}

// compileOrder compiles ordering steps and appends the rowid tiebreaker.
// COLLATE BINARY matches Go's byte-wise string comparison.
func (c *SQLCompiler) compileOrder(steps []translate.OrderStep) (string, error) {
	keys := make([]string, 0, len(steps)+1)
	for _, step := range steps {
		if step.Count {
			return "", fmt.Errorf("%w: count ordering %s", ErrUnsupported, step)
		}
		if len(step.Path) != 1 {
			return "", fmt.Errorf("%w: navigation ordering %s", ErrUnsupported, step)
		}
		dir := "ASC"
		if step.Direction == queryopts.Descending {
			dir = "DESC"
		}
		keys = append(keys, fmt.Sprintf("%s COLLATE BINARY %s", Quote(step.Path[0]), dir))
	}
	keys = append(keys, "rowid ASC")
	return strings.Join(keys, ", "), nil
}

// compilePage renders LIMIT and OFFSET. Without ordering only the take
// bound applies, mirroring the translator's unordered paging.
func (c *SQLCompiler) compilePage(ordered bool, page translate.PageBounds) (string, []any) {
	skip := page.Skip
	if !ordered {
		skip = nil
	}
	switch {
	case page.Take != nil && skip != nil:
		return " LIMIT ? OFFSET ?", []any{int64(*page.Take), int64(*skip)}
	case page.Take != nil:
		return " LIMIT ?", []any{int64(*page.Take)}
	case skip != nil:
		return " LIMIT -1 OFFSET ?", []any{int64(*skip)}
	default:
		return "", nil
	}
}

// TableName returns the table that stores elements of t: the type name
// without package qualifier or pointer marker.
func TableName(t typeinfo.TypeDescriptor) string {
	name := strings.TrimLeft(typeinfo.Current(t).Name(), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Columns returns the scalar members of t, which become its table's
// columns in declaration order.
func Columns(t typeinfo.TypeDescriptor) []typeinfo.Member {
	return typeinfo.ScalarMembers(typeinfo.Current(t), nil)
}

// Quote quotes an SQL identifier.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
