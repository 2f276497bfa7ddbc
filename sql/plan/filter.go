package plan

import (
	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/expression"
)

// Filter passes through the child rows that satisfy its condition.
type Filter struct {
	cond  expression.Expression
	child sql.Operator

	opened bool
}

var _ sql.Operator = (*Filter)(nil)

// NewFilter creates a filter over the child.
func NewFilter(cond expression.Expression, child sql.Operator) *Filter {
	return &Filter{cond: cond, child: child}
}

// Condition returns the filter condition.
func (f *Filter) Condition() expression.Expression { return f.cond }

// Schema implements sql.Operator. Filtering does not change the schema.
func (f *Filter) Schema() sql.Schema { return f.child.Schema() }

// Open implements sql.Operator.
func (f *Filter) Open(ctx *sql.Context) error {
	if err := f.child.Open(ctx); err != nil {
		return err
	}
	f.opened = true
	return nil
}

// Next implements sql.Operator.
func (f *Filter) Next(ctx *sql.Context) (sql.Row, error) {
	if !f.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("Filter")
	}

	for {
		row, err := f.child.Next(ctx)
		if err != nil {
			return sql.Row{}, err
		}
		ok, err := evalBool(ctx, f.cond, row)
		if err != nil {
			return sql.Row{}, err
		}
		if ok {
			return row, nil
		}
	}
}

// Rewind implements sql.Operator.
func (f *Filter) Rewind(ctx *sql.Context) error {
	if !f.opened {
		return sql.ErrOperatorClosed.New("Filter")
	}
	return f.child.Rewind(ctx)
}

// Close implements sql.Operator.
func (f *Filter) Close() error {
	f.opened = false
	return f.child.Close()
}

func evalBool(ctx *sql.Context, e expression.Expression, row sql.Row) (bool, error) {
	v, err := e.Eval(ctx, row)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, sql.ErrTypeMismatch.New("boolean", v)
	}
	return b, nil
}
