package expression

import (
	"fmt"

	"github.com/skiffdb/skiff/sql"
)

// Comparison compares its two operands with a sql.CompareOp and produces a
// boolean. Both operands must have the same type.
type Comparison struct {
	Op    sql.CompareOp
	Left  Expression
	Right Expression
}

// NewComparison creates a comparison expression.
func NewComparison(op sql.CompareOp, left, right Expression) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right}
}

// NewEquals creates an equality comparison.
func NewEquals(left, right Expression) *Comparison {
	return NewComparison(sql.Equals, left, right)
}

// NewGreaterThan creates a greater-than comparison.
func NewGreaterThan(left, right Expression) *Comparison {
	return NewComparison(sql.GreaterThan, left, right)
}

// NewLessThan creates a less-than comparison.
func NewLessThan(left, right Expression) *Comparison {
	return NewComparison(sql.LessThan, left, right)
}

// Type implements Expression. The engine has no boolean column type, so
// Type reports sql.Int32; Eval returns a bool.
func (c *Comparison) Type() sql.Type { return sql.Int32 }

// Compare returns an integer comparing the two operands evaluated against
// the row.
func (c *Comparison) Compare(ctx *sql.Context, row sql.Row) (int, error) {
	left, err := c.Left.Eval(ctx, row)
	if err != nil {
		return 0, err
	}
	right, err := c.Right.Eval(ctx, row)
	if err != nil {
		return 0, err
	}
	if c.Left.Type() != c.Right.Type() {
		return 0, sql.ErrTypeMismatch.New(c.Left.Type(), c.Right.Type())
	}
	return c.Left.Type().Compare(left, right)
}

// Eval implements Expression.
func (c *Comparison) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	cmp, err := c.Compare(ctx, row)
	if err != nil {
		return nil, err
	}
	return c.Op.Matches(cmp), nil
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}
