package plan

import (
	"io"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/expression"
)

// NestedLoopJoin joins on an arbitrary predicate by iterating the inner
// (right) child once per outer (left) row. The inner child is rewound
// between outer rows; every operator in this engine is rewindable.
type NestedLoopJoin struct {
	cond  expression.Expression
	left  sql.Operator
	right sql.Operator

	opened   bool
	outerRow *sql.Row
	span     spanCloser
}

var _ sql.Operator = (*NestedLoopJoin)(nil)

// NewNestedLoopJoin creates a nested-loop join. The condition's field
// indices refer to the merged schema.
func NewNestedLoopJoin(cond expression.Expression, left, right sql.Operator) *NestedLoopJoin {
	return &NestedLoopJoin{cond: cond, left: left, right: right}
}

// Schema implements sql.Operator: the left schema followed by the right.
func (j *NestedLoopJoin) Schema() sql.Schema {
	return j.left.Schema().Merge(j.right.Schema())
}

// Open implements sql.Operator.
func (j *NestedLoopJoin) Open(ctx *sql.Context) error {
	j.span.start(ctx, "plan.NestedLoopJoin")

	if err := j.left.Open(ctx); err != nil {
		j.span.finish()
		return err
	}
	if err := j.right.Open(ctx); err != nil {
		_ = j.left.Close()
		j.span.finish()
		return err
	}
	j.outerRow = nil
	j.opened = true
	return nil
}

// Next implements sql.Operator.
func (j *NestedLoopJoin) Next(ctx *sql.Context) (sql.Row, error) {
	if !j.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("NestedLoopJoin")
	}

	for {
		if j.outerRow == nil {
			outer, err := j.left.Next(ctx)
			if err != nil {
				return sql.Row{}, err
			}
			j.outerRow = &outer
		}

		inner, err := j.right.Next(ctx)
		if err == io.EOF {
			if err := j.right.Rewind(ctx); err != nil {
				return sql.Row{}, err
			}
			j.outerRow = nil
			continue
		}
		if err != nil {
			return sql.Row{}, err
		}

		merged := j.outerRow.Concat(inner)
		ok, err := evalBool(ctx, j.cond, merged)
		if err != nil {
			return sql.Row{}, err
		}
		if ok {
			return merged, nil
		}
	}
}

// Rewind implements sql.Operator. Both children restart and the outer
// cursor is cleared.
func (j *NestedLoopJoin) Rewind(ctx *sql.Context) error {
	if !j.opened {
		return sql.ErrOperatorClosed.New("NestedLoopJoin")
	}
	if err := j.left.Rewind(ctx); err != nil {
		return err
	}
	if err := j.right.Rewind(ctx); err != nil {
		return err
	}
	j.outerRow = nil
	return nil
}

// Close implements sql.Operator.
func (j *NestedLoopJoin) Close() error {
	j.opened = false
	j.outerRow = nil
	j.span.finish()
	return closeAll(j.left, j.right)
}
