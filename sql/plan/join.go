package plan

import (
	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/expression"
)

// NewJoin creates a join of left and right on the given condition,
// choosing the strategy by predicate shape: an equality between one field
// of each side runs as a hash join, everything else as a nested-loop join.
// Field indices in the condition refer to the merged schema, with the
// right side offset by the width of the left.
func NewJoin(cond expression.Expression, left, right sql.Operator) sql.Operator {
	if cmp, ok := cond.(*expression.Comparison); ok && cmp.Op == sql.Equals {
		lf, lok := cmp.Left.(*expression.GetField)
		rf, rok := cmp.Right.(*expression.GetField)
		if lok && rok {
			split := len(left.Schema())
			li, ri := lf.Index(), rf.Index()
			switch {
			case li < split && ri >= split:
				return NewHashJoin(li, ri-split, left, right)
			case ri < split && li >= split:
				return NewHashJoin(ri, li-split, left, right)
			}
		}
	}
	return NewNestedLoopJoin(cond, left, right)
}
