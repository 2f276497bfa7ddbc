package plan

import (
	"fmt"
	"io"

	"github.com/skiffdb/skiff/sql"
)

// NoGroup marks an aggregation without a group-by field.
const NoGroup = -1

// GroupBy aggregates one child field, optionally grouped by another. It is
// a pipeline breaker: Open fully drains and closes the child before any
// row is emitted. Rewind restarts iteration over the computed groups
// without rescanning the child.
type GroupBy struct {
	aggField   int
	groupField int
	op         sql.AggOp
	child      sql.Operator

	opened  bool
	results []sql.Row
	pos     int
	span    spanCloser
}

var _ sql.Operator = (*GroupBy)(nil)

// NewGroupBy creates an aggregation of aggField with the given operator,
// grouped by groupField unless it is NoGroup.
func NewGroupBy(aggField, groupField int, op sql.AggOp, child sql.Operator) *GroupBy {
	return &GroupBy{
		aggField:   aggField,
		groupField: groupField,
		op:         op,
		child:      child,
	}
}

// Schema implements sql.Operator. Grouped aggregations produce the group
// column followed by the aggregate; without grouping only the aggregate.
// The aggregate column is named "field(OP)".
func (g *GroupBy) Schema() sql.Schema {
	childSchema := g.child.Schema()
	agg := sql.Column{
		Name: fmt.Sprintf("%s(%s)", childSchema[g.aggField].Name, g.op),
		Type: sql.Int32,
	}
	if g.groupField == NoGroup {
		return sql.Schema{agg}
	}
	return sql.Schema{childSchema[g.groupField], agg}
}

// Open implements sql.Operator.
func (g *GroupBy) Open(ctx *sql.Context) error {
	childSchema := g.child.Schema()
	if g.aggField < 0 || g.aggField >= len(childSchema) {
		return sql.ErrColumnNotFound.New(g.aggField)
	}
	if g.groupField != NoGroup && (g.groupField < 0 || g.groupField >= len(childSchema)) {
		return sql.ErrColumnNotFound.New(g.groupField)
	}

	agg, err := newAggregator(childSchema[g.aggField].Type, g.op)
	if err != nil {
		return err
	}

	g.span.start(ctx, "plan.GroupBy")
	if err := g.child.Open(ctx); err != nil {
		g.span.finish()
		return err
	}

	for {
		row, err := g.child.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = g.child.Close()
			g.span.finish()
			return err
		}

		group := interface{}(noGroup{})
		if g.groupField != NoGroup {
			group = row.Values[g.groupField]
		}
		if err := agg.merge(group, row.Values[g.aggField]); err != nil {
			_ = g.child.Close()
			g.span.finish()
			return err
		}
	}

	if err := g.child.Close(); err != nil {
		g.span.finish()
		return err
	}

	g.results = agg.results(g.groupField != NoGroup)
	g.pos = 0
	g.opened = true
	return nil
}

// Next implements sql.Operator.
func (g *GroupBy) Next(ctx *sql.Context) (sql.Row, error) {
	if !g.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("GroupBy")
	}
	if g.pos >= len(g.results) {
		return sql.Row{}, io.EOF
	}
	row := g.results[g.pos]
	g.pos++
	return row, nil
}

// Rewind implements sql.Operator.
func (g *GroupBy) Rewind(ctx *sql.Context) error {
	if !g.opened {
		return sql.ErrOperatorClosed.New("GroupBy")
	}
	g.pos = 0
	return nil
}

// Close implements sql.Operator. The child was already closed at Open;
// closing it again is required to be safe.
func (g *GroupBy) Close() error {
	g.opened = false
	g.results = nil
	g.span.finish()
	return g.child.Close()
}
