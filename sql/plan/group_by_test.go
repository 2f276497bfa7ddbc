package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
)

var groupSchema = sql.Schema{
	{Name: "g", Type: sql.Text},
	{Name: "v", Type: sql.Int32},
}

var groupRows = []sql.Row{
	sql.NewRow("a", int32(1)),
	sql.NewRow("a", int32(3)),
	sql.NewRow("b", int32(5)),
	sql.NewRow("b", int32(7)),
	sql.NewRow("b", int32(9)),
}

func TestGroupByAvg(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	gb := NewGroupBy(1, 0, sql.Avg, env.scan(t, "t", groupSchema, groupRows...))

	// integer division
	rows := collectRows(t, gb)
	require.Equal([][]interface{}{
		{"a", int32(2)},
		{"b", int32(7)},
	}, rowValues(rows))
}

func TestGroupBySchema(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	gb := NewGroupBy(1, 0, sql.Avg, env.scan(t, "t", groupSchema))
	require.Equal(sql.Schema{
		{Name: "g", Type: sql.Text, Source: "t"},
		{Name: "v(AVG)", Type: sql.Int32},
	}, gb.Schema())

	gb = NewGroupBy(1, NoGroup, sql.Sum, env.scan(t, "u", groupSchema))
	require.Equal(sql.Schema{
		{Name: "v(SUM)", Type: sql.Int32},
	}, gb.Schema())
}

func TestGroupByOps(t *testing.T) {
	cases := []struct {
		op   sql.AggOp
		want [][]interface{}
	}{
		{sql.Min, [][]interface{}{{"a", int32(1)}, {"b", int32(5)}}},
		{sql.Max, [][]interface{}{{"a", int32(3)}, {"b", int32(9)}}},
		{sql.Sum, [][]interface{}{{"a", int32(4)}, {"b", int32(21)}}},
		{sql.Count, [][]interface{}{{"a", int32(2)}, {"b", int32(3)}}},
	}

	for _, tt := range cases {
		t.Run(tt.op.String(), func(t *testing.T) {
			require := require.New(t)

			env := newTestEnv(t)
			gb := NewGroupBy(1, 0, tt.op, env.scan(t, "t", groupSchema, groupRows...))
			require.Equal(tt.want, rowValues(collectRows(t, gb)))
		})
	}
}

func TestGroupByNoGrouping(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	gb := NewGroupBy(1, NoGroup, sql.Sum, env.scan(t, "t", groupSchema, groupRows...))

	rows := collectRows(t, gb)
	require.Equal([][]interface{}{{int32(25)}}, rowValues(rows))
}

func TestGroupByAvgSingleElement(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	gb := NewGroupBy(1, NoGroup, sql.Avg,
		env.scan(t, "t", groupSchema, sql.NewRow("a", int32(42))))

	rows := collectRows(t, gb)
	require.Equal([][]interface{}{{int32(42)}}, rowValues(rows))
}

func TestGroupByStringCountOnly(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)

	gb := NewGroupBy(0, NoGroup, sql.Count, env.scan(t, "t", groupSchema, groupRows...))
	rows := collectRows(t, gb)
	require.Equal([][]interface{}{{int32(5)}}, rowValues(rows))

	gb = NewGroupBy(0, NoGroup, sql.Sum, env.scan(t, "u", groupSchema, groupRows...))
	err := gb.Open(ctx)
	require.True(sql.ErrUnsupportedAggregation.Is(err))
}

func TestGroupByRewindWithoutRescan(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	gb := NewGroupBy(1, 0, sql.Max, env.scan(t, "t", groupSchema, groupRows...))

	require.NoError(gb.Open(ctx))
	first, err := sql.CollectRows(ctx, gb)
	require.NoError(err)

	require.NoError(gb.Rewind(ctx))
	second, err := sql.CollectRows(ctx, gb)
	require.NoError(err)

	require.Equal(rowValues(first), rowValues(second))
	require.NoError(gb.Close())
}

func TestGroupByEmptyChild(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	gb := NewGroupBy(1, 0, sql.Sum, env.scan(t, "t", groupSchema))
	require.Empty(collectRows(t, gb))
}
