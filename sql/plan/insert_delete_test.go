package plan

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/expression"
)

func TestInsertCountsRows(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	src := env.table(t, "src", abcSchema, abcRows...)
	dst := env.table(t, "dst", abcSchema)

	ins := NewInsert(env.pool, dst.ID(), NewSeqScan(src, env.pool, "src"))
	require.Equal(sql.Schema{{Name: "inserted", Type: sql.Int32}}, ins.Schema())

	require.NoError(ins.Open(ctx))
	row, err := ins.Next(ctx)
	require.NoError(err)
	require.Equal([]interface{}{int32(5)}, row.Values)

	// one result row only
	_, err = ins.Next(ctx)
	require.Equal(io.EOF, err)
	require.NoError(ins.Close())

	got := collectRows(t, NewSeqScan(dst, env.pool, "dst"))
	require.ElementsMatch(rowValues(abcRows), rowValues(got))
}

func TestDeleteWithFilter(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	file := env.table(t, "t", abcSchema, abcRows...)

	del := NewDelete(env.pool, NewFilter(
		gt(0, sql.Int32, "t.a", int32(3)),
		NewSeqScan(file, env.pool, "t")))
	require.Equal(sql.Schema{{Name: "deleted", Type: sql.Int32}}, del.Schema())

	require.NoError(del.Open(ctx))
	row, err := del.Next(ctx)
	require.NoError(err)
	require.Equal([]interface{}{int32(2)}, row.Values)
	require.NoError(del.Close())

	got := collectRows(t, NewSeqScan(file, env.pool, "t"))
	require.Equal([][]interface{}{
		{int32(1), int32(10), "one"},
		{int32(2), int32(20), "two"},
		{int32(3), int32(30), "three"},
	}, rowValues(got))
}

func TestDeleteAllThenScanEmpty(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	file := env.table(t, "t", abcSchema, abcRows...)

	del := NewDelete(env.pool, NewSeqScan(file, env.pool, "t"))
	require.NoError(del.Open(ctx))
	row, err := del.Next(ctx)
	require.NoError(err)
	require.Equal([]interface{}{int32(5)}, row.Values)
	require.NoError(del.Close())

	require.Empty(collectRows(t, NewSeqScan(file, env.pool, "t")))
}

func TestInsertNeedsRowsMatchingSchema(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	src := env.table(t, "src", groupSchema, groupRows...)
	dst := env.table(t, "dst", abcSchema)

	ins := NewInsert(env.pool, dst.ID(), NewSeqScan(src, env.pool, "src"))
	require.NoError(ins.Open(ctx))
	_, err := ins.Next(ctx)
	// schema mismatch surfaces as a transaction abort per the write path
	require.True(sql.ErrTxnAborted.Is(err))
	require.NoError(ins.Close())
}

func TestInsertedRowsVisibleToJoin(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	a := env.table(t, "a", leftSchema, leftRows...)
	b := env.table(t, "b", rightSchema, rightRows...)

	j := NewJoin(
		expression.NewEquals(
			expression.NewGetField(0, sql.Int32, "a.id"),
			expression.NewGetField(2, sql.Int32, "b.id")),
		NewSeqScan(a, env.pool, "a"),
		NewSeqScan(b, env.pool, "b"))

	require.Len(collectRows(t, j), 4)
}
