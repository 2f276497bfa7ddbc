package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
)

var unsortedRows = []sql.Row{
	sql.NewRow(int32(3), int32(30), "three"),
	sql.NewRow(int32(1), int32(10), "one"),
	sql.NewRow(int32(2), int32(20), "two"),
	sql.NewRow(int32(1), int32(11), "uno"),
}

func TestSortAscending(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	s := NewSort(0, true, env.scan(t, "t", abcSchema, unsortedRows...))

	rows := collectRows(t, s)
	require.Equal([][]interface{}{
		{int32(1), int32(10), "one"},
		{int32(1), int32(11), "uno"},
		{int32(2), int32(20), "two"},
		{int32(3), int32(30), "three"},
	}, rowValues(rows))
}

func TestSortDescending(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	s := NewSort(2, false, env.scan(t, "t", abcSchema, abcRows...))

	rows := collectRows(t, s)
	require.Equal([][]interface{}{
		{int32(2), int32(20), "two"},
		{int32(3), int32(30), "three"},
		{int32(1), int32(10), "one"},
		{int32(4), int32(40), "four"},
		{int32(5), int32(50), "five"},
	}, rowValues(rows))
}

// equal keys keep their input order
func TestSortStable(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	s := NewSort(0, true, env.scan(t, "t", abcSchema, unsortedRows...))

	rows := collectRows(t, s)
	require.Equal("one", rows[0].Values[2])
	require.Equal("uno", rows[1].Values[2])
}

func TestSortRewindKeepsOrder(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	s := NewSort(0, true, env.scan(t, "t", abcSchema, unsortedRows...))

	require.NoError(s.Open(ctx))
	first, err := sql.CollectRows(ctx, s)
	require.NoError(err)

	require.NoError(s.Rewind(ctx))
	second, err := sql.CollectRows(ctx, s)
	require.NoError(err)

	require.Equal(rowValues(first), rowValues(second))
	require.NoError(s.Close())
}

func TestSortFieldOutOfRange(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	s := NewSort(3, true, env.scan(t, "t", abcSchema))
	require.True(sql.ErrColumnNotFound.Is(s.Open(ctx)))
}
