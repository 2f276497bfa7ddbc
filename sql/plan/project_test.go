package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
)

func TestProject(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	p := NewProject(
		[]int{2, 0},
		[]sql.Type{sql.Text, sql.Int32},
		env.scan(t, "t", abcSchema, abcRows...))

	require.Equal(sql.Schema{
		{Name: "c", Type: sql.Text, Source: "t"},
		{Name: "a", Type: sql.Int32, Source: "t"},
	}, p.Schema())

	rows := collectRows(t, p)
	require.Equal([][]interface{}{
		{"one", int32(1)},
		{"two", int32(2)},
		{"three", int32(3)},
		{"four", int32(4)},
		{"five", int32(5)},
	}, rowValues(rows))
}

func TestProjectTypeMismatch(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	p := NewProject(
		[]int{0},
		[]sql.Type{sql.Text},
		env.scan(t, "t", abcSchema, abcRows...))

	err := p.Open(ctx)
	require.True(sql.ErrTypeMismatch.Is(err))
}

func TestProjectOutOfRange(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	env := newTestEnv(t)
	p := NewProject(
		[]int{5},
		[]sql.Type{sql.Int32},
		env.scan(t, "t", abcSchema, abcRows...))

	err := p.Open(ctx)
	require.True(sql.ErrColumnNotFound.Is(err))
}
