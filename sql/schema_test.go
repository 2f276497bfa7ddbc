package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaMerge(t *testing.T) {
	require := require.New(t)

	left := Schema{
		{Name: "id", Type: Int32, Source: "a"},
		{Name: "name", Type: Text, Source: "a"},
	}
	right := Schema{
		{Name: "id", Type: Int32, Source: "b"},
	}

	merged := left.Merge(right)
	require.Len(merged, 3)
	require.Equal("a", merged[0].Source)
	require.Equal("b", merged[2].Source)

	// the inputs are untouched
	require.Len(left, 2)
	require.Len(right, 1)
}

func TestSchemaQualify(t *testing.T) {
	require := require.New(t)

	schema := Schema{
		{Name: "id", Type: Int32},
		{Name: "name", Type: Text},
	}

	qualified := schema.Qualify("t")
	for _, col := range qualified {
		require.Equal("t", col.Source)
	}
	require.Equal("t.id", qualified[0].QualifiedName())
	require.Empty(schema[0].Source)
}

func TestSchemaResolve(t *testing.T) {
	require := require.New(t)

	schema := Schema{
		{Name: "id", Type: Int32, Source: "a"},
		{Name: "name", Type: Text, Source: "a"},
		{Name: "id", Type: Int32, Source: "b"},
	}

	idx, err := schema.Resolve("a.id")
	require.NoError(err)
	require.Equal(0, idx)

	idx, err = schema.Resolve("b.id")
	require.NoError(err)
	require.Equal(2, idx)

	idx, err = schema.Resolve("name")
	require.NoError(err)
	require.Equal(1, idx)

	_, err = schema.Resolve("id")
	require.True(ErrAmbiguousColumn.Is(err))

	_, err = schema.Resolve("missing")
	require.True(ErrColumnNotFound.Is(err))

	_, err = schema.Resolve("c.id")
	require.True(ErrColumnNotFound.Is(err))
}

func TestSchemaCheckRow(t *testing.T) {
	require := require.New(t)

	schema := Schema{
		{Name: "id", Type: Int32},
		{Name: "name", Type: Text},
	}

	require.NoError(schema.CheckRow(NewRow(int32(1), "a")))

	err := schema.CheckRow(NewRow(int32(1)))
	require.True(ErrSchemaMismatch.Is(err))

	err = schema.CheckRow(NewRow("a", "b"))
	require.True(ErrTypeMismatch.Is(err))
}

func TestCompareOpSwap(t *testing.T) {
	require := require.New(t)

	require.Equal(LessThan, GreaterThan.Swap())
	require.Equal(LessThanOrEq, GreaterThanOrEq.Swap())
	require.Equal(GreaterThan, LessThan.Swap())
	require.Equal(GreaterThanOrEq, LessThanOrEq.Swap())
	require.Equal(Equals, Equals.Swap())
	require.Equal(NotEquals, NotEquals.Swap())
}

func TestTypeCompare(t *testing.T) {
	require := require.New(t)

	cmp, err := Int32.Compare(int32(1), int32(2))
	require.NoError(err)
	require.Equal(-1, cmp)

	cmp, err = Text.Compare("b", "a")
	require.NoError(err)
	require.Equal(1, cmp)

	_, err = Int32.Compare(int32(1), "a")
	require.True(ErrInvalidType.Is(err))
}

func TestRowConcat(t *testing.T) {
	require := require.New(t)

	left := Row{Values: []interface{}{int32(1)}, ID: &RowID{Slot: 3}}
	right := NewRow("x")

	merged := left.Concat(right)
	require.Equal([]interface{}{int32(1), "x"}, merged.Values)
	require.Nil(merged.ID)
}
