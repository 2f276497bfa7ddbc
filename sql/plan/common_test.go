package plan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/buffer"
	"github.com/skiffdb/skiff/sql/heap"
)

// testEnv is a catalog plus buffer pool tables can be created in.
type testEnv struct {
	catalog *sql.Catalog
	pool    *buffer.Pool
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := sql.NewCatalog()
	return &testEnv{
		catalog: catalog,
		pool:    buffer.NewPool(catalog, 128),
		dir:     t.TempDir(),
	}
}

// table creates a heap table with the given rows and registers it.
func (e *testEnv) table(t *testing.T, name string, schema sql.Schema, rows ...sql.Row) *heap.File {
	t.Helper()
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	file, err := heap.Create(filepath.Join(e.dir, name+".dat"), schema)
	require.NoError(err)
	t.Cleanup(func() {
		_ = file.Close()
	})
	e.catalog.AddTable(file, name, "")

	for _, row := range rows {
		require.NoError(e.pool.InsertRow(ctx, file.ID(), row))
	}
	return file
}

func (e *testEnv) scan(t *testing.T, name string, schema sql.Schema, rows ...sql.Row) *SeqScan {
	t.Helper()
	file := e.table(t, name, schema, rows...)
	return NewSeqScan(file, e.pool, name)
}

// collectRows opens the operator, drains it and closes it.
func collectRows(t *testing.T, op sql.Operator) []sql.Row {
	t.Helper()
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	require.NoError(op.Open(ctx))
	rows, err := sql.CollectRows(ctx, op)
	require.NoError(err)
	require.NoError(op.Close())
	return rows
}

// rowValues strips storage locations so results can be compared by value.
func rowValues(rows []sql.Row) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = row.Values
	}
	return values
}

var (
	abcSchema = sql.Schema{
		{Name: "a", Type: sql.Int32},
		{Name: "b", Type: sql.Int32},
		{Name: "c", Type: sql.Text},
	}

	abcRows = []sql.Row{
		sql.NewRow(int32(1), int32(10), "one"),
		sql.NewRow(int32(2), int32(20), "two"),
		sql.NewRow(int32(3), int32(30), "three"),
		sql.NewRow(int32(4), int32(40), "four"),
		sql.NewRow(int32(5), int32(50), "five"),
	}
)
