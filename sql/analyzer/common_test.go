package analyzer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/buffer"
	"github.com/skiffdb/skiff/sql/heap"
	"github.com/skiffdb/skiff/sql/stats"
)

// testEnv is a catalog, buffer pool and statistics catalog with tables
// created on the fly.
type testEnv struct {
	catalog *sql.Catalog
	pool    *buffer.Pool
	stats   *stats.Catalog
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := sql.NewCatalog()
	return &testEnv{
		catalog: catalog,
		pool:    buffer.NewPool(catalog, 256),
		stats:   stats.NewCatalog(),
		dir:     t.TempDir(),
	}
}

func (e *testEnv) table(t *testing.T, name, pkey string, schema sql.Schema, rows ...sql.Row) *heap.File {
	t.Helper()
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	file, err := heap.Create(filepath.Join(e.dir, name+".dat"), schema)
	require.NoError(err)
	t.Cleanup(func() {
		_ = file.Close()
	})
	e.catalog.AddTable(file, name, pkey)

	for _, row := range rows {
		require.NoError(e.pool.InsertRow(ctx, file.ID(), row))
	}

	ts, err := stats.NewTableStats(ctx, file, e.pool, 1.0, 10)
	require.NoError(err)
	e.stats.Set(name, ts)
	return file
}

func (e *testEnv) run(t *testing.T, p *LogicalPlan) []sql.Row {
	t.Helper()
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	op, err := p.PhysicalPlan(ctx, e.pool, e.stats)
	require.NoError(err)
	require.NoError(op.Open(ctx))
	rows, err := sql.CollectRows(ctx, op)
	require.NoError(err)
	require.NoError(op.Close())
	return rows
}

func rowValues(rows []sql.Row) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = row.Values
	}
	return values
}
