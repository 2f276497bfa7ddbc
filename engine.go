// Package skiff is a teaching relational engine: a cost-based query
// pipeline over heap files. Queries enter as logical plans, are ordered by
// a Selinger-style join optimizer backed by per-column histograms, and
// stream their results through a pull-based operator tree.
package skiff

import (
	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/analyzer"
	"github.com/skiffdb/skiff/sql/buffer"
	"github.com/skiffdb/skiff/sql/stats"
)

// Engine ties together the table catalog, the buffer pool and the
// statistics the optimizer plans with.
type Engine struct {
	Catalog *sql.Catalog
	Pool    *buffer.Pool
	Stats   *stats.Catalog

	cfg Config
}

// New creates an engine with the given configuration.
func New(cfg Config) *Engine {
	if cfg.IOCostPerPage <= 0 {
		cfg.IOCostPerPage = DefaultConfig().IOCostPerPage
	}
	catalog := sql.NewCatalog()
	return &Engine{
		Catalog: catalog,
		Pool:    buffer.NewPool(catalog, cfg.BufferPoolPages),
		Stats:   stats.NewCatalog(),
		cfg:     cfg,
	}
}

// NewDefault creates an engine with the default configuration.
func NewDefault() *Engine {
	return New(DefaultConfig())
}

// AddTable registers a table under a name, with an optional primary key
// column.
func (e *Engine) AddTable(file sql.DbFile, name, pkey string) {
	e.Catalog.AddTable(file, name, pkey)
}

// NewLogicalPlan returns an empty logical plan resolving names against the
// engine's catalog.
func (e *Engine) NewLogicalPlan() *analyzer.LogicalPlan {
	return analyzer.NewLogicalPlan(e.Catalog)
}

// Query builds the physical plan for the given logical plan and opens it.
// The caller drains the returned operator and must close it.
func (e *Engine) Query(ctx *sql.Context, lp *analyzer.LogicalPlan) (sql.Schema, sql.Operator, error) {
	op, err := lp.PhysicalPlan(ctx, e.Pool, e.Stats)
	if err != nil {
		return nil, nil, err
	}
	if err := op.Open(ctx); err != nil {
		_ = op.Close()
		return nil, nil, err
	}
	return op.Schema(), op, nil
}

// ComputeStatistics scans every catalog table and rebuilds its statistics.
// It is called once after the catalog is loaded; the statistics catalog is
// read-only afterwards.
func (e *Engine) ComputeStatistics(ctx *sql.Context) error {
	for _, id := range e.Catalog.TableIDs() {
		file, err := e.Catalog.Table(id)
		if err != nil {
			return err
		}
		name, err := e.Catalog.TableName(id)
		if err != nil {
			return err
		}

		ts, err := stats.NewTableStats(ctx, file, e.Pool, e.cfg.IOCostPerPage, e.cfg.HistogramBuckets)
		if err != nil {
			return err
		}
		e.Stats.Set(name, ts)
		ctx.Logger().WithField("table", name).
			WithField("tuples", ts.TupleCount()).
			Debug("table statistics computed")
	}
	return nil
}

// SaveStats snapshots the statistics catalog to the configured stats path.
func (e *Engine) SaveStats() error {
	if e.cfg.StatsPath == "" {
		return nil
	}
	return e.Stats.Save(e.cfg.StatsPath)
}

// LoadStats replaces the statistics catalog with the snapshot at the
// configured stats path, skipping the full-scan rebuild.
func (e *Engine) LoadStats() error {
	if e.cfg.StatsPath == "" {
		return nil
	}
	loaded, err := stats.LoadCatalog(e.cfg.StatsPath)
	if err != nil {
		return err
	}
	e.Stats = loaded
	return nil
}
