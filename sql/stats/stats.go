package stats

import (
	"io"
	"math"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/plan"
)

// DefaultBuckets is the histogram bucket count used when the engine config
// does not set one.
const DefaultBuckets = 100

// TableStats holds the statistics of one base table: its scan cost, tuple
// count, and one histogram per column. Stats are built once by scanning
// the table twice: the first pass finds the range of every integer column,
// the second populates the histograms.
type TableStats struct {
	tableID       int
	schema        sql.Schema
	ioCostPerPage float64
	numPages      int
	numTuples     int
	ints          map[int]*IntHistogram
	strs          map[int]*StrHistogram
}

// NewTableStats scans the given table and builds its statistics.
func NewTableStats(ctx *sql.Context, file sql.DbFile, fetcher sql.PageFetcher, ioCostPerPage float64, buckets int) (*TableStats, error) {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}

	ts := &TableStats{
		tableID:       file.ID(),
		schema:        file.Schema(),
		ioCostPerPage: ioCostPerPage,
		numPages:      file.NumPages(),
		ints:          make(map[int]*IntHistogram),
		strs:          make(map[int]*StrHistogram),
	}

	mins := make(map[int]int)
	maxs := make(map[int]int)
	err := ts.scan(ctx, file, fetcher, func(row sql.Row) {
		ts.numTuples++
		for i, col := range ts.schema {
			if col.Type != sql.Int32 {
				continue
			}
			v := int(row.Values[i].(int32))
			if cur, ok := mins[i]; !ok || v < cur {
				mins[i] = v
			}
			if cur, ok := maxs[i]; !ok || v > cur {
				maxs[i] = v
			}
		}
	})
	if err != nil {
		return nil, err
	}

	for i, col := range ts.schema {
		switch col.Type {
		case sql.Int32:
			min, ok := mins[i]
			if !ok {
				min, maxs[i] = 0, 0
			}
			ts.ints[i] = NewIntHistogram(buckets, min, maxs[i])
		default:
			ts.strs[i] = NewStrHistogram(buckets)
		}
	}

	ts.numTuples = 0
	err = ts.scan(ctx, file, fetcher, func(row sql.Row) {
		ts.numTuples++
		for i, col := range ts.schema {
			switch col.Type {
			case sql.Int32:
				ts.ints[i].AddValue(int(row.Values[i].(int32)))
			default:
				ts.strs[i].AddValue(row.Values[i].(string))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TableStats) scan(ctx *sql.Context, file sql.DbFile, fetcher sql.PageFetcher, visit func(sql.Row)) error {
	scan := plan.NewSeqScan(file, fetcher, "")
	if err := scan.Open(ctx); err != nil {
		return err
	}
	defer func() {
		_ = scan.Close()
	}()

	for {
		row, err := scan.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		visit(row)
	}
}

// ScanCost estimates the cost of a full sequential scan of the table:
// pages times the per-page IO cost.
func (ts *TableStats) ScanCost() float64 {
	return float64(ts.numPages) * ts.ioCostPerPage
}

// TupleCount returns the number of tuples in the table.
func (ts *TableStats) TupleCount() int { return ts.numTuples }

// EstimateSelectivity estimates the fraction of the table's rows whose
// column col satisfies "col op value".
func (ts *TableStats) EstimateSelectivity(col int, op sql.CompareOp, value interface{}) (float64, error) {
	if col < 0 || col >= len(ts.schema) {
		return 0, sql.ErrColumnNotFound.New(col)
	}
	switch v := value.(type) {
	case int32:
		h, ok := ts.ints[col]
		if !ok {
			return 0, sql.ErrTypeMismatch.New(ts.schema[col].Type, value)
		}
		return h.EstimateSelectivity(op, int(v)), nil
	case string:
		h, ok := ts.strs[col]
		if !ok {
			return 0, sql.ErrTypeMismatch.New(ts.schema[col].Type, value)
		}
		return h.EstimateSelectivity(op, v), nil
	}
	return 0, sql.ErrInvalidType.New(value)
}

// EstimateCardinality returns the expected number of rows left after
// applying a predicate of the given selectivity to the table.
func (ts *TableStats) EstimateCardinality(selectivity float64) int {
	return int(math.Round(float64(ts.numTuples) * selectivity))
}
