package plan

import (
	"github.com/skiffdb/skiff/sql"
)

// noGroup is the grouping key used when the aggregation has no group-by
// field.
type noGroup struct{}

// aggregator folds values into per-group aggregation state. Group keys are
// the group field values themselves; insertion order is preserved so that
// results are deterministic.
type aggregator interface {
	merge(group, value interface{}) error
	results(grouped bool) []sql.Row
}

func newAggregator(typ sql.Type, op sql.AggOp) (aggregator, error) {
	switch typ {
	case sql.Int32:
		return &intAggregator{op: op, vals: make(map[interface{}]int64), counts: make(map[interface{}]int64)}, nil
	default:
		if op != sql.Count {
			return nil, sql.ErrUnsupportedAggregation.New(op, typ)
		}
		return &strAggregator{counts: make(map[interface{}]int64)}, nil
	}
}

// intAggregator computes MIN, MAX, SUM, AVG and COUNT over int32 values.
// AVG keeps a running sum and count and emits their integer quotient.
type intAggregator struct {
	op     sql.AggOp
	vals   map[interface{}]int64
	counts map[interface{}]int64
	order  []interface{}
}

func (a *intAggregator) merge(group, value interface{}) error {
	v, ok := value.(int32)
	if !ok {
		return sql.ErrTypeMismatch.New(sql.Int32, value)
	}

	count, seen := a.counts[group]
	if !seen {
		a.order = append(a.order, group)
	}
	a.counts[group] = count + 1

	switch a.op {
	case sql.Min:
		if !seen || int64(v) < a.vals[group] {
			a.vals[group] = int64(v)
		}
	case sql.Max:
		if !seen || int64(v) > a.vals[group] {
			a.vals[group] = int64(v)
		}
	case sql.Sum, sql.Avg:
		a.vals[group] += int64(v)
	case sql.Count:
		a.vals[group] = a.counts[group]
	}
	return nil
}

func (a *intAggregator) results(grouped bool) []sql.Row {
	rows := make([]sql.Row, 0, len(a.order))
	for _, group := range a.order {
		v := a.vals[group]
		if a.op == sql.Avg {
			v /= a.counts[group]
		}
		if grouped {
			rows = append(rows, sql.NewRow(group, int32(v)))
		} else {
			rows = append(rows, sql.NewRow(int32(v)))
		}
	}
	return rows
}

// strAggregator counts string values; no other aggregation is defined over
// strings.
type strAggregator struct {
	counts map[interface{}]int64
	order  []interface{}
}

func (a *strAggregator) merge(group, value interface{}) error {
	if _, ok := value.(string); !ok {
		return sql.ErrTypeMismatch.New(sql.Text, value)
	}
	if _, seen := a.counts[group]; !seen {
		a.order = append(a.order, group)
	}
	a.counts[group]++
	return nil
}

func (a *strAggregator) results(grouped bool) []sql.Row {
	rows := make([]sql.Row, 0, len(a.order))
	for _, group := range a.order {
		if grouped {
			rows = append(rows, sql.NewRow(group, int32(a.counts[group])))
		} else {
			rows = append(rows, sql.NewRow(int32(a.counts[group])))
		}
	}
	return rows
}
