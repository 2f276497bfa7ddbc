package plan

import (
	"io"

	"github.com/mitchellh/hashstructure"

	"github.com/skiffdb/skiff/sql"
)

// HashJoin joins on equality of one field per side. The left child is the
// build side: Open drains it into a hash table and closes it. The right
// child is probed row by row; Rewind restarts the probe side only, keeping
// the hash table. Probe rows matching several build rows are emitted from
// a cache of already-merged rows, one per Next call.
type HashJoin struct {
	leftField  int
	rightField int
	left       sql.Operator
	right      sql.Operator

	opened bool
	table  map[uint64][]sql.Row
	cache  []sql.Row
	span   spanCloser
}

var _ sql.Operator = (*HashJoin)(nil)

// NewHashJoin creates a hash join. The field indices are relative to each
// child's own schema.
func NewHashJoin(leftField, rightField int, left, right sql.Operator) *HashJoin {
	return &HashJoin{
		leftField:  leftField,
		rightField: rightField,
		left:       left,
		right:      right,
	}
}

// Schema implements sql.Operator: the left schema followed by the right.
func (j *HashJoin) Schema() sql.Schema {
	return j.left.Schema().Merge(j.right.Schema())
}

// Open implements sql.Operator. Builds the hash table from the left child.
func (j *HashJoin) Open(ctx *sql.Context) error {
	j.span.start(ctx, "plan.HashJoin")

	if err := j.left.Open(ctx); err != nil {
		j.span.finish()
		return err
	}

	j.table = make(map[uint64][]sql.Row)
	for {
		row, err := j.left.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = j.left.Close()
			j.span.finish()
			return err
		}
		key, err := hashKey(row.Values[j.leftField])
		if err != nil {
			_ = j.left.Close()
			j.span.finish()
			return err
		}
		j.table[key] = append(j.table[key], row)
	}
	if err := j.left.Close(); err != nil {
		j.span.finish()
		return err
	}

	if err := j.right.Open(ctx); err != nil {
		j.span.finish()
		return err
	}
	j.cache = nil
	j.opened = true
	return nil
}

// Next implements sql.Operator.
func (j *HashJoin) Next(ctx *sql.Context) (sql.Row, error) {
	if !j.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("HashJoin")
	}

	if len(j.cache) > 0 {
		row := j.cache[0]
		j.cache = j.cache[1:]
		return row, nil
	}

	keyType := j.right.Schema()[j.rightField].Type
	for {
		probe, err := j.right.Next(ctx)
		if err != nil {
			return sql.Row{}, err
		}

		key, err := hashKey(probe.Values[j.rightField])
		if err != nil {
			return sql.Row{}, err
		}

		var merged []sql.Row
		for _, build := range j.table[key] {
			cmp, err := keyType.Compare(build.Values[j.leftField], probe.Values[j.rightField])
			if err != nil {
				return sql.Row{}, err
			}
			if cmp == 0 {
				merged = append(merged, build.Concat(probe))
			}
		}

		switch len(merged) {
		case 0:
			continue
		case 1:
			return merged[0], nil
		default:
			j.cache = merged[1:]
			return merged[0], nil
		}
	}
}

// Rewind implements sql.Operator. Only the probe side restarts; the hash
// table is preserved.
func (j *HashJoin) Rewind(ctx *sql.Context) error {
	if !j.opened {
		return sql.ErrOperatorClosed.New("HashJoin")
	}
	j.cache = nil
	return j.right.Rewind(ctx)
}

// Close implements sql.Operator. Drops the hash table and the match cache.
func (j *HashJoin) Close() error {
	j.opened = false
	j.table = nil
	j.cache = nil
	j.span.finish()
	return closeAll(j.left, j.right)
}

func hashKey(v interface{}) (uint64, error) {
	return hashstructure.Hash(v, nil)
}
