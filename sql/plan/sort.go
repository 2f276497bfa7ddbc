package plan

import (
	"io"
	"sort"

	"github.com/skiffdb/skiff/sql"
)

// Sort materializes its child at Open and emits the rows stably sorted by
// one field. Memory use is bounded by the child's cardinality; there is no
// spilling. Rewind resets the cursor without sorting again.
type Sort struct {
	field     int
	ascending bool
	child     sql.Operator

	opened bool
	rows   []sql.Row
	pos    int
	span   spanCloser
}

var _ sql.Operator = (*Sort)(nil)

// NewSort creates a sort of the child by the given field.
func NewSort(field int, ascending bool, child sql.Operator) *Sort {
	return &Sort{field: field, ascending: ascending, child: child}
}

// Schema implements sql.Operator.
func (s *Sort) Schema() sql.Schema { return s.child.Schema() }

// Open implements sql.Operator. The entire child is drained and sorted
// here.
func (s *Sort) Open(ctx *sql.Context) error {
	schema := s.child.Schema()
	if s.field < 0 || s.field >= len(schema) {
		return sql.ErrColumnNotFound.New(s.field)
	}
	typ := schema[s.field].Type

	s.span.start(ctx, "plan.Sort")
	if err := s.child.Open(ctx); err != nil {
		s.span.finish()
		return err
	}

	rows, err := sql.CollectRows(ctx, s.child)
	if err != nil {
		_ = s.child.Close()
		s.span.finish()
		return err
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		cmp, err := typ.Compare(rows[i].Values[s.field], rows[j].Values[s.field])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if s.ascending {
			return cmp < 0
		}
		return cmp > 0
	})
	if sortErr != nil {
		_ = s.child.Close()
		s.span.finish()
		return sortErr
	}

	s.rows = rows
	s.pos = 0
	s.opened = true
	return nil
}

// Next implements sql.Operator.
func (s *Sort) Next(ctx *sql.Context) (sql.Row, error) {
	if !s.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("Sort")
	}
	if s.pos >= len(s.rows) {
		return sql.Row{}, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// Rewind implements sql.Operator.
func (s *Sort) Rewind(ctx *sql.Context) error {
	if !s.opened {
		return sql.ErrOperatorClosed.New("Sort")
	}
	s.pos = 0
	return nil
}

// Close implements sql.Operator.
func (s *Sort) Close() error {
	s.opened = false
	s.rows = nil
	s.span.finish()
	return s.child.Close()
}
