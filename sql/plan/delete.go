package plan

import (
	"io"

	"github.com/skiffdb/skiff/sql"
)

// Delete drains its child and removes every row from its table through the
// buffer pool, emitting a single row holding the number of rows deleted.
// Child rows must carry their storage location, which scans preserve.
type Delete struct {
	store sql.RowStore
	child sql.Operator

	opened bool
	done   bool
}

var _ sql.Operator = (*Delete)(nil)

// NewDelete creates a delete of the child rows.
func NewDelete(store sql.RowStore, child sql.Operator) *Delete {
	return &Delete{store: store, child: child}
}

// Schema implements sql.Operator.
func (d *Delete) Schema() sql.Schema {
	return sql.Schema{{Name: "deleted", Type: sql.Int32}}
}

// Open implements sql.Operator.
func (d *Delete) Open(ctx *sql.Context) error {
	if err := d.child.Open(ctx); err != nil {
		return err
	}
	d.done = false
	d.opened = true
	return nil
}

// Next implements sql.Operator. The first call performs all the deletes;
// later calls return end-of-stream until the operator is reopened.
func (d *Delete) Next(ctx *sql.Context) (sql.Row, error) {
	if !d.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("Delete")
	}
	if d.done {
		return sql.Row{}, io.EOF
	}
	d.done = true

	var count int32
	for {
		row, err := d.child.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return sql.Row{}, err
		}
		if err := d.store.DeleteRow(ctx, row); err != nil {
			return sql.Row{}, err
		}
		count++
	}
	return sql.NewRow(count), nil
}

// Rewind implements sql.Operator.
func (d *Delete) Rewind(ctx *sql.Context) error {
	if !d.opened {
		return sql.ErrOperatorClosed.New("Delete")
	}
	if err := d.child.Rewind(ctx); err != nil {
		return err
	}
	d.done = false
	return nil
}

// Close implements sql.Operator.
func (d *Delete) Close() error {
	d.opened = false
	return d.child.Close()
}
