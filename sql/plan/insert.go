package plan

import (
	"io"

	"github.com/skiffdb/skiff/sql"
)

// Insert drains its child into a table through the buffer pool and emits a
// single row holding the number of rows inserted. IO errors during the
// insert abort the transaction.
type Insert struct {
	store   sql.RowStore
	tableID int
	child   sql.Operator

	opened bool
	done   bool
}

var _ sql.Operator = (*Insert)(nil)

// NewInsert creates an insert of the child rows into the given table.
func NewInsert(store sql.RowStore, tableID int, child sql.Operator) *Insert {
	return &Insert{store: store, tableID: tableID, child: child}
}

// Schema implements sql.Operator.
func (i *Insert) Schema() sql.Schema {
	return sql.Schema{{Name: "inserted", Type: sql.Int32}}
}

// Open implements sql.Operator.
func (i *Insert) Open(ctx *sql.Context) error {
	if err := i.child.Open(ctx); err != nil {
		return err
	}
	i.done = false
	i.opened = true
	return nil
}

// Next implements sql.Operator. The first call performs all the inserts;
// later calls return end-of-stream until the operator is reopened.
func (i *Insert) Next(ctx *sql.Context) (sql.Row, error) {
	if !i.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("Insert")
	}
	if i.done {
		return sql.Row{}, io.EOF
	}
	i.done = true

	var count int32
	for {
		row, err := i.child.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return sql.Row{}, err
		}
		if err := i.store.InsertRow(ctx, i.tableID, row); err != nil {
			if sql.ErrTxnAborted.Is(err) {
				return sql.Row{}, err
			}
			return sql.Row{}, sql.ErrTxnAborted.Wrap(err, ctx.Txn())
		}
		count++
	}
	return sql.NewRow(count), nil
}

// Rewind implements sql.Operator.
func (i *Insert) Rewind(ctx *sql.Context) error {
	if !i.opened {
		return sql.ErrOperatorClosed.New("Insert")
	}
	if err := i.child.Rewind(ctx); err != nil {
		return err
	}
	i.done = false
	return nil
}

// Close implements sql.Operator.
func (i *Insert) Close() error {
	i.opened = false
	return i.child.Close()
}
