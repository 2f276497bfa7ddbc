package sql

import (
	"io"
)

// Operator is a node of the pull-based execution tree. The lifecycle is
// Open, any number of Next and Rewind calls, Close. Next returns io.EOF
// when the stream is exhausted and keeps returning it until Rewind. Close
// is idempotent and must close the operator's children.
type Operator interface {
	// Schema returns the schema of the rows the operator produces.
	Schema() Schema
	// Open prepares the operator to produce rows.
	Open(ctx *Context) error
	// Next returns the next row, or io.EOF when there are no more.
	Next(ctx *Context) (Row, error)
	// Rewind restarts iteration from the beginning. Only legal on an open
	// operator.
	Rewind(ctx *Context) error
	// Close releases all resources held by the operator and its children.
	Close() error
}

// Permission is the access mode a page is fetched with.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) String() string {
	if p == ReadWrite {
		return "READ_WRITE"
	}
	return "READ_ONLY"
}

// Page is a fixed-size page held by the buffer pool.
type Page interface {
	// ID returns the page's identity.
	ID() PageID
	// Dirty returns the transaction that last dirtied the page, if any.
	Dirty() (TxnID, bool)
	// MarkDirty records the transaction mutating the page.
	MarkDirty(txn TxnID)
}

// TuplePage is a page holding rows in fixed-size slots.
type TuplePage interface {
	Page
	// NumSlots returns the page's slot capacity.
	NumSlots() int
	// Occupied reports whether the slot holds a row.
	Occupied(slot int) bool
	// Row returns the row stored in the slot.
	Row(slot int) (Row, error)
}

// PageFetcher fetches pages by identity on behalf of a transaction. It is
// implemented by the buffer pool; fetches may fail with ErrTxnAborted.
type PageFetcher interface {
	GetPage(ctx *Context, id PageID, perm Permission) (Page, error)
}

// RowStore inserts and deletes rows through the buffer pool.
type RowStore interface {
	InsertRow(ctx *Context, tableID int, row Row) error
	DeleteRow(ctx *Context, row Row) error
}

// DbFile is a table stored on disk as a sequence of fixed-size pages.
type DbFile interface {
	// ID returns the table id, derived from the file's absolute path.
	ID() int
	// Schema returns the table's schema.
	Schema() Schema
	// NumPages returns the current number of pages in the file.
	NumPages() int
	// ReadPage reads a page from disk.
	ReadPage(id PageID) (Page, error)
	// WritePage writes a page back to disk.
	WritePage(p Page) error
	// AddRow stores a row, growing the file if no page has a free slot.
	// Returns the pages that were modified.
	AddRow(ctx *Context, fetcher PageFetcher, row Row) ([]Page, error)
	// DeleteRow removes the row at its recorded location and returns the
	// modified page.
	DeleteRow(ctx *Context, fetcher PageFetcher, row Row) (Page, error)
}

// CollectRows drains an already-opened operator into a slice.
func CollectRows(ctx *Context, op Operator) ([]Row, error) {
	var rows []Row
	for {
		row, err := op.Next(ctx)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}
