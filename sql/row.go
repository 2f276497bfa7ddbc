package sql

// PageID identifies a page inside a table file.
type PageID struct {
	Table int
	Page  int
}

// RowID is the storage location of a row: the page holding it and the slot
// it occupies inside that page.
type RowID struct {
	Page PageID
	Slot int
}

// Row is a tuple of values. Rows read from a heap file carry the location
// they were read from; rows produced by operators do not.
type Row struct {
	Values []interface{}
	ID     *RowID
}

// NewRow creates a row from the given values.
func NewRow(values ...interface{}) Row {
	return Row{Values: values}
}

// Concat returns a new row with the values of r followed by the values of
// other. The result has no storage location.
func (r Row) Concat(other Row) Row {
	values := make([]interface{}, 0, len(r.Values)+len(other.Values))
	values = append(values, r.Values...)
	values = append(values, other.Values...)
	return Row{Values: values}
}

// Copy returns a row with a copy of the value slice.
func (r Row) Copy() Row {
	values := make([]interface{}, len(r.Values))
	copy(values, r.Values)
	return Row{Values: values, ID: r.ID}
}
