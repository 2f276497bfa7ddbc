// Package heap implements tables stored as files of fixed-size slotted
// pages. A page is a bitmap header of occupied slots followed by a fixed
// array of row slots sized from the table schema.
package heap

import (
	"bytes"
	"encoding/binary"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/skiffdb/skiff/sql"
)

var (
	// ErrPageFull is returned when a row is inserted into a page with no
	// free slots.
	ErrPageFull = errors.NewKind("page %v has no free slots")

	// ErrBadSlot is returned for an out-of-range or unexpected slot state.
	ErrBadSlot = errors.NewKind("slot %d of page %v: %s")

	// ErrCorruptPage is returned when page bytes cannot be decoded.
	ErrCorruptPage = errors.NewKind("page %v is corrupt: %s")
)

// SlotsPerPage returns how many rows of the given schema fit in one page,
// accounting for one header bit per slot.
func SlotsPerPage(schema sql.Schema) int {
	return (sql.PageSize * 8) / (schema.Size()*8 + 1)
}

func headerSize(slots int) int {
	return (slots + 7) / 8
}

// Page is an in-memory heap page. It is not safe for concurrent use; the
// buffer pool serializes access.
type Page struct {
	id       sql.PageID
	schema   sql.Schema
	header   []byte
	rows     []sql.Row
	dirty    bool
	dirtyTxn sql.TxnID
}

// NewPage returns an empty page.
func NewPage(id sql.PageID, schema sql.Schema) *Page {
	slots := SlotsPerPage(schema)
	return &Page{
		id:     id,
		schema: schema,
		header: make([]byte, headerSize(slots)),
		rows:   make([]sql.Row, slots),
	}
}

// DecodePage reads a page from its on-disk representation.
func DecodePage(id sql.PageID, schema sql.Schema, data []byte) (*Page, error) {
	if len(data) != sql.PageSize {
		return nil, ErrCorruptPage.New(id, "wrong page size")
	}

	p := NewPage(id, schema)
	copy(p.header, data)

	r := bytes.NewReader(data[len(p.header):])
	for slot := 0; slot < len(p.rows); slot++ {
		row, err := decodeRow(r, schema)
		if err != nil {
			return nil, ErrCorruptPage.New(id, err.Error())
		}
		if p.Occupied(slot) {
			row.ID = &sql.RowID{Page: id, Slot: slot}
			p.rows[slot] = row
		}
	}
	return p, nil
}

// Bytes returns the on-disk representation of the page.
func (p *Page) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, sql.PageSize))
	buf.Write(p.header)

	empty := emptyRow(p.schema)
	for slot := 0; slot < len(p.rows); slot++ {
		row := empty
		if p.Occupied(slot) {
			row = p.rows[slot]
		}
		if err := encodeRow(buf, p.schema, row); err != nil {
			return nil, err
		}
	}

	// zero padding up to the fixed page size
	for buf.Len() < sql.PageSize {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

// ID implements sql.Page.
func (p *Page) ID() sql.PageID { return p.id }

// Dirty implements sql.Page.
func (p *Page) Dirty() (sql.TxnID, bool) {
	return p.dirtyTxn, p.dirty
}

// MarkDirty implements sql.Page.
func (p *Page) MarkDirty(txn sql.TxnID) {
	p.dirty = true
	p.dirtyTxn = txn
}

// ClearDirty resets the dirty mark after the page is flushed.
func (p *Page) ClearDirty() {
	p.dirty = false
	p.dirtyTxn = sql.TxnID{}
}

// NumSlots implements sql.TuplePage.
func (p *Page) NumSlots() int { return len(p.rows) }

// Occupied implements sql.TuplePage.
func (p *Page) Occupied(slot int) bool {
	if slot < 0 || slot >= len(p.rows) {
		return false
	}
	return p.header[slot/8]&(1<<uint(slot%8)) != 0
}

// Row implements sql.TuplePage.
func (p *Page) Row(slot int) (sql.Row, error) {
	if !p.Occupied(slot) {
		return sql.Row{}, ErrBadSlot.New(slot, p.id, "empty slot")
	}
	return p.rows[slot], nil
}

// FreeSlots returns the number of unoccupied slots.
func (p *Page) FreeSlots() int {
	var free int
	for slot := 0; slot < len(p.rows); slot++ {
		if !p.Occupied(slot) {
			free++
		}
	}
	return free
}

// InsertRow stores the row in the first free slot and records the slot in
// the row's id.
func (p *Page) InsertRow(row sql.Row) error {
	if err := p.schema.CheckRow(row); err != nil {
		return err
	}
	for slot := 0; slot < len(p.rows); slot++ {
		if p.Occupied(slot) {
			continue
		}
		p.header[slot/8] |= 1 << uint(slot%8)
		row.ID = &sql.RowID{Page: p.id, Slot: slot}
		p.rows[slot] = row
		return nil
	}
	return ErrPageFull.New(p.id)
}

// DeleteRow clears the slot the row was read from.
func (p *Page) DeleteRow(row sql.Row) error {
	if row.ID == nil {
		return sql.ErrNoRowID.New()
	}
	slot := row.ID.Slot
	if row.ID.Page != p.id {
		return ErrBadSlot.New(slot, p.id, "row belongs to another page")
	}
	if !p.Occupied(slot) {
		return ErrBadSlot.New(slot, p.id, "empty slot")
	}
	p.header[slot/8] &^= 1 << uint(slot%8)
	p.rows[slot] = sql.Row{}
	return nil
}

func emptyRow(schema sql.Schema) sql.Row {
	values := make([]interface{}, len(schema))
	for i, col := range schema {
		switch col.Type {
		case sql.Int32:
			values[i] = int32(0)
		default:
			values[i] = ""
		}
	}
	return sql.Row{Values: values}
}

func encodeRow(buf *bytes.Buffer, schema sql.Schema, row sql.Row) error {
	for i, col := range schema {
		switch col.Type {
		case sql.Int32:
			v, ok := row.Values[i].(int32)
			if !ok {
				return sql.ErrTypeMismatch.New(col.Type, row.Values[i])
			}
			if err := binary.Write(buf, binary.BigEndian, v); err != nil {
				return err
			}
		case sql.Text:
			v, ok := row.Values[i].(string)
			if !ok {
				return sql.ErrTypeMismatch.New(col.Type, row.Values[i])
			}
			if len(v) > sql.StringLen {
				v = v[:sql.StringLen]
			}
			if err := binary.Write(buf, binary.BigEndian, uint32(len(v))); err != nil {
				return err
			}
			body := make([]byte, sql.StringLen)
			copy(body, v)
			buf.Write(body)
		}
	}
	return nil
}

func decodeRow(r *bytes.Reader, schema sql.Schema) (sql.Row, error) {
	values := make([]interface{}, len(schema))
	for i, col := range schema {
		switch col.Type {
		case sql.Int32:
			var v int32
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return sql.Row{}, err
			}
			values[i] = v
		case sql.Text:
			var size uint32
			if err := binary.Read(r, binary.BigEndian, &size); err != nil {
				return sql.Row{}, err
			}
			body := make([]byte, sql.StringLen)
			if _, err := r.Read(body); err != nil {
				return sql.Row{}, err
			}
			if size > sql.StringLen {
				size = sql.StringLen
			}
			values[i] = string(body[:size])
		}
	}
	return sql.Row{Values: values}, nil
}
