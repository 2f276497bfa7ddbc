package plan

import (
	"github.com/skiffdb/skiff/sql"
)

// Project narrows the child rows to an ordered list of source fields. The
// declared output types are checked against the child schema at Open.
type Project struct {
	fields []int
	types  []sql.Type
	child  sql.Operator

	opened bool
}

var _ sql.Operator = (*Project)(nil)

// NewProject creates a projection of the given child fields.
func NewProject(fields []int, types []sql.Type, child sql.Operator) *Project {
	return &Project{fields: fields, types: types, child: child}
}

// Schema implements sql.Operator.
func (p *Project) Schema() sql.Schema {
	childSchema := p.child.Schema()
	schema := make(sql.Schema, len(p.fields))
	for i, idx := range p.fields {
		col := childSchema[idx]
		col.Type = p.types[i]
		schema[i] = col
	}
	return schema
}

// Open implements sql.Operator.
func (p *Project) Open(ctx *sql.Context) error {
	childSchema := p.child.Schema()
	for i, idx := range p.fields {
		if idx < 0 || idx >= len(childSchema) {
			return sql.ErrColumnNotFound.New(idx)
		}
		if childSchema[idx].Type != p.types[i] {
			return sql.ErrTypeMismatch.New(p.types[i], childSchema[idx].Type)
		}
	}

	if err := p.child.Open(ctx); err != nil {
		return err
	}
	p.opened = true
	return nil
}

// Next implements sql.Operator.
func (p *Project) Next(ctx *sql.Context) (sql.Row, error) {
	if !p.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("Project")
	}

	row, err := p.child.Next(ctx)
	if err != nil {
		return sql.Row{}, err
	}

	values := make([]interface{}, len(p.fields))
	for i, idx := range p.fields {
		values[i] = row.Values[idx]
	}
	return sql.Row{Values: values}, nil
}

// Rewind implements sql.Operator.
func (p *Project) Rewind(ctx *sql.Context) error {
	if !p.opened {
		return sql.ErrOperatorClosed.New("Project")
	}
	return p.child.Rewind(ctx)
}

// Close implements sql.Operator.
func (p *Project) Close() error {
	p.opened = false
	return p.child.Close()
}
