package sql

import (
	"strings"
)

// Column is the definition of a schema column.
type Column struct {
	// Name is the field name. It may be empty.
	Name string
	// Type is the value type of the column.
	Type Type
	// Source is the table alias the column comes from, when known.
	Source string
	// PrimaryKey marks the column as the table's primary key.
	PrimaryKey bool
}

// Check returns whether the value is valid for this column.
func (c Column) Check(v interface{}) bool {
	return c.Type.Check(v)
}

// QualifiedName returns "source.name" when the column has a source, and the
// bare name otherwise.
func (c Column) QualifiedName() string {
	if c.Source == "" {
		return c.Name
	}
	return c.Source + "." + c.Name
}

// Schema is the ordered definition of a tuple: a sequence of columns.
type Schema []Column

// Merge returns the concatenation of s and other.
func (s Schema) Merge(other Schema) Schema {
	result := make(Schema, 0, len(s)+len(other))
	result = append(result, s...)
	result = append(result, other...)
	return result
}

// Qualify returns a copy of the schema with every column's source replaced
// by the given alias.
func (s Schema) Qualify(source string) Schema {
	result := make(Schema, len(s))
	for i, col := range s {
		col.Source = source
		result[i] = col
	}
	return result
}

// Size returns the number of bytes a row of this schema occupies in a heap
// page slot.
func (s Schema) Size() int {
	var size int
	for _, col := range s {
		size += col.Type.Size()
	}
	return size
}

// CheckRow returns an error if the row does not conform to the schema.
func (s Schema) CheckRow(row Row) error {
	if len(row.Values) != len(s) {
		return ErrSchemaMismatch.New(len(row.Values), len(s))
	}
	for i, col := range s {
		if !col.Check(row.Values[i]) {
			return ErrTypeMismatch.New(col.Type, row.Values[i])
		}
	}
	return nil
}

// IndexOf returns the position of the first column matching the given name
// and source, or -1 if there is none. An empty source matches any column
// with that name.
func (s Schema) IndexOf(name, source string) int {
	for i, col := range s {
		if col.Name == name && (source == "" || col.Source == source) {
			return i
		}
	}
	return -1
}

// Resolve resolves a possibly qualified field name ("alias.field" or
// "field") to a column index. Unqualified names that match columns from
// more than one source are ambiguous.
func (s Schema) Resolve(field string) (int, error) {
	name, source := SplitQualifiedName(field)
	if source != "" {
		idx := s.IndexOf(name, source)
		if idx < 0 {
			return 0, ErrColumnNotFound.New(field)
		}
		return idx, nil
	}

	idx := -1
	for i, col := range s {
		if col.Name != name {
			continue
		}
		if idx >= 0 {
			return 0, ErrAmbiguousColumn.New(field)
		}
		idx = i
	}
	if idx < 0 {
		return 0, ErrColumnNotFound.New(field)
	}
	return idx, nil
}

// SplitQualifiedName splits "alias.field" into its field name and alias.
// A bare field name returns an empty alias.
func SplitQualifiedName(field string) (name, source string) {
	if i := strings.Index(field, "."); i >= 0 {
		return field[i+1:], field[:i]
	}
	return field, ""
}
