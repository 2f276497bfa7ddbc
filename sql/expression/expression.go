// Package expression has the scalar expressions evaluated against rows:
// field references, literals and comparisons.
package expression

import (
	"fmt"

	"github.com/skiffdb/skiff/sql"
)

// Expression is a scalar expression evaluated against a row.
type Expression interface {
	// Type returns the type of the value the expression produces.
	Type() sql.Type
	// Eval evaluates the expression against the given row.
	Eval(ctx *sql.Context, row sql.Row) (interface{}, error)
	fmt.Stringer
}

// GetField is an expression that returns the field of a row at a fixed
// index.
type GetField struct {
	fieldIndex int
	fieldType  sql.Type
	name       string
}

// NewGetField creates a GetField expression.
func NewGetField(index int, fieldType sql.Type, name string) *GetField {
	return &GetField{
		fieldIndex: index,
		fieldType:  fieldType,
		name:       name,
	}
}

// Index returns the index the expression reads.
func (g *GetField) Index() int { return g.fieldIndex }

// Type implements Expression.
func (g *GetField) Type() sql.Type { return g.fieldType }

// Eval implements Expression.
func (g *GetField) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	if g.fieldIndex < 0 || g.fieldIndex >= len(row.Values) {
		return nil, sql.ErrSchemaMismatch.New(len(row.Values), g.fieldIndex+1)
	}
	return row.Values[g.fieldIndex], nil
}

func (g *GetField) String() string { return g.name }

// Literal is a constant value expression.
type Literal struct {
	value     interface{}
	fieldType sql.Type
}

// NewLiteral creates a Literal expression.
func NewLiteral(value interface{}, fieldType sql.Type) *Literal {
	return &Literal{value: value, fieldType: fieldType}
}

// Value returns the literal value.
func (l *Literal) Value() interface{} { return l.value }

// Type implements Expression.
func (l *Literal) Type() sql.Type { return l.fieldType }

// Eval implements Expression.
func (l *Literal) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return l.value, nil
}

func (l *Literal) String() string { return fmt.Sprint(l.value) }
