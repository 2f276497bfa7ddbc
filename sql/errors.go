package sql

import (
	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrInvalidType is returned when a value does not belong to the type
	// it is used as.
	ErrInvalidType = errors.NewKind("value %v is not a valid engine value")

	// ErrTypeMismatch is returned when a value or column of one type shows
	// up where another type was declared.
	ErrTypeMismatch = errors.NewKind("expected type %s, found %s")

	// ErrColumnNotFound is returned when a field name cannot be resolved
	// against a schema.
	ErrColumnNotFound = errors.NewKind("column %q could not be found")

	// ErrAmbiguousColumn is returned when an unqualified field name matches
	// columns from more than one source.
	ErrAmbiguousColumn = errors.NewKind("ambiguous column name %q")

	// ErrSchemaMismatch is returned when a row does not conform to the
	// schema it is stored or streamed under.
	ErrSchemaMismatch = errors.NewKind("row has %d values, schema has %d columns")

	// ErrOperatorClosed is returned when Next or Rewind is called on an
	// operator that has not been opened.
	ErrOperatorClosed = errors.NewKind("operator %s is not open")

	// ErrTableNotFound is returned by the catalog for an unknown table.
	ErrTableNotFound = errors.NewKind("table %v not found")

	// ErrNoRowID is returned when a tuple without a storage location is
	// handed to an operation that needs one.
	ErrNoRowID = errors.NewKind("row has no storage location")

	// ErrUnsupportedAggregation is returned when an aggregation operator is
	// applied to a column type that cannot compute it.
	ErrUnsupportedAggregation = errors.NewKind("unsupported aggregation %s over %s column")

	// ErrTxnAborted signals that the current transaction must be abandoned.
	// It propagates unchanged through the operator tree; callers decide
	// whether to retry.
	ErrTxnAborted = errors.NewKind("transaction %s aborted")
)
