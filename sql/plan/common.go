package plan

import (
	opentracing "github.com/opentracing/opentracing-go"

	"github.com/skiffdb/skiff/sql"
)

// spanCloser holds the tracing span an operator opens for its lifetime.
// Spans are opened at operator Open and finished at Close, never per row.
type spanCloser struct {
	span opentracing.Span
}

func (s *spanCloser) start(ctx *sql.Context, name string) {
	if s.span != nil {
		s.span.Finish()
	}
	s.span, _ = ctx.Span(name)
}

func (s *spanCloser) finish() {
	if s.span != nil {
		s.span.Finish()
		s.span = nil
	}
}

// closeAll closes the given operators, keeping the first transaction-abort
// error. Other close errors are swallowed so that unwinding always
// releases every child.
func closeAll(ops ...sql.Operator) error {
	var abort error
	for _, op := range ops {
		if err := op.Close(); err != nil {
			if sql.ErrTxnAborted.Is(err) && abort == nil {
				abort = err
			}
		}
	}
	return abort
}
