package sql

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// TxnID identifies a transaction.
type TxnID uuid.UUID

// NewTxn mints a fresh transaction id.
func NewTxn() TxnID {
	return TxnID(uuid.NewV4())
}

func (t TxnID) String() string {
	return uuid.UUID(t).String()
}

// Context carries the transaction a query runs under, along with its
// logger and tracing span. All operator and buffer-pool calls receive one.
type Context struct {
	context.Context
	txn    TxnID
	logger *logrus.Entry
	tracer opentracing.Tracer
	span   opentracing.Span
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithTxn sets the transaction the context runs under.
func WithTxn(txn TxnID) ContextOption {
	return func(ctx *Context) {
		ctx.txn = txn
	}
}

// WithLogger sets the logger the context reports to.
func WithLogger(logger *logrus.Entry) ContextOption {
	return func(ctx *Context) {
		ctx.logger = logger
	}
}

// WithTracer sets the tracer used to create query spans.
func WithTracer(tracer opentracing.Tracer) ContextOption {
	return func(ctx *Context) {
		ctx.tracer = tracer
	}
}

// NewContext creates a Context for a new transaction.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	c := &Context{
		Context: ctx,
		txn:     NewTxn(),
		tracer:  opentracing.NoopTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger()).
			WithField("txn", c.txn.String())
	}
	return c
}

// NewEmptyContext returns a default context, for tests and tools.
func NewEmptyContext() *Context {
	return NewContext(context.TODO())
}

// Txn returns the transaction id the context runs under.
func (c *Context) Txn() TxnID {
	return c.txn
}

// Logger returns the context logger.
func (c *Context) Logger() *logrus.Entry {
	return c.logger
}

// Span creates a new tracing span, child of the context's current one, and
// returns it along with a context carrying it. The caller owns the span
// and must Finish it.
func (c *Context) Span(opName string, opts ...opentracing.StartSpanOption) (opentracing.Span, *Context) {
	if c.span != nil {
		opts = append(opts, opentracing.ChildOf(c.span.Context()))
	}
	span := c.tracer.StartSpan(opName, opts...)

	child := *c
	child.span = span
	return span, &child
}
