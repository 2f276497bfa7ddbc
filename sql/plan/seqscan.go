// Package plan has the operators of the pull-based execution tree. Every
// operator implements sql.Operator; trees are composed bottom-up and
// driven by Open, Next and Close.
package plan

import (
	"io"

	"github.com/skiffdb/skiff/sql"
)

// SeqScan scans a table sequentially: pages in page-number order, occupied
// slots in slot order within each page. Pages are fetched read-only
// through the buffer pool. The page count is snapshotted at Open; pages
// appended afterwards are not visible to the scan.
type SeqScan struct {
	file    sql.DbFile
	fetcher sql.PageFetcher
	alias   string
	schema  sql.Schema

	opened   bool
	numPages int
	pageNo   int
	slot     int
	page     sql.TuplePage
	span     spanCloser
}

var _ sql.Operator = (*SeqScan)(nil)

// NewSeqScan creates a sequential scan of the given table under an alias.
func NewSeqScan(file sql.DbFile, fetcher sql.PageFetcher, alias string) *SeqScan {
	return &SeqScan{
		file:    file,
		fetcher: fetcher,
		alias:   alias,
		schema:  file.Schema().Qualify(alias),
	}
}

// Alias returns the alias the scan runs under.
func (s *SeqScan) Alias() string { return s.alias }

// Schema implements sql.Operator. Every column is qualified with the
// scan's alias.
func (s *SeqScan) Schema() sql.Schema { return s.schema }

// Open implements sql.Operator.
func (s *SeqScan) Open(ctx *sql.Context) error {
	s.span.start(ctx, "plan.SeqScan")
	s.numPages = s.file.NumPages()
	s.pageNo = 0
	s.slot = 0
	s.page = nil
	s.opened = true
	return nil
}

// Next implements sql.Operator.
func (s *SeqScan) Next(ctx *sql.Context) (sql.Row, error) {
	if !s.opened {
		return sql.Row{}, sql.ErrOperatorClosed.New("SeqScan")
	}

	for {
		if s.page == nil {
			if s.pageNo >= s.numPages {
				return sql.Row{}, io.EOF
			}
			id := sql.PageID{Table: s.file.ID(), Page: s.pageNo}
			p, err := s.fetcher.GetPage(ctx, id, sql.ReadOnly)
			if err != nil {
				return sql.Row{}, err
			}
			tp, ok := p.(sql.TuplePage)
			if !ok {
				return sql.Row{}, sql.ErrTypeMismatch.New("tuple page", p)
			}
			s.page = tp
			s.slot = 0
		}

		for ; s.slot < s.page.NumSlots(); s.slot++ {
			if !s.page.Occupied(s.slot) {
				continue
			}
			row, err := s.page.Row(s.slot)
			if err != nil {
				return sql.Row{}, err
			}
			s.slot++
			return row, nil
		}

		s.page = nil
		s.pageNo++
	}
}

// Rewind implements sql.Operator. The page-count snapshot taken at Open is
// kept.
func (s *SeqScan) Rewind(ctx *sql.Context) error {
	if !s.opened {
		return sql.ErrOperatorClosed.New("SeqScan")
	}
	s.pageNo = 0
	s.slot = 0
	s.page = nil
	return nil
}

// Close implements sql.Operator.
func (s *SeqScan) Close() error {
	s.opened = false
	s.page = nil
	s.span.finish()
	return nil
}
