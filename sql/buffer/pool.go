// Package buffer implements the page cache the execution layer reads and
// writes through. Pages are pinned by (table, page) identity with a
// read-only or read-write permission; the pool is shared across
// transactions.
package buffer

import (
	"sync"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/skiffdb/skiff/sql"
)

// DefaultPages is the default capacity of the pool, in pages.
const DefaultPages = 50

// ErrNoFreePages is returned when a fetch would exceed the pool's
// capacity. Eviction is out of scope; a bigger pool is the only remedy.
var ErrNoFreePages = errors.NewKind("buffer pool is full (%d pages)")

// Pool is the buffer pool. It implements sql.PageFetcher and sql.RowStore.
type Pool struct {
	catalog  *sql.Catalog
	capacity int

	mu    sync.Mutex
	pages map[sql.PageID]sql.Page
}

var (
	_ sql.PageFetcher = (*Pool)(nil)
	_ sql.RowStore    = (*Pool)(nil)
)

// NewPool creates a pool over the given catalog holding at most capacity
// pages.
func NewPool(catalog *sql.Catalog, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPages
	}
	return &Pool{
		catalog:  catalog,
		capacity: capacity,
		pages:    make(map[sql.PageID]sql.Page),
	}
}

// GetPage returns the page with the given id, reading it from its table
// file on first access. The permission records the caller's intent; pages
// fetched read-write may be marked dirty by the caller.
func (p *Pool) GetPage(ctx *sql.Context, id sql.PageID, perm sql.Permission) (sql.Page, error) {
	p.mu.Lock()
	if page, ok := p.pages[id]; ok {
		p.mu.Unlock()
		return page, nil
	}
	if len(p.pages) >= p.capacity {
		p.mu.Unlock()
		return nil, ErrNoFreePages.New(p.capacity)
	}
	p.mu.Unlock()

	file, err := p.catalog.Table(id.Table)
	if err != nil {
		return nil, err
	}
	page, err := file.ReadPage(id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.pages[id]; ok {
		return cached, nil
	}
	if len(p.pages) >= p.capacity {
		return nil, ErrNoFreePages.New(p.capacity)
	}
	p.pages[id] = page
	return page, nil
}

// InsertRow implements sql.RowStore. Every page the insert touches is
// marked dirty with the context's transaction.
func (p *Pool) InsertRow(ctx *sql.Context, tableID int, row sql.Row) error {
	file, err := p.catalog.Table(tableID)
	if err != nil {
		return err
	}

	dirtied, err := file.AddRow(ctx, p, row)
	if err != nil {
		return err
	}
	for _, page := range dirtied {
		page.MarkDirty(ctx.Txn())
	}
	return nil
}

// DeleteRow implements sql.RowStore. The row must carry the location it
// was read from.
func (p *Pool) DeleteRow(ctx *sql.Context, row sql.Row) error {
	if row.ID == nil {
		return sql.ErrNoRowID.New()
	}
	file, err := p.catalog.Table(row.ID.Page.Table)
	if err != nil {
		return err
	}

	page, err := file.DeleteRow(ctx, p, row)
	if err != nil {
		return err
	}
	page.MarkDirty(ctx.Txn())
	return nil
}

// TransactionComplete flushes every page the transaction dirtied and
// releases it from the pool.
func (p *Pool) TransactionComplete(ctx *sql.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, page := range p.pages {
		txn, dirty := page.Dirty()
		if !dirty || txn != ctx.Txn() {
			continue
		}
		if err := p.flushPage(page); err != nil {
			return err
		}
		delete(p.pages, id)
	}
	ctx.Logger().Debug("transaction complete")
	return nil
}

// FlushAll writes every dirty page back to its table file.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, page := range p.pages {
		if _, dirty := page.Dirty(); !dirty {
			continue
		}
		if err := p.flushPage(page); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) flushPage(page sql.Page) error {
	file, err := p.catalog.Table(page.ID().Table)
	if err != nil {
		return err
	}
	if err := file.WritePage(page); err != nil {
		return err
	}
	if hp, ok := page.(interface{ ClearDirty() }); ok {
		hp.ClearDirty()
	}
	return nil
}
