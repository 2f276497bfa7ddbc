package heap

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/skiffdb/skiff/sql"
)

var (
	// ErrNoSuchPage is returned when a page beyond the end of the file is
	// read.
	ErrNoSuchPage = errors.NewKind("page %v does not exist")

	// ErrWrongTable is returned when a page or row of another table is
	// handed to a file.
	ErrWrongTable = errors.NewKind("page %v does not belong to table %d")
)

// File is a table stored as a sequence of fixed-size pages. It implements
// sql.DbFile.
type File struct {
	id     int
	path   string
	schema sql.Schema

	mu sync.Mutex
	f  *os.File
}

var _ sql.DbFile = (*File)(nil)

// Create creates an empty table file at the given path.
func Create(path string, schema sql.Schema) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return newFile(f, path, schema)
}

// Open opens an existing table file.
func Open(path string, schema sql.Schema) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return newFile(f, path, schema)
}

func newFile(f *os.File, path string, schema sql.Schema) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(abs))

	return &File{
		id:     int(h.Sum32()),
		path:   abs,
		schema: schema,
		f:      f,
	}, nil
}

// Close closes the underlying file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Close()
}

// ID implements sql.DbFile. The id is derived from the file's absolute
// path, so every open of the same file names the same table.
func (f *File) ID() int { return f.id }

// Schema implements sql.DbFile.
func (f *File) Schema() sql.Schema { return f.schema }

// Path returns the absolute path of the backing file.
func (f *File) Path() string { return f.path }

// NumPages implements sql.DbFile.
func (f *File) NumPages() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := f.f.Stat()
	if err != nil {
		return 0
	}
	return int(info.Size() / sql.PageSize)
}

// ReadPage implements sql.DbFile.
func (f *File) ReadPage(id sql.PageID) (sql.Page, error) {
	if id.Table != f.id {
		return nil, ErrWrongTable.New(id, f.id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := f.f.Stat()
	if err != nil {
		return nil, err
	}
	if id.Page < 0 || int64(id.Page+1)*sql.PageSize > info.Size() {
		return nil, ErrNoSuchPage.New(id)
	}

	data := make([]byte, sql.PageSize)
	if _, err := f.f.ReadAt(data, int64(id.Page)*sql.PageSize); err != nil {
		return nil, err
	}
	return DecodePage(id, f.schema, data)
}

// WritePage implements sql.DbFile.
func (f *File) WritePage(p sql.Page) error {
	hp, ok := p.(*Page)
	if !ok {
		return ErrWrongTable.New(p.ID(), f.id)
	}
	if hp.ID().Table != f.id {
		return ErrWrongTable.New(hp.ID(), f.id)
	}

	data, err := hp.Bytes()
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err = f.f.WriteAt(data, int64(hp.ID().Page)*sql.PageSize)
	return err
}

// AddRow implements sql.DbFile. Pages are fetched with write permission
// through the given fetcher; when no page has a free slot the file grows
// by one empty page.
func (f *File) AddRow(ctx *sql.Context, fetcher sql.PageFetcher, row sql.Row) ([]sql.Page, error) {
	if err := f.schema.CheckRow(row); err != nil {
		return nil, err
	}

	numPages := f.NumPages()
	for pageNo := 0; pageNo < numPages; pageNo++ {
		p, err := fetcher.GetPage(ctx, sql.PageID{Table: f.id, Page: pageNo}, sql.ReadWrite)
		if err != nil {
			return nil, err
		}
		hp, ok := p.(*Page)
		if !ok || hp.FreeSlots() == 0 {
			continue
		}
		if err := hp.InsertRow(row); err != nil {
			return nil, err
		}
		return []sql.Page{hp}, nil
	}

	if err := f.appendPage(numPages); err != nil {
		return nil, err
	}

	p, err := fetcher.GetPage(ctx, sql.PageID{Table: f.id, Page: numPages}, sql.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp, ok := p.(*Page)
	if !ok {
		return nil, ErrWrongTable.New(p.ID(), f.id)
	}
	if err := hp.InsertRow(row); err != nil {
		return nil, err
	}
	return []sql.Page{hp}, nil
}

// DeleteRow implements sql.DbFile.
func (f *File) DeleteRow(ctx *sql.Context, fetcher sql.PageFetcher, row sql.Row) (sql.Page, error) {
	if row.ID == nil {
		return nil, sql.ErrNoRowID.New()
	}
	if row.ID.Page.Table != f.id {
		return nil, ErrWrongTable.New(row.ID.Page, f.id)
	}

	p, err := fetcher.GetPage(ctx, row.ID.Page, sql.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp, ok := p.(*Page)
	if !ok {
		return nil, ErrWrongTable.New(p.ID(), f.id)
	}
	if err := hp.DeleteRow(row); err != nil {
		return nil, err
	}
	return hp, nil
}

func (f *File) appendPage(pageNo int) error {
	empty := NewPage(sql.PageID{Table: f.id, Page: pageNo}, f.schema)
	data, err := empty.Bytes()
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err = f.f.WriteAt(data, int64(pageNo)*sql.PageSize)
	return err
}
