package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
)

// directFetcher caches pages read straight from the file, standing in for
// the buffer pool.
type directFetcher struct {
	file  *File
	pages map[sql.PageID]sql.Page
}

func newDirectFetcher(file *File) *directFetcher {
	return &directFetcher{file: file, pages: make(map[sql.PageID]sql.Page)}
}

func (f *directFetcher) GetPage(ctx *sql.Context, id sql.PageID, perm sql.Permission) (sql.Page, error) {
	if p, ok := f.pages[id]; ok {
		return p, nil
	}
	p, err := f.file.ReadPage(id)
	if err != nil {
		return nil, err
	}
	f.pages[id] = p
	return p, nil
}

func TestFileIDFromPath(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	f1, err := Create(filepath.Join(dir, "a.dat"), pageSchema)
	require.NoError(err)
	defer f1.Close()

	f2, err := Open(filepath.Join(dir, "a.dat"), pageSchema)
	require.NoError(err)
	defer f2.Close()

	f3, err := Create(filepath.Join(dir, "b.dat"), pageSchema)
	require.NoError(err)
	defer f3.Close()

	require.Equal(f1.ID(), f2.ID())
	require.NotEqual(f1.ID(), f3.ID())
}

func TestFileGrowsByWholePages(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	f, err := Create(filepath.Join(t.TempDir(), "grow.dat"), pageSchema)
	require.NoError(err)
	defer f.Close()

	require.Equal(0, f.NumPages())

	fetcher := newDirectFetcher(f)
	slots := SlotsPerPage(pageSchema)
	for i := 0; i < slots+1; i++ {
		dirtied, err := f.AddRow(ctx, fetcher, sql.NewRow(int32(i), "row"))
		require.NoError(err)
		require.Len(dirtied, 1)
	}

	require.Equal(2, f.NumPages())
}

func TestFileReadPageOutOfRange(t *testing.T) {
	require := require.New(t)

	f, err := Create(filepath.Join(t.TempDir(), "empty.dat"), pageSchema)
	require.NoError(err)
	defer f.Close()

	_, err = f.ReadPage(sql.PageID{Table: f.ID(), Page: 0})
	require.True(ErrNoSuchPage.Is(err))

	_, err = f.ReadPage(sql.PageID{Table: f.ID() + 1, Page: 0})
	require.True(ErrWrongTable.Is(err))
}

func TestFileWriteAndReadBack(t *testing.T) {
	require := require.New(t)

	f, err := Create(filepath.Join(t.TempDir(), "rw.dat"), pageSchema)
	require.NoError(err)
	defer f.Close()

	id := sql.PageID{Table: f.ID(), Page: 0}
	p := NewPage(id, pageSchema)
	require.NoError(p.InsertRow(sql.NewRow(int32(10), "ten")))
	require.NoError(f.WritePage(p))

	got, err := f.ReadPage(id)
	require.NoError(err)

	tp := got.(*Page)
	row, err := tp.Row(0)
	require.NoError(err)
	require.Equal([]interface{}{int32(10), "ten"}, row.Values)
}
