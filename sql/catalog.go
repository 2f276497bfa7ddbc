package sql

import (
	"sync"
)

// Catalog is the registry of the tables known to the engine. It is loaded
// once at startup and read-only during query execution.
type Catalog struct {
	mu     sync.RWMutex
	tables map[int]DbFile
	names  map[int]string
	ids    map[string]int
	pkeys  map[int]string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[int]DbFile),
		names:  make(map[int]string),
		ids:    make(map[string]int),
		pkeys:  make(map[int]string),
	}
}

// AddTable registers a table under the given name. pkey names the primary
// key column, or is empty when the table has none. Re-adding a name or id
// replaces the previous entry.
func (c *Catalog) AddTable(file DbFile, name, pkey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.ids[name]; ok {
		delete(c.tables, old)
		delete(c.names, old)
		delete(c.pkeys, old)
	}
	if old, ok := c.names[file.ID()]; ok {
		delete(c.ids, old)
	}
	delete(c.pkeys, file.ID())
	c.tables[file.ID()] = file
	c.names[file.ID()] = name
	c.ids[name] = file.ID()
	if pkey != "" {
		c.pkeys[file.ID()] = pkey
	}
}

// Table returns the table with the given id.
func (c *Catalog) Table(id int) (DbFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	file, ok := c.tables[id]
	if !ok {
		return nil, ErrTableNotFound.New(id)
	}
	return file, nil
}

// TableByName returns the table registered under the given name.
func (c *Catalog) TableByName(name string) (DbFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.ids[name]
	if !ok {
		return nil, ErrTableNotFound.New(name)
	}
	return c.tables[id], nil
}

// TableName returns the name the table was registered under.
func (c *Catalog) TableName(id int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.names[id]
	if !ok {
		return "", ErrTableNotFound.New(id)
	}
	return name, nil
}

// Schema returns the schema of the table with the given id.
func (c *Catalog) Schema(id int) (Schema, error) {
	file, err := c.Table(id)
	if err != nil {
		return nil, err
	}
	return file.Schema(), nil
}

// PrimaryKey returns the primary key column of the table, or "" when the
// table has none.
func (c *Catalog) PrimaryKey(id int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pkeys[id]
}

// TableIDs returns the ids of every registered table.
func (c *Catalog) TableIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int, 0, len(c.tables))
	for id := range c.tables {
		ids = append(ids, id)
	}
	return ids
}
