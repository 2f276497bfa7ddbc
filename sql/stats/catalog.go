package stats

import (
	"encoding/json"
	"sync"

	"github.com/boltdb/bolt"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/skiffdb/skiff/sql"
)

// ErrNoStats is returned when the optimizer asks for statistics of a table
// they were never computed for.
var ErrNoStats = errors.NewKind("no statistics for table %q")

var snapshotBucket = []byte("table_stats")

// Catalog is the registry of per-table statistics, keyed by base table
// name. It is built once after the catalog is loaded and read-only during
// query execution.
type Catalog struct {
	mu sync.RWMutex
	m  map[string]*TableStats
}

// NewCatalog returns an empty statistics catalog.
func NewCatalog() *Catalog {
	return &Catalog{m: make(map[string]*TableStats)}
}

// Set records the statistics of a table.
func (c *Catalog) Set(table string, ts *TableStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[table] = ts
}

// Get returns the statistics of a table.
func (c *Catalog) Get(table string) (*TableStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ts, ok := c.m[table]
	if !ok {
		return nil, ErrNoStats.New(table)
	}
	return ts, nil
}

// Tables returns the names statistics are recorded under.
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.m))
	for name := range c.m {
		names = append(names, name)
	}
	return names
}

// Save writes a snapshot of the catalog to a bolt database at the given
// path, so a restart can skip the full-scan rebuild.
func (c *Catalog) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(snapshotBucket)
		if err != nil {
			return err
		}
		for name, ts := range c.m {
			data, err := json.Marshal(newSnapshot(ts))
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(name), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadCatalog reads a snapshot previously written by Save. The returned
// catalog estimates from the snapshotted histograms; it does not touch the
// table files.
func LoadCatalog(path string) (*Catalog, error) {
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	c := NewCatalog()
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(snapshotBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var snap snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			c.m[string(k)] = snap.stats()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type histSnapshot struct {
	Buckets    []int `json:"buckets"`
	Min        int   `json:"min"`
	Max        int   `json:"max"`
	BucketSize int   `json:"bucket_size"`
	Total      int   `json:"total"`
}

type colSnapshot struct {
	Name string       `json:"name"`
	Type string       `json:"type"`
	Hist histSnapshot `json:"hist"`
}

type snapshot struct {
	TableID       int           `json:"table_id"`
	IOCostPerPage float64       `json:"io_cost_per_page"`
	NumPages      int           `json:"num_pages"`
	NumTuples     int           `json:"num_tuples"`
	Columns       []colSnapshot `json:"columns"`
}

func newHistSnapshot(h *IntHistogram) histSnapshot {
	return histSnapshot{
		Buckets:    h.buckets,
		Min:        h.min,
		Max:        h.max,
		BucketSize: h.bucketSize,
		Total:      h.total,
	}
}

func (s histSnapshot) hist() *IntHistogram {
	return &IntHistogram{
		buckets:    s.Buckets,
		min:        s.Min,
		max:        s.Max,
		bucketSize: s.BucketSize,
		total:      s.Total,
	}
}

func newSnapshot(ts *TableStats) snapshot {
	snap := snapshot{
		TableID:       ts.tableID,
		IOCostPerPage: ts.ioCostPerPage,
		NumPages:      ts.numPages,
		NumTuples:     ts.numTuples,
	}
	for i, col := range ts.schema {
		cs := colSnapshot{Name: col.Name, Type: col.Type.String()}
		if h, ok := ts.ints[i]; ok {
			cs.Hist = newHistSnapshot(h)
		} else if h, ok := ts.strs[i]; ok {
			cs.Hist = newHistSnapshot(h.hist)
		}
		snap.Columns = append(snap.Columns, cs)
	}
	return snap
}

func (s snapshot) stats() *TableStats {
	ts := &TableStats{
		tableID:       s.TableID,
		ioCostPerPage: s.IOCostPerPage,
		numPages:      s.NumPages,
		numTuples:     s.NumTuples,
		ints:          make(map[int]*IntHistogram),
		strs:          make(map[int]*StrHistogram),
	}
	for i, col := range s.Columns {
		typ := sql.Text
		if col.Type == sql.Int32.String() {
			typ = sql.Int32
		}
		ts.schema = append(ts.schema, sql.Column{Name: col.Name, Type: typ})
		if typ == sql.Int32 {
			ts.ints[i] = col.Hist.hist()
		} else {
			ts.strs[i] = &StrHistogram{hist: col.Hist.hist()}
		}
	}
	return ts
}
