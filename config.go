package skiff

import (
	"io/ioutil"

	yaml "gopkg.in/yaml.v2"

	"github.com/skiffdb/skiff/sql/buffer"
	"github.com/skiffdb/skiff/sql/stats"
)

// Config for the Engine. Zero values fall back to the defaults.
type Config struct {
	// BufferPoolPages is the page capacity of the buffer pool.
	BufferPoolPages int `yaml:"buffer_pool_pages"`
	// HistogramBuckets is the bucket count of every column histogram.
	HistogramBuckets int `yaml:"histogram_buckets"`
	// IOCostPerPage is the optimizer's cost of reading one page.
	IOCostPerPage float64 `yaml:"io_cost_per_page"`
	// StatsPath is where statistics snapshots are saved and loaded.
	// Empty disables snapshots.
	StatsPath string `yaml:"stats_path"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BufferPoolPages:  buffer.DefaultPages,
		HistogramBuckets: stats.DefaultBuckets,
		IOCostPerPage:    1.0,
	}
}

// LoadConfig reads a YAML configuration file. Fields left unset take their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if cfg.BufferPoolPages <= 0 {
		cfg.BufferPoolPages = buffer.DefaultPages
	}
	if cfg.HistogramBuckets <= 0 {
		cfg.HistogramBuckets = stats.DefaultBuckets
	}
	if cfg.IOCostPerPage <= 0 {
		cfg.IOCostPerPage = 1.0
	}
	return cfg, nil
}
