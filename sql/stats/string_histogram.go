package stats

import (
	"github.com/dchest/siphash"

	"github.com/skiffdb/skiff/sql"
)

// Fixed SipHash keys so that the string→int mapping is stable across
// processes and stats snapshots.
const (
	strHashKey0 = 0x736b696666737461 // "skiffsta"
	strHashKey1 = 0x74737472686b6579 // "tstrhkey"
)

// strHashRange bounds the integer range strings are hashed into.
const strHashRange = 1 << 16

// StrHistogram estimates selectivities over string columns by hashing each
// string into a bounded integer range and delegating to an integer
// histogram over that range.
type StrHistogram struct {
	hist *IntHistogram
}

// NewStrHistogram creates a string histogram with the given bucket count.
func NewStrHistogram(buckets int) *StrHistogram {
	return &StrHistogram{hist: NewIntHistogram(buckets, 0, strHashRange-1)}
}

// AddValue records one occurrence of s.
func (h *StrHistogram) AddValue(s string) {
	h.hist.AddValue(hashString(s))
}

// Count returns the number of values recorded.
func (h *StrHistogram) Count() int { return h.hist.Count() }

// EstimateSelectivity estimates the fraction of recorded values satisfying
// "value op s". Hashing preserves equality but not order, so range
// estimates are only as good as the underlying histogram's spread.
func (h *StrHistogram) EstimateSelectivity(op sql.CompareOp, s string) float64 {
	return h.hist.EstimateSelectivity(op, hashString(s))
}

func hashString(s string) int {
	return int(siphash.Hash(strHashKey0, strHashKey1, []byte(s)) % strHashRange)
}
