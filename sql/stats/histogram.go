// Package stats has the per-table statistics backing the join optimizer:
// equi-width histograms per column, selectivity and cardinality estimates,
// and scan costs.
package stats

import (
	"fmt"
	"strings"

	"github.com/skiffdb/skiff/sql"
)

// IntHistogram is a fixed-width histogram over a known integer range.
// Values are assigned to buckets of equal width; selectivity estimates
// interpolate linearly inside the bucket holding the predicate constant.
type IntHistogram struct {
	buckets    []int
	min, max   int
	bucketSize int
	total      int
}

// NewIntHistogram creates a histogram of the given bucket count over the
// inclusive range [min, max].
func NewIntHistogram(buckets, min, max int) *IntHistogram {
	width := (max - min + 1 + buckets - 1) / buckets
	if width < 1 {
		width = 1
	}
	return &IntHistogram{
		buckets:    make([]int, buckets),
		min:        min,
		max:        max,
		bucketSize: width,
	}
}

// AddValue records one occurrence of v.
func (h *IntHistogram) AddValue(v int) {
	if v < h.min || v > h.max {
		return
	}
	h.buckets[h.bucketIndex(v)]++
	h.total++
}

// Count returns the number of values recorded.
func (h *IntHistogram) Count() int { return h.total }

func (h *IntHistogram) bucketIndex(v int) int {
	return (v - h.min) / h.bucketSize
}

func (h *IntHistogram) bucketMin(b int) int {
	return h.min + b*h.bucketSize
}

func (h *IntHistogram) bucketMax(b int) int {
	return h.min + (b+1)*h.bucketSize - 1
}

// EstimateSelectivity estimates the fraction of recorded values satisfying
// "value op v". Results are in [0, 1].
func (h *IntHistogram) EstimateSelectivity(op sql.CompareOp, v int) float64 {
	if h.total == 0 {
		return 0
	}

	switch op {
	case sql.Equals:
		if v < h.min || v > h.max {
			return 0
		}
		b := h.bucketIndex(v)
		return float64(h.buckets[b]) / float64(h.bucketSize) / float64(h.total)

	case sql.NotEquals:
		return 1 - h.EstimateSelectivity(sql.Equals, v)

	case sql.GreaterThan:
		return h.selectivityAbove(v, 0)

	case sql.GreaterThanOrEq:
		return h.selectivityAbove(v, 1)

	case sql.LessThan:
		return h.selectivityBelow(v, 0)

	case sql.LessThanOrEq:
		return h.selectivityBelow(v, 1)
	}
	return 0
}

// selectivityAbove estimates the fraction of values greater than v, with
// inclusive widening the in-bucket range by one to include v itself.
func (h *IntHistogram) selectivityAbove(v, inclusive int) float64 {
	if inclusive == 0 && v >= h.max {
		return 0
	}
	if v > h.max {
		return 0
	}
	if v < h.min {
		return 1
	}

	b := h.bucketIndex(v)
	part := float64(h.buckets[b]) *
		float64(h.bucketMax(b)-v+inclusive) / float64(h.bucketSize) /
		float64(h.total)

	var rest int
	for i := b + 1; i < len(h.buckets); i++ {
		rest += h.buckets[i]
	}
	return part + float64(rest)/float64(h.total)
}

// selectivityBelow mirrors selectivityAbove for less-than predicates.
func (h *IntHistogram) selectivityBelow(v, inclusive int) float64 {
	if v < h.min {
		return 0
	}
	if v > h.max {
		return 1
	}
	if v == h.min && inclusive == 0 {
		return 0
	}

	b := h.bucketIndex(v)
	part := float64(h.buckets[b]) *
		float64(v-h.bucketMin(b)+inclusive) / float64(h.bucketSize) /
		float64(h.total)

	var rest int
	for i := 0; i < b; i++ {
		rest += h.buckets[i]
	}
	return part + float64(rest)/float64(h.total)
}

func (h *IntHistogram) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "histogram [%d, %d] width %d:", h.min, h.max, h.bucketSize)
	for i, count := range h.buckets {
		fmt.Fprintf(&sb, " [%d-%d]=%d", h.bucketMin(i), h.bucketMax(i), count)
	}
	return sb.String()
}
