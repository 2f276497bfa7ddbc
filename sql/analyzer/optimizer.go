package analyzer

import (
	"math"
	"math/bits"
	"sort"
	"strings"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/stats"
)

// nonEqJoinSelectivity is the fixed fraction of the cross product assumed
// to survive a non-equality join predicate.
const nonEqJoinSelectivity = 0.3

// joinOptimizer orders the joins of a logical plan by enumerating subsets
// of the join list, Selinger-style: the best plan of every subset is built
// by extending the best plan of each subset one join smaller. Subsets are
// keyed by bitmask over the join list, so join identity is positional.
type joinOptimizer struct {
	plan  *LogicalPlan
	joins []JoinNode

	// filtered base-table cardinality and full scan cost per alias
	cards map[string]int
	costs map[string]float64
}

// subplan is the best plan found for one subset of the joins.
type subplan struct {
	cost    float64
	card    int
	order   []JoinNode
	aliases map[string]bool
}

// aliasKey is the tie-break key: the plan's join order flattened to its
// alias sequence.
func (s *subplan) aliasKey() string {
	parts := make([]string, 0, len(s.order)*2)
	for _, j := range s.order {
		parts = append(parts, j.LeftAlias, j.RightAlias)
	}
	return strings.Join(parts, ",")
}

// orderJoins returns the plan's joins in the cheapest order found, each
// oriented the way it should be executed. selectivities holds the product
// of the filter selectivities applied to each alias.
func (p *LogicalPlan) orderJoins(ctx *sql.Context, statsCat *stats.Catalog, selectivities map[string]float64) ([]JoinNode, error) {
	if len(p.joins) == 0 {
		return nil, nil
	}

	opt := &joinOptimizer{
		plan:  p,
		joins: p.joins,
		cards: make(map[string]int),
		costs: make(map[string]float64),
	}
	for _, scan := range p.scans {
		name, err := p.tableName(scan.Alias)
		if err != nil {
			return nil, err
		}
		ts, err := statsCat.Get(name)
		if err != nil {
			return nil, err
		}
		sel, ok := selectivities[scan.Alias]
		if !ok {
			sel = 1.0
		}
		card := ts.EstimateCardinality(sel)
		if card < 1 {
			card = 1
		}
		opt.cards[scan.Alias] = card
		opt.costs[scan.Alias] = ts.ScanCost()
	}

	best, err := opt.search()
	if err != nil {
		return nil, err
	}

	order := best.order
	if ctx != nil {
		aliases := make([]string, 0, len(order))
		for _, j := range order {
			aliases = append(aliases, j.LeftAlias+"-"+j.RightAlias)
		}
		ctx.Logger().WithField("order", strings.Join(aliases, ",")).
			Debug("join order chosen")
	}
	return order, nil
}

// search runs the subset DP and returns the best plan over all joins.
func (o *joinOptimizer) search() (*subplan, error) {
	n := len(o.joins)
	best := make([]*subplan, 1<<uint(n))

	masks := make([]int, 0, (1<<uint(n))-1)
	for mask := 1; mask < 1<<uint(n); mask++ {
		masks = append(masks, mask)
	}
	sort.Slice(masks, func(i, j int) bool {
		return bits.OnesCount(uint(masks[i])) < bits.OnesCount(uint(masks[j]))
	})

	for _, mask := range masks {
		var winner *subplan
		for j := 0; j < n; j++ {
			if mask&(1<<uint(j)) == 0 {
				continue
			}
			sub := mask &^ (1 << uint(j))
			var base *subplan
			if sub != 0 {
				base = best[sub]
				if base == nil {
					continue
				}
			}
			cand := o.extend(base, o.joins[j])
			if cand == nil {
				continue
			}
			if winner == nil || cand.cost < winner.cost ||
				(cand.cost == winner.cost && cand.aliasKey() < winner.aliasKey()) {
				winner = cand
			}
		}
		best[mask] = winner
	}

	result := best[(1<<uint(n))-1]
	if result == nil {
		return nil, ErrDisconnectedJoins.New(n)
	}
	return result, nil
}

// extend returns the best way to add one join to a base plan, considering
// both orientations of the join's sides. The join's left side must already
// be part of the base plan (or the base must be empty); the right side
// enters as a freshly scanned table or a materialized subplan, and when it
// is already part of the base the join applies as a selection. Returns nil
// when the join cannot connect to the base.
func (o *joinOptimizer) extend(base *subplan, j JoinNode) *subplan {
	orientations := []JoinNode{j}
	// Subplan joins keep the subplan on the right; there is nothing to
	// scan on that side and no sane swapped form.
	if j.Subplan == nil {
		orientations = append(orientations, j.swap())
	}

	var winner *subplan
	for _, join := range orientations {
		cand := o.extendOriented(base, join)
		if cand == nil {
			continue
		}
		if winner == nil || cand.cost < winner.cost ||
			(cand.cost == winner.cost && cand.aliasKey() < winner.aliasKey()) {
			winner = cand
		}
	}
	return winner
}

func (o *joinOptimizer) extendOriented(base *subplan, join JoinNode) *subplan {
	leftCost, leftCard := o.costs[join.LeftAlias], o.cards[join.LeftAlias]
	aliases := map[string]bool{join.LeftAlias: true}

	if base != nil {
		if !base.aliases[join.LeftAlias] {
			return nil
		}
		leftCost, leftCard = base.cost, base.card
		for alias := range base.aliases {
			aliases[alias] = true
		}
	}

	var rightCost float64
	var rightCard int
	switch {
	case join.Subplan != nil:
		// A materialized subplan costs nothing further to read and is
		// assumed to produce a single value.
		rightCost, rightCard = 0, 1
	case base != nil && base.aliases[join.RightAlias]:
		// Both sides already inside the plan: the predicate applies as a
		// selection, adding no input cost.
		return o.asSelection(base, join)
	default:
		rightCost, rightCard = o.costs[join.RightAlias], o.cards[join.RightAlias]
		aliases[join.RightAlias] = true
	}

	return &subplan{
		cost:    o.joinCost(join.Op, leftCost, leftCard, rightCost, rightCard),
		card:    o.joinCardinality(join, leftCard, rightCard),
		order:   appendJoin(base, join),
		aliases: aliases,
	}
}

// asSelection folds a join whose sides are both already joined into the
// plan as a predicate application.
func (o *joinOptimizer) asSelection(base *subplan, join JoinNode) *subplan {
	sel := nonEqJoinSelectivity
	if join.Op == sql.Equals {
		denom := o.cards[join.LeftAlias]
		if r := o.cards[join.RightAlias]; r > denom {
			denom = r
		}
		sel = 1 / float64(denom)
	}
	card := int(math.Round(float64(base.card) * sel))
	if card < 1 {
		card = 1
	}
	return &subplan{
		cost:    base.cost,
		card:    card,
		order:   appendJoin(base, join),
		aliases: base.aliases,
	}
}

// joinCost estimates the cost of executing the join: a hash join reads the
// build side once and streams the probe side; a nested loop rescans the
// inner side once per outer row.
func (o *joinOptimizer) joinCost(op sql.CompareOp, leftCost float64, leftCard int, rightCost float64, rightCard int) float64 {
	if op == sql.Equals {
		return leftCost + float64(leftCard) + rightCost
	}
	return leftCost + float64(leftCard)*rightCost +
		float64(leftCard)*float64(rightCard)
}

// joinCardinality estimates the output cardinality of a join. Equality on
// a primary key cannot multiply the other side; equality on arbitrary
// fields is assumed to keep the larger input's cardinality. Other
// predicates keep a fixed fraction of the cross product.
func (o *joinOptimizer) joinCardinality(join JoinNode, leftCard, rightCard int) int {
	if join.Op != sql.Equals {
		card := int(math.Round(nonEqJoinSelectivity * float64(leftCard) * float64(rightCard)))
		if card < 1 {
			card = 1
		}
		return card
	}

	leftPK := o.isPrimaryKey(join.LeftAlias, join.LeftField)
	rightPK := join.Subplan == nil && o.isPrimaryKey(join.RightAlias, join.RightField)
	switch {
	case leftPK && rightPK:
		if leftCard < rightCard {
			return leftCard
		}
		return rightCard
	case leftPK:
		return rightCard
	case rightPK:
		return leftCard
	default:
		if leftCard > rightCard {
			return leftCard
		}
		return rightCard
	}
}

func (o *joinOptimizer) isPrimaryKey(alias, field string) bool {
	tableID, ok := o.plan.aliases[alias]
	if !ok {
		return false
	}
	return o.plan.catalog.PrimaryKey(tableID) == field
}

func appendJoin(base *subplan, join JoinNode) []JoinNode {
	if base == nil {
		return []JoinNode{join}
	}
	order := make([]JoinNode, 0, len(base.order)+1)
	order = append(order, base.order...)
	return append(order, join)
}
