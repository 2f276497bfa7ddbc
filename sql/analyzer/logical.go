// Package analyzer turns logical query plans into operator trees. It
// resolves names, estimates filter selectivities from table statistics,
// orders joins with a cost-based enumerator, and composes the physical
// operators.
package analyzer

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/skiffdb/skiff/sql"
)

var (
	// ErrDuplicateAlias is returned when two scans use the same alias.
	ErrDuplicateAlias = errors.NewKind("alias %q already names a scanned table")

	// ErrUnknownAlias is returned when a filter or join references an
	// alias no scan introduced.
	ErrUnknownAlias = errors.NewKind("alias %q does not name a scanned table")

	// ErrDisconnectedJoins is returned when the join predicates do not
	// connect all scanned tables into one plan.
	ErrDisconnectedJoins = errors.NewKind("disconnected joins: %d separate plans remain")

	// ErrInvalidSelectList is returned for malformed select lists around
	// aggregation and grouping.
	ErrInvalidSelectList = errors.NewKind("invalid select list: %s")

	// ErrEmptyPlan is returned when a plan has no scans.
	ErrEmptyPlan = errors.NewKind("logical plan has no scans")
)

// ScanNode introduces a base table under an alias.
type ScanNode struct {
	TableID int
	Alias   string
}

// FilterNode restricts one aliased table by comparing a field against a
// constant. The constant is kept in source form and coerced to the field
// type when the physical plan is built.
type FilterNode struct {
	Alias    string
	Field    string
	Op       sql.CompareOp
	Constant string
}

// JoinNode joins two aliased tables on a field comparison. A join whose
// right side is a materialized subplan (from a scalar subquery) has an
// empty RightAlias and a non-nil Subplan; subplan joins are never reordered to
// put the subplan on the left.
type JoinNode struct {
	LeftAlias  string
	LeftField  string
	RightAlias string
	RightField string
	Op         sql.CompareOp
	Subplan    sql.Operator
}

// swap returns the join with its sides exchanged and the operator
// mirrored. Only valid for table-table joins.
func (j JoinNode) swap() JoinNode {
	return JoinNode{
		LeftAlias:  j.RightAlias,
		LeftField:  j.RightField,
		RightAlias: j.LeftAlias,
		RightField: j.LeftField,
		Op:         j.Op.Swap(),
	}
}

// SelectNode is one output column: a field, optionally aggregated.
type SelectNode struct {
	Field  string
	Agg    sql.AggOp
	HasAgg bool
}

// LogicalPlan is the collection of scan, filter, join and output nodes a
// query is built from, before any ordering or physical decisions.
type LogicalPlan struct {
	catalog *sql.Catalog

	scans   []ScanNode
	filters []FilterNode
	joins   []JoinNode
	selects []SelectNode

	groupBy  string
	hasGroup bool

	orderBy  string
	orderAsc bool
	hasOrder bool

	aliases map[string]int
}

// NewLogicalPlan creates an empty plan resolving names against the given
// catalog.
func NewLogicalPlan(catalog *sql.Catalog) *LogicalPlan {
	return &LogicalPlan{
		catalog: catalog,
		aliases: make(map[string]int),
	}
}

// Scan adds a base table scan under the given alias.
func (p *LogicalPlan) Scan(tableID int, alias string) error {
	if _, ok := p.aliases[alias]; ok {
		return ErrDuplicateAlias.New(alias)
	}
	if _, err := p.catalog.Table(tableID); err != nil {
		return err
	}
	p.aliases[alias] = tableID
	p.scans = append(p.scans, ScanNode{TableID: tableID, Alias: alias})
	return nil
}

// Filter adds a predicate "field op constant". The field may be qualified
// ("alias.field") or bare; bare names must be unambiguous across scans.
func (p *LogicalPlan) Filter(field string, op sql.CompareOp, constant string) error {
	alias, name, err := p.disambiguate(field)
	if err != nil {
		return err
	}
	p.filters = append(p.filters, FilterNode{
		Alias:    alias,
		Field:    name,
		Op:       op,
		Constant: constant,
	})
	return nil
}

// Join adds a join predicate "leftField op rightField" between two scans.
func (p *LogicalPlan) Join(leftField string, op sql.CompareOp, rightField string) error {
	lAlias, lName, err := p.disambiguate(leftField)
	if err != nil {
		return err
	}
	rAlias, rName, err := p.disambiguate(rightField)
	if err != nil {
		return err
	}
	p.joins = append(p.joins, JoinNode{
		LeftAlias:  lAlias,
		LeftField:  lName,
		RightAlias: rAlias,
		RightField: rName,
		Op:         op,
	})
	return nil
}

// SubplanJoin adds a join of a scanned table against a materialized
// subplan. The subplan's first output column is the comparison key.
func (p *LogicalPlan) SubplanJoin(leftField string, op sql.CompareOp, subplan sql.Operator) error {
	lAlias, lName, err := p.disambiguate(leftField)
	if err != nil {
		return err
	}
	p.joins = append(p.joins, JoinNode{
		LeftAlias: lAlias,
		LeftField: lName,
		Op:        op,
		Subplan:   subplan,
	})
	return nil
}

// Select appends an output field. "*" selects every field of the joined
// result.
func (p *LogicalPlan) Select(field string) error {
	if field != "*" {
		if _, _, err := p.disambiguate(field); err != nil {
			return err
		}
	}
	p.selects = append(p.selects, SelectNode{Field: field})
	return nil
}

// SelectAgg appends an aggregated output column.
func (p *LogicalPlan) SelectAgg(field string, op sql.AggOp) error {
	if _, _, err := p.disambiguate(field); err != nil {
		return err
	}
	p.selects = append(p.selects, SelectNode{Field: field, Agg: op, HasAgg: true})
	return nil
}

// GroupBy sets the grouping field.
func (p *LogicalPlan) GroupBy(field string) error {
	if _, _, err := p.disambiguate(field); err != nil {
		return err
	}
	p.groupBy = field
	p.hasGroup = true
	return nil
}

// OrderBy sets the output ordering.
func (p *LogicalPlan) OrderBy(field string, ascending bool) error {
	if _, _, err := p.disambiguate(field); err != nil {
		return err
	}
	p.orderBy = field
	p.orderAsc = ascending
	p.hasOrder = true
	return nil
}

// disambiguate resolves a possibly qualified field name to the alias that
// owns it and its bare column name. Bare names matching columns in more
// than one scanned table are ambiguous.
func (p *LogicalPlan) disambiguate(field string) (alias, name string, err error) {
	name, alias = sql.SplitQualifiedName(field)
	if alias != "" {
		tableID, ok := p.aliases[alias]
		if !ok {
			return "", "", ErrUnknownAlias.New(alias)
		}
		schema, err := p.catalog.Schema(tableID)
		if err != nil {
			return "", "", err
		}
		if schema.IndexOf(name, "") < 0 {
			return "", "", sql.ErrColumnNotFound.New(field)
		}
		return alias, name, nil
	}

	for _, scan := range p.scans {
		schema, err := p.catalog.Schema(scan.TableID)
		if err != nil {
			return "", "", err
		}
		if schema.IndexOf(name, "") < 0 {
			continue
		}
		if alias != "" {
			return "", "", sql.ErrAmbiguousColumn.New(field)
		}
		alias = scan.Alias
	}
	if alias == "" {
		return "", "", sql.ErrColumnNotFound.New(field)
	}
	return alias, name, nil
}

// tableName returns the base table name an alias scans.
func (p *LogicalPlan) tableName(alias string) (string, error) {
	tableID, ok := p.aliases[alias]
	if !ok {
		return "", ErrUnknownAlias.New(alias)
	}
	return p.catalog.TableName(tableID)
}
