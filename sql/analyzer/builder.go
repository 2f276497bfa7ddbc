package analyzer

import (
	"github.com/spf13/cast"

	"github.com/skiffdb/skiff/sql"
	"github.com/skiffdb/skiff/sql/expression"
	"github.com/skiffdb/skiff/sql/plan"
	"github.com/skiffdb/skiff/sql/stats"
)

// PhysicalPlan turns the logical plan into an operator tree: scans wrapped
// in filters, joins composed in optimizer order, then the optional
// aggregate, order-by and projection.
func (p *LogicalPlan) PhysicalPlan(ctx *sql.Context, fetcher sql.PageFetcher, statsCat *stats.Catalog) (sql.Operator, error) {
	if len(p.scans) == 0 {
		return nil, ErrEmptyPlan.New()
	}

	subplans := make(map[string]sql.Operator, len(p.scans))
	selectivities := make(map[string]float64, len(p.scans))
	for _, scan := range p.scans {
		file, err := p.catalog.Table(scan.TableID)
		if err != nil {
			return nil, err
		}
		subplans[scan.Alias] = plan.NewSeqScan(file, fetcher, scan.Alias)
		selectivities[scan.Alias] = 1.0
	}

	for _, f := range p.filters {
		if err := p.applyFilter(f, subplans, selectivities, statsCat); err != nil {
			return nil, err
		}
	}

	if len(p.joins) > 0 {
		if statsCat == nil {
			return nil, stats.ErrNoStats.New("*")
		}
		ordered, err := p.orderJoins(ctx, statsCat, selectivities)
		if err != nil {
			return nil, err
		}
		if err := p.applyJoins(ordered, subplans); err != nil {
			return nil, err
		}
	}

	if len(subplans) > 1 {
		return nil, ErrDisconnectedJoins.New(len(subplans))
	}
	var cur sql.Operator
	for _, op := range subplans {
		cur = op
	}

	aggregated, cur, err := p.applyAggregate(cur)
	if err != nil {
		return nil, err
	}

	if p.hasOrder {
		idx, err := p.resolveOutput(cur.Schema(), p.orderBy)
		if err != nil {
			return nil, err
		}
		cur = plan.NewSort(idx, p.orderAsc, cur)
	}

	if aggregated {
		// the aggregate's output already is the select list
		return cur, nil
	}
	return p.applyProject(cur)
}

func (p *LogicalPlan) applyFilter(f FilterNode, subplans map[string]sql.Operator, selectivities map[string]float64, statsCat *stats.Catalog) error {
	cur, ok := subplans[f.Alias]
	if !ok {
		return ErrUnknownAlias.New(f.Alias)
	}
	schema := cur.Schema()
	idx := schema.IndexOf(f.Field, f.Alias)
	if idx < 0 {
		return sql.ErrColumnNotFound.New(f.Alias + "." + f.Field)
	}
	typ := schema[idx].Type

	value, err := coerceConstant(typ, f.Constant)
	if err != nil {
		return err
	}

	cond := expression.NewComparison(f.Op,
		expression.NewGetField(idx, typ, f.Alias+"."+f.Field),
		expression.NewLiteral(value, typ))
	subplans[f.Alias] = plan.NewFilter(cond, cur)

	if statsCat == nil {
		return nil
	}
	name, err := p.tableName(f.Alias)
	if err != nil {
		return err
	}
	ts, err := statsCat.Get(name)
	if err != nil {
		// stats are advisory for filters; joins enforce their presence
		return nil
	}
	base, err := p.catalog.Schema(p.aliases[f.Alias])
	if err != nil {
		return err
	}
	sel, err := ts.EstimateSelectivity(base.IndexOf(f.Field, ""), f.Op, value)
	if err != nil {
		return err
	}
	selectivities[f.Alias] *= sel
	return nil
}

func (p *LogicalPlan) applyJoins(ordered []JoinNode, subplans map[string]sql.Operator) error {
	equiv := make(map[string]string)
	canonical := func(alias string) string {
		for {
			next, ok := equiv[alias]
			if !ok {
				return alias
			}
			alias = next
		}
	}

	for _, j := range ordered {
		leftAlias := canonical(j.LeftAlias)
		leftPlan, ok := subplans[leftAlias]
		if !ok {
			return ErrUnknownAlias.New(j.LeftAlias)
		}
		leftSchema := leftPlan.Schema()
		lidx := leftSchema.IndexOf(j.LeftField, j.LeftAlias)
		if lidx < 0 {
			return sql.ErrColumnNotFound.New(j.LeftAlias + "." + j.LeftField)
		}
		ltyp := leftSchema[lidx].Type

		var (
			rightPlan  sql.Operator
			rightAlias string
			ridx       int
		)
		switch {
		case j.Subplan != nil:
			rightPlan = j.Subplan

		default:
			rightAlias = canonical(j.RightAlias)
			if rightAlias == leftAlias {
				// both sides already joined in: apply as a selection
				r2 := leftSchema.IndexOf(j.RightField, j.RightAlias)
				if r2 < 0 {
					return sql.ErrColumnNotFound.New(j.RightAlias + "." + j.RightField)
				}
				cond := expression.NewComparison(j.Op,
					expression.NewGetField(lidx, ltyp, j.LeftAlias+"."+j.LeftField),
					expression.NewGetField(r2, leftSchema[r2].Type, j.RightAlias+"."+j.RightField))
				subplans[leftAlias] = plan.NewFilter(cond, leftPlan)
				continue
			}
			var ok bool
			rightPlan, ok = subplans[rightAlias]
			if !ok {
				return ErrUnknownAlias.New(j.RightAlias)
			}
			ridx = rightPlan.Schema().IndexOf(j.RightField, j.RightAlias)
			if ridx < 0 {
				return sql.ErrColumnNotFound.New(j.RightAlias + "." + j.RightField)
			}
		}

		rightSchema := rightPlan.Schema()
		cond := expression.NewComparison(j.Op,
			expression.NewGetField(lidx, ltyp, j.LeftAlias+"."+j.LeftField),
			expression.NewGetField(len(leftSchema)+ridx, rightSchema[ridx].Type, rightSchema[ridx].QualifiedName()))

		subplans[leftAlias] = plan.NewJoin(cond, leftPlan, rightPlan)
		if rightAlias != "" {
			delete(subplans, rightAlias)
			equiv[rightAlias] = leftAlias
		}
	}
	return nil
}

// applyAggregate wraps the plan in a GroupBy when the select list asks for
// one. The select list must then be exactly the aggregate column, preceded
// by the group-by field when grouping.
func (p *LogicalPlan) applyAggregate(cur sql.Operator) (bool, sql.Operator, error) {
	var aggs, plains int
	for _, s := range p.selects {
		if s.HasAgg {
			aggs++
		} else {
			plains++
		}
	}
	if aggs == 0 && !p.hasGroup {
		return false, cur, nil
	}
	if aggs != 1 {
		return false, nil, ErrInvalidSelectList.New("exactly one aggregation column required")
	}

	groupField := plan.NoGroup
	if p.hasGroup {
		if plains != 1 || p.selects[0].HasAgg || p.selects[0].Field != p.groupBy {
			return false, nil, ErrInvalidSelectList.New("group-by field must be first in the select list")
		}
		idx, err := p.resolveOutput(cur.Schema(), p.groupBy)
		if err != nil {
			return false, nil, err
		}
		groupField = idx
	} else if plains != 0 {
		return false, nil, ErrInvalidSelectList.New("non-aggregated columns require grouping")
	}

	var agg SelectNode
	for _, s := range p.selects {
		if s.HasAgg {
			agg = s
		}
	}
	aggIdx, err := p.resolveOutput(cur.Schema(), agg.Field)
	if err != nil {
		return false, nil, err
	}

	return true, plan.NewGroupBy(aggIdx, groupField, agg.Agg, cur), nil
}

func (p *LogicalPlan) applyProject(cur sql.Operator) (sql.Operator, error) {
	schema := cur.Schema()

	var fields []int
	if len(p.selects) == 0 {
		return cur, nil
	}
	for _, s := range p.selects {
		if s.Field == "*" {
			for i := range schema {
				fields = append(fields, i)
			}
			continue
		}
		idx, err := p.resolveOutput(schema, s.Field)
		if err != nil {
			return nil, err
		}
		fields = append(fields, idx)
	}

	types := make([]sql.Type, len(fields))
	for i, idx := range fields {
		types[i] = schema[idx].Type
	}
	return plan.NewProject(fields, types, cur), nil
}

// resolveOutput resolves a field name against an operator schema, trying
// the catalog-disambiguated form first and the raw name second (for
// computed columns like aggregates).
func (p *LogicalPlan) resolveOutput(schema sql.Schema, field string) (int, error) {
	if alias, name, err := p.disambiguate(field); err == nil {
		if idx := schema.IndexOf(name, alias); idx >= 0 {
			return idx, nil
		}
	}
	return schema.Resolve(field)
}

// coerceConstant converts a filter constant from its source form to the
// type of the field it compares against.
func coerceConstant(typ sql.Type, constant string) (interface{}, error) {
	switch typ {
	case sql.Int32:
		v, err := cast.ToInt32E(constant)
		if err != nil {
			return nil, sql.ErrTypeMismatch.New(typ, constant)
		}
		return v, nil
	default:
		if len(constant) > sql.StringLen {
			return nil, sql.ErrInvalidType.New(constant)
		}
		return constant, nil
	}
}
