package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skiffdb/skiff/sql"
)

func optimizerFixture(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)

	// small(10) with primary key, medium(1000), large(100)
	smallSchema := sql.Schema{
		{Name: "id", Type: sql.Int32},
		{Name: "v", Type: sql.Int32},
	}
	mediumSchema := sql.Schema{
		{Name: "sid", Type: sql.Int32},
		{Name: "x", Type: sql.Int32},
	}
	largeSchema := sql.Schema{
		{Name: "y", Type: sql.Int32},
		{Name: "z", Type: sql.Int32},
	}

	var small, medium, large []sql.Row
	for i := 0; i < 10; i++ {
		small = append(small, sql.NewRow(int32(i), int32(i*10)))
	}
	for i := 0; i < 1000; i++ {
		medium = append(medium, sql.NewRow(int32(i%10), int32(i%100)))
	}
	for i := 0; i < 100; i++ {
		large = append(large, sql.NewRow(int32(i), int32(i)))
	}

	env.table(t, "small", "id", smallSchema, small...)
	env.table(t, "medium", "", mediumSchema, medium...)
	env.table(t, "large", "", largeSchema, large...)
	return env
}

// the primary-key equijoin of the two smaller inputs must run first
func TestOrderJoinsPrefersPKJoin(t *testing.T) {
	require := require.New(t)
	env := optimizerFixture(t)

	p := NewLogicalPlan(env.catalog)
	smallID := mustTableID(t, env, "small")
	mediumID := mustTableID(t, env, "medium")
	largeID := mustTableID(t, env, "large")
	require.NoError(p.Scan(smallID, "s"))
	require.NoError(p.Scan(mediumID, "m"))
	require.NoError(p.Scan(largeID, "l"))
	require.NoError(p.Join("m.x", sql.Equals, "l.y"))
	require.NoError(p.Join("s.id", sql.Equals, "m.sid"))

	ordered, err := p.orderJoins(sql.NewEmptyContext(), env.stats, map[string]float64{})
	require.NoError(err)
	require.Len(ordered, 2)

	first := map[string]bool{ordered[0].LeftAlias: true, ordered[0].RightAlias: true}
	require.True(first["s"] && first["m"],
		"expected s-m joined first, got %v then %v", ordered[0], ordered[1])
}

func TestOrderJoinsSwapAdjustsOperator(t *testing.T) {
	require := require.New(t)

	j := JoinNode{
		LeftAlias: "a", LeftField: "x",
		RightAlias: "b", RightField: "y",
		Op: sql.GreaterThan,
	}
	swapped := j.swap()
	require.Equal("b", swapped.LeftAlias)
	require.Equal("y", swapped.LeftField)
	require.Equal("a", swapped.RightAlias)
	require.Equal(sql.LessThan, swapped.Op)
	require.Equal(j, swapped.swap())
}

func TestOrderJoinsDisconnected(t *testing.T) {
	require := require.New(t)
	env := optimizerFixture(t)

	extraSchema := sql.Schema{
		{Name: "p", Type: sql.Int32},
		{Name: "q", Type: sql.Int32},
	}
	env.table(t, "extra", "", extraSchema, sql.NewRow(int32(1), int32(2)))
	env.table(t, "extra2", "", extraSchema, sql.NewRow(int32(1), int32(2)))

	p := NewLogicalPlan(env.catalog)
	require.NoError(p.Scan(mustTableID(t, env, "small"), "s"))
	require.NoError(p.Scan(mustTableID(t, env, "medium"), "m"))
	require.NoError(p.Scan(mustTableID(t, env, "extra"), "e"))
	require.NoError(p.Scan(mustTableID(t, env, "extra2"), "e2"))
	require.NoError(p.Join("s.id", sql.Equals, "m.sid"))
	require.NoError(p.Join("e.p", sql.Equals, "e2.q"))

	_, err := p.orderJoins(sql.NewEmptyContext(), env.stats, map[string]float64{})
	require.True(ErrDisconnectedJoins.Is(err))
}

func TestJoinCardinalityRules(t *testing.T) {
	require := require.New(t)
	env := optimizerFixture(t)

	p := NewLogicalPlan(env.catalog)
	require.NoError(p.Scan(mustTableID(t, env, "small"), "s"))
	require.NoError(p.Scan(mustTableID(t, env, "medium"), "m"))

	opt := &joinOptimizer{plan: p}

	// pk on the left keeps the right cardinality
	pk := JoinNode{LeftAlias: "s", LeftField: "id", RightAlias: "m", RightField: "sid", Op: sql.Equals}
	require.Equal(1000, opt.joinCardinality(pk, 10, 1000))
	// pk on the right keeps the left cardinality
	require.Equal(1000, opt.joinCardinality(pk.swap(), 1000, 10))
	// no pk involved keeps the bigger input
	noPK := JoinNode{LeftAlias: "m", LeftField: "x", RightAlias: "m", RightField: "x", Op: sql.Equals}
	require.Equal(1000, opt.joinCardinality(noPK, 1000, 100))
	// non-equality keeps a fixed fraction of the cross product
	rng := JoinNode{LeftAlias: "s", LeftField: "id", RightAlias: "m", RightField: "sid", Op: sql.LessThan}
	require.Equal(30000, opt.joinCardinality(rng, 100, 1000))
	require.Equal(1, opt.joinCardinality(rng, 1, 1))
}

func TestJoinCostModel(t *testing.T) {
	require := require.New(t)

	opt := &joinOptimizer{}
	// hash join: build + probe
	require.Equal(10.0+100+20, opt.joinCost(sql.Equals, 10, 100, 20, 1000))
	// nested loop: rescan inner per outer row plus compare every pair
	require.Equal(10.0+100*20+100*1000, opt.joinCost(sql.LessThan, 10, 100, 20, 1000))
}

func mustTableID(t *testing.T, env *testEnv, name string) int {
	t.Helper()
	file, err := env.catalog.TableByName(name)
	require.NoError(t, err)
	return file.ID()
}
