// Copyright 2024 The qpmodel Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/rowexec"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// buildEquiJoin plans `SELECT * FROM left JOIN right ON left.1 = right.1`
// (all four columns of each side projected), without going through a
// parser: left/right name two of the a/b/c/d fixture tables.
func buildEquiJoin(t *testing.T, cat *catalog.Catalog, left, right string) *plan.Result {
	t.Helper()

	lt, err := cat.Table(left)
	require.NoError(t, err)
	rt, err := cat.Table(right)
	require.NoError(t, err)

	lref := plan.NewBaseTableRef(left, lt)
	rref := plan.NewBaseTableRef(right, rt)
	lget := plan.NewGet(lref)
	rget := plan.NewGet(rref)

	lcols := lref.AllColumns()
	rcols := rref.AllColumns()

	pred := expression.NewEquals(
		expression.NewBoundColumn(lcols[0]),
		expression.NewBoundColumn(rcols[0]),
	)
	join := plan.NewJoin(plan.InnerJoin, lget, rget, pred)

	var selection []sql.Expr
	for _, c := range lcols {
		selection = append(selection, expression.NewBoundColumn(c))
	}
	for _, c := range rcols {
		selection = append(selection, expression.NewBoundColumn(c))
	}

	result := plan.NewResult(join, selection)
	resolved, err := result.ResolveOrdinal(nil, false)
	require.NoError(t, err)
	return resolved.(*plan.Result)
}

// resolvedJoin pulls the *plan.Join straight out of a resolved Result,
// the shape every physicalCandidates/signature call in this package
// expects.
func resolvedJoin(t *testing.T, r *plan.Result) *plan.Join {
	t.Helper()
	j, ok := r.Children()[0].(*plan.Join)
	require.True(t, ok, "Result child is not a Join: %T", r.Children()[0])
	return j
}

func TestSignatureCommutativeJoinOrderShared(t *testing.T) {
	cat := catalog.NewFixtureCatalog()

	ab := resolvedJoin(t, buildEquiJoin(t, cat, "a", "b"))
	ba := resolvedJoin(t, buildEquiJoin(t, cat, "b", "a"))

	// Enqueue each join's own two scans independently: their group ids
	// within a single Memo are what the join's own signature sorts.
	m := NewMemo()
	abLeft, err := m.enqueueNode(ab.Left)
	require.NoError(t, err)
	abRight, err := m.enqueueNode(ab.Right)
	require.NoError(t, err)
	baLeft, err := m.enqueueNode(ba.Left)
	require.NoError(t, err)
	baRight, err := m.enqueueNode(ba.Right)
	require.NoError(t, err)

	abPlaceholder, err := ab.WithChildren(
		&MemoRef{m: m, groupID: abLeft, out: m.groups[abLeft].Output()},
		&MemoRef{m: m, groupID: abRight, out: m.groups[abRight].Output()},
	)
	require.NoError(t, err)
	baPlaceholder, err := ba.WithChildren(
		&MemoRef{m: m, groupID: baLeft, out: m.groups[baLeft].Output()},
		&MemoRef{m: m, groupID: baRight, out: m.groups[baRight].Output()},
	)
	require.NoError(t, err)

	sigAB := signature(abPlaceholder, []int{abLeft, abRight})
	sigBA := signature(baPlaceholder, []int{baLeft, baRight})
	require.Equal(t, sigAB, sigBA, "A join B and B join A on the same predicate must share a signature")
}

func TestSignatureLeftJoinNotCommutative(t *testing.T) {
	cat := catalog.NewFixtureCatalog()

	ab := resolvedJoin(t, buildEquiJoin(t, cat, "a", "b"))
	ab.Type = plan.LeftJoin

	m := NewMemo()
	left, err := m.enqueueNode(ab.Left)
	require.NoError(t, err)
	right, err := m.enqueueNode(ab.Right)
	require.NoError(t, err)

	forward, err := ab.WithChildren(
		&MemoRef{m: m, groupID: left, out: m.groups[left].Output()},
		&MemoRef{m: m, groupID: right, out: m.groups[right].Output()},
	)
	require.NoError(t, err)
	reversed, err := ab.WithChildren(
		&MemoRef{m: m, groupID: right, out: m.groups[right].Output()},
		&MemoRef{m: m, groupID: left, out: m.groups[left].Output()},
	)
	require.NoError(t, err)

	sigForward := signature(forward, []int{left, right})
	sigReversed := signature(reversed, []int{right, left})
	require.NotEqual(t, sigForward, sigReversed, "Left join is not symmetric: swapping sides must change the signature")
}

func TestOptimizeProducesCheapestEquiJoinPlan(t *testing.T) {
	cat := catalog.NewFixtureCatalog()
	result := buildEquiJoin(t, cat, "a", "b")

	phys, err := Optimize(result, nil)
	require.NoError(t, err)
	require.NotNil(t, phys)

	cost := phys.Cost()
	require.Greater(t, cost, 0.0)
	require.False(t, math.IsInf(cost, 1))

	rows, err := rowexec.Collect(sql.NewEmptyContext(), phys, result.Output())
	require.NoError(t, err)
	// The fixture tables share a1==b1 on exactly one row per value in
	// {0,1,2}, so the equi-join returns exactly three rows, each eight
	// columns wide (four from each side).
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Len(t, row, 8)
	}
}

func TestExploreFailsNoPhysicalPlanOnEmptyGroup(t *testing.T) {
	m := NewMemo()
	gid := m.nextID
	m.nextID++
	m.groups[gid] = &CGroup{ID: gid}
	m.bySig[42] = gid

	err := m.explore(gid, nil, make(map[int]bool))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no physical plan found for group")
}
