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

package rowexec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/rowexec"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
	"github.com/bigwa/qpmodel/sql/types"
)

// planAndLower plans `SELECT <selection> FROM <root>` exactly as
// engine's own pipeline would, without going through the memo: bind
// the selection against root, resolve ordinals top-down, then lower
// straight to a physical tree.
func planAndLower(t *testing.T, root sql.Node, selection []sql.Expr) sql.PhysicalNode {
	t.Helper()
	result := plan.NewResult(root, selection)
	resolved, err := result.ResolveOrdinal(nil, false)
	require.NoError(t, err)
	phys, err := plan.Lower(resolved)
	require.NoError(t, err)
	return phys
}

func TestScanTableWithFilterSelectsMatchingRows(t *testing.T) {
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(t, err)

	aref := plan.NewBaseTableRef("a", at)
	cols := aref.AllColumns()

	filter := plan.NewFilter(
		plan.NewGet(aref),
		expression.NewGreaterThan(expression.NewBoundColumn(cols[0]), expression.NewLiteral(types.IntValue(0))),
	)

	phys := planAndLower(t, filter, []sql.Expr{expression.NewBoundColumn(cols[0])})
	rows, err := rowexec.Collect(sql.NewEmptyContext(), phys, phys.Logical().Output())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	require.Equal(t, types.IntValue(1), rows[0][0])
	require.Equal(t, types.IntValue(2), rows[1][0])
}

func TestEquiJoinProducesMatchedRows(t *testing.T) {
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(t, err)
	bt, err := cat.Table("b")
	require.NoError(t, err)

	aref := plan.NewBaseTableRef("a", at)
	bref := plan.NewBaseTableRef("b", bt)
	acols := aref.AllColumns()
	bcols := bref.AllColumns()

	pred := expression.NewEquals(
		expression.NewBoundColumn(acols[0]),
		expression.NewBoundColumn(bcols[0]),
	)
	join := plan.NewJoin(plan.InnerJoin, plan.NewGet(aref), plan.NewGet(bref), pred)

	selection := []sql.Expr{
		expression.NewBoundColumn(acols[0]),
		expression.NewBoundColumn(bcols[0]),
	}
	phys := planAndLower(t, join, selection)

	// plan.Lower picks HashJoin directly whenever an equi-conjunct is
	// available and there's no outer ref, so this also pins down which
	// physical operator the direct (non-memo) path produces.
	_, isHash := phys.(*rowexec.HashJoin)
	require.True(t, isHash, "expected plan.Lower to choose HashJoin for a clean equi-join, got %T", phys)

	rows, err := rowexec.Collect(sql.NewEmptyContext(), phys, phys.Logical().Output())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, row[0], row[1], "a1 and b1 must be equal on every joined row")
	}
}

func TestOrderAndLimitTruncatesSortedOutput(t *testing.T) {
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(t, err)

	aref := plan.NewBaseTableRef("a", at)
	cols := aref.AllColumns()

	order := plan.NewOrder(plan.NewGet(aref), []sql.Expr{
		expression.NewOrder(expression.NewBoundColumn(cols[0]), true),
	})
	limit := plan.NewLimit(order, 1)

	phys := planAndLower(t, limit, []sql.Expr{expression.NewBoundColumn(cols[0])})
	rows, err := rowexec.Collect(sql.NewEmptyContext(), phys, phys.Logical().Output())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	require.Equal(t, types.IntValue(2), rows[0][0])
}
