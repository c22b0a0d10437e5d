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

package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/ast"
	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/engine"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
	"github.com/bigwa/qpmodel/sql/types"
)

// col is a terser alias for expression.NewUnresolvedColumn, used
// throughout since every scenario here hand-builds its statement tree
// (no parser exists in this module).
func col(tab, name string) *expression.ColExpr { return expression.NewUnresolvedColumn(tab, name) }

func lit(i int64) *expression.Literal { return expression.NewLiteral(types.IntValue(i)) }

func fromTable(tab string) ast.FromItem {
	return ast.FromItem{Kind: ast.FromBaseTable, TableName: tab}
}

func intRows(vals ...int64) [][]int64 {
	out := make([][]int64, len(vals))
	for i, v := range vals {
		out[i] = []int64{v}
	}
	return out
}

func rowsAsInts(t *testing.T, rows []sql.Row) [][]int64 {
	t.Helper()
	out := make([][]int64, len(rows))
	for i, r := range rows {
		row := make([]int64, len(r))
		for j, v := range r {
			row[j] = v.Int()
		}
		out[i] = row
	}
	return out
}

// TestQuerySelectFiltersRows covers spec scenario 1: SELECT a1, a2
// FROM a WHERE a1 > 0.
func TestQuerySelectFiltersRows(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	stmt := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("a")},
		Where:     expression.NewGreaterThan(col("a", "a1"), lit(0)),
		Selection: []sql.Expr{col("a", "a1"), col("a", "a2")},
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, [][]int64{{1, 2}, {2, 3}}, rowsAsInts(t, result.Rows))
}

// TestQuerySelectInSubquery covers spec scenario 2: SELECT a1 FROM a
// WHERE a1 IN (SELECT b2 FROM b WHERE b1 < 2).
func TestQuerySelectInSubquery(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	inner := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("b")},
		Where:     expression.NewLessThan(col("b", "b1"), lit(2)),
		Selection: []sql.Expr{col("b", "b2")},
	}
	stmt := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("a")},
		Where:     expression.NewSubqueryIn(col("a", "a1"), inner, false),
		Selection: []sql.Expr{col("a", "a1")},
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, intRows(1, 2), rowsAsInts(t, result.Rows))
}

// TestQuerySelectGroupByHaving covers spec scenario 3: SELECT a1,
// SUM(a2) FROM a GROUP BY a1 HAVING SUM(a2) > 1.
func TestQuerySelectGroupByHaving(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	sumA2 := expression.NewAggFunc("SUM", col("a", "a2"))
	stmt := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("a")},
		Selection: []sql.Expr{col("a", "a1"), expression.NewAggFunc("SUM", col("a", "a2"))},
		GroupBy:   []sql.Expr{col("a", "a1")},
		Having:    expression.NewGreaterThan(sumA2, lit(1)),
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, [][]int64{{1, 2}, {2, 3}}, rowsAsInts(t, result.Rows))
}

// TestQuerySelectExistsSubquery covers spec scenario 4: SELECT a1 FROM
// a WHERE EXISTS (SELECT 1 FROM b WHERE b1 = a1).
func TestQuerySelectExistsSubquery(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	inner := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("b")},
		Where:     expression.NewEquals(col("b", "b1"), col("", "a1")),
		Selection: []sql.Expr{lit(1)},
	}
	stmt := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("a")},
		Where:     expression.NewSubqueryExists(inner, false),
		Selection: []sql.Expr{col("a", "a1")},
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, intRows(0, 1, 2), rowsAsInts(t, result.Rows))
}

// TestQueryCorrelatedSubqueryUnderJoinSeesItsOwnRow guards against the
// join operators publishing every left row's outer-ref param ahead of
// the main loop: SELECT a1 FROM a JOIN c ON a1 = c1 WHERE EXISTS
// (SELECT 1 FROM b WHERE b1 = a1 AND b3 > 3) correlates the subquery
// against a1, which must vary per output row rather than sticking to
// whichever row the join's left side happened to materialize last.
// Only a1 = 2 pairs with a b row whose b3 exceeds 3.
func TestQueryCorrelatedSubqueryUnderJoinSeesItsOwnRow(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	inner := &ast.SelectStmt{
		From: []ast.FromItem{fromTable("b")},
		Where: expression.NewAnd(
			expression.NewEquals(col("b", "b1"), col("", "a1")),
			expression.NewGreaterThan(col("b", "b3"), lit(3)),
		),
		Selection: []sql.Expr{lit(1)},
	}
	stmt := &ast.SelectStmt{
		From: []ast.FromItem{
			fromTable("a"),
			{Kind: ast.FromBaseTable, TableName: "c", JoinKind: "inner", On: expression.NewEquals(col("a", "a1"), col("c", "c1"))},
		},
		Where:     expression.NewSubqueryExists(inner, false),
		Selection: []sql.Expr{col("a", "a1")},
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, intRows(2), rowsAsInts(t, result.Rows))
}

// TestQuerySelectOrderByLimit covers spec scenario 5: SELECT a1 FROM a
// ORDER BY a2 DESC LIMIT 2.
func TestQuerySelectOrderByLimit(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	stmt := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("a")},
		Selection: []sql.Expr{col("a", "a1")},
		Orders:    []sql.Expr{expression.NewOrder(col("a", "a2"), true)},
		Limit:     lit(2),
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, intRows(2, 1), rowsAsInts(t, result.Rows))
}

// TestQuerySelectCTE covers spec scenario 6: WITH r AS (SELECT a1
// FROM a) SELECT * FROM r WHERE a1 = 1.
func TestQuerySelectCTE(t *testing.T) {
	e := engine.New(catalog.NewFixtureCatalog())
	stmt := &ast.SelectStmt{
		CTEs: map[string]*ast.SelectStmt{
			"r": {
				From:      []ast.FromItem{fromTable("a")},
				Selection: []sql.Expr{col("a", "a1")},
			},
		},
		From:      []ast.FromItem{{Kind: ast.FromCTE, TableName: "r"}},
		Where:     expression.NewEquals(col("", "a1"), lit(1)),
		Selection: []sql.Expr{expression.NewStar("")},
	}

	result, err := e.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Equal(t, intRows(1), rowsAsInts(t, result.Rows))
}

// TestQueryMemoMatchesDirectLoweringRows covers the §8 memo property
// for a single equi-join: with use_memo enabled, the extracted plan
// returns the same rows as the direct-lowering plan.
func TestQueryMemoMatchesDirectLoweringRows(t *testing.T) {
	cat := catalog.NewFixtureCatalog()
	stmt := &ast.SelectStmt{
		From: []ast.FromItem{
			fromTable("a"),
			{Kind: ast.FromBaseTable, TableName: "b", JoinKind: "inner", On: expression.NewEquals(col("a", "a1"), col("b", "b1"))},
		},
		Selection: []sql.Expr{col("a", "a1"), col("b", "b1")},
	}

	direct := engine.New(cat)
	directResult, err := direct.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.Len(t, directResult.Rows, 3)

	memoOpts := engine.DefaultOptions()
	memoOpts.Optimize.UseMemo = true
	withMemo := engine.NewWithOptions(cat, memoOpts)
	memoResult, err := withMemo.Query(sql.NewEmptyContext(), stmt)
	require.NoError(t, err)
	require.ElementsMatch(t, rowsAsInts(t, directResult.Rows), rowsAsInts(t, memoResult.Rows))
}

// TestQueryDDLAndDML exercises INSERT, CREATE TABLE, CREATE INDEX and
// ANALYZE end to end against a fresh catalog, then reads the new rows
// back out with a plain SELECT.
func TestQueryDDLAndDML(t *testing.T) {
	cat := catalog.New()
	e := engine.New(cat)
	ctx := sql.NewEmptyContext()

	_, err := e.Query(ctx, &ast.CreateTableStmt{
		Table: "t",
		Columns: []ast.ColumnSpec{
			{Name: "x1", Type: "int"},
			{Name: "x2", Type: "int"},
		},
	})
	require.NoError(t, err)

	_, err = e.Query(ctx, &ast.InsertStmt{
		Table: "t",
		Rows: [][]sql.Expr{
			{lit(10), lit(20)},
			{lit(30), lit(40)},
		},
	})
	require.NoError(t, err)

	_, err = e.Query(ctx, &ast.CreateIndexStmt{Name: "idx_x1", Table: "t", Columns: []string{"x1"}})
	require.NoError(t, err)

	_, err = e.Query(ctx, &ast.AnalyzeStmt{Table: "t"})
	require.NoError(t, err)

	table, err := cat.Table("t")
	require.NoError(t, err)
	require.Equal(t, 2, table.RowCountEstimate)
	require.Equal(t, []string{"idx_x1"}, table.Indexes)

	result, err := e.Query(ctx, &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("t")},
		Selection: []sql.Expr{col("t", "x1"), col("t", "x2")},
	})
	require.NoError(t, err)
	require.Equal(t, [][]int64{{10, 20}, {30, 40}}, rowsAsInts(t, result.Rows))
}

// TestExplainOmitsDuplicateLinesUnderProfiling guards the fix to the
// Profiling operator's transparent rendering: every operator must
// appear exactly once in the tree, whether or not profiling is on.
func TestExplainOmitsDuplicateLinesUnderProfiling(t *testing.T) {
	cat := catalog.NewFixtureCatalog()
	stmt := &ast.SelectStmt{
		From:      []ast.FromItem{fromTable("a")},
		Where:     expression.NewGreaterThan(col("a", "a1"), lit(0)),
		Selection: []sql.Expr{col("a", "a1")},
	}

	plain := engine.New(cat)
	plainTree, err := plain.Explain(stmt)
	require.NoError(t, err)
	plainLines := strings.Count(plainTree, "\n")
	require.True(t, plainLines > 0)

	profiled := engine.DefaultOptions()
	profiled.Profile.Enabled = true
	profiled.Explain.ShowCost = true
	profiled.Explain.ShowTableName = true
	profiled.Explain.ShowOutput = true
	withProfiling := engine.NewWithOptions(cat, profiled)
	profiledTree, err := withProfiling.Explain(stmt)
	require.NoError(t, err)

	require.Equal(t, plainLines, strings.Count(profiledTree, "\n"),
		"profiling must not change the number of rendered operator lines")
	require.Contains(t, profiledTree, "table=a")
	require.Contains(t, profiledTree, "cost=")
	require.Contains(t, profiledTree, "output=")
}
