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

package plan

import (
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// collectLeafColumns walks each of exprs pre-order and returns every
// distinct (by table+column name) non-outer ColExpr it finds. Outer
// references are excluded: they're satisfied from ctx params at eval
// time, never from a child's output (§4.C).
func collectLeafColumns(exprs ...sql.Expr) []*expression.ColExpr {
	var out []*expression.ColExpr
	seen := make(map[string]bool)
	for _, e := range exprs {
		if e == nil {
			continue
		}
		sql.VisitEach(e, func(x sql.Expr) bool {
			if col, ok := x.(*expression.ColExpr); ok && !col.IsOuterRef {
				key := col.TabName + "." + col.ColName
				if !seen[key] {
					seen[key] = true
					out = append(out, col)
				}
			}
			return true
		})
	}
	return out
}

func colsToExprs(cols []*expression.ColExpr) []sql.Expr {
	out := make([]sql.Expr, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func containsRawColumn(e sql.Expr) bool {
	return sql.VisitEachExists(e, func(x sql.Expr) bool {
		col, ok := x.(*expression.ColExpr)
		return ok && !col.IsOuterRef
	})
}

// pushdown is the ordinal-resolution workhorse shared by Filter,
// Order and Result: it gathers every leaf column ownExprs reference,
// resolves child against exactly that list, then rewrites each of
// ownExprs by replacing every leaf occurrence with a positional
// ExprRef into the child's new output (§4.E).
func pushdown(child sql.Node, ownExprs []sql.Expr) (sql.Node, []sql.Expr, error) {
	leaves := collectLeafColumns(ownExprs...)
	newChild, err := child.ResolveOrdinal(colsToExprs(leaves), false)
	if err != nil {
		return nil, nil, err
	}
	rewritten := make([]sql.Expr, len(ownExprs))
	for i, e := range ownExprs {
		rewritten[i] = rewriteLeaves(e, leaves)
	}
	return newChild, rewritten, nil
}

func rewriteLeaves(e sql.Expr, leaves []*expression.ColExpr) sql.Expr {
	if e == nil {
		return nil
	}
	r := e
	for i, leaf := range leaves {
		r = expression.SearchReplace(r, leaf, expression.NewExprRef(leaf, i))
	}
	return r
}
