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

// Agg is the GROUP BY / aggregate node of spec §4.E. Keys are the
// bound GROUP BY expressions; Aggs are the distinct AggFunc
// occurrences found anywhere in the selection/having; Having is the
// optional post-aggregate filter.
type Agg struct {
	base
	Child  sql.Node
	Keys   []sql.Expr
	Aggs   []sql.Expr
	Having sql.Expr
}

func NewAgg(child sql.Node, keys, aggs []sql.Expr, having sql.Expr) *Agg {
	return &Agg{Child: child, Keys: keys, Aggs: aggs, Having: having}
}

func (a *Agg) Children() []sql.Node { return []sql.Node{a.Child} }

func (a *Agg) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Agg takes exactly one child")
	}
	n := *a
	n.Child = children[0]
	return &n, nil
}

func (a *Agg) FilterExpr() sql.Expr { return a.Having }

func (a *Agg) String() string { return "Agg" }

// ResolveOrdinal pushes only key-pure and aggregate-argument columns
// to the child, rewrites every whole AggFunc occurrence in the
// requested output into ExprRef(agg, nkeys+index(agg)) and every
// whole key expression into ExprRef(key, index(key)); any ColExpr
// surviving that rewrite fails MissingGroupBy (§4.E).
func (a *Agg) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	keyLeaves := collectLeafColumns(a.Keys...)
	var argExprs []sql.Expr
	for _, ag := range a.Aggs {
		if af, ok := ag.(*expression.AggFunc); ok && af.Arg != nil {
			argExprs = append(argExprs, af.Arg)
		}
	}
	allLeaves := dedupCols(append(append([]*expression.ColExpr{}, keyLeaves...), collectLeafColumns(argExprs...)...))

	newChild, err := a.Child.ResolveOrdinal(colsToExprs(allLeaves), false)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(allLeaves))
	for i, c := range allLeaves {
		index[c.TabName+"."+c.ColName] = i
	}
	rewriteLeaf := func(e sql.Expr) sql.Expr {
		r := e
		for _, c := range allLeaves {
			r = expression.SearchReplace(r, c, expression.NewExprRef(c, index[c.TabName+"."+c.ColName]))
		}
		return r
	}

	newKeys := make([]sql.Expr, len(a.Keys))
	for i, k := range a.Keys {
		newKeys[i] = rewriteLeaf(k)
	}
	newAggs := make([]sql.Expr, len(a.Aggs))
	for i, ag := range a.Aggs {
		af, ok := ag.(*expression.AggFunc)
		if !ok || af.Arg == nil {
			newAggs[i] = ag
			continue
		}
		rebuilt, err := af.WithChildren(rewriteLeaf(af.Arg))
		if err != nil {
			return nil, err
		}
		newAggs[i] = rebuilt
	}

	nkeys := len(newKeys)
	rewriteOutput := func(e sql.Expr) (sql.Expr, error) {
		if e == nil {
			return nil, nil
		}
		r := e
		for i, ag := range a.Aggs {
			r = expression.SearchReplace(r, ag, expression.NewExprRef(newAggs[i], nkeys+i))
		}
		for i, k := range a.Keys {
			r = expression.SearchReplace(r, k, expression.NewExprRef(newKeys[i], i))
		}
		if containsRawColumn(r) {
			return nil, sql.ErrMissingGroupBy.New(r.String())
		}
		return r, nil
	}

	out := make([]sql.Expr, len(requested))
	for i, e := range requested {
		re, err := rewriteOutput(e)
		if err != nil {
			return nil, err
		}
		out[i] = re
	}
	var having sql.Expr
	if a.Having != nil {
		having, err = rewriteOutput(a.Having)
		if err != nil {
			return nil, err
		}
	}
	return &Agg{base: base{out: out}, Child: newChild, Keys: newKeys, Aggs: newAggs, Having: having}, nil
}

func dedupCols(cols []*expression.ColExpr) []*expression.ColExpr {
	seen := make(map[string]bool, len(cols))
	out := make([]*expression.ColExpr, 0, len(cols))
	for _, c := range cols {
		key := c.TabName + "." + c.ColName
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
