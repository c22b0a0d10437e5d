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
	"github.com/bigwa/qpmodel/rowexec"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// Lower turns a fully ordinal-resolved logical plan into the physical
// tree rowexec runs (§4.E/§4.G). It is a direct, one-to-one lowering:
// no alternative physical shapes are considered here — that is the
// memo package's job when optimization is enabled (§4.F). Every
// sql.Subquery reachable from root is lowered too, so a correlated
// SubqueryExpr has a physical plan to Exec by the time rows start
// flowing.
func Lower(root sql.Node) (sql.PhysicalNode, error) {
	if err := LowerSubqueries(root); err != nil {
		return nil, err
	}
	return lowerNode(root)
}

func lowerNode(n sql.Node) (sql.PhysicalNode, error) {
	switch v := n.(type) {
	case *Get:
		return lowerGet(v)
	case *Filter:
		child, err := lowerNode(v.Child)
		if err != nil {
			return nil, err
		}
		return rowexec.NewFilter(v, child, v.Pred, v.Output()), nil
	case *Join:
		return lowerJoin(v)
	case *Agg:
		return lowerAgg(v)
	case *Order:
		return lowerOrder(v)
	case *Limit:
		child, err := lowerNode(v.Child)
		if err != nil {
			return nil, err
		}
		return rowexec.NewLimit(v, child, v.Count), nil
	case *FromQuery:
		child, err := lowerNode(v.Ref.Inner)
		if err != nil {
			return nil, err
		}
		return rowexec.NewFromQuery(v, v.RefKey(), child, v.Output()), nil
	case *SetOp:
		left, err := lowerNode(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := lowerNode(v.Right)
		if err != nil {
			return nil, err
		}
		return rowexec.NewSetOp(v, v.Kind, left, right), nil
	case *Result:
		child, err := lowerNode(v.Child)
		if err != nil {
			return nil, err
		}
		return rowexec.NewProject(v, child, v.Output()), nil
	default:
		return nil, sql.ErrEval.New("no lowering rule for node " + n.String())
	}
}

func lowerGet(g *Get) (sql.PhysicalNode, error) {
	switch ref := g.Ref.(type) {
	case *BaseTableRef:
		return rowexec.NewScanTable(g, g.RefKey(), ref.Table, g.Filter, g.Output()), nil
	case *ExternalTableRef:
		return rowexec.NewScanFile(g, g.RefKey(), ref.Table, g.Filter, g.Output()), nil
	default:
		return nil, sql.ErrEval.New("Get over unsupported table ref " + g.Ref.Alias())
	}
}

func lowerAgg(a *Agg) (sql.PhysicalNode, error) {
	child, err := lowerNode(a.Child)
	if err != nil {
		return nil, err
	}
	aggs := make([]sql.Aggregate, len(a.Aggs))
	for i, ag := range a.Aggs {
		af, ok := ag.(sql.Aggregate)
		if !ok {
			return nil, sql.ErrEval.New("aggregate expression does not implement sql.Aggregate: " + ag.String())
		}
		aggs[i] = af
	}
	return rowexec.NewHashAgg(a, child, a.Keys, aggs, a.Having, a.Output()), nil
}

func lowerOrder(o *Order) (sql.PhysicalNode, error) {
	child, err := lowerNode(o.Child)
	if err != nil {
		return nil, err
	}
	keys := make([]sql.Expr, len(o.Orders))
	desc := make([]bool, len(o.Orders))
	for i, e := range o.Orders {
		oe, ok := e.(*expression.OrderExpr)
		if !ok {
			return nil, sql.ErrEval.New("order term is not an OrderExpr: " + e.String())
		}
		keys[i] = oe.Target
		desc[i] = oe.Desc
	}
	return rowexec.NewOrder(o, child, keys, desc, o.Output()), nil
}

func lowerJoin(j *Join) (sql.PhysicalNode, error) {
	left, err := lowerNode(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := lowerNode(j.Right)
	if err != nil {
		return nil, err
	}
	leftWidth := len(j.Left.Output())
	rightWidth := len(j.Right.Output())
	kind, err := LowerJoinType(j.Type)
	if err != nil {
		return nil, err
	}

	if j.Pred != nil && !HasOuterRef(j.Left) {
		if buildKey, probeKey, ok := EquiJoinKey(j.Pred, leftWidth, rightWidth); ok {
			return rowexec.NewHashJoin(j, kind, left, right, j.Pred, buildKey, probeKey, leftWidth, rightWidth, j.Output()), nil
		}
	}
	return rowexec.NewNLJoin(j, kind, left, right, j.Pred, leftWidth, rightWidth, j.Output()), nil
}

func LowerJoinType(t JoinType) (rowexec.JoinKind, error) {
	switch t {
	case InnerJoin:
		return rowexec.JoinInner, nil
	case LeftJoin:
		return rowexec.JoinLeft, nil
	case RightJoin:
		return rowexec.JoinRight, nil
	case FullJoin:
		return rowexec.JoinFull, nil
	case CrossJoin:
		return rowexec.JoinCross, nil
	case SemiJoin:
		return rowexec.JoinSemi, nil
	case AntiSemiJoin:
		return rowexec.JoinAntiSemi, nil
	default:
		// MarkJoin/SingleJoin are never produced by CreatePlan (see
		// DESIGN.md): decorrelation goes through direct SubqueryExpr
		// evaluation instead, so reaching here means a rule was added
		// that assumes a lowering this package doesn't implement.
		return 0, sql.ErrEval.New("no physical lowering for join type " + t.String())
	}
}

// EquiJoinKey looks for a top-level Pred conjunct of the form
// left-side-column = right-side-column and, if found, returns a
// BuildKey re-indexed to the right child's own row (Index rebased by
// -leftWidth) and a ProbeKey usable against the left child's own row
// unchanged (its Index already falls in [0, leftWidth)).
func EquiJoinKey(pred sql.Expr, leftWidth, rightWidth int) (buildKey, probeKey sql.Expr, ok bool) {
	for _, conj := range sql.FlattenConjuncts(pred) {
		be, isBin := conj.(*expression.BinExpr)
		if !isBin || be.Op != "=" {
			continue
		}
		lref, lok := be.Left.(*expression.ExprRef)
		rref, rok := be.Right.(*expression.ExprRef)
		if !lok || !rok {
			continue
		}
		switch {
		case lref.Index < leftWidth && rref.Index >= leftWidth && rref.Index < leftWidth+rightWidth:
			return expression.NewExprRef(rref.Inner, rref.Index-leftWidth), lref, true
		case rref.Index < leftWidth && lref.Index >= leftWidth && lref.Index < leftWidth+rightWidth:
			return expression.NewExprRef(lref.Inner, lref.Index-leftWidth), rref, true
		}
	}
	return nil, nil, false
}

// HasOuterRef reports whether any base-table scan under n's subtree
// has a pending outer reference (§4.C). HashJoin is skipped in that
// case: its build side is materialized once up front, which would
// freeze the outer row a correlated predicate needs to see fresh on
// every left-row iteration (NLJoin's per-pair Pred re-evaluation has
// no such caching to go stale).
func HasOuterRef(n sql.Node) bool {
	if g, ok := n.(*Get); ok {
		return len(g.Ref.OuterRefs()) > 0
	}
	for _, c := range n.Children() {
		if HasOuterRef(c) {
			return true
		}
	}
	return false
}

// LowerSubqueries walks n's expression tree (Output, any filter it
// carries, plus Order/Agg's own expr slices) for SubqueryExpr nodes
// and lowers each one's bound statement, recursively, before the
// physical tree above it can run.
func LowerSubqueries(n sql.Node) error {
	if n == nil {
		return nil
	}
	for _, e := range ownedExprs(n) {
		if err := lowerSubqueriesInExpr(e); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := LowerSubqueries(c); err != nil {
			return err
		}
	}
	return nil
}

func ownedExprs(n sql.Node) []sql.Expr {
	exprs := append([]sql.Expr{}, n.Output()...)
	if fh, ok := n.(filterHolder); ok && fh.FilterExpr() != nil {
		exprs = append(exprs, fh.FilterExpr())
	}
	switch v := n.(type) {
	case *Agg:
		exprs = append(exprs, v.Keys...)
		exprs = append(exprs, v.Aggs...)
	case *Order:
		exprs = append(exprs, v.Orders...)
	}
	return exprs
}

func lowerSubqueriesInExpr(e sql.Expr) error {
	var firstErr error
	sql.VisitEach(e, func(x sql.Expr) bool {
		if firstErr != nil {
			return false
		}
		se, ok := x.(*expression.SubqueryExpr)
		if !ok {
			return true
		}
		sp, ok := se.Bound.(*SubPlan)
		if !ok || sp == nil {
			return true
		}
		if _, have := sp.Lowered(); have {
			return true
		}
		phys, err := Lower(sp.inner)
		if err != nil {
			firstErr = err
			return false
		}
		sp.SetLowered(phys)
		return true
	})
	return firstErr
}
