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

// JoinType enumerates the join kinds of spec §4.E. Mark and Single
// are the decorrelation specialisations named there; this module
// lowers every subquery through direct per-row expression evaluation
// (§4.G, fully implemented in sql/expression) rather than rewriting
// into Mark/Single joins, so those two variants are accepted by the
// type system but no rule currently produces them (see DESIGN.md).
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
	SemiJoin
	AntiSemiJoin
	MarkJoin
	SingleJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "Inner"
	case LeftJoin:
		return "Left"
	case RightJoin:
		return "Right"
	case FullJoin:
		return "Full"
	case CrossJoin:
		return "Cross"
	case SemiJoin:
		return "Semi"
	case AntiSemiJoin:
		return "AntiSemi"
	case MarkJoin:
		return "Mark"
	case SingleJoin:
		return "Single"
	default:
		return "Unknown"
	}
}

// Join combines two logical subtrees (§4.E). Pred is nil only for
// CrossJoin.
type Join struct {
	base
	Type        JoinType
	Left, Right sql.Node
	Pred        sql.Expr
}

func NewJoin(t JoinType, l, r sql.Node, pred sql.Expr) *Join {
	return &Join{Type: t, Left: l, Right: r, Pred: pred}
}

func (j *Join) Children() []sql.Node { return []sql.Node{j.Left, j.Right} }

func (j *Join) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("Join takes exactly two children")
	}
	n := *j
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (j *Join) FilterExpr() sql.Expr { return j.Pred }

// WithGroupChildren rebuilds the join with new Left/Right/Pred/Output
// values. The memo package uses it when a rule produces an
// alternative member within an existing group (e.g. join commute):
// Output must already be rebased against the new child order, since
// base.out is unexported and only this package can set it directly.
func (j *Join) WithGroupChildren(left, right sql.Node, pred sql.Expr, out []sql.Expr) *Join {
	return &Join{base: base{out: out}, Type: j.Type, Left: left, Right: right, Pred: pred}
}

func (j *Join) String() string {
	return j.Type.String() + "Join"
}

// ResolveOrdinal partitions req ∪ {filter}'s columns by which side of
// the tree owns each, fans a straddling predicate's columns out to
// both sides, and rewrites filter/output against the concatenation
// leftOut||rightOut (§4.E).
func (j *Join) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	leftTables := tableSet(j.Left)
	rightTables := tableSet(j.Right)

	own := append([]sql.Expr{}, requested...)
	if j.Pred != nil {
		own = append(own, j.Pred)
	}
	leaves := collectLeafColumns(own...)

	var leftReq, rightReq []*expression.ColExpr
	for _, c := range leaves {
		switch {
		case leftTables[c.TableKey()]:
			leftReq = append(leftReq, c)
		case rightTables[c.TableKey()]:
			rightReq = append(rightReq, c)
		default:
			return nil, sql.ErrEval.New("join column " + c.String() + " belongs to neither side")
		}
	}

	newLeft, err := j.Left.ResolveOrdinal(colsToExprs(leftReq), false)
	if err != nil {
		return nil, err
	}
	newRight, err := j.Right.ResolveOrdinal(colsToExprs(rightReq), false)
	if err != nil {
		return nil, err
	}

	// The left child's output may be wider than leftReq (Get appends
	// outer-ref columns), so right-side indexes start at its real width.
	leftWidth := len(newLeft.Output())
	rewrite := func(e sql.Expr) sql.Expr {
		r := e
		for i, c := range leftReq {
			r = expression.SearchReplace(r, c, expression.NewExprRef(c, i))
		}
		for i, c := range rightReq {
			r = expression.SearchReplace(r, c, expression.NewExprRef(c, leftWidth+i))
		}
		return r
	}

	var newPred sql.Expr
	if j.Pred != nil {
		newPred = rewrite(j.Pred)
	}
	out := make([]sql.Expr, len(requested))
	for i, e := range requested {
		out[i] = rewrite(e)
	}
	return &Join{base: base{out: out}, Type: j.Type, Left: newLeft, Right: newRight, Pred: newPred}, nil
}
