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
	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// Rule declares a group-internal rewrite (spec §4.F): Applicable
// decides whether it fires on a given member, Apply produces the
// alternative member. A rule must never change its member's
// signature — Explore asserts this after every Apply call.
type Rule interface {
	Applicable(member sql.Node) bool
	Apply(member sql.Node) (sql.Node, error)
}

// DefaultRules is the rule set Optimize runs when the caller doesn't
// supply its own.
var DefaultRules = []Rule{joinCommuteRule{}}

// joinCommuteRule swaps an Inner/Cross join's sides (spec §8's
// commutative join-order scenario: A⋈B on p and B⋈A on p share a
// signature). Left/Right join are excluded: commuting those changes
// which side supplies unmatched NULLs, so they are not equivalent
// plans.
type joinCommuteRule struct{}

func (joinCommuteRule) Applicable(member sql.Node) bool {
	j, ok := member.(*plan.Join)
	return ok && (j.Type == plan.InnerJoin || j.Type == plan.CrossJoin)
}

func (joinCommuteRule) Apply(member sql.Node) (sql.Node, error) {
	j := member.(*plan.Join)
	leftRef, ok := j.Left.(*MemoRef)
	if !ok {
		return nil, sql.ErrEval.New("join commute: left child is not a group reference")
	}
	rightRef, ok := j.Right.(*MemoRef)
	if !ok {
		return nil, sql.ErrEval.New("join commute: right child is not a group reference")
	}

	leftWidth, rightWidth := len(leftRef.out), len(rightRef.out)
	newPred := rebaseExprRefs(j.Pred, leftWidth, rightWidth)

	out := member.Output()
	newOut := make([]sql.Expr, len(out))
	for i, e := range out {
		newOut[i] = rebaseExprRefs(e, leftWidth, rightWidth)
	}

	return j.WithGroupChildren(rightRef, leftRef, newPred, newOut), nil
}

// rebaseExprRefs rewrites every ExprRef(inner, idx) in e so that idx
// keeps pointing at the same logical column after the concatenation
// order left||right becomes right||left: indices below leftWidth
// (left-side columns) shift past the new rightWidth-sized prefix;
// indices at or above leftWidth (right-side columns) shift down to
// start at 0.
func rebaseExprRefs(e sql.Expr, leftWidth, rightWidth int) sql.Expr {
	if e == nil {
		return nil
	}
	if r, ok := e.(*expression.ExprRef); ok {
		if r.Index < leftWidth {
			return expression.NewExprRef(r.Inner, r.Index+rightWidth)
		}
		return expression.NewExprRef(r.Inner, r.Index-leftWidth)
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	newChildren := make([]sql.Expr, len(children))
	for i, c := range children {
		newChildren[i] = rebaseExprRefs(c, leftWidth, rightWidth)
	}
	rebuilt, err := e.WithChildren(newChildren...)
	if err != nil {
		return e
	}
	return rebuilt
}
