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
	"github.com/bigwa/qpmodel/ast"
	"github.com/bigwa/qpmodel/sql"
)

// SetOp combines two statement results with a UNION/INTERSECT/EXCEPT
// combinator (spec §3's SetOp variant). Both arms are planned and
// fully ordinal-resolved independently before SetOp wraps them — an
// arm is self-contained the same way a subquery is (§4.H) — so
// ResolveOrdinal is a no-op passthrough rather than a pushdown.
type SetOp struct {
	base
	Kind        ast.SetOpKind
	Left, Right sql.Node
}

func NewSetOp(kind ast.SetOpKind, left, right sql.Node) *SetOp {
	return &SetOp{base: base{out: left.Output()}, Kind: kind, Left: left, Right: right}
}

func (s *SetOp) Children() []sql.Node { return []sql.Node{s.Left, s.Right} }

func (s *SetOp) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("SetOp takes exactly two children")
	}
	n := *s
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (s *SetOp) String() string {
	switch s.Kind {
	case ast.SetOpUnion:
		return "Union"
	case ast.SetOpUnionAll:
		return "UnionAll"
	case ast.SetOpIntersect:
		return "Intersect"
	case ast.SetOpExcept:
		return "Except"
	default:
		return "SetOp"
	}
}

// ResolveOrdinal is a no-op: Left and Right are already resolved by
// the time NewSetOp is called.
func (s *SetOp) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	return s, nil
}
