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

package rowexec

import (
	"github.com/bigwa/qpmodel/ast"
	"github.com/bigwa/qpmodel/sql"
)

// SetOp combines two arms' rows per UNION/INTERSECT/EXCEPT (§4.E).
// UNION ALL is a straight concatenation; the other three dedup on the
// full row's value tuple, which is why only they pay for
// materializing both sides up front. ast.SetOpKind is reused directly
// rather than mirrored (unlike JoinKind): ast sits below rowexec in
// the import graph the same way catalog does, so there's no cycle to
// avoid.
type SetOp struct {
	base
	Kind        ast.SetOpKind
	Left, Right sql.PhysicalNode
}

func NewSetOp(logical sql.Node, kind ast.SetOpKind, left, right sql.PhysicalNode) *SetOp {
	return &SetOp{base: base{logical: logical, cost: left.Cost() + right.Cost()}, Kind: kind, Left: left, Right: right}
}

func (s *SetOp) Children() []sql.PhysicalNode { return []sql.PhysicalNode{s.Left, s.Right} }

func (s *SetOp) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
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

func (s *SetOp) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	switch s.Kind {
	case ast.SetOpUnionAll:
		if err := s.Left.Exec(ctx, cb); err != nil {
			return err
		}
		return s.Right.Exec(ctx, cb)

	case ast.SetOpUnion:
		seen := map[string]bool{}
		emit := func(row sql.Row) error {
			k := rowKey(row)
			if seen[k] {
				return nil
			}
			seen[k] = true
			return cb(row)
		}
		if err := s.Left.Exec(ctx, emit); err != nil {
			return err
		}
		return s.Right.Exec(ctx, emit)

	case ast.SetOpIntersect, ast.SetOpExcept:
		leftRows, err := materialize(ctx, s.Left)
		if err != nil {
			return err
		}
		rightSet := map[string]bool{}
		if err := s.Right.Exec(ctx, func(r sql.Row) error {
			rightSet[rowKey(r)] = true
			return nil
		}); err != nil {
			return err
		}
		want := s.Kind == ast.SetOpIntersect
		seen := map[string]bool{}
		for _, r := range leftRows {
			k := rowKey(r)
			if rightSet[k] != want {
				continue
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			if err := cb(r); err != nil {
				return err
			}
		}
		return nil

	default:
		return sql.ErrEval.New("unknown set operator")
	}
}

// rowKey builds an exact composite key from a row's full value tuple,
// the same exact-domain hashing HashAgg's groupKeyString relies on.
func rowKey(row sql.Row) string {
	return groupKeyString(row)
}
