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
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// JoinKind mirrors plan.JoinType without importing the plan package
// (rowexec sits below plan in the import graph); plan.direct_to_physical
// maps one to the other at lowering time.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
	JoinSemi
	JoinAntiSemi
)

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "Left"
	case JoinRight:
		return "Right"
	case JoinFull:
		return "Full"
	case JoinCross:
		return "Cross"
	case JoinSemi:
		return "Semi"
	case JoinAntiSemi:
		return "AntiSemi"
	default:
		return "Inner"
	}
}

// materialize drains a physical node's entire output into memory.
// Both join operators below need random access to their right side
// (NLJoin: rescanned in full per left row; HashJoin: its build
// buckets), so both materialize it up front. The left/probe side is
// streamed instead (driven directly through its own Exec callback):
// materializing it ahead of the join's main loop would publish every
// left row's outer-ref param before the main loop ever runs, leaving
// a correlated subquery above the join reading the last left row
// materialized rather than the row its own output pairing came from.
func materialize(ctx *sql.Context, n sql.PhysicalNode) ([]sql.Row, error) {
	var out []sql.Row
	err := n.Exec(ctx, func(r sql.Row) error {
		out = append(out, r.Copy())
		return nil
	})
	return out, err
}

// NLJoin is the always-applicable nested-loop join of §4.E/§4.G: O(n·m)
// comparisons, used whenever HashJoin's equi-join precondition isn't
// met.
type NLJoin struct {
	base
	Kind                   JoinKind
	Left, Right            sql.PhysicalNode
	Pred                   sql.Expr
	LeftWidth, RightWidth  int
	Output                 []sql.Expr
}

// NewNLJoin's cost is the product of its children's costs (§4.F).
func NewNLJoin(logical sql.Node, kind JoinKind, left, right sql.PhysicalNode, pred sql.Expr, leftWidth, rightWidth int, output []sql.Expr) *NLJoin {
	return &NLJoin{
		base:       base{logical: logical, cost: left.Cost() * right.Cost()},
		Kind:       kind,
		Left:       left,
		Right:      right,
		Pred:       pred,
		LeftWidth:  leftWidth,
		RightWidth: rightWidth,
		Output:     output,
	}
}

func (j *NLJoin) Children() []sql.PhysicalNode { return []sql.PhysicalNode{j.Left, j.Right} }

func (j *NLJoin) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("NLJoin takes exactly two children")
	}
	n := *j
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (j *NLJoin) String() string { return j.Kind.String() + "NLJoin" }

func (j *NLJoin) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	rightRows, err := materialize(ctx, j.Right)
	if err != nil {
		return err
	}
	rightMatched := make([]bool, len(rightRows))

	err = j.Left.Exec(ctx, func(l sql.Row) error {
		matchedAny := false
		for ri, r := range rightRows {
			combined := l.Concat(r)
			ok := true
			if j.Pred != nil {
				v, err := j.Pred.Eval(ctx, combined)
				if err != nil {
					return err
				}
				ok = isTrue(v)
			}
			if !ok {
				continue
			}
			matchedAny = true
			rightMatched[ri] = true
			switch j.Kind {
			case JoinAntiSemi:
				// recorded via matchedAny only; nothing emitted here.
			case JoinSemi:
				out, err := evalRow(ctx, j.Output, combined)
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
			default:
				out, err := evalRow(ctx, j.Output, combined)
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
			}
			if j.Kind == JoinSemi {
				break
			}
		}
		if !matchedAny {
			switch j.Kind {
			case JoinLeft, JoinFull:
				out, err := evalRow(ctx, j.Output, l.Concat(sql.Nulls(j.RightWidth)))
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
			case JoinAntiSemi:
				out, err := evalRow(ctx, j.Output, l.Concat(sql.Nulls(j.RightWidth)))
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if j.Kind == JoinRight || j.Kind == JoinFull {
		for ri, r := range rightRows {
			if rightMatched[ri] {
				continue
			}
			out, err := evalRow(ctx, j.Output, sql.Nulls(j.LeftWidth).Concat(r))
			if err != nil {
				return err
			}
			if err := cb(out); err != nil {
				return err
			}
		}
	}
	return nil
}

// HashJoin is the equi-join specialization of §4.F/§9: it builds a
// hash table over the right side keyed by BuildKey (evaluated against
// the right row alone) and probes it with ProbeKey (evaluated against
// the left row alone), applying the full original Pred as the
// decisive per-candidate check. Cost is the sum of its children's
// costs (§4.F) — the one-pass build/probe shape HashJoin gets its
// linear cost from.
type HashJoin struct {
	base
	Kind                  JoinKind
	Left, Right           sql.PhysicalNode
	Pred                  sql.Expr
	BuildKey, ProbeKey    sql.Expr
	LeftWidth, RightWidth int
	Output                []sql.Expr
}

func NewHashJoin(logical sql.Node, kind JoinKind, left, right sql.PhysicalNode, pred, buildKey, probeKey sql.Expr, leftWidth, rightWidth int, output []sql.Expr) *HashJoin {
	return &HashJoin{
		base:       base{logical: logical, cost: left.Cost() + right.Cost()},
		Kind:       kind,
		Left:       left,
		Right:      right,
		Pred:       pred,
		BuildKey:   buildKey,
		ProbeKey:   probeKey,
		LeftWidth:  leftWidth,
		RightWidth: rightWidth,
		Output:     output,
	}
}

func (h *HashJoin) Children() []sql.PhysicalNode { return []sql.PhysicalNode{h.Left, h.Right} }

func (h *HashJoin) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("HashJoin takes exactly two children")
	}
	n := *h
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (h *HashJoin) String() string { return h.Kind.String() + "HashJoin" }

func (h *HashJoin) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	rightRows, err := materialize(ctx, h.Right)
	if err != nil {
		return err
	}
	buckets := make(map[interface{}][]int, len(rightRows))
	for i, r := range rightRows {
		v, err := h.BuildKey.Eval(ctx, r)
		if err != nil {
			return err
		}
		if v.IsNull {
			continue
		}
		k := types.HashKey(v)
		buckets[k] = append(buckets[k], i)
	}
	rightMatched := make([]bool, len(rightRows))

	err = h.Left.Exec(ctx, func(l sql.Row) error {
		matchedAny := false
		pv, err := h.ProbeKey.Eval(ctx, l)
		if err == nil && !pv.IsNull {
			for _, ri := range buckets[types.HashKey(pv)] {
				r := rightRows[ri]
				combined := l.Concat(r)
				ok := true
				if h.Pred != nil {
					v, err := h.Pred.Eval(ctx, combined)
					if err != nil {
						return err
					}
					ok = isTrue(v)
				}
				if !ok {
					continue
				}
				matchedAny = true
				rightMatched[ri] = true
				if h.Kind == JoinAntiSemi {
					continue
				}
				out, err := evalRow(ctx, h.Output, combined)
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
				if h.Kind == JoinSemi {
					break
				}
			}
		} else if err != nil {
			return err
		}
		if !matchedAny {
			switch h.Kind {
			case JoinLeft, JoinFull:
				out, err := evalRow(ctx, h.Output, l.Concat(sql.Nulls(h.RightWidth)))
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
			case JoinAntiSemi:
				out, err := evalRow(ctx, h.Output, l.Concat(sql.Nulls(h.RightWidth)))
				if err != nil {
					return err
				}
				if err := cb(out); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if h.Kind == JoinRight || h.Kind == JoinFull {
		for ri, r := range rightRows {
			if rightMatched[ri] {
				continue
			}
			out, err := evalRow(ctx, h.Output, sql.Nulls(h.LeftWidth).Concat(r))
			if err != nil {
				return err
			}
			if err := cb(out); err != nil {
				return err
			}
		}
	}
	return nil
}
