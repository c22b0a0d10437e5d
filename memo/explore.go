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
	"github.com/bigwa/qpmodel/rowexec"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// Explore runs rules against every group reachable from root and
// builds each group's physical candidates (spec §4.F). This
// implementation walks groups in a single post-order pass rather than
// the spec's general unexplored-groups worklist: the only rule this
// engine ships (join commute) rewrites a member in place without ever
// introducing a child outside the groups Enqueue already built, so a
// member discovered by a rule can't itself uncover a new group that
// needs separate exploration. A rule that did introduce new subtrees
// (predicate pushdown synthesizing a fresh Filter group, say) would
// need the worklist back — noted in DESIGN.md.
func (m *Memo) Explore(root int, rules []Rule) error {
	return m.explore(root, rules, make(map[int]bool))
}

func (m *Memo) explore(gid int, rules []Rule, done map[int]bool) error {
	if done[gid] {
		return nil
	}
	done[gid] = true
	g := m.groups[gid]

	for _, member := range g.Logical {
		ids, err := childGroupIDs(member)
		if err != nil {
			return err
		}
		for _, cid := range ids {
			if err := m.explore(cid, rules, done); err != nil {
				return err
			}
		}
	}

	// Apply rules to a fixpoint: newly appended members are visited
	// by the same loop since it re-reads len(g.Logical) each pass.
	for i := 0; i < len(g.Logical); i++ {
		member := g.Logical[i]
		for _, r := range rules {
			if !r.Applicable(member) {
				continue
			}
			alt, err := r.Apply(member)
			if err != nil {
				return err
			}
			ids, err := childGroupIDs(alt)
			if err != nil {
				return err
			}
			if signature(alt, ids) != g.Signature {
				return sql.ErrEval.New("memo: rule application changed group signature")
			}
			if !containsLogical(g.Logical, alt) {
				g.Logical = append(g.Logical, alt)
			}
		}
	}

	for _, member := range g.Logical {
		ids, err := childGroupIDs(member)
		if err != nil {
			return err
		}
		cands, err := physicalCandidates(m, member, ids)
		if err != nil {
			return err
		}
		for _, c := range cands {
			if !containsPhysical(g.Physical, c) {
				g.Physical = append(g.Physical, c)
			}
		}
	}

	if len(g.Physical) == 0 {
		return sql.ErrNoPhysicalPlan.New(gid)
	}
	g.Explored = true
	return nil
}

// physicalCandidates builds every physical lowering this engine knows
// for member's node kind, wiring childGroups[i] through a PhysMemoRef
// rather than a concretely realized subtree (the realization is
// picked later, bottom-up, by MinToPhysicalPlan). Every rowexec
// constructor computes its own Cost() eagerly from its children's
// Cost(), which is why a group's children must already be explored
// (and so have a well-defined min-cost) before this runs.
func physicalCandidates(m *Memo, n sql.Node, childGroups []int) ([]sql.PhysicalNode, error) {
	childRef := func(i int) sql.PhysicalNode {
		return &PhysMemoRef{m: m, groupID: childGroups[i]}
	}

	switch v := n.(type) {
	case *plan.Get:
		switch ref := v.Ref.(type) {
		case *plan.BaseTableRef:
			return []sql.PhysicalNode{rowexec.NewScanTable(v, v.RefKey(), ref.Table, v.Filter, v.Output())}, nil
		case *plan.ExternalTableRef:
			return []sql.PhysicalNode{rowexec.NewScanFile(v, v.RefKey(), ref.Table, v.Filter, v.Output())}, nil
		default:
			return nil, sql.ErrEval.New("Get over unsupported table ref " + v.Ref.Alias())
		}

	case *plan.Filter:
		return []sql.PhysicalNode{rowexec.NewFilter(v, childRef(0), v.Pred, v.Output())}, nil

	case *plan.Join:
		return joinCandidates(m, v, childGroups)

	case *plan.Agg:
		aggs := make([]sql.Aggregate, len(v.Aggs))
		for i, ag := range v.Aggs {
			af, ok := ag.(sql.Aggregate)
			if !ok {
				return nil, sql.ErrEval.New("aggregate expression does not implement sql.Aggregate: " + ag.String())
			}
			aggs[i] = af
		}
		return []sql.PhysicalNode{rowexec.NewHashAgg(v, childRef(0), v.Keys, aggs, v.Having, v.Output())}, nil

	case *plan.Order:
		keys, desc, err := orderTerms(v.Orders)
		if err != nil {
			return nil, err
		}
		return []sql.PhysicalNode{rowexec.NewOrder(v, childRef(0), keys, desc, v.Output())}, nil

	case *plan.Limit:
		return []sql.PhysicalNode{rowexec.NewLimit(v, childRef(0), v.Count)}, nil

	case *plan.FromQuery:
		return []sql.PhysicalNode{rowexec.NewFromQuery(v, v.RefKey(), childRef(0), v.Output())}, nil

	case *plan.SetOp:
		return []sql.PhysicalNode{rowexec.NewSetOp(v, v.Kind, childRef(0), childRef(1))}, nil

	case *plan.Result:
		return []sql.PhysicalNode{rowexec.NewProject(v, childRef(0), v.Output())}, nil

	default:
		return nil, sql.ErrEval.New("memo: no physical candidate rule for node " + n.String())
	}
}

// joinCandidates always offers NLJoin, and additionally offers
// HashJoin whenever Pred has a usable equi-conjunct and the left
// group has no outer reference — the same criterion
// plan.Lower applies directly (§4.E's closing paragraph), except here
// both alternatives are kept side by side so cost decides between
// them instead of the rule picking unconditionally.
func joinCandidates(m *Memo, j *plan.Join, childGroups []int) ([]sql.PhysicalNode, error) {
	leftGroup, rightGroup := m.groups[childGroups[0]], m.groups[childGroups[1]]
	leftWidth, rightWidth := len(leftGroup.Output()), len(rightGroup.Output())

	kind, err := plan.LowerJoinType(j.Type)
	if err != nil {
		return nil, err
	}

	left := &PhysMemoRef{m: m, groupID: childGroups[0]}
	right := &PhysMemoRef{m: m, groupID: childGroups[1]}

	out := []sql.PhysicalNode{
		rowexec.NewNLJoin(j, kind, left, right, j.Pred, leftWidth, rightWidth, j.Output()),
	}
	if j.Pred != nil && !leftGroup.HasOuterRef {
		if buildKey, probeKey, ok := plan.EquiJoinKey(j.Pred, leftWidth, rightWidth); ok {
			out = append(out, rowexec.NewHashJoin(j, kind, left, right, j.Pred, buildKey, probeKey, leftWidth, rightWidth, j.Output()))
		}
	}
	return out, nil
}

// orderTerms peels Desc off each bound *expression.OrderExpr the same
// way plan.Lower's lowerOrder does, keeping rowexec free of any
// dependency on sql/expression's concrete types.
func orderTerms(orders []sql.Expr) ([]sql.Expr, []bool, error) {
	keys := make([]sql.Expr, len(orders))
	desc := make([]bool, len(orders))
	for i, e := range orders {
		oe, ok := e.(*expression.OrderExpr)
		if !ok {
			return nil, nil, sql.ErrEval.New("order term is not an OrderExpr: " + e.String())
		}
		keys[i] = oe.Target
		desc[i] = oe.Desc
	}
	return keys, desc, nil
}
