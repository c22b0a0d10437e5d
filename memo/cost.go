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
	"math"

	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/sql"
)

// minCost is the minimum Cost() among a group's physical members
// (spec §4.F's MemoRef.min_cost), memoized since Explore's post-order
// guarantees it never changes once a group is Explored. NLJoin/
// HashJoin candidates already fold their children's min-cost in at
// construction time (each child arg is a PhysMemoRef whose Cost()
// calls back into this function), so no recursion is needed here —
// the recursion already happened when the candidate was built.
func (m *Memo) minCost(gid int) float64 {
	if c, ok := m.minCostCache[gid]; ok {
		return c
	}
	g := m.groups[gid]
	best := math.Inf(1)
	for _, p := range g.Physical {
		if c := p.Cost(); c < best {
			best = c
		}
	}
	m.minCostCache[gid] = best
	return best
}

// MinToPhysicalPlan extracts the optimal plan from group gid (spec
// §4.F): it picks the min-cost physical member, then recurses into
// each of that member's PhysMemoRef children and substitutes its own
// min-cost realization, producing a concrete tree with no placeholder
// left in it.
func (m *Memo) MinToPhysicalPlan(gid int) (sql.PhysicalNode, error) {
	g := m.groups[gid]
	if len(g.Physical) == 0 {
		return nil, sql.ErrNoPhysicalPlan.New(gid)
	}

	var best sql.PhysicalNode
	bestCost := math.Inf(1)
	for _, p := range g.Physical {
		if c := p.Cost(); c < bestCost {
			bestCost, best = c, p
		}
	}

	children := best.Children()
	if len(children) == 0 {
		return best, nil
	}
	realized := make([]sql.PhysicalNode, len(children))
	for i, c := range children {
		ref, ok := c.(*PhysMemoRef)
		if !ok {
			realized[i] = c
			continue
		}
		r, err := m.MinToPhysicalPlan(ref.groupID)
		if err != nil {
			return nil, err
		}
		realized[i] = r
	}
	return best.WithChildren(realized...)
}

// Optimize runs the full memo pipeline over root: Enqueue, Explore
// with rules (DefaultRules if nil), and MinToPhysicalPlan extraction.
// Every subquery reachable from root is lowered directly (not through
// the memo: a scalar/exists/in subquery's own plan is independent of
// its enclosing statement's join order), mirroring plan.Lower's own
// subquery pass.
func Optimize(root sql.Node, rules []Rule) (sql.PhysicalNode, error) {
	if rules == nil {
		rules = DefaultRules
	}
	if err := plan.LowerSubqueries(root); err != nil {
		return nil, err
	}
	m := NewMemo()
	gid, err := m.Enqueue(root)
	if err != nil {
		return nil, err
	}
	if err := m.Explore(gid, rules); err != nil {
		return nil, err
	}
	return m.MinToPhysicalPlan(gid)
}
