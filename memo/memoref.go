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

// Package memo implements the Cascades-style equivalence-group search
// of spec §4.F: Enqueue builds a group for every non-leaf subtree,
// Explore tries every registered Rule against each group's members,
// and MinToPhysicalPlan extracts the cheapest physical realization.
package memo

import (
	"fmt"

	"github.com/bigwa/qpmodel/sql"
)

// MemoRef stands in for a logical child once enqueue has registered
// it as its own group (spec §4.F: "replaces in-place each child with
// a MemoRef(group)"). It satisfies sql.Node only — Output is the
// group's representative shape, and ResolveOrdinal is never called
// again on a tree that already went through ordinal resolution before
// reaching the memo.
type MemoRef struct {
	m       *Memo
	groupID int
	out     []sql.Expr
}

func (r *MemoRef) GroupID() int       { return r.groupID }
func (r *MemoRef) Output() []sql.Expr { return r.out }
func (r *MemoRef) Children() []sql.Node { return nil }

func (r *MemoRef) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("MemoRef takes no children")
	}
	return r, nil
}

func (r *MemoRef) String() string { return fmt.Sprintf("Group(%d)", r.groupID) }

func (r *MemoRef) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	return nil, sql.ErrEval.New("MemoRef is a post-resolution placeholder; ResolveOrdinal should never reach it")
}

// PhysMemoRef is MemoRef's physical-side counterpart: a placeholder
// child of a physical candidate built for one member of a group,
// standing in for "whatever MinToPhysicalPlan ultimately picks" for
// one of its own child groups. Cost defers to the child group's
// min-cost (§4.F's MemoRef.min_cost), which is why physical candidate
// construction must happen only after a group's children are fully
// explored.
type PhysMemoRef struct {
	m       *Memo
	groupID int
}

func (r *PhysMemoRef) Children() []sql.PhysicalNode { return nil }

func (r *PhysMemoRef) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("PhysMemoRef takes no children")
	}
	return r, nil
}

func (r *PhysMemoRef) String() string { return fmt.Sprintf("Group(%d)", r.groupID) }

func (r *PhysMemoRef) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	return sql.ErrEval.New(fmt.Sprintf("group %d was never realized; call MinToPhysicalPlan first", r.groupID))
}

func (r *PhysMemoRef) Cost() float64 { return r.m.minCost(r.groupID) }

func (r *PhysMemoRef) Logical() sql.Node { return r.m.groups[r.groupID].Logical[0] }
