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
	"fmt"

	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/sql"
)

// CGroup is an equivalence class of plans known to produce the same
// rows (spec §4.F). Logical holds every alternative shape discovered
// so far (each non-leaf child already a *MemoRef); Physical holds one
// candidate per alternative physical lowering once the group has been
// explored.
type CGroup struct {
	ID          int
	Signature   uint64
	Logical     []sql.Node
	Physical    []sql.PhysicalNode
	Explored    bool
	HasOuterRef bool
}

// Output is the group's representative resolved output list: every
// member of a group shares the same column shape by construction, so
// any one of them will do.
func (g *CGroup) Output() []sql.Expr { return g.Logical[0].Output() }

// Memo owns every group discovered from a single Enqueue call.
type Memo struct {
	groups map[int]*CGroup
	bySig  map[uint64]int
	nextID int
	rootID int

	minCostCache map[int]float64
}

func NewMemo() *Memo {
	return &Memo{
		groups:       make(map[int]*CGroup),
		bySig:        make(map[uint64]int),
		minCostCache: make(map[int]float64),
	}
}

func (m *Memo) Root() int { return m.rootID }

func (m *Memo) Group(id int) *CGroup { return m.groups[id] }

// Enqueue registers root and every non-leaf descendant as a group,
// deduplicated by signature, and records the root group (spec §4.F).
func (m *Memo) Enqueue(root sql.Node) (int, error) {
	id, err := m.enqueueNode(root)
	if err != nil {
		return 0, err
	}
	m.rootID = id
	return id, nil
}

func (m *Memo) enqueueNode(n sql.Node) (int, error) {
	hasOuterRef := plan.HasOuterRef(n)

	children := n.Children()
	childGroups := make([]int, len(children))
	placeholders := make([]sql.Node, len(children))
	for i, c := range children {
		gid, err := m.enqueueNode(c)
		if err != nil {
			return 0, err
		}
		childGroups[i] = gid
		placeholders[i] = &MemoRef{m: m, groupID: gid, out: m.groups[gid].Output()}
	}

	member := n
	if len(children) > 0 {
		var err error
		member, err = n.WithChildren(placeholders...)
		if err != nil {
			return 0, err
		}
	}

	sig := signature(member, childGroups)
	if gid, ok := m.bySig[sig]; ok {
		g := m.groups[gid]
		if !containsLogical(g.Logical, member) {
			g.Logical = append(g.Logical, member)
		}
		g.HasOuterRef = g.HasOuterRef || hasOuterRef
		return gid, nil
	}

	gid := m.nextID
	m.nextID++
	m.groups[gid] = &CGroup{
		ID:          gid,
		Signature:   sig,
		Logical:     []sql.Node{member},
		HasOuterRef: hasOuterRef,
	}
	m.bySig[sig] = gid
	return gid, nil
}

// containsLogical and containsPhysical decide whether n is already
// present among members. String() is not enough to tell members
// apart: plan.Join.String() returns the constant "InnerJoin" no
// matter which side is left or right, so a join-commute candidate and
// its original would look identical and the commuted alternative
// would be silently dropped. containsLogical compares by (node kind,
// ordered child group ids, node-specific identity) instead, since
// every member of one group already shares the same signature — the
// per-group invariant Explore asserts — so ordered children plus
// identity is exactly what varies between members of the same group.
// containsPhysical compares by (operator type, ordered child group
// ids) only.
func containsLogical(members []sql.Node, n sql.Node) bool {
	key, err := logicalKey(n)
	if err != nil {
		return false
	}
	for _, m := range members {
		if mk, err := logicalKey(m); err == nil && mk == key {
			return true
		}
	}
	return false
}

func logicalKey(n sql.Node) (string, error) {
	ids, err := childGroupIDs(n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%T|%v|%v", n, ids, identity(n)), nil
}

func containsPhysical(members []sql.PhysicalNode, n sql.PhysicalNode) bool {
	key := physicalKey(n)
	for _, m := range members {
		if physicalKey(m) == key {
			return true
		}
	}
	return false
}

func physicalKey(n sql.PhysicalNode) string {
	children := n.Children()
	ids := make([]int, len(children))
	for i, c := range children {
		if ref, ok := c.(*PhysMemoRef); ok {
			ids[i] = ref.groupID
		} else {
			ids[i] = -1
		}
	}
	return fmt.Sprintf("%T|%v", n, ids)
}

// childGroupIDs extracts the group ids of n's MemoRef children, in
// order. Every non-leaf node's children are MemoRef by the time it is
// a group member (enqueueNode's own invariant), so a non-MemoRef
// child here means the caller handed Explore a tree that bypassed
// Enqueue.
func childGroupIDs(n sql.Node) ([]int, error) {
	children := n.Children()
	ids := make([]int, len(children))
	for i, c := range children {
		ref, ok := c.(*MemoRef)
		if !ok {
			return nil, sql.ErrEval.New("memo: expected a MemoRef child, got " + c.String())
		}
		ids[i] = ref.groupID
	}
	return ids, nil
}
