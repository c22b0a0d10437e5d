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
	"sort"

	"github.com/mitchellh/hashstructure"

	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/sql"
)

// filterHolder is satisfied structurally by every plan node that
// carries an optional residual predicate (Join.Pred, Get.Filter,
// Filter.Pred, Agg.Having); memo never imports plan's own unexported
// interface of the same shape; Go's structural typing makes a local
// copy equally valid.
type filterHolder interface {
	FilterExpr() sql.Expr
}

type sigInput struct {
	Kind      string
	Children  []int
	Conjuncts []uint64
	Ident     interface{}
}

// signature computes the stable integer of spec §4.F: "(node kind,
// unordered children-group ids, commutative normal form of the
// predicate's AND-list)". Child group ids are sorted only for the
// join types this engine actually treats as commutative (Inner,
// Cross); sorting them unconditionally would incorrectly unify, say,
// LeftJoin(A,B) with LeftJoin(B,A), which are not equivalent plans.
//
// Kind+Children+Conjuncts alone can't tell two leaves (or two
// otherwise-identical single-child nodes) apart: every *plan.Get has
// the same type name and no children, so scanning table a and
// scanning table b would hash the same without identity added in.
// identity fills that gap with the node-specific fields that tell
// such members apart; String() does not take part in the hash.
func signature(n sql.Node, childGroups []int) uint64 {
	children := append([]int{}, childGroups...)
	if isCommutativeJoin(n) {
		sort.Ints(children)
	}

	var conjuncts []uint64
	if fh, ok := n.(filterHolder); ok && fh.FilterExpr() != nil {
		for _, c := range sql.FlattenConjuncts(fh.FilterExpr()) {
			conjuncts = append(conjuncts, c.Hash())
		}
		sort.Slice(conjuncts, func(i, j int) bool { return conjuncts[i] < conjuncts[j] })
	}

	h, err := hashstructure.Hash(sigInput{
		Kind:      fmt.Sprintf("%T", n),
		Children:  children,
		Conjuncts: conjuncts,
		Ident:     identity(n),
	}, nil)
	if err != nil {
		// hashstructure only fails on unhashable Go values (channels,
		// funcs); sigInput is plain ints/strings/uint64s.
		panic("memo: signature hash of plain data failed: " + err.Error())
	}
	return h
}

func isCommutativeJoin(n sql.Node) bool {
	j, ok := n.(*plan.Join)
	return ok && (j.Type == plan.InnerJoin || j.Type == plan.CrossJoin)
}

// identity returns the node-kind-specific field(s) that distinguish
// otherwise-structurally-identical members: the join kind for Join
// (Children/Conjuncts alone can't tell an InnerJoin from a LeftJoin
// over the same two groups and predicate), a table's own alias for a
// scan, the key/aggregate list for Agg, sort terms for Order, row cap
// for Limit, the combinator kind for SetOp.
func identity(n sql.Node) interface{} {
	switch v := n.(type) {
	case *plan.Join:
		return int(v.Type)
	case *plan.SetOp:
		return int(v.Kind)
	case *plan.Get:
		return v.Ref.Alias()
	case *plan.FromQuery:
		return v.Ref.Alias()
	case *plan.Agg:
		var h []uint64
		for _, k := range v.Keys {
			h = append(h, k.Hash())
		}
		for _, a := range v.Aggs {
			h = append(h, a.Hash())
		}
		return h
	case *plan.Order:
		var h []uint64
		for _, o := range v.Orders {
			h = append(h, o.Hash())
		}
		return h
	case *plan.Limit:
		return v.Count
	default:
		return nil
	}
}
