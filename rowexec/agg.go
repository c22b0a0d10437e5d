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
	"fmt"
	"strings"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// HashAgg is the GROUP BY / aggregate physical operator (§4.E/§4.G):
// it builds one running sql.Accumulator per distinct key tuple, then
// emits one row per group shaped [key0..keyN-1, agg0..aggM-1] — the
// exact layout Agg.ResolveOrdinal's ExprRef(newKeys[i], i) /
// ExprRef(newAggs[i], nkeys+i) rewrite assumed when it built Output
// and Having.
type HashAgg struct {
	base
	Child  sql.PhysicalNode
	Keys   []sql.Expr
	Aggs   []sql.Aggregate
	Having sql.Expr
	Output []sql.Expr
}

func NewHashAgg(logical sql.Node, child sql.PhysicalNode, keys []sql.Expr, aggs []sql.Aggregate, having sql.Expr, output []sql.Expr) *HashAgg {
	return &HashAgg{base: base{logical: logical, cost: child.Cost()}, Child: child, Keys: keys, Aggs: aggs, Having: having, Output: output}
}

func (a *HashAgg) Children() []sql.PhysicalNode { return []sql.PhysicalNode{a.Child} }

func (a *HashAgg) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("HashAgg takes exactly one child")
	}
	n := *a
	n.Child = children[0]
	return &n, nil
}

func (a *HashAgg) String() string { return "HashAgg" }

type aggGroup struct {
	keys sql.Row
	accs []sql.Accumulator
}

func (a *HashAgg) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	groups := make(map[string]*aggGroup)
	var order []string

	err := a.Child.Exec(ctx, func(row sql.Row) error {
		keyVals := make(sql.Row, len(a.Keys))
		for i, k := range a.Keys {
			v, err := k.Eval(ctx, row)
			if err != nil {
				return err
			}
			keyVals[i] = v
		}
		gk := groupKeyString(keyVals)
		g, ok := groups[gk]
		if !ok {
			g = &aggGroup{keys: keyVals, accs: make([]sql.Accumulator, len(a.Aggs))}
			for i, ag := range a.Aggs {
				g.accs[i] = ag.NewAccumulator()
			}
			groups[gk] = g
			order = append(order, gk)
		}
		for _, acc := range g.accs {
			if err := acc.Accumulate(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(groups) == 0 && len(a.Keys) == 0 {
		// An aggregate with no GROUP BY always produces exactly one
		// row, even over zero input rows (e.g. COUNT(*) of an empty
		// table is 0, not no rows).
		accs := make([]sql.Accumulator, len(a.Aggs))
		for i, ag := range a.Aggs {
			accs[i] = ag.NewAccumulator()
		}
		groupRow, err := buildGroupRow(nil, accs)
		if err != nil {
			return err
		}
		return a.emit(ctx, groupRow, cb)
	}

	for _, gk := range order {
		g := groups[gk]
		groupRow, err := buildGroupRow(g.keys, g.accs)
		if err != nil {
			return err
		}
		if err := a.emit(ctx, groupRow, cb); err != nil {
			return err
		}
	}
	return nil
}

func (a *HashAgg) emit(ctx *sql.Context, groupRow sql.Row, cb func(sql.Row) error) error {
	if a.Having != nil {
		v, err := a.Having.Eval(ctx, groupRow)
		if err != nil {
			return err
		}
		if !isTrue(v) {
			return nil
		}
	}
	out, err := evalRow(ctx, a.Output, groupRow)
	if err != nil {
		return err
	}
	return cb(out)
}

func buildGroupRow(keys sql.Row, accs []sql.Accumulator) (sql.Row, error) {
	out := make(sql.Row, len(keys)+len(accs))
	copy(out, keys)
	for i, acc := range accs {
		v, err := acc.Result()
		if err != nil {
			return nil, err
		}
		out[len(keys)+i] = v
	}
	return out, nil
}

// groupKeyString builds a composite map key from a key tuple using
// each value's HashKey domain representation: exact, not approximate,
// so two distinct values never collide.
func groupKeyString(vals sql.Row) string {
	var sb strings.Builder
	for _, v := range vals {
		fmt.Fprintf(&sb, "%v|", types.HashKey(v))
	}
	return sb.String()
}
