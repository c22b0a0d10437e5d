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
	"sort"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// Order materializes its child and sorts it by Keys/Desc (§4.E). Desc
// is parallel to Keys rather than folded into the expression tree,
// since plan.direct_to_physical already has the *expression.OrderExpr
// in hand at lowering time and can peel Desc off there — keeping
// rowexec free of any dependency on sql/expression's concrete types.
type Order struct {
	base
	Child  sql.PhysicalNode
	Keys   []sql.Expr
	Desc   []bool
	Output []sql.Expr
}

func NewOrder(logical sql.Node, child sql.PhysicalNode, keys []sql.Expr, desc []bool, output []sql.Expr) *Order {
	return &Order{base: base{logical: logical, cost: child.Cost()}, Child: child, Keys: keys, Desc: desc, Output: output}
}

func (o *Order) Children() []sql.PhysicalNode { return []sql.PhysicalNode{o.Child} }

func (o *Order) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Order takes exactly one child")
	}
	n := *o
	n.Child = children[0]
	return &n, nil
}

func (o *Order) String() string { return "Order" }

func (o *Order) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	rows, err := materialize(ctx, o.Child)
	if err != nil {
		return err
	}
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		for k, key := range o.Keys {
			vi, err := key.Eval(ctx, rows[i])
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := key.Eval(ctx, rows[j])
			if err != nil {
				sortErr = err
				return false
			}
			c, err := compareNullsLast(vi, vj)
			if err != nil {
				sortErr = err
				return false
			}
			if c == 0 {
				continue
			}
			if o.Desc[k] {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if sortErr != nil {
		return sortErr
	}
	for _, r := range rows {
		out, err := evalRow(ctx, o.Output, r)
		if err != nil {
			return err
		}
		if err := cb(out); err != nil {
			return err
		}
	}
	return nil
}

// compareNullsLast orders NULL after every non-NULL value regardless
// of sort direction, the convention this engine picked for §4.E since
// the spec leaves NULL ordering implementation-defined.
func compareNullsLast(a, b types.Value) (int, error) {
	if a.IsNull && b.IsNull {
		return 0, nil
	}
	if a.IsNull {
		return 1, nil
	}
	if b.IsNull {
		return -1, nil
	}
	return types.Compare(a, b)
}

// Limit caps its child's row count and aborts the pull early once
// reached (§4.E): returning a non-nil error from cb's enclosing
// closure is how Exec's pull-model contract expresses "stop asking for
// more rows" (sql.PhysicalNode.Exec's documented early-abort
// convention), so Limit swallows its own sentinel before returning.
type Limit struct {
	base
	Child sql.PhysicalNode
	Count int64
}

func NewLimit(logical sql.Node, child sql.PhysicalNode, count int64) *Limit {
	return &Limit{base: base{logical: logical, cost: child.Cost()}, Child: child, Count: count}
}

func (l *Limit) Children() []sql.PhysicalNode { return []sql.PhysicalNode{l.Child} }

func (l *Limit) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Limit takes exactly one child")
	}
	n := *l
	n.Child = children[0]
	return &n, nil
}

func (l *Limit) String() string { return "Limit" }

var errLimitReached = sql.ErrEval.New("limit reached")

func (l *Limit) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	if l.Count <= 0 {
		return nil
	}
	var n int64
	err := l.Child.Exec(ctx, func(row sql.Row) error {
		n++
		if err := cb(row); err != nil {
			return err
		}
		if n >= l.Count {
			return errLimitReached
		}
		return nil
	})
	if err == errLimitReached {
		return nil
	}
	return err
}
