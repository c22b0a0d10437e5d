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

import "github.com/bigwa/qpmodel/sql"

// Order carries the ORDER BY terms of spec §4.E; Orders are bound
// *expression.OrderExpr values.
type Order struct {
	base
	Child  sql.Node
	Orders []sql.Expr
}

func NewOrder(child sql.Node, orders []sql.Expr) *Order {
	return &Order{Child: child, Orders: orders}
}

func (o *Order) Children() []sql.Node { return []sql.Node{o.Child} }

func (o *Order) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Order takes exactly one child")
	}
	n := *o
	n.Child = children[0]
	return &n, nil
}

func (o *Order) String() string { return "Order" }

func (o *Order) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	own := append(append([]sql.Expr{}, o.Orders...), requested...)
	newChild, rewritten, err := pushdown(o.Child, own)
	if err != nil {
		return nil, err
	}
	return &Order{
		base:   base{out: rewritten[len(o.Orders):]},
		Child:  newChild,
		Orders: rewritten[:len(o.Orders)],
	}, nil
}

// Limit is a pass-through row-count cap; Count is evaluated at bind
// time and is constant thereafter (§4.E).
type Limit struct {
	base
	Child sql.Node
	Count int64
}

func NewLimit(child sql.Node, count int64) *Limit {
	return &Limit{Child: child, Count: count}
}

func (l *Limit) Children() []sql.Node { return []sql.Node{l.Child} }

func (l *Limit) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Limit takes exactly one child")
	}
	n := *l
	n.Child = children[0]
	return &n, nil
}

func (l *Limit) String() string { return "Limit" }

func (l *Limit) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	newChild, err := l.Child.ResolveOrdinal(requested, removeRedundant)
	if err != nil {
		return nil, err
	}
	return &Limit{base: base{out: newChild.Output()}, Child: newChild, Count: l.Count}, nil
}
