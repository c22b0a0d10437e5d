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

import "github.com/bigwa/qpmodel/sql"

// FromQuery is the physical twin of a derived table or CTE reference
// (plan.FromQuery, §4.E): it pulls its already-lowered inner plan and
// publishes each inner row under RefKey so a correlated reference to
// one of this derived table's columns — by the plan.FromQueryRef's own
// identity, same as a base table's — resolves via Context.GetParam.
type FromQuery struct {
	base
	RefKey interface{}
	Child  sql.PhysicalNode
	Output []sql.Expr
}

func NewFromQuery(logical sql.Node, refKey interface{}, child sql.PhysicalNode, output []sql.Expr) *FromQuery {
	return &FromQuery{base: base{logical: logical, cost: child.Cost()}, RefKey: refKey, Child: child, Output: output}
}

func (f *FromQuery) Children() []sql.PhysicalNode { return []sql.PhysicalNode{f.Child} }

func (f *FromQuery) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("FromQuery takes exactly one child")
	}
	n := *f
	n.Child = children[0]
	return &n, nil
}

func (f *FromQuery) String() string { return "FromQuery" }

func (f *FromQuery) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	return f.Child.Exec(ctx, func(row sql.Row) error {
		ctx.PublishParam(f.RefKey, row)
		out, err := evalRow(ctx, f.Output, row)
		if err != nil {
			return err
		}
		return cb(out)
	})
}
