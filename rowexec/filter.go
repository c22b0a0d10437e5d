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

// Filter is the standalone predicate operator a logical Filter lowers
// to (§4.E/§4.G). Pred and Output both index into the child's own
// produced row.
type Filter struct {
	base
	Child  sql.PhysicalNode
	Pred   sql.Expr
	Output []sql.Expr
}

func NewFilter(logical sql.Node, child sql.PhysicalNode, pred sql.Expr, output []sql.Expr) *Filter {
	return &Filter{base: base{logical: logical, cost: child.Cost()}, Child: child, Pred: pred, Output: output}
}

func (f *Filter) Children() []sql.PhysicalNode { return []sql.PhysicalNode{f.Child} }

func (f *Filter) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Filter takes exactly one child")
	}
	n := *f
	n.Child = children[0]
	return &n, nil
}

func (f *Filter) String() string { return "Filter(" + f.Pred.String() + ")" }

func (f *Filter) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	return f.Child.Exec(ctx, func(row sql.Row) error {
		v, err := f.Pred.Eval(ctx, row)
		if err != nil {
			return err
		}
		if !isTrue(v) {
			return nil
		}
		out, err := evalRow(ctx, f.Output, row)
		if err != nil {
			return err
		}
		return cb(out)
	})
}
