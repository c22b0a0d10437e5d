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

// Filter is a standalone predicate node (§4.E). CreatePlan plans a
// WHERE clause as one; no pass pushes it further down.
type Filter struct {
	base
	Child sql.Node
	Pred  sql.Expr
}

func NewFilter(child sql.Node, pred sql.Expr) *Filter {
	return &Filter{Child: child, Pred: pred}
}

func (f *Filter) Children() []sql.Node { return []sql.Node{f.Child} }

func (f *Filter) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Filter takes exactly one child")
	}
	n := *f
	n.Child = children[0]
	return &n, nil
}

func (f *Filter) FilterExpr() sql.Expr { return f.Pred }

func (f *Filter) String() string { return "Filter(" + f.Pred.String() + ")" }

// ResolveOrdinal requests req ∪ cols(filter) of the child, then
// rewrites its own filter and output against the child's output
// (§4.E).
func (f *Filter) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	own := append([]sql.Expr{f.Pred}, requested...)
	newChild, rewritten, err := pushdown(f.Child, own)
	if err != nil {
		return nil, err
	}
	return &Filter{base: base{out: rewritten[1:]}, Child: newChild, Pred: rewritten[0]}, nil
}
