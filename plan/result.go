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

// Result is the root of every planned SELECT (spec §4.E): it carries
// the statement's own bound selection list (Star already expanded,
// subqueries already bound) and drives the single top-level
// ResolveOrdinal call of spec §4.H's pipeline.
type Result struct {
	base
	Child     sql.Node
	Selection []sql.Expr
}

func NewResult(child sql.Node, selection []sql.Expr) *Result {
	return &Result{Child: child, Selection: selection}
}

func (r *Result) Children() []sql.Node { return []sql.Node{r.Child} }

func (r *Result) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Result takes exactly one child")
	}
	n := *r
	n.Child = children[0]
	return &n, nil
}

func (r *Result) String() string { return "Result" }

// ResolveOrdinal ignores its requested parameter: a Result is the
// statement root, so what's requested of it is always its own
// Selection.
func (r *Result) ResolveOrdinal(_ []sql.Expr, removeRedundant bool) (sql.Node, error) {
	newChild, rewritten, err := pushdown(r.Child, r.Selection)
	if err != nil {
		return nil, err
	}
	return &Result{base: base{out: rewritten}, Child: newChild, Selection: r.Selection}, nil
}
