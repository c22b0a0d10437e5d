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

import (
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// FromQuery is a derived table in FROM, or a resolved CTE reference
// (spec §4.E): Ref.Inner was already planned and fully ordinal-
// resolved independently (mirroring how a scalar subquery is bound),
// so this node's own resolution is purely positional, like Get.
type FromQuery struct {
	base
	Ref *FromQueryRef
}

func NewFromQuery(ref *FromQueryRef) *FromQuery { return &FromQuery{Ref: ref} }

func (f *FromQuery) RefKey() interface{} { return interface{}(f.Ref) }

func (f *FromQuery) Children() []sql.Node { return []sql.Node{f.Ref.Inner} }

// WithChildren mutates Ref.Inner on the receiver's own *FromQueryRef
// rather than copying it: RefKey is that pointer's identity, and the
// memo package's generic group substitution (unlike ResolveOrdinal,
// which threads f.Ref through untouched) goes through WithChildren,
// so a copy here would silently detach a correlated subquery's outer-
// ref param key from the FromQuery it was captured against.
func (f *FromQuery) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("FromQuery takes exactly one child")
	}
	f.Ref.Inner = children[0]
	n := *f
	return &n, nil
}

func (f *FromQuery) String() string { return "FromQuery(" + f.Ref.Alias() + ")" }

func (f *FromQuery) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	out := make([]sql.Expr, len(requested))
	for i, e := range requested {
		col, ok := e.(*expression.ColExpr)
		if !ok {
			out[i] = e
			continue
		}
		out[i] = expression.NewExprRef(col, col.Ordinal)
	}
	return &FromQuery{base: base{out: out}, Ref: f.Ref}, nil
}
