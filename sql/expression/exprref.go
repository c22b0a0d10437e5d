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

package expression

import (
	"fmt"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// ExprRef wraps an expression that now lives at a fixed ordinal in a
// child node's output, the rewrite every non-leaf logical node's
// ResolveOrdinal performs (§4.E). It never wraps another ExprRef: the
// constructor collapses nested wrapping, enforcing the invariant that
// a second resolve pass can't double-wrap (§8's "ExprRef wrap-once").
type ExprRef struct {
	env
	Inner sql.Expr
	Index int
}

// NewExprRef builds a reference to inner at the given child-output
// index. If inner is itself an ExprRef, it is unwrapped first.
func NewExprRef(inner sql.Expr, index int) *ExprRef {
	if r, ok := inner.(*ExprRef); ok {
		inner = r.Inner
	}
	e := newEnv()
	e.typ = inner.Type()
	e.bounded = true
	e.visible = inner.Visible()
	e.alias = inner.Alias()
	e.refs = inner.TableRefs()
	return &ExprRef{env: e, Inner: inner, Index: index}
}

func (r *ExprRef) Children() []sql.Expr { return []sql.Expr{r.Inner} }

func (r *ExprRef) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("ExprRef takes exactly one child")
	}
	return NewExprRef(children[0], r.Index), nil
}

func (r *ExprRef) Bind(ctx sql.Binder) (sql.Expr, error) { return r, nil }

// Clone clones the wrapped expression, per spec §4.C.
func (r *ExprRef) Clone() sql.Expr {
	return NewExprRef(r.Inner.Clone(), r.Index)
}

func (r *ExprRef) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	if r.Index < 0 || r.Index >= len(row) {
		return types.Value{}, sql.ErrEval.New(fmt.Sprintf("exprref index %d out of range for row of width %d", r.Index, len(row)))
	}
	return row[r.Index], nil
}

func (r *ExprRef) String() string { return fmt.Sprintf("%s@%d", r.Inner.String(), r.Index) }

func (r *ExprRef) Equal(other sql.Expr) bool {
	other = stripRef(other)
	return Equal(r.Inner, other)
}

func (r *ExprRef) Hash() uint64 { return r.Inner.Hash() }
