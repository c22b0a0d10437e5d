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
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// OrderExpr wraps an ORDER BY term with its sort direction (§3's
// Order(expr, desc) variant). It delegates everything but String to
// its wrapped expression; the Order plan node is the thing that
// actually compares rows by OrderExpr.Desc.
type OrderExpr struct {
	env
	Target sql.Expr
	Desc   bool
}

func NewOrder(target sql.Expr, desc bool) *OrderExpr {
	return &OrderExpr{env: newEnv(), Target: target, Desc: desc}
}

func (o *OrderExpr) Children() []sql.Expr { return []sql.Expr{o.Target} }

func (o *OrderExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("OrderExpr takes exactly one child")
	}
	c := NewOrder(children[0], o.Desc)
	c.env = o.env
	return c, nil
}

func (o *OrderExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if o.bounded {
		return o, nil
	}
	t, err := o.Target.Bind(ctx)
	if err != nil {
		return nil, err
	}
	out := &OrderExpr{env: o.env, Target: t, Desc: o.Desc}
	out.typ = t.Type()
	out.bounded = true
	out.refs = unionRefs(t)
	return out, nil
}

func (o *OrderExpr) Clone() sql.Expr {
	c := *o
	c.Target = o.Target.Clone()
	return &c
}

func (o *OrderExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	return o.Target.Eval(ctx, row)
}

func (o *OrderExpr) String() string {
	if o.Desc {
		return o.Target.String() + " DESC"
	}
	return o.Target.String() + " ASC"
}

func (o *OrderExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	x, ok := other.(*OrderExpr)
	return ok && x.Desc == o.Desc && Equal(o.Target, x.Target)
}

func (o *OrderExpr) Hash() uint64 {
	d := uint64(0)
	if o.Desc {
		d = 1
	}
	return hashCombine("order", o.Target.Hash(), d)
}
