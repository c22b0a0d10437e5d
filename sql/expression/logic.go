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

// AndExpr is the LogicAnd variant. It implements sql.Conjunction so
// the memo's signature computation can flatten an AND-chain into a
// multiset without depending on this package (§4.F, §9).
type AndExpr struct {
	env
	Left, Right sql.Expr
}

func NewAnd(l, r sql.Expr) *AndExpr {
	e := newEnv()
	return &AndExpr{env: e, Left: l, Right: r}
}

func (a *AndExpr) Conjuncts() []sql.Expr { return []sql.Expr{a.Left, a.Right} }

func (a *AndExpr) Children() []sql.Expr { return []sql.Expr{a.Left, a.Right} }

func (a *AndExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("AndExpr takes exactly two children")
	}
	c := NewAnd(children[0], children[1])
	c.env = a.env
	return c, nil
}

func (a *AndExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if a.bounded {
		return a, nil
	}
	l, err := a.Left.Bind(ctx)
	if err != nil {
		return nil, err
	}
	r, err := a.Right.Bind(ctx)
	if err != nil {
		return nil, err
	}
	if !l.Type().CompatibleWith(types.NewBoolType()) || !r.Type().CompatibleWith(types.NewBoolType()) {
		return nil, sql.ErrTypeMismatch.New("AND operands must be boolean")
	}
	out := &AndExpr{env: a.env, Left: l, Right: r}
	out.typ = types.NewBoolType()
	out.bounded = true
	out.refs = unionRefs(l, r)
	return out, nil
}

func (a *AndExpr) Clone() sql.Expr {
	c := *a
	c.Left, c.Right = a.Left.Clone(), a.Right.Clone()
	return &c
}

func (a *AndExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	lv, err := a.Left.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if !lv.IsNull && !lv.Bool() {
		return types.BoolValue(false), nil
	}
	rv, err := a.Right.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if !rv.IsNull && !rv.Bool() {
		return types.BoolValue(false), nil
	}
	if lv.IsNull || rv.IsNull {
		return types.NullOf(types.NewBoolType()), nil
	}
	return types.BoolValue(true), nil
}

func (a *AndExpr) String() string { return "(" + a.Left.String() + " AND " + a.Right.String() + ")" }

func (a *AndExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*AndExpr)
	if !ok {
		return false
	}
	return Equal(a.Left, o.Left) && Equal(a.Right, o.Right)
}

func (a *AndExpr) Hash() uint64 { return hashCombine("and", a.Left.Hash(), a.Right.Hash()) }

// OrExpr is a plain logical OR; unlike AND it does not flatten into
// the memo signature's conjunct multiset.
type OrExpr struct {
	env
	Left, Right sql.Expr
}

func NewOr(l, r sql.Expr) *OrExpr {
	e := newEnv()
	return &OrExpr{env: e, Left: l, Right: r}
}

func (o *OrExpr) Children() []sql.Expr { return []sql.Expr{o.Left, o.Right} }

func (o *OrExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("OrExpr takes exactly two children")
	}
	c := NewOr(children[0], children[1])
	c.env = o.env
	return c, nil
}

func (o *OrExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if o.bounded {
		return o, nil
	}
	l, err := o.Left.Bind(ctx)
	if err != nil {
		return nil, err
	}
	r, err := o.Right.Bind(ctx)
	if err != nil {
		return nil, err
	}
	out := &OrExpr{env: o.env, Left: l, Right: r}
	out.typ = types.NewBoolType()
	out.bounded = true
	out.refs = unionRefs(l, r)
	return out, nil
}

func (o *OrExpr) Clone() sql.Expr {
	c := *o
	c.Left, c.Right = o.Left.Clone(), o.Right.Clone()
	return &c
}

func (o *OrExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	lv, err := o.Left.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if !lv.IsNull && lv.Bool() {
		return types.BoolValue(true), nil
	}
	rv, err := o.Right.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if !rv.IsNull && rv.Bool() {
		return types.BoolValue(true), nil
	}
	if lv.IsNull || rv.IsNull {
		return types.NullOf(types.NewBoolType()), nil
	}
	return types.BoolValue(false), nil
}

func (o *OrExpr) String() string { return "(" + o.Left.String() + " OR " + o.Right.String() + ")" }

func (o *OrExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	x, ok := other.(*OrExpr)
	if !ok {
		return false
	}
	return Equal(o.Left, x.Left) && Equal(o.Right, x.Right)
}

func (o *OrExpr) Hash() uint64 { return hashCombine("or", o.Left.Hash(), o.Right.Hash()) }

// NotExpr negates a boolean operand.
type NotExpr struct {
	env
	Operand sql.Expr
}

func NewNot(e sql.Expr) *NotExpr {
	return &NotExpr{env: newEnv(), Operand: e}
}

func (n *NotExpr) Children() []sql.Expr { return []sql.Expr{n.Operand} }

func (n *NotExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("NotExpr takes exactly one child")
	}
	c := NewNot(children[0])
	c.env = n.env
	return c, nil
}

func (n *NotExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if n.bounded {
		return n, nil
	}
	inner, err := n.Operand.Bind(ctx)
	if err != nil {
		return nil, err
	}
	out := &NotExpr{env: n.env, Operand: inner}
	out.typ = types.NewBoolType()
	out.bounded = true
	out.refs = unionRefs(inner)
	return out, nil
}

func (n *NotExpr) Clone() sql.Expr {
	c := *n
	c.Operand = n.Operand.Clone()
	return &c
}

func (n *NotExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	v, err := n.Operand.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if v.IsNull {
		return v, nil
	}
	return types.BoolValue(!v.Bool()), nil
}

func (n *NotExpr) String() string { return "NOT " + n.Operand.String() }

func (n *NotExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*NotExpr)
	if !ok {
		return false
	}
	return Equal(n.Operand, o.Operand)
}

func (n *NotExpr) Hash() uint64 { return hashCombine("not", n.Operand.Hash()) }
