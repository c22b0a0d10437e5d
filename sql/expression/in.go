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

// InExpr is `expr IN (list)` over a literal/expression list (as
// opposed to InSubquery, which wraps a bound nested SELECT).
type InExpr struct {
	env
	Left sql.Expr
	List []sql.Expr
}

func NewIn(left sql.Expr, list []sql.Expr) *InExpr {
	return &InExpr{env: newEnv(), Left: left, List: list}
}

func (in *InExpr) Children() []sql.Expr {
	return append([]sql.Expr{in.Left}, in.List...)
}

func (in *InExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) < 1 {
		return nil, sql.ErrEval.New("InExpr needs at least a left operand")
	}
	c := NewIn(children[0], children[1:])
	c.env = in.env
	return c, nil
}

func (in *InExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if in.bounded {
		return in, nil
	}
	l, err := in.Left.Bind(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]sql.Expr, len(in.List))
	refs := []sql.Expr{l}
	for i, item := range in.List {
		b, err := item.Bind(ctx)
		if err != nil {
			return nil, err
		}
		if !l.Type().CompatibleWith(b.Type()) {
			return nil, sql.ErrTypeMismatch.New("IN list element type does not match left operand")
		}
		list[i] = b
		refs = append(refs, b)
	}
	out := &InExpr{env: in.env, Left: l, List: list}
	out.typ = types.NewBoolType()
	out.bounded = true
	out.refs = unionRefs(refs...)
	return out, nil
}

func (in *InExpr) Clone() sql.Expr {
	c := *in
	c.Left = in.Left.Clone()
	c.List = make([]sql.Expr, len(in.List))
	for i, e := range in.List {
		c.List[i] = e.Clone()
	}
	return &c
}

func (in *InExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	lv, err := in.Left.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if lv.IsNull {
		return types.NullOf(types.NewBoolType()), nil
	}
	sawNull := false
	for _, item := range in.List {
		iv, err := item.Eval(ctx, row)
		if err != nil {
			return types.Value{}, err
		}
		if iv.IsNull {
			sawNull = true
			continue
		}
		if types.Equal(lv, iv) {
			return types.BoolValue(true), nil
		}
	}
	if sawNull {
		return types.NullOf(types.NewBoolType()), nil
	}
	return types.BoolValue(false), nil
}

func (in *InExpr) String() string {
	s := in.Left.String() + " IN ("
	for i, e := range in.List {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

func (in *InExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*InExpr)
	if !ok || !Equal(in.Left, o.Left) {
		return false
	}
	return childrenEqual(in.List, o.List)
}

func (in *InExpr) Hash() uint64 {
	parts := []uint64{in.Left.Hash()}
	for _, e := range in.List {
		parts = append(parts, e.Hash())
	}
	return hashCombine("in", parts...)
}
