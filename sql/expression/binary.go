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

// BinExpr covers arithmetic (+ - * / %), comparison (= <> < <= > >=)
// and `like`. The result type rule lives in types.BinaryResultType
// (spec §4.A): arithmetic keeps/promotes the numeric operand type,
// everything else yields Bool.
type BinExpr struct {
	env
	Op          string
	Left, Right sql.Expr
}

func NewBinary(op string, l, r sql.Expr) *BinExpr {
	e := newEnv()
	return &BinExpr{env: e, Op: op, Left: l, Right: r}
}

func NewEquals(l, r sql.Expr) *BinExpr             { return NewBinary("=", l, r) }
func NewNotEquals(l, r sql.Expr) *BinExpr           { return NewBinary("<>", l, r) }
func NewGreaterThan(l, r sql.Expr) *BinExpr         { return NewBinary(">", l, r) }
func NewGreaterThanOrEqual(l, r sql.Expr) *BinExpr  { return NewBinary(">=", l, r) }
func NewLessThan(l, r sql.Expr) *BinExpr            { return NewBinary("<", l, r) }
func NewLessThanOrEqual(l, r sql.Expr) *BinExpr     { return NewBinary("<=", l, r) }
func NewLike(l, r sql.Expr) *BinExpr                { return NewBinary("like", l, r) }
func NewArithmetic(op string, l, r sql.Expr) *BinExpr { return NewBinary(op, l, r) }

func (b *BinExpr) Children() []sql.Expr { return []sql.Expr{b.Left, b.Right} }

func (b *BinExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrEval.New("BinExpr takes exactly two children")
	}
	c := NewBinary(b.Op, children[0], children[1])
	c.env = b.env
	return c, nil
}

func (b *BinExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if b.bounded {
		return b, nil
	}
	l, err := b.Left.Bind(ctx)
	if err != nil {
		return nil, err
	}
	r, err := b.Right.Bind(ctx)
	if err != nil {
		return nil, err
	}
	rt, ok := types.BinaryResultType(b.Op, l.Type(), r.Type())
	if !ok {
		return nil, sql.ErrTypeMismatch.New(b.Op + " between " + l.Type().String() + " and " + r.Type().String())
	}
	out := &BinExpr{env: b.env, Op: b.Op, Left: l, Right: r}
	out.typ = rt
	out.bounded = true
	out.refs = unionRefs(l, r)
	return out, nil
}

func (b *BinExpr) Clone() sql.Expr {
	c := *b
	c.Left, c.Right = b.Left.Clone(), b.Right.Clone()
	return &c
}

func (b *BinExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	lv, err := b.Left.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	rv, err := b.Right.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	switch b.Op {
	case "+", "-", "*", "/", "%":
		v, err := types.Arithmetic(b.Op, lv, rv)
		if err != nil {
			return types.Value{}, sql.ErrEval.New(err.Error())
		}
		return v, nil
	case "like":
		if lv.IsNull || rv.IsNull {
			return types.NullOf(types.NewBoolType()), nil
		}
		return types.BoolValue(types.Like(lv.Str(), rv.Str())), nil
	default:
		if lv.IsNull || rv.IsNull {
			return types.NullOf(types.NewBoolType()), nil
		}
		c, err := types.Compare(lv, rv)
		if err != nil {
			return types.Value{}, sql.ErrEval.New(err.Error())
		}
		var result bool
		switch b.Op {
		case "=":
			result = c == 0
		case "<>", "!=":
			result = c != 0
		case "<":
			result = c < 0
		case "<=":
			result = c <= 0
		case ">":
			result = c > 0
		case ">=":
			result = c >= 0
		}
		return types.BoolValue(result), nil
	}
}

func (b *BinExpr) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

func (b *BinExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*BinExpr)
	if !ok || o.Op != b.Op {
		return false
	}
	return Equal(b.Left, o.Left) && Equal(b.Right, o.Right)
}

func (b *BinExpr) Hash() uint64 {
	return hashCombine("bin:"+b.Op, b.Left.Hash(), b.Right.Hash())
}
