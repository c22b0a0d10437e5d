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

// CaseBranch is one WHEN cond THEN value arm.
type CaseBranch struct {
	Cond  sql.Expr
	Value sql.Expr
}

// CaseExpr is CASE [base] WHEN ... THEN ... [ELSE ...] END. When Base
// is non-nil each branch's Cond is compared for equality against it
// (simple CASE); otherwise each Cond must itself be boolean (searched
// CASE).
type CaseExpr struct {
	env
	Base     sql.Expr
	Branches []CaseBranch
	Else     sql.Expr
}

func NewCase(base sql.Expr, branches []CaseBranch, els sql.Expr) *CaseExpr {
	return &CaseExpr{env: newEnv(), Base: base, Branches: branches, Else: els}
}

func (c *CaseExpr) Children() []sql.Expr {
	var out []sql.Expr
	if c.Base != nil {
		out = append(out, c.Base)
	}
	for _, b := range c.Branches {
		out = append(out, b.Cond, b.Value)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}

func (c *CaseExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	i := 0
	base := c.Base
	if base != nil {
		base = children[i]
		i++
	}
	branches := make([]CaseBranch, len(c.Branches))
	for bi := range branches {
		branches[bi] = CaseBranch{Cond: children[i], Value: children[i+1]}
		i += 2
	}
	var els sql.Expr
	if c.Else != nil {
		els = children[i]
	}
	out := NewCase(base, branches, els)
	out.env = c.env
	return out, nil
}

func (c *CaseExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if c.bounded {
		return c, nil
	}
	var base sql.Expr
	var err error
	refs := []sql.Expr{}
	if c.Base != nil {
		base, err = c.Base.Bind(ctx)
		if err != nil {
			return nil, err
		}
		refs = append(refs, base)
	}
	branches := make([]CaseBranch, len(c.Branches))
	var resultType types.ColumnType
	haveType := false
	for i, b := range c.Branches {
		cond, err := b.Cond.Bind(ctx)
		if err != nil {
			return nil, err
		}
		if base == nil && cond.Type().Kind != types.Bool {
			return nil, sql.ErrTypeMismatch.New("CASE condition must be boolean")
		}
		if base != nil && !base.Type().CompatibleWith(cond.Type()) {
			return nil, sql.ErrTypeMismatch.New("CASE branch type does not match base expression")
		}
		val, err := b.Value.Bind(ctx)
		if err != nil {
			return nil, err
		}
		if haveType && !resultType.CompatibleWith(val.Type()) {
			return nil, sql.ErrTypeMismatch.New("CASE branch value types disagree")
		}
		resultType, haveType = val.Type(), true
		branches[i] = CaseBranch{Cond: cond, Value: val}
		refs = append(refs, cond, val)
	}
	var els sql.Expr
	if c.Else != nil {
		els, err = c.Else.Bind(ctx)
		if err != nil {
			return nil, err
		}
		if haveType && !resultType.CompatibleWith(els.Type()) {
			return nil, sql.ErrTypeMismatch.New("CASE else type disagrees with branch values")
		}
		refs = append(refs, els)
	}
	out := &CaseExpr{env: c.env, Base: base, Branches: branches, Else: els}
	out.typ = resultType
	out.bounded = true
	out.refs = unionRefs(refs...)
	return out, nil
}

func (c *CaseExpr) Clone() sql.Expr {
	out := *c
	if c.Base != nil {
		out.Base = c.Base.Clone()
	}
	out.Branches = make([]CaseBranch, len(c.Branches))
	for i, b := range c.Branches {
		out.Branches[i] = CaseBranch{Cond: b.Cond.Clone(), Value: b.Value.Clone()}
	}
	if c.Else != nil {
		out.Else = c.Else.Clone()
	}
	return &out
}

func (c *CaseExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	var baseVal types.Value
	if c.Base != nil {
		v, err := c.Base.Eval(ctx, row)
		if err != nil {
			return types.Value{}, err
		}
		baseVal = v
	}
	for _, b := range c.Branches {
		cv, err := b.Cond.Eval(ctx, row)
		if err != nil {
			return types.Value{}, err
		}
		matched := false
		if c.Base != nil {
			matched = !cv.IsNull && !baseVal.IsNull && types.Equal(baseVal, cv)
		} else {
			matched = !cv.IsNull && cv.Bool()
		}
		if matched {
			return b.Value.Eval(ctx, row)
		}
	}
	if c.Else != nil {
		return c.Else.Eval(ctx, row)
	}
	return types.NullOf(c.typ), nil
}

func (c *CaseExpr) String() string {
	s := "CASE"
	if c.Base != nil {
		s += " " + c.Base.String()
	}
	for _, b := range c.Branches {
		s += " WHEN " + b.Cond.String() + " THEN " + b.Value.String()
	}
	if c.Else != nil {
		s += " ELSE " + c.Else.String()
	}
	return s + " END"
}

func (c *CaseExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*CaseExpr)
	if !ok || len(c.Branches) != len(o.Branches) {
		return false
	}
	if (c.Base == nil) != (o.Base == nil) {
		return false
	}
	if c.Base != nil && !Equal(c.Base, o.Base) {
		return false
	}
	for i := range c.Branches {
		if !Equal(c.Branches[i].Cond, o.Branches[i].Cond) || !Equal(c.Branches[i].Value, o.Branches[i].Value) {
			return false
		}
	}
	if (c.Else == nil) != (o.Else == nil) {
		return false
	}
	if c.Else != nil && !Equal(c.Else, o.Else) {
		return false
	}
	return true
}

func (c *CaseExpr) Hash() uint64 {
	parts := []uint64{}
	if c.Base != nil {
		parts = append(parts, c.Base.Hash())
	}
	for _, b := range c.Branches {
		parts = append(parts, b.Cond.Hash(), b.Value.Hash())
	}
	if c.Else != nil {
		parts = append(parts, c.Else.Hash())
	}
	return hashCombine("case", parts...)
}
