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
	"errors"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// SubqueryKind distinguishes the three subquery expression shapes of
// §3/§4.C.
type SubqueryKind int

const (
	SubqueryScalarKind SubqueryKind = iota
	SubqueryExistsKind
	SubqueryInKind
)

// stopIteration is returned by a capturing callback to abort a pull
// early (exists needs only the first row; scalar needs to notice a
// second one).
var stopIteration = errors.New("subquery: stop iteration")

// SubqueryExpr is the SubqueryScalar/Exists/In variant. Inner holds
// the unbound AST of the nested SELECT, opaque to this package; Bind
// recursively binds it via ctx.BindSubquery and records the
// resulting sql.Subquery. For SubqueryInKind, Probe is the left-hand
// expression tested against the subquery's result set.
type SubqueryExpr struct {
	env
	Kind  SubqueryKind
	Not   bool
	Inner interface{}
	Probe sql.Expr
	Bound sql.Subquery

	cached    bool
	cachedVal types.Value
	cachedSet map[interface{}]bool
}

func NewSubqueryScalar(inner interface{}) *SubqueryExpr {
	return &SubqueryExpr{env: newEnv(), Kind: SubqueryScalarKind, Inner: inner}
}

func NewSubqueryExists(inner interface{}, not bool) *SubqueryExpr {
	return &SubqueryExpr{env: newEnv(), Kind: SubqueryExistsKind, Not: not, Inner: inner}
}

func NewSubqueryIn(probe sql.Expr, inner interface{}, not bool) *SubqueryExpr {
	return &SubqueryExpr{env: newEnv(), Kind: SubqueryInKind, Not: not, Inner: inner, Probe: probe}
}

func (s *SubqueryExpr) Children() []sql.Expr {
	if s.Probe != nil {
		return []sql.Expr{s.Probe}
	}
	return nil
}

func (s *SubqueryExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	c := *s
	if s.Probe != nil {
		if len(children) != 1 {
			return nil, sql.ErrEval.New("SubqueryExpr takes exactly one child")
		}
		c.Probe = children[0]
	}
	return &c, nil
}

// Bind recursively binds the inner statement in a fresh child scope,
// requires single-column projection for scalar/IN, and records the
// subquery's statement-global id (§4.C, §4.D).
func (s *SubqueryExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if s.bounded {
		return s, nil
	}
	bound, err := ctx.BindSubquery(s.Inner)
	if err != nil {
		return nil, err
	}
	if s.Kind != SubqueryExistsKind && len(bound.Columns()) != 1 {
		return nil, sql.ErrSubqueryShape.New(len(bound.Columns()))
	}
	out := &SubqueryExpr{env: s.env, Kind: s.Kind, Not: s.Not, Inner: s.Inner, Bound: bound}
	switch s.Kind {
	case SubqueryExistsKind:
		out.typ = types.NewBoolType()
		out.refs = map[interface{}]bool{}
	case SubqueryScalarKind:
		out.typ = bound.Columns()[0].Type()
		out.refs = map[interface{}]bool{}
	case SubqueryInKind:
		probe, err := s.Probe.Bind(ctx)
		if err != nil {
			return nil, err
		}
		if !probe.Type().CompatibleWith(bound.Columns()[0].Type()) {
			return nil, sql.ErrTypeMismatch.New("IN subquery column type does not match probe expression")
		}
		out.Probe = probe
		out.typ = types.NewBoolType()
		out.refs = unionRefs(probe)
	}
	out.bounded = true
	return out, nil
}

func (s *SubqueryExpr) Clone() sql.Expr {
	c := *s
	if s.Probe != nil {
		c.Probe = s.Probe.Clone()
	}
	c.cached = false
	c.cachedSet = nil
	return &c
}

func (s *SubqueryExpr) physical() (sql.PhysicalNode, error) {
	p, ok := s.Bound.Lowered()
	if !ok {
		return nil, sql.ErrEval.New("subquery not lowered to a physical plan before execution")
	}
	return p, nil
}

// Eval invokes the inner physical plan with a one-row capturing
// callback, per §4.G: exists stops at the first row, scalar requires
// at most one row, in materializes the whole set for membership
// testing. A cacheable subquery's result is computed once and reused
// across outer rows (§4.C).
func (s *SubqueryExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	switch s.Kind {
	case SubqueryExistsKind:
		return s.evalExists(ctx)
	case SubqueryScalarKind:
		return s.evalScalar(ctx)
	case SubqueryInKind:
		return s.evalIn(ctx, row)
	default:
		return types.Value{}, sql.ErrEval.New("unknown subquery kind")
	}
}

func (s *SubqueryExpr) evalExists(ctx *sql.Context) (types.Value, error) {
	if s.Bound.Cacheable() && s.cached {
		return s.cachedVal, nil
	}
	p, err := s.physical()
	if err != nil {
		return types.Value{}, err
	}
	found := false
	err = p.Exec(ctx, func(sql.Row) error {
		found = true
		return stopIteration
	})
	if err != nil && err != stopIteration {
		return types.Value{}, err
	}
	result := found
	if s.Not {
		result = !result
	}
	v := types.BoolValue(result)
	if s.Bound.Cacheable() {
		s.cached, s.cachedVal = true, v
	}
	return v, nil
}

func (s *SubqueryExpr) evalScalar(ctx *sql.Context) (types.Value, error) {
	if s.Bound.Cacheable() && s.cached {
		return s.cachedVal, nil
	}
	p, err := s.physical()
	if err != nil {
		return types.Value{}, err
	}
	var result types.Value
	result = types.NullOf(s.typ)
	count := 0
	err = p.Exec(ctx, func(r sql.Row) error {
		count++
		if count > 1 {
			return sql.ErrSubqueryMultipleRows.New()
		}
		result = r[0]
		return nil
	})
	if err != nil {
		return types.Value{}, err
	}
	if s.Bound.Cacheable() {
		s.cached, s.cachedVal = true, result
	}
	return result, nil
}

func (s *SubqueryExpr) evalIn(ctx *sql.Context, row sql.Row) (types.Value, error) {
	probe, err := s.Probe.Eval(ctx, row)
	if err != nil {
		return types.Value{}, err
	}
	if probe.IsNull {
		return types.NullOf(types.NewBoolType()), nil
	}
	set := s.cachedSet
	if set == nil || !s.Bound.Cacheable() {
		p, err := s.physical()
		if err != nil {
			return types.Value{}, err
		}
		set = make(map[interface{}]bool)
		err = p.Exec(ctx, func(r sql.Row) error {
			if !r[0].IsNull {
				set[types.HashKey(r[0])] = true
			}
			return nil
		})
		if err != nil {
			return types.Value{}, err
		}
		if s.Bound.Cacheable() {
			s.cachedSet = set
		}
	}
	found := set[types.HashKey(probe)]
	if s.Not {
		found = !found
	}
	return types.BoolValue(found), nil
}

func (s *SubqueryExpr) String() string {
	switch s.Kind {
	case SubqueryExistsKind:
		if s.Not {
			return "NOT EXISTS (subquery)"
		}
		return "EXISTS (subquery)"
	case SubqueryInKind:
		if s.Not {
			return s.Probe.String() + " NOT IN (subquery)"
		}
		return s.Probe.String() + " IN (subquery)"
	default:
		return "(subquery)"
	}
}

// Equal treats subquery expressions as equal only to themselves or a
// clone of themselves: two structurally identical but independently
// planned subqueries are not interchangeable, since each carries its
// own cache and subquery id (§4.D).
func (s *SubqueryExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*SubqueryExpr)
	if !ok {
		return false
	}
	return s.Bound != nil && o.Bound != nil && s.Bound.ID() == o.Bound.ID()
}

func (s *SubqueryExpr) Hash() uint64 {
	id := -1
	if s.Bound != nil {
		id = s.Bound.ID()
	}
	return hashCombine("subquery", uint64(s.Kind), uint64(id))
}
