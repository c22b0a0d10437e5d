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

// Package expression implements the expression algebra of spec §4.C:
// every variant carries the common envelope (alias, visible, type,
// bounded, tableRefs) described there, exposed through sql.Expr.
package expression

import (
	"hash/fnv"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// env is the common envelope embedded by every expression variant.
type env struct {
	alias   string
	visible bool
	typ     types.ColumnType
	bounded bool
	refs    map[interface{}]bool
}

func newEnv() env { return env{visible: true} }

func (e *env) Alias() string               { return e.alias }
func (e *env) Visible() bool               { return e.visible }
func (e *env) Type() types.ColumnType      { return e.typ }
func (e *env) Bounded() bool               { return e.bounded }
func (e *env) TableRefs() map[interface{}]bool { return e.refs }

// WithAlias returns an alias-carrying copy of a Literal or ColExpr;
// any other expression is returned as is, without the alias.
func WithAlias(e sql.Expr, alias string) sql.Expr {
	switch v := e.(type) {
	case *Literal:
		c := *v
		c.alias = alias
		return &c
	case *ColExpr:
		c := *v
		c.alias = alias
		return &c
	default:
		return e
	}
}

// unionRefs merges the TableRefs sets of a list of children, the rule
// every non-ColExpr variant uses to compute its own TableRefs: the
// union of child TableRefs, minus outer references (which children
// already excluded themselves).
func unionRefs(children ...sql.Expr) map[interface{}]bool {
	out := make(map[interface{}]bool)
	for _, c := range children {
		if c == nil {
			continue
		}
		for k := range c.TableRefs() {
			out[k] = true
		}
	}
	return out
}

// hashCombine folds a tag and a set of child hashes into one value,
// the structural hash every variant's Hash() builds from.
func hashCombine(tag string, parts ...uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tag))
	buf := make([]byte, 8)
	for _, p := range parts {
		for i := 0; i < 8; i++ {
			buf[i] = byte(p >> (8 * i))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// stripRef unwraps an ExprRef wrapper, used by Equal/Hash so that
// structural comparison is "by operator + children, after stripping
// ExprRef wrappers" (spec §4.C).
func stripRef(e sql.Expr) sql.Expr {
	for {
		r, ok := e.(*ExprRef)
		if !ok {
			return e
		}
		e = r.Inner
	}
}

func childrenEqual(a, b []sql.Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Equal compares two expressions structurally, stripping ExprRef
// wrappers on both sides first.
func Equal(a, b sql.Expr) bool {
	a, b = stripRef(a), stripRef(b)
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}
