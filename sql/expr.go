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

package sql

import "github.com/bigwa/qpmodel/sql/types"

// Expr is the tagged expression algebra of §4.C. Every variant
// implements it; the envelope fields (alias, visible, type, bounded,
// table references) are exposed as methods rather than struct tags so
// that search/replace/visit can stay a pure structural operation over
// Children() without reflection (§9's redesign note).
type Expr interface {
	Stringer

	Children() []Expr
	WithChildren(children ...Expr) (Expr, error)

	// Alias returns the expression's AS-alias, or "" if none.
	Alias() string
	// Visible reports whether this expression should survive into a
	// user-facing result row (outer-ref plumbing columns are not).
	Visible() bool
	// Type is only meaningful once Bounded is true.
	Type() types.ColumnType
	// Bounded reports whether Bind has run.
	Bounded() bool
	// TableRefs is the set of TableRef identities (keys as handed out
	// by Binder.Resolve) this expression touches, after Bind. Outer
	// references are excluded so push-down never assigns them to this
	// node's own tables.
	TableRefs() map[interface{}]bool

	// Bind resolves identifiers and computes Type. It is idempotent:
	// calling Bind on an already-bound expression returns the
	// receiver unchanged. Binding returns a new, bound Expr rather
	// than mutating the receiver in place (§9's redesign note).
	Bind(ctx Binder) (Expr, error)
	// Clone returns a deep copy equal to the original under Equal and
	// Hash.
	Clone() Expr
	// Eval interprets the expression against the current row.
	Eval(ctx *Context, row Row) (types.Value, error)

	// Equal is structural equality by operator + children, ignoring
	// ExprRef wrappers.
	Equal(other Expr) bool
	// Hash is a structural hash consistent with Equal.
	Hash() uint64
}

// Conjunction is implemented by expressions that are themselves an
// AND of two sub-predicates, so the memo's signature computation can
// flatten a filter into its AND-list without depending on the
// concrete sql/expression package (§4.F).
type Conjunction interface {
	Conjuncts() []Expr
}

// FlattenConjuncts recursively decomposes e into its AND-list; a
// non-conjunction expression flattens to the single-element list
// [e].
func FlattenConjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if c, ok := e.(Conjunction); ok {
		var out []Expr
		for _, part := range c.Conjuncts() {
			out = append(out, FlattenConjuncts(part)...)
		}
		return out
	}
	return []Expr{e}
}

// Visitor is implemented by callers of Walk; returning nil stops the
// traversal from descending into the current node's children.
type Visitor interface {
	Visit(node Expr) Visitor
}

// Walk performs a pre-order traversal of e, calling v.Visit at every
// node. If v.Visit returns a non-nil Visitor, Walk continues into the
// node's children using that (possibly different) visitor; returning
// nil prunes the subtree.
func Walk(v Visitor, e Expr) {
	if e == nil || v == nil {
		return
	}
	if v = v.Visit(e); v == nil {
		return
	}
	for _, c := range e.Children() {
		Walk(v, c)
	}
}

type inspector func(Expr) bool

func (f inspector) Visit(e Expr) Visitor {
	if f(e) {
		return f
	}
	return nil
}

// VisitEach is a pre-order traversal that calls f at every node,
// skipping the subtree rooted at a node for which f returns false.
func VisitEach(e Expr, f func(Expr) bool) {
	Walk(inspector(f), e)
}

// VisitEachExists pre-order traverses e and returns true as soon as
// match returns true for some node, short-circuiting the remainder of
// the traversal.
func VisitEachExists(e Expr, match func(Expr) bool) bool {
	found := false
	VisitEach(e, func(n Expr) bool {
		if found {
			return false
		}
		if match(n) {
			found = true
			return false
		}
		return true
	})
	return found
}
