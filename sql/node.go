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

// Node is the common contract for every logical plan node (spec §3,
// §4.E): a tree with children and a resolved output list. Ordinal
// resolution is itself part of the contract so the top-down rewrite
// described in §4.E can be driven generically instead of via a type
// switch over every plan node kind.
type Node interface {
	Stringer

	// Children returns the node's child plan nodes, logical children
	// only (MemoRef substitutes these once memo exploration starts).
	Children() []Node
	// WithChildren returns a copy of the node with its children
	// replaced; used by the memo to splice in MemoRef placeholders.
	WithChildren(children ...Node) (Node, error)
	// Output returns the node's current resolved output list. Empty
	// until ResolveOrdinal has run.
	Output() []Expr
	// ResolveOrdinal performs the top-down ordinal resolution pass:
	// it sets every descendant's Output (recursively) and returns a
	// copy of the receiver whose own expressions have been rewritten
	// against the (now resolved) child output, per node-kind rules in
	// §4.E.
	ResolveOrdinal(requested []Expr, removeRedundant bool) (Node, error)
}

// Stringer mirrors fmt.Stringer; declared locally so Node doesn't pull
// in the fmt package's doc comment noise for implementers skimming
// this file.
type Stringer interface {
	String() string
}

// PhysicalNode mirrors Node on the physical side: pull-model
// executors driven by a row callback (§4.G), each exposing a cost.
type PhysicalNode interface {
	Stringer

	Children() []PhysicalNode
	WithChildren(children ...PhysicalNode) (PhysicalNode, error)
	// Exec drives the operator: it calls child.Exec and invokes cb
	// zero or more times with produced rows. Returning an error from
	// cb aborts the pull early (used by Limit and by subquery capture
	// callbacks that only want the first row).
	Exec(ctx *Context, cb func(Row) error) error
	// Cost is a positive double; Scan is constant, NLJoin is the
	// product of child min-costs, HashJoin the sum (§4.F).
	Cost() float64
	// Logical is a back-reference to the logical node this physical
	// node was lowered from, used by EXPLAIN and by debugging.
	Logical() Node
}

// Binder is the minimal surface sql/expression needs from a binding
// scope, implemented by plan.BindContext. Keeping it an interface
// here (rather than expression depending on the plan package
// directly) avoids a plan<->expression import cycle: plan imports
// expression to build logical nodes, so expression cannot import
// plan back.
type Binder interface {
	// Resolve looks up a (possibly qualified) column name: first in
	// the current scope, then by walking to parent scopes. A match in
	// an ancestor scope is reported as an outer reference and is
	// recorded against that ancestor's owning table.
	Resolve(tableQualifier, column string) (ColumnRef, error)
	// NewSubqueryID returns the next id from the statement-global
	// counter rooted at the parentless BindContext (§4.D).
	NewSubqueryID() int
	// BindSubquery recursively binds a nested SELECT (opaque to
	// sql/expression, which never imports the plan/ast packages) in a
	// fresh child scope and returns a bound Subquery.
	BindSubquery(inner interface{}) (Subquery, error)
	// Columns returns every visible column in scope, optionally
	// restricted to one table alias ("" means all tables); used to
	// expand a SelStar before the tree is bound (§4.C).
	Columns(tableQualifier string) ([]ColumnRef, error)
}

// ColumnRef is what a successful Binder.Resolve call returns.
type ColumnRef struct {
	TableKey   interface{}
	TableAlias string
	ColumnName string
	Ordinal    int
	Type       types.ColumnType
	IsOuterRef bool
}

// Subquery is the bound form of a correlated or uncorrelated nested
// SELECT, as attached to a SubqueryScalar/Exists/In expression. The
// plan package supplies the concrete implementation; sql/expression
// only ever sees this interface.
type Subquery interface {
	Stringer
	// Cacheable reports whether the subquery's result is invariant
	// across outer rows (§4.C): neither it nor any transitive inner
	// subquery correlates to a table outside its own scope.
	Cacheable() bool
	// ID is the subquery's statement-global numbering (§4.D).
	ID() int
	// Lowered returns the subquery's physical plan, set once the
	// enclosing statement has been lowered. Returns nil, false before
	// that point.
	Lowered() (PhysicalNode, bool)
	// SetLowered attaches the physical plan once lowering completes.
	SetLowered(PhysicalNode)
	// Columns returns the (single-column, per §4.C) projected schema
	// of the bound inner query.
	Columns() []Expr
}
