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

package sql_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// leaf is a minimal sql.Expr stand-in so this package's traversal
// helpers (Walk/VisitEach/FlattenConjuncts) can be exercised without
// importing sql/expression, which itself depends on sql.
type leaf struct {
	name     string
	children []sql.Expr
}

func (l *leaf) String() string                              { return l.name }
func (l *leaf) Children() []sql.Expr                         { return l.children }
func (l *leaf) WithChildren(c ...sql.Expr) (sql.Expr, error)  { l2 := *l; l2.children = c; return &l2, nil }
func (l *leaf) Alias() string                                { return "" }
func (l *leaf) Visible() bool                                { return true }
func (l *leaf) Type() types.ColumnType                       { return types.NewIntType() }
func (l *leaf) Bounded() bool                                { return true }
func (l *leaf) TableRefs() map[interface{}]bool              { return nil }
func (l *leaf) Bind(ctx sql.Binder) (sql.Expr, error)        { return l, nil }
func (l *leaf) Clone() sql.Expr                              { c := *l; return &c }
func (l *leaf) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	return types.Value{}, nil
}
func (l *leaf) Equal(other sql.Expr) bool { o, ok := other.(*leaf); return ok && o.name == l.name }
func (l *leaf) Hash() uint64              { return 0 }

// and is a minimal sql.Conjunction stand-in.
type and struct {
	leaf
	left, right sql.Expr
}

func newAnd(left, right sql.Expr) *and {
	return &and{leaf: leaf{name: "AND"}, left: left, right: right}
}

func (a *and) Conjuncts() []sql.Expr { return []sql.Expr{a.left, a.right} }
func (a *and) Children() []sql.Expr  { return []sql.Expr{a.left, a.right} }

func TestFlattenConjunctsDecomposesNestedAnds(t *testing.T) {
	x := &leaf{name: "x"}
	y := &leaf{name: "y"}
	z := &leaf{name: "z"}
	tree := newAnd(newAnd(x, y), z)

	flat := sql.FlattenConjuncts(tree)
	require.Equal(t, []sql.Expr{x, y, z}, flat)
}

func TestFlattenConjunctsOfNonConjunctionIsSingleton(t *testing.T) {
	x := &leaf{name: "x"}
	require.Equal(t, []sql.Expr{x}, sql.FlattenConjuncts(x))
}

func TestFlattenConjunctsOfNilIsEmpty(t *testing.T) {
	require.Nil(t, sql.FlattenConjuncts(nil))
}

func TestVisitEachSkipsPrunedSubtree(t *testing.T) {
	x := &leaf{name: "x"}
	y := &leaf{name: "y"}
	parent := &leaf{name: "p", children: []sql.Expr{x, y}}

	var visited []string
	sql.VisitEach(parent, func(e sql.Expr) bool {
		visited = append(visited, e.String())
		return e.String() != "x" // prune x's (nonexistent) children, descend into y's
	})
	require.Equal(t, []string{"p", "x", "y"}, visited)
}

func TestVisitEachExistsShortCircuits(t *testing.T) {
	x := &leaf{name: "x"}
	y := &leaf{name: "y"}
	parent := &leaf{name: "p", children: []sql.Expr{x, y}}

	calls := 0
	found := sql.VisitEachExists(parent, func(e sql.Expr) bool {
		calls++
		return e.String() == "x"
	})
	require.True(t, found)
	require.Equal(t, 2, calls, "traversal should stop as soon as x is found")
}

func TestRowConcatPreservesOrderAndWidth(t *testing.T) {
	left := sql.NewRow(types.IntValue(1), types.IntValue(2))
	right := sql.NewRow(types.IntValue(3))

	joined := left.Concat(right)
	require.Len(t, joined, 3)
	require.Equal(t, types.IntValue(1), joined[0])
	require.Equal(t, types.IntValue(3), joined[2])
}

func TestRowCopyIsIndependent(t *testing.T) {
	r := sql.NewRow(types.IntValue(1))
	c := r.Copy()
	c[0] = types.IntValue(2)
	require.Equal(t, types.IntValue(1), r[0])
}

func TestNullsFillsRowWithNullValues(t *testing.T) {
	r := sql.Nulls(3)
	require.Len(t, r, 3)
	for _, v := range r {
		require.Equal(t, types.Null, v)
	}
}

func TestContextPublishAndGetParamRoundTrip(t *testing.T) {
	ctx := sql.NewEmptyContext()
	key := "outer-table"
	row := sql.NewRow(types.IntValue(5))

	require.Nil(t, ctx.GetParam(key))
	ctx.PublishParam(key, row)
	require.Equal(t, row, ctx.GetParam(key))

	// A later publish under the same key overwrites the prior value.
	next := sql.NewRow(types.IntValue(6))
	ctx.PublishParam(key, next)
	require.Equal(t, next, ctx.GetParam(key))
}

func TestNewEmptyContextStampsUniqueIDs(t *testing.T) {
	a := sql.NewEmptyContext()
	b := sql.NewEmptyContext()
	require.NotEqual(t, a.ID(), b.ID())
}
