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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

func TestGetResolveOrdinalRejectsForeignColumn(t *testing.T) {
	require := require.New(t)
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(err)
	bt, err := cat.Table("b")
	require.NoError(err)

	aref := NewBaseTableRef("a", at)
	bref := NewBaseTableRef("b", bt)
	get := NewGet(aref)

	foreign := expression.NewBoundColumn(bref.AllColumns()[0])
	_, err = get.ResolveOrdinal([]sql.Expr{foreign}, false)
	require.Error(err)
}

func TestGetResolveOrdinalProducesPositionalRefs(t *testing.T) {
	require := require.New(t)
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(err)

	aref := NewBaseTableRef("a", at)
	get := NewGet(aref)
	cols := aref.AllColumns()

	requested := []sql.Expr{
		expression.NewBoundColumn(cols[2]),
		expression.NewBoundColumn(cols[0]),
	}
	resolved, err := get.ResolveOrdinal(requested, false)
	require.NoError(err)
	require.Len(resolved.Output(), 2)

	ref0, ok := resolved.Output()[0].(*expression.ExprRef)
	require.True(ok)
	require.Equal(2, ref0.Index)

	ref1, ok := resolved.Output()[1].(*expression.ExprRef)
	require.True(ok)
	require.Equal(0, ref1.Index)
}

func TestJoinResolveOrdinalPartitionsColumnsBySide(t *testing.T) {
	require := require.New(t)
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(err)
	bt, err := cat.Table("b")
	require.NoError(err)

	aref := NewBaseTableRef("a", at)
	bref := NewBaseTableRef("b", bt)
	acols := aref.AllColumns()
	bcols := bref.AllColumns()

	pred := expression.NewEquals(
		expression.NewBoundColumn(acols[0]),
		expression.NewBoundColumn(bcols[0]),
	)
	join := NewJoin(InnerJoin, NewGet(aref), NewGet(bref), pred)

	requested := []sql.Expr{
		expression.NewBoundColumn(acols[1]),
		expression.NewBoundColumn(bcols[1]),
	}
	resolved, err := join.ResolveOrdinal(requested, false)
	require.NoError(err)

	j := resolved.(*Join)
	// Requested (a2, b2) is gathered before the predicate's own (a1,
	// b1), so left's column list is [a2, a1] and right's is [b2, b1]:
	// a2 lands at the start of the left block (index 0) and b2 at the
	// start of the right block (index len(leftReq)=2).
	require.Len(j.Output(), 2)
	out0 := j.Output()[0].(*expression.ExprRef)
	require.Equal(0, out0.Index)
	out1 := j.Output()[1].(*expression.ExprRef)
	require.Equal(2, out1.Index)

	left := j.Left.(*Get)
	right := j.Right.(*Get)
	require.Len(left.Output(), 2)
	require.Len(right.Output(), 2)
}

func TestJoinResolveOrdinalRejectsColumnFromNeitherSide(t *testing.T) {
	require := require.New(t)
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(err)
	bt, err := cat.Table("b")
	require.NoError(err)
	ct, err := cat.Table("c")
	require.NoError(err)

	aref := NewBaseTableRef("a", at)
	bref := NewBaseTableRef("b", bt)
	cref := NewBaseTableRef("c", ct)

	join := NewJoin(InnerJoin, NewGet(aref), NewGet(bref), nil)
	stray := expression.NewBoundColumn(cref.AllColumns()[0])

	_, err = join.ResolveOrdinal([]sql.Expr{stray}, false)
	require.Error(err)
}

func TestResultPushesSelectionThroughFilter(t *testing.T) {
	require := require.New(t)
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(err)

	aref := NewBaseTableRef("a", at)
	cols := aref.AllColumns()

	filter := NewFilter(
		NewGet(aref),
		expression.NewGreaterThan(expression.NewBoundColumn(cols[0]), expression.NewBoundColumn(cols[0])),
	)
	result := NewResult(filter, []sql.Expr{expression.NewBoundColumn(cols[1])})

	resolved, err := result.ResolveOrdinal(nil, false)
	require.NoError(err)
	require.Len(resolved.Output(), 1)

	// The Get beneath Filter must have been asked for both a1 (filter's
	// own column) and a2 (the selection), even though the selection
	// alone never mentions a1.
	f := resolved.(*Result).Child.(*Filter)
	g := f.Child.(*Get)
	require.Len(g.Output(), 2)
}

func TestFromQueryWithChildrenPreservesRefIdentity(t *testing.T) {
	require := require.New(t)
	cat := catalog.NewFixtureCatalog()
	at, err := cat.Table("a")
	require.NoError(err)

	aref := NewBaseTableRef("a", at)
	ref := NewFromQueryRef("sub", NewGet(aref))
	fq := NewFromQuery(ref)

	before := fq.RefKey()
	replaced, err := fq.WithChildren(NewGet(aref))
	require.NoError(err)
	require.Equal(before, replaced.(*FromQuery).RefKey())
}
