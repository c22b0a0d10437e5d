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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/sql/types"
)

func TestCloneEquality(t *testing.T) {
	require := require.New(t)

	e := NewAnd(
		NewEquals(NewLiteral(types.IntValue(1)), NewLiteral(types.IntValue(1))),
		NewLike(NewLiteral(types.CharValue("abc")), NewLiteral(types.CharValue("a%"))),
	)
	c := e.Clone()
	require.True(Equal(e, c))
	require.Equal(e.Hash(), c.Hash())
}

func TestBindIdempotence(t *testing.T) {
	require := require.New(t)

	lit := NewLiteral(types.IntValue(1))
	b1, err := lit.Bind(nil)
	require.NoError(err)
	b2, err := b1.Bind(nil)
	require.NoError(err)
	require.Equal(b1.Type(), b2.Type())
	require.True(Equal(b1, b2))
}

func TestSearchReplaceIdentity(t *testing.T) {
	require := require.New(t)

	x := NewLiteral(types.IntValue(42))
	e := NewAnd(x, NewLiteral(types.BoolValue(true)))

	out := SearchReplace(e, x, x)
	require.True(Equal(e, out))
}

func TestSearchReplaceReplaces(t *testing.T) {
	require := require.New(t)

	x := NewLiteral(types.IntValue(1))
	y := NewLiteral(types.IntValue(2))
	e := NewAnd(x, NewLiteral(types.BoolValue(true)))

	out := SearchReplace(e, x, y)
	and, ok := out.(*AndExpr)
	require.True(ok)
	require.True(Equal(and.Left, y))
}

func TestExprRefNeverWrapsExprRef(t *testing.T) {
	require := require.New(t)

	inner := NewLiteral(types.IntValue(7))
	r1 := NewExprRef(inner, 0)
	r2 := NewExprRef(r1, 1)

	_, isRef := r2.Inner.(*ExprRef)
	require.False(isRef)
	require.Equal(1, r2.Index)
}

func TestAndShortCircuitsFalse(t *testing.T) {
	require := require.New(t)

	e := NewAnd(NewLiteral(types.BoolValue(false)), NewLiteral(types.BoolValue(true)))
	v, err := e.Eval(nil, nil)
	require.NoError(err)
	require.False(v.Bool())
}
