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

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArithmeticPromotesToDouble(t *testing.T) {
	require := require.New(t)

	v, err := Arithmetic("+", IntValue(1), DoubleValue(2.5))
	require.NoError(err)
	require.Equal(Double, v.Type.Kind)
	require.Equal(3.5, v.Double())

	v, err = Arithmetic("+", IntValue(1), IntValue(2))
	require.NoError(err)
	require.Equal(Int, v.Type.Kind)
	require.Equal(int64(3), v.Int())
}

func TestArithmeticDivisionByZero(t *testing.T) {
	require := require.New(t)
	_, err := Arithmetic("/", IntValue(1), IntValue(0))
	require.Error(err)
}

func TestCompareTypeMismatch(t *testing.T) {
	require := require.New(t)
	_, err := Compare(IntValue(1), CharValue("a"))
	require.Error(err)
}

func TestLikeWildcards(t *testing.T) {
	require := require.New(t)
	require.True(Like("hello", "h%"))
	require.True(Like("hello", "h_llo"))
	require.False(Like("hello", "world"))
}

func TestParseInterval(t *testing.T) {
	require := require.New(t)
	days, err := ParseInterval("1 year 2 months 3 days")
	require.NoError(err)
	require.Equal(int64(1*daysPerYear+2*daysPerMonth+3), days)
}

func TestFromCSVFieldNullEmpty(t *testing.T) {
	require := require.New(t)
	v, err := FromCSVField("", NewIntType())
	require.NoError(err)
	require.True(v.IsNull)
}
