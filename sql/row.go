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

// Row is an ordered vector of values.
type Row []types.Value

// NewRow builds a Row from its values.
func NewRow(vals ...types.Value) Row {
	r := make(Row, len(vals))
	copy(r, vals)
	return r
}

// Concat returns a new row with the receiver's columns followed by
// other's. Join uses this to compose left+right rows.
func (r Row) Concat(other Row) Row {
	out := make(Row, 0, len(r)+len(other))
	out = append(out, r...)
	out = append(out, other...)
	return out
}

// Nulls returns a row of the given width with every column set to
// types.Null. Used to materialize the unmatched side of an outer or
// anti-semi join.
func Nulls(width int) Row {
	r := make(Row, width)
	for i := range r {
		r[i] = types.Null
	}
	return r
}

// Copy returns a shallow copy of the row.
func (r Row) Copy() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
