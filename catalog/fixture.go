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

package catalog

import (
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// fixtureRows is the tiny synthetic 3-row fixture of spec §8:
// {(0,1,2,3),(1,2,3,4),(2,3,4,5)}, reused by every test alias.
var fixtureRows = [][4]int64{{0, 1, 2, 3}, {1, 2, 3, 4}, {2, 3, 4, 5}}

// testAliases are the four synthetic tables the end-to-end scenarios
// in spec §8 are defined over. Columns are named <alias>1..<alias>4
// (spec.md's prose names them "x1..x4" but every literal scenario
// query uses "a1"/"a2"/"b1"/"b2" — this module resolves that
// ambiguity by naming columns per-table, matching the queries
// literally).
var testAliases = []string{"a", "b", "c", "d"}

// NewFixtureCatalog builds a catalog pre-populated with the a/b/c/d
// test tables used by the end-to-end scenarios, each carrying the
// same 3-row fixture.
func NewFixtureCatalog() *Catalog {
	c := New()
	for _, alias := range testAliases {
		cols := make([]ColumnDef, 4)
		for i := 0; i < 4; i++ {
			cols[i] = ColumnDef{Name: columnName(alias, i+1), Type: types.NewIntType()}
		}
		t, err := c.Create(alias, cols)
		if err != nil {
			panic(err)
		}
		for _, r := range fixtureRows {
			row := make(sql.Row, 4)
			for i, v := range r {
				row[i] = types.IntValue(v)
			}
			t.Insert(row)
		}
	}
	return c
}

func columnName(alias string, i int) string {
	return alias + string(rune('0'+i))
}
