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

import "github.com/bigwa/qpmodel/sql"

// base is embedded by every logical node: it carries the resolved
// output list every sql.Node exposes (empty until ResolveOrdinal has
// run, per spec §3).
type base struct {
	out []sql.Expr
}

func (b *base) Output() []sql.Expr { return b.out }

// refHolder is implemented by the logical leaves that own a TableRef
// (Get, FromQuery), letting Join.ResolveOrdinal classify a column by
// which side of the tree owns its table without a type switch over
// every node kind.
type refHolder interface {
	RefKey() interface{}
}

// tableSet collects every TableRef identity reachable under n, used
// by Join to partition a straddling predicate's columns by side
// (§4.E).
func tableSet(n sql.Node) map[interface{}]bool {
	out := make(map[interface{}]bool)
	var walk func(sql.Node)
	walk = func(x sql.Node) {
		if x == nil {
			return
		}
		if rh, ok := x.(refHolder); ok {
			out[rh.RefKey()] = true
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}
