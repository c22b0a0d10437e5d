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

import "github.com/bigwa/qpmodel/sql"

// SearchReplace returns a clone of e with every subexpression
// structurally equal to from replaced by a clone of to. The
// replacement is structure-preserving: it never descends into a node
// it just replaced (§4.C). This is a pure structural rewrite driven
// by Children()/WithChildren() — no reflection, per §9's redesign
// note.
func SearchReplace(e, from, to sql.Expr) sql.Expr {
	if e == nil {
		return nil
	}
	if Equal(e, from) {
		return to.Clone()
	}
	children := e.Children()
	if len(children) == 0 {
		return e.Clone()
	}
	newChildren := make([]sql.Expr, len(children))
	changed := false
	for i, c := range children {
		nc := SearchReplace(c, from, to)
		newChildren[i] = nc
		if !Equal(nc, c) {
			changed = true
		}
	}
	if !changed {
		return e.Clone()
	}
	out, err := e.WithChildren(newChildren...)
	if err != nil {
		return e.Clone()
	}
	return out
}

// ReplaceByAlias is kept distinct from SearchReplace (§9's redesign
// note: matching by alias string key is a different operation from
// structural equality, and conflating the two risks replacing the
// wrong node when an alias happens to coincide with another
// expression's shape). It replaces every subexpression whose Alias()
// equals alias.
func ReplaceByAlias(e sql.Expr, alias string, to sql.Expr) sql.Expr {
	if e == nil {
		return nil
	}
	if alias != "" && e.Alias() == alias {
		return to.Clone()
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	newChildren := make([]sql.Expr, len(children))
	changed := false
	for i, c := range children {
		nc := ReplaceByAlias(c, alias, to)
		newChildren[i] = nc
		if !Equal(nc, c) {
			changed = true
		}
	}
	if !changed {
		return e
	}
	out, err := e.WithChildren(newChildren...)
	if err != nil {
		return e
	}
	return out
}
