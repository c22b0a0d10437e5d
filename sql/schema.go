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

// Column describes one output position of a plan node or catalog
// table: a name, its type and whether it is visible to the end user
// (outer-ref columns smuggled through for correlation are not).
type Column struct {
	Name    string
	Type    types.ColumnType
	Ordinal int
	Visible bool
}

// Schema is an ordered list of columns.
type Schema []*Column

// IndexOf returns the position of name in the schema, or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}
