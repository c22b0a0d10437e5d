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

package rowexec

import "github.com/bigwa/qpmodel/sql"

// Collect drains root's rows into memory, keeping only the columns
// visible in outputExprs (§4.C: outer-ref plumbing columns a subquery
// needed internally are never part of its caller-visible result).
// This is the boundary between the physical engine and the engine
// package: nothing above here deals in sql.PhysicalNode.
func Collect(ctx *sql.Context, root sql.PhysicalNode, outputExprs []sql.Expr) ([]sql.Row, error) {
	visible := make([]int, 0, len(outputExprs))
	for i, e := range outputExprs {
		if e.Visible() {
			visible = append(visible, i)
		}
	}
	var out []sql.Row
	err := root.Exec(ctx, func(row sql.Row) error {
		trimmed := make(sql.Row, len(visible))
		for i, idx := range visible {
			trimmed[i] = row[idx]
		}
		out = append(out, trimmed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
