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

// Package rowexec implements the pull-model physical execution engine
// of spec §4.G: each operator's Exec drives its children and invokes a
// row callback, rather than returning a row iterator, so a correlated
// subquery's per-row evaluation (§4.C) and a Limit's early abort fall
// out of the same callback-return-error convention instead of needing
// a separate cancellation path.
package rowexec

import (
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// base carries the bookkeeping every physical operator needs: a
// back-reference to the logical node it was lowered from and the cost
// computed for it at construction time (§4.F). base only stores the
// cost; each operator's constructor computes it from its children's
// Cost() (constant for a scan, product for NLJoin, sum for HashJoin).
type base struct {
	logical sql.Node
	cost    float64
}

func (b *base) Cost() float64     { return b.cost }
func (b *base) Logical() sql.Node { return b.logical }

// evalRow evaluates exprs against src, producing one output row. src
// is whatever row shape exprs' ExprRef positions were built against:
// the raw source row for a scan's own Output, or a child operator's
// already-produced row for everything above a scan.
func evalRow(ctx *sql.Context, exprs []sql.Expr, src sql.Row) (sql.Row, error) {
	out := make(sql.Row, len(exprs))
	for i, e := range exprs {
		v, err := e.Eval(ctx, src)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// isTrue applies SQL's null-is-not-true rule to a boolean Value, used
// by every operator that filters rows against a predicate.
func isTrue(v types.Value) bool { return !v.IsNull && v.Bool() }
