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
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/expression"
)

// Get is the scan leaf of spec §4.E: Get<BaseTable|ExternalTable>,
// distinguished by the concrete TableRef kind in Ref. Filter is an
// optional predicate evaluated at the scan; CreatePlan leaves it nil
// and plans WHERE as a separate Filter node.
type Get struct {
	base
	Ref    TableRef
	Filter sql.Expr
}

func NewGet(ref TableRef) *Get { return &Get{Ref: ref} }

func (g *Get) RefKey() interface{} { return interface{}(g.Ref) }

func (g *Get) Children() []sql.Node { return nil }

func (g *Get) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("Get takes no children")
	}
	return g, nil
}

func (g *Get) String() string {
	if g.Filter != nil {
		return "Get(" + g.Ref.Alias() + ", filter=" + g.Filter.String() + ")"
	}
	return "Get(" + g.Ref.Alias() + ")"
}

func (g *Get) FilterExpr() sql.Expr { return g.Filter }

// ResolveOrdinal validates each requested expr either references this
// node's TableRef or passes through unchanged (a constant or an
// already-independent subquery expression), replacing name refs with
// a positional ExprRef into the base table's column list; the output
// additionally carries any outer-ref columns this TableRef's nested
// scopes need (§4.E).
func (g *Get) ResolveOrdinal(requested []sql.Expr, removeRedundant bool) (sql.Node, error) {
	out := make([]sql.Expr, len(requested))
	for i, e := range requested {
		col, ok := e.(*expression.ColExpr)
		if !ok {
			out[i] = e
			continue
		}
		if col.TableKey() != g.RefKey() {
			return nil, sql.ErrEval.New("column " + col.String() + " does not reference table " + g.Ref.Alias())
		}
		out[i] = expression.NewExprRef(col, col.Ordinal)
	}
	for _, or := range g.Ref.OuterRefs() {
		c, ok := g.Ref.LocateColumn(or.ColumnName)
		if !ok {
			continue
		}
		bc := expression.NewBoundColumn(c)
		out = append(out, expression.NewExprRef(bc, c.Ordinal))
	}
	return &Get{base: base{out: out}, Ref: g.Ref, Filter: g.Filter}, nil
}
