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

package engine

import (
	"strconv"
	"strings"

	"github.com/bigwa/qpmodel/ast"
	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/rowexec"
	"github.com/bigwa/qpmodel/sql"
)

// Explain runs the same bind/plan/optimize/lower pipeline as Query
// but, instead of executing, renders the physical tree as an indented
// human-readable string (§6's "EXPLAIN returns a human-readable
// indented tree").
func (e *Engine) Explain(stmt *ast.SelectStmt) (string, error) {
	_, phys, err := e.planAndLower(stmt)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	e.explainNode(&b, phys, 0)
	return b.String(), nil
}

// explainNode renders n and its descendants. A Profiling wrapper is
// transparent here exactly as it is to Exec: it contributes no line
// of its own, since its String()/Logical() already just forward to
// the operator it wraps (§4.G), so printing it would double every
// row with the same text.
func (e *Engine) explainNode(b *strings.Builder, n sql.PhysicalNode, depth int) {
	if p, ok := n.(*rowexec.Profiling); ok {
		e.explainNode(b, p.Child, depth)
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.String())

	var annotations []string
	if e.Options.Explain.ShowCost {
		annotations = append(annotations, "cost="+strconv.FormatFloat(n.Cost(), 'f', 2, 64))
	}
	if e.Options.Explain.ShowTableName {
		if name, ok := tableNameOf(n); ok {
			annotations = append(annotations, "table="+name)
		}
	}
	if e.Options.Explain.ShowOutput {
		annotations = append(annotations, "output="+outputList(n.Logical().Output()))
	}
	if len(annotations) > 0 {
		b.WriteString(" [" + strings.Join(annotations, ", ") + "]")
	}
	b.WriteString("\n")

	for _, c := range n.Children() {
		e.explainNode(b, c, depth+1)
	}
}

// tableNameOf recovers a leaf scan's table alias from its logical
// Get (rowexec sits below plan in the import graph, so the physical
// ScanTable/ScanFile node itself never names its table directly).
func tableNameOf(n sql.PhysicalNode) (string, bool) {
	g, ok := n.Logical().(*plan.Get)
	if !ok {
		return "", false
	}
	return g.Ref.Alias(), true
}

func outputList(exprs []sql.Expr) string {
	names := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if !e.Visible() {
			continue
		}
		names = append(names, e.String())
	}
	return strings.Join(names, ", ")
}
