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

// Project evaluates Output against its child's row with no predicate;
// it is the physical counterpart of plan.Result, whose own
// ResolveOrdinal does nothing but rewrite the statement's selection
// list against its child (§4.E).
type Project struct {
	base
	Child  sql.PhysicalNode
	Output []sql.Expr
}

func NewProject(logical sql.Node, child sql.PhysicalNode, output []sql.Expr) *Project {
	return &Project{base: base{logical: logical, cost: child.Cost()}, Child: child, Output: output}
}

func (p *Project) Children() []sql.PhysicalNode { return []sql.PhysicalNode{p.Child} }

func (p *Project) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 1 {
		return nil, sql.ErrEval.New("Project takes exactly one child")
	}
	n := *p
	n.Child = children[0]
	return &n, nil
}

func (p *Project) String() string { return "Project" }

func (p *Project) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	return p.Child.Exec(ctx, func(row sql.Row) error {
		out, err := evalRow(ctx, p.Output, row)
		if err != nil {
			return err
		}
		return cb(out)
	})
}
