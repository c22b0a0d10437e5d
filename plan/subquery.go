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

// SubPlan is the plan package's sql.Subquery implementation: it wraps
// a fully bound and ordinal-resolved subquery body and, once lowering
// runs, its physical plan.
type SubPlan struct {
	id        int
	inner     sql.Node
	cacheable bool
	lowered   sql.PhysicalNode
	have      bool
}

func (s *SubPlan) Cacheable() bool { return s.cacheable }
func (s *SubPlan) ID() int         { return s.id }
func (s *SubPlan) Columns() []sql.Expr { return s.inner.Output() }
func (s *SubPlan) String() string  { return "(subquery)" }

func (s *SubPlan) Lowered() (sql.PhysicalNode, bool) { return s.lowered, s.have }

func (s *SubPlan) SetLowered(p sql.PhysicalNode) {
	s.lowered = p
	s.have = true
}

// filterHolder is implemented by every logical node that carries its
// own residual predicate, so hasEscapingOuterRef can reach it without
// a type switch over every node kind.
type filterHolder interface {
	FilterExpr() sql.Expr
}

// hasEscapingOuterRef walks n's expression tree (recursively through
// nested subqueries) looking for a ColExpr whose resolved TableKey is
// not one of owned's tables — i.e. a correlation that crosses this
// subquery's own scope boundary, the negation of spec §4.C's
// cacheability rule.
func hasEscapingOuterRef(n sql.Node, owned map[interface{}]bool) bool {
	if n == nil {
		return false
	}
	for _, e := range n.Output() {
		if exprEscapes(e, owned) {
			return true
		}
	}
	if fh, ok := n.(filterHolder); ok && fh.FilterExpr() != nil {
		if exprEscapes(fh.FilterExpr(), owned) {
			return true
		}
	}
	for _, c := range n.Children() {
		if hasEscapingOuterRef(c, owned) {
			return true
		}
	}
	return false
}

func exprEscapes(e sql.Expr, owned map[interface{}]bool) bool {
	if e == nil {
		return false
	}
	found := false
	sql.VisitEach(e, func(x sql.Expr) bool {
		if found {
			return false
		}
		switch v := x.(type) {
		case *expression.ColExpr:
			if v.IsOuterRef && !owned[v.TableKey()] {
				found = true
				return false
			}
		case *expression.SubqueryExpr:
			if sp, ok := v.Bound.(*SubPlan); ok {
				if hasEscapingOuterRef(sp.inner, owned) {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}
