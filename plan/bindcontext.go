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
	"github.com/bigwa/qpmodel/ast"
	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/sql"
)

var errTableNotInScope = sql.ErrUnknownTable.New("<scope-climb-sentinel>")

// BindContext is the per-statement scope of spec §4.D: an ordered
// mapping of registered TableRefs, a link to the enclosing context,
// and a statement-global subquery counter rooted at the parentless
// context (§9's redesign note moves this off a process-static).
type BindContext struct {
	parent  *BindContext
	cat     *catalog.Catalog
	counter *int
	tables  []TableRef
	ctes    map[string]*ast.SelectStmt
}

// NewRootBindContext starts a fresh statement scope: a new subquery
// counter rooted here, per §4.D/§9.
func NewRootBindContext(cat *catalog.Catalog) *BindContext {
	n := 0
	return &BindContext{cat: cat, counter: &n}
}

// NewChild opens a nested scope (a subquery or a derived table),
// sharing the root's subquery counter and catalog.
func (b *BindContext) NewChild() *BindContext {
	return &BindContext{parent: b, cat: b.cat, counter: b.counter}
}

// Catalog returns the scope's catalog handle.
func (b *BindContext) Catalog() *catalog.Catalog { return b.cat }

// RegisterTable adds t to the current scope, rejecting a duplicate
// alias (§7's TableAliasConflict).
func (b *BindContext) RegisterTable(t TableRef) error {
	for _, existing := range b.tables {
		if existing.Alias() == t.Alias() {
			return sql.ErrTableAliasConflict.New(t.Alias())
		}
	}
	b.tables = append(b.tables, t)
	return nil
}

// Tables returns the scope's own registered TableRefs, in
// registration order.
func (b *BindContext) Tables() []TableRef { return b.tables }

// Table returns the TableRef registered under alias in this scope.
func (b *BindContext) Table(alias string) (TableRef, bool) {
	for _, t := range b.tables {
		if t.Alias() == alias {
			return t, true
		}
	}
	return nil, false
}

// RegisterCTE records name's body for lookup by this scope and any of
// its descendants (§4.H: "CTEs are registered in the enclosing scope
// and discovered on unresolved base-table references by walking
// parent contexts").
func (b *BindContext) RegisterCTE(name string, stmt *ast.SelectStmt) {
	if b.ctes == nil {
		b.ctes = make(map[string]*ast.SelectStmt)
	}
	b.ctes[name] = stmt
}

// LookupCTE walks this scope and its ancestors for name.
func (b *BindContext) LookupCTE(name string) (*ast.SelectStmt, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if cur.ctes != nil {
			if s, ok := cur.ctes[name]; ok {
				return s, true
			}
		}
	}
	return nil, false
}

// NewSubqueryID returns the next id from the statement-global counter
// (§4.D).
func (b *BindContext) NewSubqueryID() int {
	*b.counter++
	return *b.counter
}

// Resolve implements sql.Binder: search the current scope, then walk
// to parent scopes, marking a match found above the current scope as
// an outer reference and recording it against the owning TableRef
// (§4.C/§4.D).
func (b *BindContext) Resolve(qualifier, column string) (sql.ColumnRef, error) {
	if ref, err := b.resolveLocal(qualifier, column); err == nil {
		return ref, nil
	} else if err != errTableNotInScope {
		return sql.ColumnRef{}, err
	}
	for cur := b.parent; cur != nil; cur = cur.parent {
		ref, err := cur.resolveLocal(qualifier, column)
		if err == nil {
			ref.IsOuterRef = true
			if t := cur.findTableByKey(ref.TableKey); t != nil {
				t.addOuterRef(OuterRef{TableAlias: ref.TableAlias, ColumnName: ref.ColumnName})
			}
			return ref, nil
		}
		if err != errTableNotInScope {
			return sql.ColumnRef{}, err
		}
	}
	if qualifier != "" {
		return sql.ColumnRef{}, sql.ErrUnknownTable.New(qualifier)
	}
	return sql.ColumnRef{}, sql.ErrUnknownColumn.New(column)
}

// resolveLocal searches only this scope's own tables. It returns
// errTableNotInScope (never surfaced to a caller) when nothing in
// this scope matches, so Resolve knows to keep climbing; any other
// error (ambiguity, or a qualifier that matched a table but not one
// of its columns) is terminal at this scope.
func (b *BindContext) resolveLocal(qualifier, column string) (sql.ColumnRef, error) {
	if qualifier != "" {
		for _, t := range b.tables {
			if t.Alias() != qualifier {
				continue
			}
			col, ok := t.LocateColumn(column)
			if !ok {
				return sql.ColumnRef{}, sql.ErrUnknownColumn.New(column)
			}
			return col, nil
		}
		return sql.ColumnRef{}, errTableNotInScope
	}
	var matches []sql.ColumnRef
	for _, t := range b.tables {
		if col, ok := t.LocateColumn(column); ok {
			matches = append(matches, col)
		}
	}
	switch len(matches) {
	case 0:
		return sql.ColumnRef{}, errTableNotInScope
	case 1:
		return matches[0], nil
	default:
		return sql.ColumnRef{}, sql.ErrAmbiguousColumn.New(column)
	}
}

func (b *BindContext) findTableByKey(key interface{}) TableRef {
	for _, t := range b.tables {
		if interface{}(t) == key {
			return t
		}
	}
	return nil
}

// Columns implements sql.Binder for SelStar expansion: every column
// in scope, or just tableQualifier's when given (§4.C).
func (b *BindContext) Columns(tableQualifier string) ([]sql.ColumnRef, error) {
	if tableQualifier == "" {
		var out []sql.ColumnRef
		for _, t := range b.tables {
			out = append(out, t.AllColumns()...)
		}
		return out, nil
	}
	t, ok := b.Table(tableQualifier)
	if !ok {
		return nil, sql.ErrUnknownTable.New(tableQualifier)
	}
	return t.AllColumns(), nil
}

// BindSubquery recursively plans a nested SELECT in a fresh child
// scope, per §4.C/§4.D: bind, create_plan and resolve_column_ordinal
// all run against the subquery's own output before it is handed back,
// since the enclosing SubqueryExpr needs its Columns() immediately
// for the single-column-projection type check.
func (b *BindContext) BindSubquery(inner interface{}) (sql.Subquery, error) {
	stmt, ok := inner.(*ast.SelectStmt)
	if !ok {
		return nil, sql.ErrEval.New("unsupported subquery AST shape")
	}
	child := b.NewChild()
	node, err := planSelectFull(child, stmt)
	if err != nil {
		return nil, err
	}
	id := b.NewSubqueryID()
	owned := ownedKeys(child)
	cacheable := !hasEscapingOuterRef(node, owned)
	return &SubPlan{id: id, inner: node, cacheable: cacheable}, nil
}

func ownedKeys(child *BindContext) map[interface{}]bool {
	out := make(map[interface{}]bool)
	for _, t := range child.tables {
		out[interface{}(t)] = true
	}
	return out
}
