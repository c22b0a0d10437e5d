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

// Package plan implements TableRef/BindContext (spec §4.D) and the
// logical plan tree (§4.E): construction from a parsed statement,
// top-down ordinal resolution, and direct lowering to rowexec
// operators.
package plan

import (
	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/sql"
)

// OuterRef is a back-reference recorded against the TableRef a
// correlated column resolved into. It is a lookup entry, not an
// owning reference (§9's redesign note): TableRef never holds the
// ColExpr itself, only enough to identify it for the outer-ref
// capture invariant of §8.
type OuterRef struct {
	TableAlias string
	ColumnName string
}

// TableRef is the polymorphic FROM-item contract of spec §3: a
// BaseTable, ExternalTable, FromQuery (derived table), CTE reference,
// or an explicit Join grouping. Its identity (as a Go pointer,
// compared by ==) is the TableKey every ColumnRef.TableKey and
// sql.Context param key refer to.
type TableRef interface {
	// Alias is the FROM item's exposed name, unique within the
	// BindContext that registered it.
	Alias() string
	// AllColumns lists every column this TableRef exposes, in order.
	AllColumns() []sql.ColumnRef
	// LocateColumn finds a column by unqualified name within this
	// TableRef alone.
	LocateColumn(name string) (sql.ColumnRef, bool)
	// OuterRefs lists every correlated column that resolved into this
	// TableRef from a nested scope (§8's outer-ref capture invariant).
	OuterRefs() []OuterRef
	addOuterRef(o OuterRef)
}

type refBase struct {
	alias     string
	outerrefs []OuterRef
}

func (r *refBase) Alias() string          { return r.alias }
func (r *refBase) OuterRefs() []OuterRef  { return r.outerrefs }
func (r *refBase) addOuterRef(o OuterRef) { r.outerrefs = append(r.outerrefs, o) }

// BaseTableRef is a FROM item naming a catalog table.
type BaseTableRef struct {
	refBase
	Table *catalog.TableDef
}

func NewBaseTableRef(alias string, t *catalog.TableDef) *BaseTableRef {
	return &BaseTableRef{refBase: refBase{alias: alias}, Table: t}
}

func (r *BaseTableRef) AllColumns() []sql.ColumnRef {
	out := make([]sql.ColumnRef, len(r.Table.Order))
	for i, c := range r.Table.Order {
		out[i] = sql.ColumnRef{TableKey: r, TableAlias: r.alias, ColumnName: c.Name, Ordinal: c.Ordinal, Type: c.Type}
	}
	return out
}

func (r *BaseTableRef) LocateColumn(name string) (sql.ColumnRef, bool) {
	return locateIn(r.AllColumns(), name)
}

// ExternalTableRef is a CSV-backed FROM item (spec §6's `COPY ...
// FROM` / ExternalTable variant).
type ExternalTableRef struct {
	refBase
	Table *catalog.ExternalTable
}

func NewExternalTableRef(alias string, t *catalog.ExternalTable) *ExternalTableRef {
	return &ExternalTableRef{refBase: refBase{alias: alias}, Table: t}
}

func (r *ExternalTableRef) AllColumns() []sql.ColumnRef {
	schema := r.Table.Schema()
	out := make([]sql.ColumnRef, len(schema))
	for i, c := range schema {
		out[i] = sql.ColumnRef{TableKey: r, TableAlias: r.alias, ColumnName: c.Name, Ordinal: c.Ordinal, Type: c.Type}
	}
	return out
}

func (r *ExternalTableRef) LocateColumn(name string) (sql.ColumnRef, bool) {
	return locateIn(r.AllColumns(), name)
}

// FromQueryRef is a derived table: `FROM (SELECT ...) alias`, or a
// resolved CTE reference (spec §3's FromQuery/CTE variants share the
// same shape once bound — a CTE reference is just a FromQuery whose
// Inner planCTE plans afresh for each reference).
type FromQueryRef struct {
	refBase
	Inner sql.Node
	isCTE bool
}

func NewFromQueryRef(alias string, inner sql.Node) *FromQueryRef {
	return &FromQueryRef{refBase: refBase{alias: alias}, Inner: inner}
}

func NewCTERef(alias string, inner sql.Node) *FromQueryRef {
	return &FromQueryRef{refBase: refBase{alias: alias}, Inner: inner, isCTE: true}
}

func (r *FromQueryRef) AllColumns() []sql.ColumnRef {
	out := make([]sql.ColumnRef, 0, len(r.Inner.Output()))
	for i, e := range r.Inner.Output() {
		name := e.Alias()
		if name == "" {
			name = e.String()
		}
		out = append(out, sql.ColumnRef{TableKey: r, TableAlias: r.alias, ColumnName: name, Ordinal: i, Type: e.Type()})
	}
	return out
}

func (r *FromQueryRef) LocateColumn(name string) (sql.ColumnRef, bool) {
	return locateIn(r.AllColumns(), name)
}

// JoinTableRef represents an explicit multi-way FROM grouping (spec
// §3's `Join(list, constraints)` TableRef variant). CreatePlan does
// not build one: it folds a FROM clause straight into a left-deep
// tree of logical Join nodes, so none is registered in a BindContext.
type JoinTableRef struct {
	refBase
	List        []TableRef
	Constraints sql.Expr
}

func (r *JoinTableRef) AllColumns() []sql.ColumnRef {
	var out []sql.ColumnRef
	for _, t := range r.List {
		out = append(out, t.AllColumns()...)
	}
	return out
}

func (r *JoinTableRef) LocateColumn(name string) (sql.ColumnRef, bool) {
	return locateIn(r.AllColumns(), name)
}

func locateIn(cols []sql.ColumnRef, name string) (sql.ColumnRef, bool) {
	for _, c := range cols {
		if c.ColumnName == name {
			return c, true
		}
	}
	return sql.ColumnRef{}, false
}
