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

import (
	"fmt"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// ColExpr is an (optionally qualified) column reference. Before Bind,
// TabName/ColName are the only meaningful fields; after Bind,
// tableKey/Ordinal/IsOuterRef/typ are populated by the Binder.
type ColExpr struct {
	env
	TabName    string
	ColName    string
	tableKey   interface{}
	Ordinal    int
	IsOuterRef bool
}

// NewUnresolvedColumn builds an unbound column reference, optionally
// qualified by a table alias ("" if none).
func NewUnresolvedColumn(tab, col string) *ColExpr {
	e := newEnv()
	return &ColExpr{env: e, TabName: tab, ColName: col}
}

// NewBoundColumn builds an already-bound ColExpr directly from a
// resolved ColumnRef, used by SelStar.Expand which resolves columns
// through the Binder itself rather than through Bind.
func NewBoundColumn(ref sql.ColumnRef) *ColExpr {
	e := newEnv()
	e.typ = ref.Type
	e.bounded = true
	if ref.IsOuterRef {
		e.refs = map[interface{}]bool{}
	} else {
		e.refs = map[interface{}]bool{ref.TableKey: true}
	}
	return &ColExpr{
		env:        e,
		TabName:    ref.TableAlias,
		ColName:    ref.ColumnName,
		tableKey:   ref.TableKey,
		Ordinal:    ref.Ordinal,
		IsOuterRef: ref.IsOuterRef,
	}
}

func (c *ColExpr) Children() []sql.Expr { return nil }

func (c *ColExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("ColExpr takes no children")
	}
	return c, nil
}

// Bind searches the current context, then walks up parents (via
// Binder.Resolve); first match wins. Ambiguity within a single scope
// surfaces as ErrAmbiguousColumn from the Binder. When resolution
// lands in an ancestor scope, IsOuterRef is set and TableRefs stays
// empty so push-down never assigns this column to this node's own
// tables (§4.C).
func (c *ColExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if c.bounded {
		return c, nil
	}
	ref, err := ctx.Resolve(c.TabName, c.ColName)
	if err != nil {
		return nil, err
	}
	out := &ColExpr{
		env:        c.env,
		TabName:    ref.TableAlias,
		ColName:    ref.ColumnName,
		tableKey:   ref.TableKey,
		Ordinal:    ref.Ordinal,
		IsOuterRef: ref.IsOuterRef,
	}
	out.typ = ref.Type
	out.bounded = true
	if ref.IsOuterRef {
		out.refs = map[interface{}]bool{}
	} else {
		out.refs = map[interface{}]bool{ref.TableKey: true}
	}
	return out, nil
}

// TableKey returns the owning TableRef's identity, valid after Bind.
func (c *ColExpr) TableKey() interface{} { return c.tableKey }

func (c *ColExpr) Clone() sql.Expr {
	cl := *c
	cl.refs = map[interface{}]bool{}
	for k := range c.refs {
		cl.refs[k] = true
	}
	return &cl
}

func (c *ColExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	if c.IsOuterRef {
		outer := ctx.GetParam(c.tableKey)
		if outer == nil || c.Ordinal >= len(outer) {
			return types.Value{}, sql.ErrEval.New(fmt.Sprintf("no outer row published for %s.%s", c.TabName, c.ColName))
		}
		return outer[c.Ordinal], nil
	}
	if c.Ordinal < 0 || c.Ordinal >= len(row) {
		return types.Value{}, sql.ErrEval.New(fmt.Sprintf("column ordinal %d out of range for row of width %d", c.Ordinal, len(row)))
	}
	return row[c.Ordinal], nil
}

func (c *ColExpr) String() string {
	if c.TabName == "" {
		return c.ColName
	}
	return c.TabName + "." + c.ColName
}

// Equal compares on (TabName, ColName), tolerating a missing
// qualifier on either side (spec §4.C).
func (c *ColExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*ColExpr)
	if !ok {
		return false
	}
	if c.ColName != o.ColName {
		return false
	}
	if c.TabName == "" || o.TabName == "" {
		return true
	}
	return c.TabName == o.TabName
}

func (c *ColExpr) Hash() uint64 {
	return hashCombine("col", hashString(c.ColName))
}
