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

// Package ast defines the shape a SQL text parser is assumed to
// deliver (spec §1, §6): a parsed SelectStmt built from sql.Expr
// trees. The parser itself is out of scope; this package is only the
// contract plan.CreatePlan consumes.
package ast

import "github.com/bigwa/qpmodel/sql"

// FromKind tags one FROM-clause item.
type FromKind int

const (
	FromBaseTable FromKind = iota
	FromExternalTable
	FromSubquery
	FromCTE
)

// FromItem is one entry of a FROM clause before it is resolved into a
// plan.TableRef. Items combine left-to-right: the first item starts
// the join tree, every later item is joined to the tree built so far
// using JoinKind/On (an explicit `JOIN ... ON`), or by a plain cross
// join when On is nil (a comma-separated FROM list).
type FromItem struct {
	Kind  FromKind
	Alias string

	// FromBaseTable / FromCTE
	TableName string

	// FromExternalTable
	FilePath string
	Delim    rune
	Columns  []ExternalColumn

	// FromSubquery
	Sub *SelectStmt

	// JoinKind is "inner"|"left"|"right"|"full"|"cross"|"" (comma
	// cross join, the default when On is nil).
	JoinKind string
	On       sql.Expr
}

// ExternalColumn declares one column of an ExternalTable FROM item;
// Type is a string naming a types.Kind ("int", "double", "char",
// "bool", "datetime", "interval") resolved by the binder.
type ExternalColumn struct {
	Name string
	Type string
	Len  int
}

// SetOpKind names a UNION/INTERSECT/EXCEPT combinator.
type SetOpKind int

const (
	SetOpNone SetOpKind = iota
	SetOpUnion
	SetOpUnionAll
	SetOpIntersect
	SetOpExcept
)

// SetOp chains this statement with another via a set operator.
type SetOp struct {
	Kind  SetOpKind
	Right *SelectStmt
}

// SelectStmt is a parsed SELECT, per §6's External Interfaces.
type SelectStmt struct {
	CTEs      map[string]*SelectStmt
	From      []FromItem
	Where     sql.Expr
	Selection []sql.Expr
	GroupBy   []sql.Expr
	Having    sql.Expr
	Orders    []sql.Expr // each an *expression.OrderExpr
	Limit     sql.Expr
	SetOp     *SetOp
}

// InsertStmt is a parsed INSERT.
type InsertStmt struct {
	Table   string
	Columns []string
	Rows    [][]sql.Expr
}

// ColumnSpec declares one column of a CREATE TABLE statement; Type
// follows the same string vocabulary as ExternalColumn.Type.
type ColumnSpec struct {
	Name string
	Type string
	Len  int
}

// CreateTableStmt is a parsed CREATE TABLE.
type CreateTableStmt struct {
	Table   string
	Columns []ColumnSpec
}

// CopyStmt is a parsed `COPY table FROM path`, binding an existing
// table to an on-disk delimited file (§6).
type CopyStmt struct {
	Table string
	Path  string
	Delim rune
}

// CreateIndexStmt is a parsed `CREATE [UNIQUE] INDEX ... ON table
// (columns...)`. The in-memory catalog records the index by name
// only (§3.B/6 Non-goals exclude an actual index data structure);
// ANALYZE and the memo's `enable_indexseek` option are both allowed
// to look at `TableDef.Indexes` to decide whether an index-seek
// candidate would apply.
type CreateIndexStmt struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// AnalyzeStmt is a parsed `ANALYZE table`: refreshes the catalog's row
// count estimate for table. Nothing reads that estimate; the cost
// model uses a constant scan cost.
type AnalyzeStmt struct {
	Table string
}
