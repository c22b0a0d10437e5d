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

package sql

import "gopkg.in/src-d/go-errors.v1"

// Error kinds for every phase of the compiler pipeline, per the error
// taxonomy: bind-time, plan-time and runtime errors are distinguished
// so callers can tell when a statement aborted compilation versus
// aborted execution.
var (
	// ErrAmbiguousColumn is raised when binding an identifier finds
	// two or more candidate tables in scope.
	ErrAmbiguousColumn = errors.NewKind("ambiguous column name %q")
	// ErrUnknownColumn is raised when no table in scope owns a column.
	ErrUnknownColumn = errors.NewKind("unknown column %q")
	// ErrUnknownTable is raised when a FROM item or qualifier names an
	// unregistered table.
	ErrUnknownTable = errors.NewKind("unknown table %q")
	// ErrTableExists is raised by CREATE TABLE when the name is already
	// registered in the catalog.
	ErrTableExists = errors.NewKind("table %q already exists")
	// ErrTypeMismatch is raised by a bind-time type check: arithmetic,
	// comparison, IN lists, CASE arms, set operations.
	ErrTypeMismatch = errors.NewKind("type mismatch: %s")
	// ErrMissingGroupBy is raised when ordinal resolution on an Agg
	// node finds a raw column reference surviving key/aggregate
	// rewrite.
	ErrMissingGroupBy = errors.NewKind("column %q must appear in the GROUP BY clause or be used in an aggregate function")
	// ErrSubqueryShape is raised when a scalar or IN subquery
	// projects anything other than exactly one column.
	ErrSubqueryShape = errors.NewKind("subquery must return exactly one column, got %d")
	// ErrSubqueryMultipleRows is a runtime error: a scalar subquery
	// produced more than one row.
	ErrSubqueryMultipleRows = errors.NewKind("subquery used as an expression returned more than one row")
	// ErrNoPhysicalPlan is raised by memo extraction when a group has
	// no physical member.
	ErrNoPhysicalPlan = errors.NewKind("no physical plan found for group %d")
	// ErrTableAliasConflict is raised when one FROM clause registers
	// the same alias twice.
	ErrTableAliasConflict = errors.NewKind("table alias %q specified more than once")
	// ErrEval wraps a runtime evaluation failure: division by zero,
	// malformed literal parse, etc.
	ErrEval = errors.NewKind("evaluation error: %s")
)
