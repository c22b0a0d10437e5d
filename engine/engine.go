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

// Package engine implements the statement orchestration of spec §4.H:
// a single entry point that carries a parsed statement through
// bind -> create_plan -> resolve_column_ordinal -> (optional memo) ->
// lower -> execute, plus the EXPLAIN exit point of §6.
package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigwa/qpmodel/ast"
	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/memo"
	"github.com/bigwa/qpmodel/plan"
	"github.com/bigwa/qpmodel/rowexec"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// rowsEmitted counts rows queries ultimately return, summed over every
// Engine in the process (it carries no labels); the operator-level
// timing lives on the Profiling operator itself (rowexec), this one
// is the statement-level counter engine owns.
var rowsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "qpmodel",
	Name:      "rows_emitted_total",
	Help:      "Rows returned across all queries run by this process.",
}, []string{})

func init() {
	prometheus.MustRegister(rowsEmitted)
}

// Engine is the top-level entry point of spec §4.H/§6: a catalog plus
// the query options that steer its optimizer and EXPLAIN output.
type Engine struct {
	Catalog *catalog.Catalog
	Options Options
}

// New builds an Engine over cat using DefaultOptions.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{Catalog: cat, Options: DefaultOptions()}
}

// NewWithOptions builds an Engine with an explicit option set, e.g.
// one loaded via LoadOptions.
func NewWithOptions(cat *catalog.Catalog, opts Options) *Engine {
	return &Engine{Catalog: cat, Options: opts}
}

// Result is the outcome of a successful SELECT (§6's "collect.rows
// carries the final result").
type Result struct {
	Schema sql.Schema
	Rows   []sql.Row
}

// Query runs one parsed statement to completion (§4.H). SELECT
// returns a populated Result; every other statement kind mutates the
// catalog and returns a zero-value Result.
func (e *Engine) Query(ctx *sql.Context, stmt interface{}) (Result, error) {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return e.querySelect(ctx, s)
	case *ast.InsertStmt:
		return Result{}, e.execInsert(s)
	case *ast.CreateTableStmt:
		return Result{}, e.execCreateTable(s)
	case *ast.CopyStmt:
		return Result{}, e.execCopy(s)
	case *ast.CreateIndexStmt:
		return Result{}, e.execCreateIndex(s)
	case *ast.AnalyzeStmt:
		return Result{}, e.execAnalyze(s)
	default:
		return Result{}, sql.ErrEval.New("unsupported statement type")
	}
}

// planAndLower runs the shared bind/plan/optimize/lower prefix of
// §4.H for a single SELECT, returning both the resolved logical tree
// (EXPLAIN's "show_output"/"show_tablename" need the logical shape)
// and its physical lowering.
func (e *Engine) planAndLower(stmt *ast.SelectStmt) (sql.Node, sql.PhysicalNode, error) {
	ctx := plan.NewRootBindContext(e.Catalog)
	logical, err := plan.CreatePlan(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := logical.ResolveOrdinal(nil, false)
	if err != nil {
		return nil, nil, err
	}

	var phys sql.PhysicalNode
	if e.Options.Optimize.UseMemo {
		phys, err = memo.Optimize(resolved, e.optimizerRules())
	} else {
		phys, err = plan.Lower(resolved)
	}
	if err != nil {
		return nil, nil, err
	}

	if e.Options.Profile.Enabled {
		phys = wrapProfiling(phys)
	}
	return resolved, phys, nil
}

// optimizerRules narrows memo.DefaultRules per Options.Optimize: with
// memo_disable_crossjoin set, the rules still commute inner joins but
// no longer fire on cross joins (§6's optimize flag set).
func (e *Engine) optimizerRules() []memo.Rule {
	if !e.Options.Optimize.MemoDisableCrossJoin {
		return memo.DefaultRules
	}
	rules := make([]memo.Rule, 0, len(memo.DefaultRules))
	for _, r := range memo.DefaultRules {
		rules = append(rules, noCrossJoinRule{r})
	}
	return rules
}

// noCrossJoinRule wraps another rule and refuses to fire on a cross
// join, leaving inner-join commuting untouched.
type noCrossJoinRule struct{ memo.Rule }

func (r noCrossJoinRule) Applicable(member sql.Node) bool {
	if j, ok := member.(*plan.Join); ok && j.Type == plan.CrossJoin {
		return false
	}
	return r.Rule.Applicable(member)
}

// wrapProfiling recursively wraps every physical operator in a
// rowexec.Profiling span, innermost first, so a parent's span nests
// its children's (§4.G/§6's profile.enabled).
func wrapProfiling(n sql.PhysicalNode) sql.PhysicalNode {
	children := n.Children()
	if len(children) > 0 {
		wrapped := make([]sql.PhysicalNode, len(children))
		for i, c := range children {
			wrapped[i] = wrapProfiling(c)
		}
		var err error
		n, err = n.WithChildren(wrapped...)
		if err != nil {
			// WithChildren only fails on an arity mismatch, which
			// cannot happen here: wrapped has exactly len(children).
			panic("engine: profiling rewrap changed arity: " + err.Error())
		}
	}
	return rowexec.NewProfiling(n, n.String())
}

func (e *Engine) querySelect(ctx *sql.Context, stmt *ast.SelectStmt) (Result, error) {
	logical, phys, err := e.planAndLower(stmt)
	if err != nil {
		return Result{}, err
	}
	rows, err := rowexec.Collect(ctx, phys, logical.Output())
	if err != nil {
		return Result{}, err
	}
	rowsEmitted.WithLabelValues().Add(float64(len(rows)))
	return Result{Schema: outputSchema(logical.Output()), Rows: rows}, nil
}

func outputSchema(exprs []sql.Expr) sql.Schema {
	var out sql.Schema
	for i, e := range exprs {
		if !e.Visible() {
			continue
		}
		out = append(out, &sql.Column{Name: e.Alias(), Type: e.Type(), Ordinal: i, Visible: true})
	}
	return out
}

// literalBinder rejects any column reference, used to bind the
// constant-valued expression trees of INSERT/LIMIT-like contexts that
// never see a FROM clause.
type literalBinder struct{}

func (literalBinder) Resolve(tableQualifier, column string) (sql.ColumnRef, error) {
	return sql.ColumnRef{}, sql.ErrEval.New("value expression must be constant")
}
func (literalBinder) NewSubqueryID() int { return 0 }
func (literalBinder) BindSubquery(inner interface{}) (sql.Subquery, error) {
	return nil, sql.ErrEval.New("value expression must be constant")
}
func (literalBinder) Columns(tableQualifier string) ([]sql.ColumnRef, error) { return nil, nil }

func (e *Engine) execInsert(stmt *ast.InsertStmt) error {
	table, err := e.Catalog.Table(stmt.Table)
	if err != nil {
		return err
	}
	for _, exprRow := range stmt.Rows {
		if len(exprRow) != len(table.Order) {
			return sql.ErrEval.New("insert row has " + strconv.Itoa(len(exprRow)) + " values, expected " + strconv.Itoa(len(table.Order)))
		}
		row := make(sql.Row, len(exprRow))
		for i, e := range exprRow {
			bound, err := e.Bind(literalBinder{})
			if err != nil {
				return err
			}
			v, err := bound.Eval(sql.NewEmptyContext(), nil)
			if err != nil {
				return err
			}
			row[i] = v
		}
		table.Insert(row)
	}
	return nil
}

func (e *Engine) execCreateTable(stmt *ast.CreateTableStmt) error {
	cols := make([]catalog.ColumnDef, len(stmt.Columns))
	for i, c := range stmt.Columns {
		t, err := columnTypeOf(c.Type, c.Len)
		if err != nil {
			return err
		}
		cols[i] = catalog.ColumnDef{Name: c.Name, Type: t}
	}
	_, err := e.Catalog.Create(stmt.Table, cols)
	return err
}

func (e *Engine) execCopy(stmt *ast.CopyStmt) error {
	table, err := e.Catalog.Table(stmt.Table)
	if err != nil {
		return err
	}
	delim := stmt.Delim
	if delim == 0 {
		delim = '|'
	}
	return catalog.ReadCSV(stmt.Path, delim, func(fields []string) error {
		if len(fields) != len(table.Order) {
			return sql.ErrEval.New("csv row has " + strconv.Itoa(len(fields)) + " fields, expected " + strconv.Itoa(len(table.Order)))
		}
		row := make(sql.Row, len(fields))
		for i, f := range fields {
			v, err := types.FromCSVField(f, table.Order[i].Type)
			if err != nil {
				return err
			}
			row[i] = v
		}
		table.Insert(row)
		return nil
	})
}

func (e *Engine) execCreateIndex(stmt *ast.CreateIndexStmt) error {
	table, err := e.Catalog.Table(stmt.Table)
	if err != nil {
		return err
	}
	for _, c := range stmt.Columns {
		if _, err := e.Catalog.Column(stmt.Table, c); err != nil {
			return err
		}
	}
	table.Indexes = append(table.Indexes, stmt.Name)
	return nil
}

func (e *Engine) execAnalyze(stmt *ast.AnalyzeStmt) error {
	table, err := e.Catalog.Table(stmt.Table)
	if err != nil {
		return err
	}
	table.RowCountEstimate = len(table.Rows())
	return nil
}

// columnTypeOf mirrors plan.CreatePlan's own external-column type
// vocabulary (§6); duplicated rather than exported from plan to keep
// engine's DDL handling independent of plan's unexported helpers.
func columnTypeOf(name string, length int) (types.ColumnType, error) {
	switch name {
	case "int":
		return types.NewIntType(), nil
	case "double":
		return types.NewDoubleType(), nil
	case "char":
		return types.NewCharType(length), nil
	case "bool":
		return types.NewBoolType(), nil
	case "datetime":
		return types.NewDateTimeType(), nil
	case "interval":
		return types.NewTimeSpanType(), nil
	default:
		return types.ColumnType{}, sql.ErrTypeMismatch.New("unknown column type " + name)
	}
}

