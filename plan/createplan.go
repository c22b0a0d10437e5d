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
	"github.com/bigwa/qpmodel/sql/expression"
	"github.com/bigwa/qpmodel/sql/types"
)

// CreatePlan builds the unresolved logical tree for one SELECT (spec
// §4.D/§4.E/§4.H): register CTEs, fold FROM into a left-deep Get/
// FromQuery/Join tree, bind WHERE/selection/GROUP BY/HAVING/ORDER BY,
// and wrap the result in Agg/Order/Limit/Result as the statement
// requires. The returned Result is unresolved; the caller runs
// ResolveOrdinal once, per the pipeline in §4.H.
func CreatePlan(ctx *BindContext, stmt *ast.SelectStmt) (sql.Node, error) {
	for name, body := range stmt.CTEs {
		ctx.RegisterCTE(name, body)
	}

	if len(stmt.From) == 0 {
		return nil, sql.ErrEval.New("SELECT with no FROM clause is not supported")
	}

	var cur sql.Node
	for i, item := range stmt.From {
		ref, leaf, err := planFromItem(ctx, item)
		if err != nil {
			return nil, err
		}
		if err := ctx.RegisterTable(ref); err != nil {
			return nil, err
		}
		if i == 0 {
			cur = leaf
			continue
		}
		var pred sql.Expr
		if item.On != nil {
			pred, err = item.On.Bind(ctx)
			if err != nil {
				return nil, err
			}
		}
		cur = NewJoin(joinTypeOf(item.JoinKind, item.On), cur, leaf, pred)
	}

	if stmt.Where != nil {
		bound, err := stmt.Where.Bind(ctx)
		if err != nil {
			return nil, err
		}
		cur = NewFilter(cur, bound)
	}

	selection, err := bindSelection(ctx, stmt.Selection)
	if err != nil {
		return nil, err
	}

	var having sql.Expr
	if stmt.Having != nil {
		having, err = stmt.Having.Bind(ctx)
		if err != nil {
			return nil, err
		}
	}

	groupKeys := make([]sql.Expr, len(stmt.GroupBy))
	for i, k := range stmt.GroupBy {
		groupKeys[i], err = k.Bind(ctx)
		if err != nil {
			return nil, err
		}
	}

	orders := make([]sql.Expr, len(stmt.Orders))
	for i, o := range stmt.Orders {
		orders[i], err = o.Bind(ctx)
		if err != nil {
			return nil, err
		}
	}

	aggs := collectAggs(selection, having, orders)
	if len(groupKeys) > 0 || len(aggs) > 0 {
		cur = NewAgg(cur, groupKeys, aggs, having)
	}

	if len(orders) > 0 {
		cur = NewOrder(cur, orders)
	}

	if stmt.Limit != nil {
		n, err := evalConstInt(stmt.Limit)
		if err != nil {
			return nil, err
		}
		cur = NewLimit(cur, n)
	}

	if stmt.SetOp != nil {
		left, err := NewResult(cur, selection).ResolveOrdinal(nil, false)
		if err != nil {
			return nil, err
		}
		right, err := planSelectFull(ctx.NewChild(), stmt.SetOp.Right)
		if err != nil {
			return nil, err
		}
		return NewSetOp(stmt.SetOp.Kind, left, right), nil
	}

	return NewResult(cur, selection), nil
}

// planSelectFull runs the full per-statement pipeline of §4.H on a
// nested SELECT: create_plan followed immediately by its own
// resolve_column_ordinal, since a subquery (or a set-op arm) is
// self-contained and its output is needed as soon as it returns.
func planSelectFull(ctx *BindContext, stmt *ast.SelectStmt) (sql.Node, error) {
	node, err := CreatePlan(ctx, stmt)
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case *Result:
		return n.ResolveOrdinal(nil, false)
	case *SetOp:
		return n.ResolveOrdinal(nil, false)
	default:
		return node.ResolveOrdinal(node.Output(), false)
	}
}

// bindSelection expands every SelStar against ctx before binding the
// remaining expressions, per §4.C: a star must never reach Bind.
func bindSelection(ctx *BindContext, raw []sql.Expr) ([]sql.Expr, error) {
	var out []sql.Expr
	for _, e := range raw {
		if star, ok := e.(*expression.SelStar); ok {
			expanded, err := star.Expand(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		bound, err := e.Bind(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, bound)
	}
	return out, nil
}

// collectAggs gathers the distinct AggFunc occurrences anywhere in the
// statement's selection, having and order-by terms, so Agg.Aggs covers
// every aggregate the plan's ordinal rewrite will need to recognize,
// even one that appears only in ORDER BY (§4.E).
func collectAggs(exprLists ...interface{}) []sql.Expr {
	var out []sql.Expr
	add := func(e sql.Expr) {
		sql.VisitEach(e, func(x sql.Expr) bool {
			af, ok := x.(*expression.AggFunc)
			if !ok {
				return true
			}
			for _, existing := range out {
				if expression.Equal(existing, af) {
					return false
				}
			}
			out = append(out, af)
			return false
		})
	}
	for _, list := range exprLists {
		switch v := list.(type) {
		case []sql.Expr:
			for _, e := range v {
				add(e)
			}
		case sql.Expr:
			add(v)
		}
	}
	return out
}

// planFromItem resolves one FROM-clause item into its TableRef and
// scan/derived-table leaf node, discovering CTEs on an otherwise
// unknown base-table name by walking parent scopes (§4.H).
func planFromItem(ctx *BindContext, item ast.FromItem) (TableRef, sql.Node, error) {
	alias := item.Alias

	switch item.Kind {
	case ast.FromBaseTable:
		if t, ok := ctx.Catalog().TryTable(item.TableName); ok {
			if alias == "" {
				alias = item.TableName
			}
			ref := NewBaseTableRef(alias, t)
			return ref, NewGet(ref), nil
		}
		if body, ok := ctx.LookupCTE(item.TableName); ok {
			return planCTE(ctx, item.TableName, body, alias)
		}
		return nil, nil, sql.ErrUnknownTable.New(item.TableName)

	case ast.FromCTE:
		body, ok := ctx.LookupCTE(item.TableName)
		if !ok {
			return nil, nil, sql.ErrUnknownTable.New(item.TableName)
		}
		return planCTE(ctx, item.TableName, body, alias)

	case ast.FromExternalTable:
		if alias == "" {
			alias = item.TableName
		}
		cols := make([]catalog.ColumnDef, len(item.Columns))
		for i, c := range item.Columns {
			t, err := columnTypeOf(c.Type, c.Len)
			if err != nil {
				return nil, nil, err
			}
			cols[i] = catalog.ColumnDef{Name: c.Name, Type: t, Ordinal: i}
		}
		ext := &catalog.ExternalTable{Name: item.TableName, Path: item.FilePath, Delim: item.Delim, Columns: cols}
		ref := NewExternalTableRef(alias, ext)
		return ref, NewGet(ref), nil

	case ast.FromSubquery:
		inner, err := planSelectFull(ctx.NewChild(), item.Sub)
		if err != nil {
			return nil, nil, err
		}
		ref := NewFromQueryRef(alias, inner)
		return ref, NewFromQuery(ref), nil

	default:
		return nil, nil, sql.ErrEval.New("unknown FROM item kind")
	}
}

// planCTE plans name's body in a fresh child of ctx every time it is
// referenced; this is the simple, always-correct form of §4.H's CTE
// support (no cross-reference materialization), documented in
// DESIGN.md as a scoping decision.
func planCTE(ctx *BindContext, name string, body *ast.SelectStmt, alias string) (TableRef, sql.Node, error) {
	if alias == "" {
		alias = name
	}
	inner, err := planSelectFull(ctx.NewChild(), body)
	if err != nil {
		return nil, nil, err
	}
	ref := NewCTERef(alias, inner)
	return ref, NewFromQuery(ref), nil
}

func joinTypeOf(kind string, on sql.Expr) JoinType {
	if on == nil {
		return CrossJoin
	}
	switch kind {
	case "left":
		return LeftJoin
	case "right":
		return RightJoin
	case "full":
		return FullJoin
	case "cross":
		return CrossJoin
	default:
		return InnerJoin
	}
}

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
		return types.ColumnType{}, sql.ErrTypeMismatch.New("unknown external column type " + name)
	}
}

// evalConstInt evaluates a LIMIT expression, which is constant by
// construction (§4.E): it carries no column references, so an empty
// context and row suffice.
func evalConstInt(e sql.Expr) (int64, error) {
	bound, err := e.Bind(&constBinder{})
	if err != nil {
		return 0, err
	}
	v, err := bound.Eval(sql.NewEmptyContext(), nil)
	if err != nil {
		return 0, err
	}
	return v.Int(), nil
}

// constBinder rejects any column reference, since LIMIT must be a
// literal or a constant expression (§4.E).
type constBinder struct{}

func (constBinder) Resolve(tableQualifier, column string) (sql.ColumnRef, error) {
	return sql.ColumnRef{}, sql.ErrEval.New("LIMIT must be a constant expression")
}
func (constBinder) NewSubqueryID() int { return 0 }
func (constBinder) BindSubquery(inner interface{}) (sql.Subquery, error) {
	return nil, sql.ErrEval.New("LIMIT must be a constant expression")
}
func (constBinder) Columns(tableQualifier string) ([]sql.ColumnRef, error) { return nil, nil }
