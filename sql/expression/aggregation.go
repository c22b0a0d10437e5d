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
	"strings"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// AggFunc is the AggFunc variant of §4.C: COUNT, SUM, AVG, MIN, MAX.
// Arg is nil for COUNT(*). It implements sql.Aggregate so rowexec's
// HashAgg can drive it without importing this package.
type AggFunc struct {
	env
	Name string
	Arg  sql.Expr
}

func NewAggFunc(name string, arg sql.Expr) *AggFunc {
	return &AggFunc{env: newEnv(), Name: strings.ToUpper(name), Arg: arg}
}

func (a *AggFunc) Children() []sql.Expr {
	if a.Arg == nil {
		return nil
	}
	return []sql.Expr{a.Arg}
}

func (a *AggFunc) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	c := *a
	if a.Arg != nil {
		if len(children) != 1 {
			return nil, sql.ErrEval.New("AggFunc takes exactly one child")
		}
		c.Arg = children[0]
	}
	return &c, nil
}

func (a *AggFunc) Bind(ctx sql.Binder) (sql.Expr, error) {
	if a.bounded {
		return a, nil
	}
	out := &AggFunc{env: a.env, Name: a.Name}
	var argType types.ColumnType
	if a.Arg != nil {
		b, err := a.Arg.Bind(ctx)
		if err != nil {
			return nil, err
		}
		out.Arg = b
		argType = b.Type()
		out.refs = unionRefs(b)
	} else {
		out.refs = map[interface{}]bool{}
	}
	switch out.Name {
	case "COUNT":
		out.typ = types.NewIntType()
	case "SUM", "AVG":
		if a.Arg == nil || !argType.IsNumeric() {
			return nil, sql.ErrTypeMismatch.New(out.Name + " requires a numeric argument")
		}
		if out.Name == "AVG" {
			out.typ = types.NewDoubleType()
		} else {
			out.typ = argType
		}
	case "MIN", "MAX":
		if a.Arg == nil {
			return nil, sql.ErrTypeMismatch.New(out.Name + " requires an argument")
		}
		out.typ = argType
	default:
		return nil, sql.ErrTypeMismatch.New("unknown aggregate function " + out.Name)
	}
	out.bounded = true
	return out, nil
}

func (a *AggFunc) Clone() sql.Expr {
	c := *a
	if a.Arg != nil {
		c.Arg = a.Arg.Clone()
	}
	return &c
}

// Eval is not used directly at runtime: once ordinal resolution
// rewrites an AggFunc into ExprRef(agg, index) per §4.E, row assembly
// only ever indexes into the already-materialized aggregate state.
// It is kept for completeness/testability of the expression in
// isolation, evaluating as if it were a width-1 group.
func (a *AggFunc) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	acc := a.NewAccumulator()
	if err := acc.Accumulate(ctx, row); err != nil {
		return types.Value{}, err
	}
	return acc.Result()
}

func (a *AggFunc) String() string {
	if a.Arg == nil {
		return a.Name + "(*)"
	}
	return a.Name + "(" + a.Arg.String() + ")"
}

func (a *AggFunc) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*AggFunc)
	if !ok || o.Name != a.Name {
		return false
	}
	if (a.Arg == nil) != (o.Arg == nil) {
		return false
	}
	if a.Arg == nil {
		return true
	}
	return Equal(a.Arg, o.Arg)
}

func (a *AggFunc) Hash() uint64 {
	if a.Arg == nil {
		return hashCombine("agg:"+a.Name, 0)
	}
	return hashCombine("agg:"+a.Name, a.Arg.Hash())
}

// NewAccumulator builds the running-state accumulator for this
// aggregate, per its Name.
func (a *AggFunc) NewAccumulator() sql.Accumulator {
	switch a.Name {
	case "COUNT":
		return &countAcc{arg: a.Arg}
	case "SUM":
		return &sumAcc{arg: a.Arg}
	case "AVG":
		return &avgAcc{arg: a.Arg}
	case "MIN":
		return &extremeAcc{arg: a.Arg, wantMin: true}
	case "MAX":
		return &extremeAcc{arg: a.Arg, wantMin: false}
	default:
		return &countAcc{arg: a.Arg}
	}
}

type countAcc struct {
	arg sql.Expr
	n   int64
}

func (c *countAcc) Accumulate(ctx *sql.Context, row sql.Row) error {
	if c.arg == nil {
		c.n++
		return nil
	}
	v, err := c.arg.Eval(ctx, row)
	if err != nil {
		return err
	}
	if !v.IsNull {
		c.n++
	}
	return nil
}

func (c *countAcc) Result() (types.Value, error) { return types.IntValue(c.n), nil }

type sumAcc struct {
	arg     sql.Expr
	sum     float64
	isFloat bool
	any     bool
}

func (s *sumAcc) Accumulate(ctx *sql.Context, row sql.Row) error {
	v, err := s.arg.Eval(ctx, row)
	if err != nil {
		return err
	}
	if v.IsNull {
		return nil
	}
	s.any = true
	if v.Type.Kind == types.Double {
		s.isFloat = true
	}
	s.sum += v.AsFloat64()
	return nil
}

func (s *sumAcc) Result() (types.Value, error) {
	if !s.any {
		return types.Null, nil
	}
	if s.isFloat {
		return types.DoubleValue(s.sum), nil
	}
	return types.IntValue(int64(s.sum)), nil
}

type avgAcc struct {
	arg sql.Expr
	sum float64
	n   int64
}

func (a *avgAcc) Accumulate(ctx *sql.Context, row sql.Row) error {
	v, err := a.arg.Eval(ctx, row)
	if err != nil {
		return err
	}
	if v.IsNull {
		return nil
	}
	a.sum += v.AsFloat64()
	a.n++
	return nil
}

func (a *avgAcc) Result() (types.Value, error) {
	if a.n == 0 {
		return types.Null, nil
	}
	return types.DoubleValue(a.sum / float64(a.n)), nil
}

type extremeAcc struct {
	arg     sql.Expr
	wantMin bool
	best    types.Value
	any     bool
}

func (e *extremeAcc) Accumulate(ctx *sql.Context, row sql.Row) error {
	v, err := e.arg.Eval(ctx, row)
	if err != nil {
		return err
	}
	if v.IsNull {
		return nil
	}
	if !e.any {
		e.best, e.any = v, true
		return nil
	}
	c, err := types.Compare(v, e.best)
	if err != nil {
		return err
	}
	if (e.wantMin && c < 0) || (!e.wantMin && c > 0) {
		e.best = v
	}
	return nil
}

func (e *extremeAcc) Result() (types.Value, error) {
	if !e.any {
		return types.Null, nil
	}
	return e.best, nil
}
