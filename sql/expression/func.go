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

// scalarFunc is a registered builtin: its argument-type check and its
// evaluator. The registry is intentionally small (§3.C of the
// expanded spec): ABS, LOWER, UPPER, COALESCE are the ones the
// retrieval pack's examples exercise for a scalar Func variant.
type scalarFunc struct {
	resultType func(args []types.ColumnType) (types.ColumnType, bool)
	eval       func(args []types.Value) (types.Value, error)
}

var scalarRegistry = map[string]scalarFunc{
	"abs": {
		resultType: func(args []types.ColumnType) (types.ColumnType, bool) {
			if len(args) != 1 || !args[0].IsNumeric() {
				return types.ColumnType{}, false
			}
			return args[0], true
		},
		eval: func(args []types.Value) (types.Value, error) {
			v := args[0]
			if v.IsNull {
				return v, nil
			}
			if v.Type.Kind == types.Double {
				f := v.Double()
				if f < 0 {
					f = -f
				}
				return types.DoubleValue(f), nil
			}
			i := v.Int()
			if i < 0 {
				i = -i
			}
			return types.IntValue(i), nil
		},
	},
	"lower": {
		resultType: func(args []types.ColumnType) (types.ColumnType, bool) {
			if len(args) != 1 || args[0].Kind != types.Char {
				return types.ColumnType{}, false
			}
			return args[0], true
		},
		eval: func(args []types.Value) (types.Value, error) {
			if args[0].IsNull {
				return args[0], nil
			}
			return types.CharValue(strings.ToLower(args[0].Str())), nil
		},
	},
	"upper": {
		resultType: func(args []types.ColumnType) (types.ColumnType, bool) {
			if len(args) != 1 || args[0].Kind != types.Char {
				return types.ColumnType{}, false
			}
			return args[0], true
		},
		eval: func(args []types.Value) (types.Value, error) {
			if args[0].IsNull {
				return args[0], nil
			}
			return types.CharValue(strings.ToUpper(args[0].Str())), nil
		},
	},
	"coalesce": {
		resultType: func(args []types.ColumnType) (types.ColumnType, bool) {
			if len(args) == 0 {
				return types.ColumnType{}, false
			}
			return args[0], true
		},
		eval: func(args []types.Value) (types.Value, error) {
			for _, v := range args {
				if !v.IsNull {
					return v, nil
				}
			}
			return types.Null, nil
		},
	},
}

// FuncExpr is a scalar builtin function call.
type FuncExpr struct {
	env
	Name string
	Args []sql.Expr
}

func NewFunc(name string, args ...sql.Expr) *FuncExpr {
	return &FuncExpr{env: newEnv(), Name: strings.ToLower(name), Args: args}
}

func (f *FuncExpr) Children() []sql.Expr { return f.Args }

func (f *FuncExpr) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	c := NewFunc(f.Name, children...)
	c.env = f.env
	return c, nil
}

func (f *FuncExpr) Bind(ctx sql.Binder) (sql.Expr, error) {
	if f.bounded {
		return f, nil
	}
	reg, ok := scalarRegistry[f.Name]
	if !ok {
		return nil, sql.ErrTypeMismatch.New("unknown function " + f.Name)
	}
	args := make([]sql.Expr, len(f.Args))
	argTypes := make([]types.ColumnType, len(f.Args))
	for i, a := range f.Args {
		b, err := a.Bind(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = b
		argTypes[i] = b.Type()
	}
	rt, ok := reg.resultType(argTypes)
	if !ok {
		return nil, sql.ErrTypeMismatch.New("bad argument types for " + f.Name)
	}
	out := &FuncExpr{env: f.env, Name: f.Name, Args: args}
	out.typ = rt
	out.bounded = true
	out.refs = unionRefs(args...)
	return out, nil
}

func (f *FuncExpr) Clone() sql.Expr {
	c := *f
	c.Args = make([]sql.Expr, len(f.Args))
	for i, a := range f.Args {
		c.Args[i] = a.Clone()
	}
	return &c
}

func (f *FuncExpr) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	vals := make([]types.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return types.Value{}, err
		}
		vals[i] = v
	}
	v, err := scalarRegistry[f.Name].eval(vals)
	if err != nil {
		return types.Value{}, sql.ErrEval.New(err.Error())
	}
	return v, nil
}

func (f *FuncExpr) String() string {
	s := strings.ToUpper(f.Name) + "("
	for i, a := range f.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

func (f *FuncExpr) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*FuncExpr)
	if !ok || o.Name != f.Name {
		return false
	}
	return childrenEqual(f.Args, o.Args)
}

func (f *FuncExpr) Hash() uint64 {
	parts := []uint64{hashString(f.Name)}
	for _, a := range f.Args {
		parts = append(parts, a.Hash())
	}
	return hashCombine("func", parts...)
}
