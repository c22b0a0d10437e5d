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
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// SelStar is `*` or `tab.*`. It is not a real expression once the
// tree is bound: CreatePlan calls Expand before handing the selection
// list to Bind, and a bound plan must never contain a SelStar (§4.C).
type SelStar struct {
	env
	Tab string
}

func NewStar(tab string) *SelStar {
	return &SelStar{env: newEnv(), Tab: tab}
}

// Expand resolves the star into the ordered list of bound ColExpr it
// stands for.
func (s *SelStar) Expand(ctx sql.Binder) ([]sql.Expr, error) {
	cols, err := ctx.Columns(s.Tab)
	if err != nil {
		return nil, err
	}
	out := make([]sql.Expr, 0, len(cols))
	for _, c := range cols {
		out = append(out, NewBoundColumn(c))
	}
	return out, nil
}

func (s *SelStar) Children() []sql.Expr { return nil }

func (s *SelStar) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("SelStar takes no children")
	}
	return s, nil
}

func (s *SelStar) Bind(ctx sql.Binder) (sql.Expr, error) {
	return nil, sql.ErrEval.New("SelStar must be expanded before binding, not bound directly")
}

func (s *SelStar) Clone() sql.Expr { c := *s; return &c }

func (s *SelStar) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	return types.Value{}, sql.ErrEval.New("SelStar cannot be evaluated")
}

func (s *SelStar) String() string {
	if s.Tab == "" {
		return "*"
	}
	return s.Tab + ".*"
}

func (s *SelStar) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*SelStar)
	return ok && o.Tab == s.Tab
}

func (s *SelStar) Hash() uint64 { return hashCombine("star", hashString(s.Tab)) }
