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

// Literal is a constant value; its type is known without binding, so
// Bind is a no-op beyond marking it bounded.
type Literal struct {
	env
	Value types.Value
}

// NewLiteral builds a bound literal of the given value.
func NewLiteral(v types.Value) *Literal {
	e := newEnv()
	e.typ = v.Type
	e.bounded = true
	e.refs = map[interface{}]bool{}
	return &Literal{env: e, Value: v}
}

func (l *Literal) Children() []sql.Expr { return nil }

func (l *Literal) WithChildren(children ...sql.Expr) (sql.Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("Literal takes no children")
	}
	return l, nil
}

func (l *Literal) Bind(ctx sql.Binder) (sql.Expr, error) { return l, nil }

func (l *Literal) Clone() sql.Expr {
	c := *l
	c.refs = map[interface{}]bool{}
	return &c
}

func (l *Literal) Eval(ctx *sql.Context, row sql.Row) (types.Value, error) {
	return l.Value, nil
}

func (l *Literal) String() string { return l.Value.String() }

func (l *Literal) Equal(other sql.Expr) bool {
	other = stripRef(other)
	o, ok := other.(*Literal)
	if !ok {
		return false
	}
	return types.Equal(l.Value, o.Value)
}

func (l *Literal) Hash() uint64 {
	return hashCombine("literal", hashString(l.Value.String()))
}
