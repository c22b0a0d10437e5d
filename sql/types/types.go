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

// Package types implements the column type and value domain: the
// tagged ColumnType variant, the dynamic Value union, and the
// arithmetic/comparison semantics dispatched by operand type at eval
// time.
package types

import "fmt"

// Kind tags the six column types this engine knows about. spec §1
// names these as the non-goal boundary: correctness is only promised
// for Int, Double, Char, Bool, DateTime and TimeSpan.
type Kind int

const (
	Int Kind = iota
	Double
	Char
	Bool
	DateTime
	TimeSpan
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Double:
		return "double"
	case Char:
		return "char"
	case Bool:
		return "bool"
	case DateTime:
		return "datetime"
	case TimeSpan:
		return "interval"
	default:
		return "unknown"
	}
}

// ColumnType is a tagged variant over Kind; Len is meaningful only for
// Char (a declared maximum length).
type ColumnType struct {
	Kind Kind
	Len  int
}

func NewIntType() ColumnType      { return ColumnType{Kind: Int} }
func NewDoubleType() ColumnType   { return ColumnType{Kind: Double} }
func NewCharType(n int) ColumnType { return ColumnType{Kind: Char, Len: n} }
func NewBoolType() ColumnType     { return ColumnType{Kind: Bool} }
func NewDateTimeType() ColumnType { return ColumnType{Kind: DateTime} }
func NewTimeSpanType() ColumnType { return ColumnType{Kind: TimeSpan} }

func (t ColumnType) String() string {
	if t.Kind == Char && t.Len > 0 {
		return fmt.Sprintf("char(%d)", t.Len)
	}
	return t.Kind.String()
}

// IsNumeric reports whether t participates in arithmetic promotion.
func (t ColumnType) IsNumeric() bool {
	return t.Kind == Int || t.Kind == Double
}

// CompatibleWith is the binder's type-check predicate: whether a
// value of t can stand where rhs is expected (comparison, CASE arms,
// set ops, assignment). Numeric types are mutually compatible;
// everything else requires an exact Kind match.
func (t ColumnType) CompatibleWith(rhs ColumnType) bool {
	if t.IsNumeric() && rhs.IsNumeric() {
		return true
	}
	return t.Kind == rhs.Kind
}

// Equal reports structural equality, ignoring Len for non-Char kinds.
func (t ColumnType) Equal(o ColumnType) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == Char {
		return t.Len == o.Len
	}
	return true
}

// BinaryResultType implements the bind-time result-type rule for
// arithmetic and comparison operators (spec §4.A):
//   - arithmetic on like numeric types keeps the left operand's type;
//     mixed numerics promote to Double.
//   - comparison, logical and `like` all produce Bool.
func BinaryResultType(op string, l, r ColumnType) (ColumnType, bool) {
	switch op {
	case "+", "-", "*", "/", "%":
		if !l.IsNumeric() || !r.IsNumeric() {
			return ColumnType{}, false
		}
		if l.Kind == Double || r.Kind == Double {
			return NewDoubleType(), true
		}
		return l, true
	case "=", "<>", "!=", "<", "<=", ">", ">=", "like", "and", "or", "not":
		if !l.CompatibleWith(r) {
			return ColumnType{}, false
		}
		return NewBoolType(), true
	default:
		return ColumnType{}, false
	}
}
