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

package types

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// Value is the dynamic scalar domain every Expr.Eval produces. It is
// a tagged struct rather than an interface{} so that arithmetic and
// comparison can switch on Type.Kind directly instead of doing a Go
// type assertion dance.
type Value struct {
	Type   ColumnType
	IsNull bool

	i int64
	f float64
	s string
	t time.Time
}

// Null is the untyped null value. Its Type is the zero ColumnType;
// callers that need a typed null should use NullOf.
var Null = Value{IsNull: true}

// NullOf returns a null value carrying t, used when a join's
// null-padded side must still report a column type.
func NullOf(t ColumnType) Value { return Value{Type: t, IsNull: true} }

func IntValue(i int64) Value    { return Value{Type: NewIntType(), i: i} }
func DoubleValue(f float64) Value { return Value{Type: NewDoubleType(), f: f} }
func CharValue(s string) Value  { return Value{Type: NewCharType(len(s)), s: s} }
func BoolValue(b bool) Value {
	v := Value{Type: NewBoolType()}
	if b {
		v.i = 1
	}
	return v
}
func DateValue(t time.Time) Value { return Value{Type: NewDateTimeType(), t: t} }

// IntervalValue stores a day count, the 30/365 normal form documented
// in spec §4.A and §9.
func IntervalValue(days int64) Value { return Value{Type: NewTimeSpanType(), i: days} }

func (v Value) Int() int64       { return v.i }
func (v Value) Double() float64  { return v.f }
func (v Value) Str() string      { return v.s }
func (v Value) Time() time.Time  { return v.t }
func (v Value) Bool() bool       { return v.i != 0 }
func (v Value) IntervalDays() int64 { return v.i }

// AsFloat64 returns the value widened to float64, for mixed-numeric
// arithmetic promotion.
func (v Value) AsFloat64() float64 {
	if v.Type.Kind == Double {
		return v.f
	}
	return float64(v.i)
}

func (v Value) String() string {
	if v.IsNull {
		return "NULL"
	}
	switch v.Type.Kind {
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Double:
		return fmt.Sprintf("%g", v.f)
	case Char:
		return v.s
	case Bool:
		return fmt.Sprintf("%t", v.Bool())
	case DateTime:
		return v.t.Format("2006-01-02")
	case TimeSpan:
		return fmt.Sprintf("%dd", v.i)
	default:
		return ""
	}
}

// FromCSVField coerces a raw CSV string field into a Value of the
// requested type, per the external CSV reader contract (spec §6):
// the reader yields string tuples, and this is the boundary where
// they're parsed according to each column's declared type.
func FromCSVField(field string, t ColumnType) (Value, error) {
	if field == "" {
		return NullOf(t), nil
	}
	switch t.Kind {
	case Int:
		n, err := cast.ToInt64E(field)
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case Double:
		f, err := cast.ToFloat64E(field)
		if err != nil {
			return Value{}, err
		}
		return DoubleValue(f), nil
	case Char:
		return CharValue(field), nil
	case Bool:
		b, err := cast.ToBoolE(field)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case DateTime:
		d, err := ParseDate(field)
		if err != nil {
			return Value{}, err
		}
		return d, nil
	case TimeSpan:
		days, err := ParseInterval(field)
		if err != nil {
			return Value{}, err
		}
		return IntervalValue(days), nil
	default:
		return Value{}, fmt.Errorf("unsupported column type %s", t)
	}
}

// Arithmetic implements +, -, *, /, % per the promotion rule in
// BinaryResultType: mixed numeric operands promote to Double.
func Arithmetic(op string, l, r Value) (Value, error) {
	if l.IsNull || r.IsNull {
		return NullOf(l.Type), nil
	}
	useDouble := l.Type.Kind == Double || r.Type.Kind == Double
	if useDouble {
		lf, rf := l.AsFloat64(), r.AsFloat64()
		switch op {
		case "+":
			return DoubleValue(lf + rf), nil
		case "-":
			return DoubleValue(lf - rf), nil
		case "*":
			return DoubleValue(lf * rf), nil
		case "/":
			if rf == 0 {
				return Value{}, fmt.Errorf("division by zero")
			}
			return DoubleValue(lf / rf), nil
		case "%":
			if rf == 0 {
				return Value{}, fmt.Errorf("division by zero")
			}
			return DoubleValue(math.Mod(lf, rf)), nil
		}
		return Value{}, fmt.Errorf("unsupported arithmetic operator %q", op)
	}
	li, ri := l.Int(), r.Int()
	switch op {
	case "+":
		return IntValue(li + ri), nil
	case "-":
		return IntValue(li - ri), nil
	case "*":
		return IntValue(li * ri), nil
	case "/":
		if ri == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return IntValue(li / ri), nil
	case "%":
		if ri == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return IntValue(li % ri), nil
	}
	return Value{}, fmt.Errorf("unsupported arithmetic operator %q", op)
}

// Compare returns -1/0/1 comparing l and r. Nulls never compare equal
// to anything, including another null; callers needing SQL
// three-valued logic should check IsNull before calling Compare.
func Compare(l, r Value) (int, error) {
	if l.IsNull || r.IsNull {
		return 0, fmt.Errorf("cannot compare null values")
	}
	if !l.Type.CompatibleWith(r.Type) {
		return 0, fmt.Errorf("type mismatch: %s vs %s", l.Type, r.Type)
	}
	switch l.Type.Kind {
	case Int, Double:
		lf, rf := l.AsFloat64(), r.AsFloat64()
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	case Char:
		switch {
		case l.s < r.s:
			return -1, nil
		case l.s > r.s:
			return 1, nil
		default:
			return 0, nil
		}
	case Bool:
		li, ri := l.i, r.i
		switch {
		case li < ri:
			return -1, nil
		case li > ri:
			return 1, nil
		default:
			return 0, nil
		}
	case DateTime:
		switch {
		case l.t.Before(r.t):
			return -1, nil
		case l.t.After(r.t):
			return 1, nil
		default:
			return 0, nil
		}
	case TimeSpan:
		switch {
		case l.i < r.i:
			return -1, nil
		case l.i > r.i:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("uncomparable type %s", l.Type)
	}
}

// Equal is a null-safe equality test used by In lists and hash join
// build/probe keys: two nulls are considered equal for hashing
// purposes even though SQL three-valued comparison would say unknown.
func Equal(l, r Value) bool {
	if l.IsNull != r.IsNull {
		return false
	}
	if l.IsNull {
		return true
	}
	c, err := Compare(l, r)
	return err == nil && c == 0
}

// HashKey returns a value suitable as a Go map key for hash join/agg
// build sides.
func HashKey(v Value) interface{} {
	if v.IsNull {
		return nil
	}
	switch v.Type.Kind {
	case Int, Bool, TimeSpan:
		return v.i
	case Double:
		return v.f
	case Char:
		return v.s
	case DateTime:
		return v.t.Unix()
	default:
		return v.s
	}
}
