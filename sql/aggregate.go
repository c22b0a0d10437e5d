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

import "github.com/bigwa/qpmodel/sql/types"

// Aggregate is implemented by the AggFunc expression variant so that
// rowexec's HashAgg operator can drive init/accumulate/finalize
// without importing sql/expression (§4.G): the operator only ever
// sees this interface, never the concrete aggregate-function type.
type Aggregate interface {
	Expr
	NewAccumulator() Accumulator
}

// Accumulator holds one group's running aggregate state.
type Accumulator interface {
	Accumulate(ctx *Context, row Row) error
	Result() (types.Value, error)
}
