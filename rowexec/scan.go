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

package rowexec

import (
	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/sql"
)

// ScanCost is the constant per-scan cost of spec §4.F: this model
// keeps no statistics to estimate row counts from, so every scan
// costs the same regardless of the table behind it.
const ScanCost = 1.0

// ScanTable is the physical leaf reading a catalog table's row heap
// (Get<BaseTable>, §4.E/§4.G). RefKey is the owning plan.TableRef's
// identity, published as the current row so a correlated subquery
// nested anywhere below this row's lifetime can read it back via
// Context.GetParam (§4.C); rowexec never imports the plan package, so
// RefKey travels as an opaque interface{} set by the lowering pass.
type ScanTable struct {
	base
	RefKey interface{}
	Table  *catalog.TableDef
	Filter sql.Expr
	Output []sql.Expr
}

func NewScanTable(logical sql.Node, refKey interface{}, table *catalog.TableDef, filter sql.Expr, output []sql.Expr) *ScanTable {
	return &ScanTable{base: base{logical: logical, cost: ScanCost}, RefKey: refKey, Table: table, Filter: filter, Output: output}
}

func (s *ScanTable) Children() []sql.PhysicalNode { return nil }

func (s *ScanTable) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("ScanTable takes no children")
	}
	return s, nil
}

func (s *ScanTable) String() string { return "ScanTable(" + s.Table.Name + ")" }

func (s *ScanTable) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	for _, raw := range s.Table.Rows() {
		ctx.PublishParam(s.RefKey, raw)
		if s.Filter != nil {
			v, err := s.Filter.Eval(ctx, raw)
			if err != nil {
				return err
			}
			if !isTrue(v) {
				continue
			}
		}
		out, err := evalRow(ctx, s.Output, raw)
		if err != nil {
			return err
		}
		if err := cb(out); err != nil {
			return err
		}
	}
	return nil
}

// ScanFile is the physical leaf reading a CSV-backed ExternalTable
// (Get<ExternalTable>, §4.E/§6), the file-backed twin of ScanTable.
type ScanFile struct {
	base
	RefKey interface{}
	Table  *catalog.ExternalTable
	Filter sql.Expr
	Output []sql.Expr
}

func NewScanFile(logical sql.Node, refKey interface{}, table *catalog.ExternalTable, filter sql.Expr, output []sql.Expr) *ScanFile {
	return &ScanFile{base: base{logical: logical, cost: ScanCost}, RefKey: refKey, Table: table, Filter: filter, Output: output}
}

func (s *ScanFile) Children() []sql.PhysicalNode { return nil }

func (s *ScanFile) WithChildren(children ...sql.PhysicalNode) (sql.PhysicalNode, error) {
	if len(children) != 0 {
		return nil, sql.ErrEval.New("ScanFile takes no children")
	}
	return s, nil
}

func (s *ScanFile) String() string { return "ScanFile(" + s.Table.Name + ")" }

func (s *ScanFile) Exec(ctx *sql.Context, cb func(sql.Row) error) error {
	return s.Table.Each(func(raw sql.Row) error {
		ctx.PublishParam(s.RefKey, raw)
		if s.Filter != nil {
			v, err := s.Filter.Eval(ctx, raw)
			if err != nil {
				return err
			}
			if !isTrue(v) {
				return nil
			}
		}
		out, err := evalRow(ctx, s.Output, raw)
		if err != nil {
			return err
		}
		return cb(out)
	})
}
