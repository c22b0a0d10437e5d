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

package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// ReadCSV is the external CSV reader contract named in spec §6:
// read_csv(path, delim, each_line: fields -> ()). No third-party CSV
// library appears anywhere in the retrieval pack, so this stays on
// encoding/csv (see DESIGN.md).
func ReadCSV(path string, delim rune, each func(fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := each(fields); err != nil {
			return err
		}
	}
}

// ExternalTable is the COPY/CSV-backed table named by spec §3/§6's
// ExternalTable TableRef variant: it is scanned directly from a file
// rather than an in-memory heap, so ScanFile (rowexec) reads through
// this instead of TableDef.Rows.
type ExternalTable struct {
	Name    string
	Path    string
	Delim   rune
	Columns []ColumnDef
}

// Schema returns the external table's columns in declared order.
func (e *ExternalTable) Schema() sql.Schema {
	out := make(sql.Schema, len(e.Columns))
	for i, c := range e.Columns {
		out[i] = &sql.Column{Name: c.Name, Type: c.Type, Ordinal: i, Visible: true}
	}
	return out
}

// Each parses every CSV row into a typed sql.Row per the table's
// declared column types and invokes cb.
func (e *ExternalTable) Each(cb func(sql.Row) error) error {
	return ReadCSV(e.Path, e.Delim, func(fields []string) error {
		if len(fields) != len(e.Columns) {
			return sql.ErrEval.New("csv row has " + strconv.Itoa(len(fields)) + " fields, expected " + strconv.Itoa(len(e.Columns)))
		}
		row := make(sql.Row, len(fields))
		for i, f := range fields {
			v, err := types.FromCSVField(f, e.Columns[i].Type)
			if err != nil {
				return err
			}
			row[i] = v
		}
		return cb(row)
	})
}
