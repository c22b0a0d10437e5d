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

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bigwa/qpmodel/catalog"
	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

func TestCreateAssignsOrdinalsByPosition(t *testing.T) {
	c := catalog.New()
	tbl, err := c.Create("t", []catalog.ColumnDef{
		{Name: "x", Type: types.NewIntType()},
		{Name: "y", Type: types.NewIntType()},
	})
	require.NoError(t, err)
	require.Equal(t, 0, tbl.Columns["x"].Ordinal)
	require.Equal(t, 1, tbl.Columns["y"].Ordinal)
	require.Equal(t, []string{"x", "y"}, []string{tbl.Order[0].Name, tbl.Order[1].Name})
}

func TestCreateRejectsDuplicateTableName(t *testing.T) {
	c := catalog.New()
	_, err := c.Create("t", []catalog.ColumnDef{{Name: "x", Type: types.NewIntType()}})
	require.NoError(t, err)

	_, err = c.Create("t", []catalog.ColumnDef{{Name: "x", Type: types.NewIntType()}})
	require.True(t, sql.ErrTableExists.Is(err))
}

func TestTableAndColumnReturnUnknownErrors(t *testing.T) {
	c := catalog.New()
	_, err := c.Table("missing")
	require.True(t, sql.ErrUnknownTable.Is(err))

	_, err = c.Create("t", []catalog.ColumnDef{{Name: "x", Type: types.NewIntType()}})
	require.NoError(t, err)

	_, err = c.Column("t", "missing")
	require.True(t, sql.ErrUnknownColumn.Is(err))
}

func TestDropRemovesTable(t *testing.T) {
	c := catalog.New()
	_, err := c.Create("t", []catalog.ColumnDef{{Name: "x", Type: types.NewIntType()}})
	require.NoError(t, err)

	require.NoError(t, c.Drop("t"))
	_, ok := c.TryTable("t")
	require.False(t, ok)

	err = c.Drop("t")
	require.True(t, sql.ErrUnknownTable.Is(err))
}

func TestInsertAndRowsSnapshotsTheHeap(t *testing.T) {
	c := catalog.New()
	tbl, err := c.Create("t", []catalog.ColumnDef{{Name: "x", Type: types.NewIntType()}})
	require.NoError(t, err)

	tbl.Insert(sql.Row{types.IntValue(1)})
	tbl.Insert(sql.Row{types.IntValue(2)})

	rows := tbl.Rows()
	require.Len(t, rows, 2)

	// Rows returns a copy: mutating it must not affect the table's own heap.
	rows[0][0] = types.IntValue(99)
	again := tbl.Rows()
	require.Equal(t, types.IntValue(1), again[0][0])
}

func TestReadCSVInvokesCallbackPerRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("1|2\n3|4\n"), 0o644))

	var got [][]string
	err := catalog.ReadCSV(path, '|', func(fields []string) error {
		cp := append([]string(nil), fields...)
		got = append(got, cp)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, got)
}

func TestExternalTableEachParsesTypedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("1|2\n3|4\n"), 0o644))

	ext := &catalog.ExternalTable{
		Name:  "ext",
		Path:  path,
		Delim: '|',
		Columns: []catalog.ColumnDef{
			{Name: "a", Type: types.NewIntType()},
			{Name: "b", Type: types.NewIntType()},
		},
	}

	var rows []sql.Row
	err := ext.Each(func(r sql.Row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, types.IntValue(1), rows[0][0])
	require.Equal(t, types.IntValue(4), rows[1][1])
}

func TestExternalTableEachRejectsFieldCountMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("1|2|3\n"), 0o644))

	ext := &catalog.ExternalTable{
		Path:  path,
		Delim: '|',
		Columns: []catalog.ColumnDef{
			{Name: "a", Type: types.NewIntType()},
			{Name: "b", Type: types.NewIntType()},
		},
	}

	err := ext.Each(func(sql.Row) error { return nil })
	require.Error(t, err)
}

func TestNewFixtureCatalogHasFourTablesWithThreeRowsEach(t *testing.T) {
	c := catalog.NewFixtureCatalog()
	for _, alias := range []string{"a", "b", "c", "d"} {
		tbl, err := c.Table(alias)
		require.NoError(t, err)
		require.Len(t, tbl.Rows(), 3)
		require.Len(t, tbl.Order, 4)
	}
}
