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

// Package catalog implements the catalog interface of spec §4.B/§6:
// lookup of table definitions, column ordinals, and row-heap
// iteration, backed by a process-wide in-memory dictionary mutated
// only by DDL/INSERT (§5).
package catalog

import (
	"sync"

	"github.com/bigwa/qpmodel/sql"
	"github.com/bigwa/qpmodel/sql/types"
)

// ColumnDef describes one column of a TableDef.
type ColumnDef struct {
	Name    string
	Type    types.ColumnType
	Ordinal int
}

// TableDef is a catalog table: its columns (ordinals are a 0..N-1
// permutation, enforced by Create) and its row heap.
type TableDef struct {
	Name    string
	Columns map[string]*ColumnDef
	Order   []*ColumnDef // Order[i].Ordinal == i
	Indexes []string

	// RowCountEstimate is the only statistic this engine's cost model
	// is allowed to use (spec's Non-goals: "a cost model beyond
	// row-count estimates"). ANALYZE refreshes it from the heap's
	// current length; nothing reads it yet, since rowexec.ScanCost is
	// still the documented constant-cost placeholder.
	RowCountEstimate int

	mu   sync.Mutex
	Heap []sql.Row
}

// Schema returns the table's columns in ordinal order.
func (t *TableDef) Schema() sql.Schema {
	out := make(sql.Schema, len(t.Order))
	for i, c := range t.Order {
		out[i] = &sql.Column{Name: c.Name, Type: c.Type, Ordinal: c.Ordinal, Visible: true}
	}
	return out
}

// Insert appends a row to the table's heap. The catalog is a
// process-wide dictionary mutated only by DDL/INSERT; readers and
// writers are not expected to overlap (§5), so this lock exists only
// to protect concurrent INSERTs against each other, not against
// concurrent scans.
func (t *TableDef) Insert(row sql.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Heap = append(t.Heap, row)
}

// Rows returns a snapshot of the table's heap for scan iteration.
func (t *TableDef) Rows() []sql.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sql.Row, len(t.Heap))
	copy(out, t.Heap)
	return out
}

// Catalog is the process-wide table dictionary (§6's "catalog API").
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*TableDef
}

func New() *Catalog {
	return &Catalog{tables: make(map[string]*TableDef)}
}

// TryTable returns the table, or (nil, false) if it is not
// registered.
func (c *Catalog) TryTable(name string) (*TableDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	return t, ok
}

// Table returns the table or ErrUnknownTable.
func (c *Catalog) Table(name string) (*TableDef, error) {
	t, ok := c.TryTable(name)
	if !ok {
		return nil, sql.ErrUnknownTable.New(name)
	}
	return t, nil
}

// Column returns table.column's definition.
func (c *Catalog) Column(table, column string) (*ColumnDef, error) {
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	col, ok := t.Columns[column]
	if !ok {
		return nil, sql.ErrUnknownColumn.New(column)
	}
	return col, nil
}

// Create registers a new table with the given column names/types, in
// order; ordinals are assigned 0..N-1 by position.
func (c *Catalog) Create(name string, cols []ColumnDef) (*TableDef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[name]; ok {
		return nil, sql.ErrTableExists.New(name)
	}
	t := &TableDef{Name: name, Columns: make(map[string]*ColumnDef)}
	for i := range cols {
		cd := cols[i]
		cd.Ordinal = i
		t.Columns[cd.Name] = &cd
		t.Order = append(t.Order, &cd)
	}
	c.tables[name] = t
	return t, nil
}

// Drop removes a table.
func (c *Catalog) Drop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[name]; !ok {
		return sql.ErrUnknownTable.New(name)
	}
	delete(c.tables, name)
	return nil
}
