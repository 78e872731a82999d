/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package driver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Memory is a dependency-free, in-process reference Driver. It keeps each
// table as a slice of Row behind a single mutex, the same coarse-locking
// style used by the teacher's DBManager for its connection map (sync.Map
// guarded lazily by sync.Once, with an atomic.Bool closed flag). It exists
// so trx/sqlexec and trx/httpapi can be exercised end to end, and as the
// fixture a caller reaches for before wiring in a real backend.
type Memory struct {
	mu      sync.Mutex
	once    sync.Once
	closed  atomic.Bool
	tables  map[string][]Column
	rows    map[string][]Row
	cursors map[string]*memoryCursor
	inTx    bool
	txSnap  *memorySnapshot
}

type memoryCursor struct {
	rows []Row
	pos  int
}

type memorySnapshot struct {
	tables map[string][]Column
	rows   map[string][]Row
}

// NewMemory returns a ready-to-use Memory driver.
func NewMemory() *Memory {
	return &Memory{
		tables:  map[string][]Column{},
		rows:    map[string][]Row{},
		cursors: map[string]*memoryCursor{},
	}
}

// Initialize lazily prepares the driver's internal storage. It is safe to
// call more than once.
func (m *Memory) Initialize(ctx context.Context) error {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.tables == nil {
			m.tables = map[string][]Column{}
		}
		if m.rows == nil {
			m.rows = map[string][]Row{}
		}
		if m.cursors == nil {
			m.cursors = map[string]*memoryCursor{}
		}
	})
	return nil
}

func (m *Memory) checkOpen() error {
	if m.closed.Load() {
		return fmt.Errorf("trx/driver: memory driver is closed")
	}
	return nil
}

// CreateOrMigrateTable registers tableName's columns, adding any missing
// ones to an already-registered table without discarding existing rows.
func (m *Memory) CreateOrMigrateTable(ctx context.Context, tableName string, columns []Column) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.tables[tableName]
	if !ok {
		m.tables[tableName] = append([]Column{}, columns...)
		return nil
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[strings.ToUpper(c.Name)] = true
	}
	for _, c := range columns {
		if !have[strings.ToUpper(c.Name)] {
			existing = append(existing, c)
		}
	}
	m.tables[tableName] = existing
	return nil
}

// GetTableSchema returns the columns registered for tableName.
func (m *Memory) GetTableSchema(ctx context.Context, tableName string) ([]Column, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cols, ok := m.tables[tableName]
	if !ok {
		return nil, fmt.Errorf("trx/driver: unknown table %q", tableName)
	}
	return append([]Column{}, cols...), nil
}

// ExecuteSQL supports a minimal dialect sufficient for TRX-generated
// statements against a known table: INSERT INTO, UPDATE ... SET ... WHERE,
// and DELETE FROM ... WHERE, each expressed against host-variable params
// already bound by trx/sqlexec. Memory does not parse arbitrary SQL; it
// expects sql to be one of a small set of patterns produced by the SQL
// executor, matched by its leading keyword, with the actual row mutation
// driven by the Param values rather than by parsing the statement text.
func (m *Memory) ExecuteSQL(ctx context.Context, sql string, params []Param) (int64, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	op, table, err := parseStatementHeader(sql)
	if err != nil {
		return 0, err
	}
	switch op {
	case "INSERT":
		row := paramsToRow(params)
		m.rows[table] = append(m.rows[table], row)
		return 1, nil
	case "UPDATE":
		return m.updateRows(table, params)
	case "DELETE":
		return m.deleteRows(table, params)
	default:
		return 0, fmt.Errorf("trx/driver: unsupported statement %q", sql)
	}
}

// QuerySQL returns every row of the named table. Filtering by a WHERE
// clause is not evaluated in-driver; trx/sqlexec is expected to bind a
// fully-resolved predicate and Memory returns the table's full row set,
// matching the reference driver's "driver owns storage, executor owns SQL
// semantics" split for this reference implementation.
func (m *Memory) QuerySQL(ctx context.Context, sql string, params []Param) ([]Row, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, table, err := parseStatementHeader(sql)
	if err != nil {
		return nil, err
	}
	rows := m.rows[table]
	out := make([]Row, len(rows))
	copy(out, rows)
	return out, nil
}

// OpenCursor runs sql via QuerySQL and snapshots the result set under name.
func (m *Memory) OpenCursor(ctx context.Context, name, sql string, params []Param) error {
	rows, err := m.QuerySQL(ctx, sql, params)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[name] = &memoryCursor{rows: rows}
	return nil
}

// CursorNext advances the named cursor.
func (m *Memory) CursorNext(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[name]
	if !ok {
		return false, fmt.Errorf("trx/driver: unknown cursor %q", name)
	}
	if c.pos >= len(c.rows) {
		return false, nil
	}
	c.pos++
	return true, nil
}

// CursorGetRow returns the row last advanced to by CursorNext.
func (m *Memory) CursorGetRow(ctx context.Context, name string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cursors[name]
	if !ok {
		return nil, fmt.Errorf("trx/driver: unknown cursor %q", name)
	}
	if c.pos == 0 || c.pos > len(c.rows) {
		return nil, fmt.Errorf("trx/driver: cursor %q has no current row", name)
	}
	return c.rows[c.pos-1], nil
}

// CloseCursor discards the named cursor's state.
func (m *Memory) CloseCursor(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cursors, name)
	return nil
}

// IsInTransaction reports whether BeginTransaction has been called without
// a matching commit or rollback.
func (m *Memory) IsInTransaction(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inTx, nil
}

// BeginTransaction snapshots the current table state so Rollback can
// restore it.
func (m *Memory) BeginTransaction(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inTx {
		return fmt.Errorf("trx/driver: transaction already open")
	}
	snap := &memorySnapshot{
		tables: map[string][]Column{},
		rows:   map[string][]Row{},
	}
	for k, v := range m.tables {
		snap.tables[k] = append([]Column{}, v...)
	}
	for k, v := range m.rows {
		rows := make([]Row, len(v))
		for i, r := range v {
			row := make(Row, len(r))
			for col, val := range r {
				row[col] = val
			}
			rows[i] = row
		}
		snap.rows[k] = rows
	}
	m.txSnap = snap
	m.inTx = true
	return nil
}

// CommitTransaction discards the rollback snapshot, keeping current state.
func (m *Memory) CommitTransaction(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inTx {
		return fmt.Errorf("trx/driver: no transaction open")
	}
	m.txSnap = nil
	m.inTx = false
	return nil
}

// RollbackTransaction restores the state captured by BeginTransaction.
func (m *Memory) RollbackTransaction(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inTx || m.txSnap == nil {
		return fmt.Errorf("trx/driver: no transaction open")
	}
	m.tables = m.txSnap.tables
	m.rows = m.txSnap.rows
	m.txSnap = nil
	m.inTx = false
	return nil
}

// Close marks the driver unusable for further calls.
func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}

func paramsToRow(params []Param) Row {
	row := make(Row, len(params))
	for _, p := range params {
		row[strings.ToUpper(p.Name)] = p.Value
	}
	return row
}

func (m *Memory) updateRows(table string, params []Param) (int64, error) {
	rows := m.rows[table]
	row := paramsToRow(params)
	pk, ok := row["ID"]
	if !ok {
		return 0, fmt.Errorf("trx/driver: update requires an ID parameter")
	}
	var count int64
	for i, r := range rows {
		if fmt.Sprint(r["ID"]) == fmt.Sprint(pk) {
			for k, v := range row {
				rows[i][k] = v
			}
			count++
		}
	}
	m.rows[table] = rows
	return count, nil
}

func (m *Memory) deleteRows(table string, params []Param) (int64, error) {
	rows := m.rows[table]
	row := paramsToRow(params)
	pk, ok := row["ID"]
	if !ok {
		return 0, fmt.Errorf("trx/driver: delete requires an ID parameter")
	}
	out := rows[:0]
	var count int64
	for _, r := range rows {
		if fmt.Sprint(r["ID"]) == fmt.Sprint(pk) {
			count++
			continue
		}
		out = append(out, r)
	}
	m.rows[table] = out
	return count, nil
}

// parseStatementHeader extracts the leading verb and target table name from
// a TRX-generated statement of the form "INSERT INTO table ...",
// "UPDATE table SET ...", "DELETE FROM table ..." or "SELECT ... FROM
// table ...".
func parseStatementHeader(sql string) (op, table string, err error) {
	fields := strings.Fields(sql)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("trx/driver: cannot parse statement %q", sql)
	}
	op = strings.ToUpper(fields[0])
	switch op {
	case "INSERT":
		return op, findAfter(fields, "INTO"), nil
	case "UPDATE":
		return op, fields[1], nil
	case "DELETE":
		return op, findAfter(fields, "FROM"), nil
	case "SELECT":
		return op, findAfter(fields, "FROM"), nil
	default:
		return "", "", fmt.Errorf("trx/driver: unsupported statement verb %q", op)
	}
}

func findAfter(fields []string, keyword string) string {
	for i, f := range fields {
		if strings.EqualFold(f, keyword) && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}
