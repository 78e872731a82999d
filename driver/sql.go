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
	"database/sql"
	"fmt"
	"sync"
)

// SQL adapts any database/sql driver (SQLite, PostgreSQL, ODBC via an
// appropriate Go driver registered under driverName) to the Driver
// contract. sqlexec.BindParams already rewrites ":hostvar" placeholders
// to "?" and produces positional args before either Memory or SQL ever
// sees a statement, so SQL only has to forward sql/params to *sql.DB —
// it carries none of the host-variable resolution logic itself.
//
// Named cursors have no equivalent in database/sql, whose *sql.Rows is
// already a forward-only cursor tied to one connection; OpenCursor runs
// the query eagerly and pages the materialized rows the same way Memory
// does, so CursorNext/CursorGetRow/CloseCursor behave identically across
// both drivers.
type SQL struct {
	db *sql.DB

	mu      sync.Mutex
	cursors map[string]*sqlCursor
	tx      *sql.Tx
}

type sqlCursor struct {
	rows []Row
	pos  int
}

// NewSQL wraps an already-opened *sql.DB (or *sql.DB created against a
// sqlmock connection in tests) as a Driver.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db, cursors: make(map[string]*sqlCursor)}
}

func (d *SQL) Initialize(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *SQL) execer() interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
} {
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

func (d *SQL) ExecuteSQL(ctx context.Context, query string, params []Param) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, err := d.execer().ExecContext(ctx, query, paramsToArgs(params)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *SQL) QuerySQL(ctx context.Context, query string, params []Param) ([]Row, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.querySQL(ctx, query, params)
}

func (d *SQL) querySQL(ctx context.Context, query string, params []Param) ([]Row, error) {
	rows, err := d.execer().QueryContext(ctx, query, paramsToArgs(params)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func paramsToArgs(params []Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Value
	}
	return args
}

func (d *SQL) OpenCursor(ctx context.Context, name, query string, params []Param) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rows, err := d.querySQL(ctx, query, params)
	if err != nil {
		return err
	}
	d.cursors[name] = &sqlCursor{rows: rows}
	return nil
}

func (d *SQL) CursorNext(ctx context.Context, name string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.cursors[name]
	if !ok {
		return false, fmt.Errorf("driver: unknown cursor %q", name)
	}
	if c.pos >= len(c.rows) {
		return false, nil
	}
	c.pos++
	return true, nil
}

func (d *SQL) CursorGetRow(ctx context.Context, name string) (Row, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.cursors[name]
	if !ok {
		return nil, fmt.Errorf("driver: unknown cursor %q", name)
	}
	if c.pos == 0 || c.pos > len(c.rows) {
		return nil, fmt.Errorf("driver: cursor %q has no current row", name)
	}
	return c.rows[c.pos-1], nil
}

func (d *SQL) CloseCursor(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.cursors, name)
	return nil
}

// CreateOrMigrateTable is a caller responsibility for real backends (the
// DDL dialect varies per engine); SQL only verifies the table is reachable.
func (d *SQL) CreateOrMigrateTable(ctx context.Context, tableName string, columns []Column) error {
	_, err := d.QuerySQL(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", tableName), nil)
	return err
}

func (d *SQL) GetTableSchema(ctx context.Context, tableName string) ([]Column, error) {
	return nil, fmt.Errorf("driver: GetTableSchema not supported by SQL driver for %q", tableName)
}

func (d *SQL) IsInTransaction(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx != nil, nil
}

func (d *SQL) BeginTransaction(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx != nil {
		return fmt.Errorf("driver: transaction already open")
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	d.tx = tx
	return nil
}

func (d *SQL) CommitTransaction(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return fmt.Errorf("driver: no transaction open")
	}
	err := d.tx.Commit()
	d.tx = nil
	return err
}

func (d *SQL) RollbackTransaction(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return fmt.Errorf("driver: no transaction open")
	}
	err := d.tx.Rollback()
	d.tx = nil
	return err
}

func (d *SQL) Close() error {
	return d.db.Close()
}
