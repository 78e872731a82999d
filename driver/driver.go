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

// Package driver defines the abstract contract every TRX database backend
// must satisfy (§6.2 base). No physical backend (SQLite, PostgreSQL, ODBC)
// is implemented here; that wiring is an external collaborator. Memory, in
// this package, is a reference implementation used by trx/sqlexec's tests
// and by callers that want an embedded, dependency-free backend.
package driver

import "context"

// Type names the backend family a Config targets. Only the shape is fixed
// here; constructing an actual connection for any value other than Memory
// is out of scope for this module (§6.2 base Non-goal).
type Type string

const (
	TypeMemory     Type = "memory"
	TypeSQLite     Type = "sqlite"
	TypePostgreSQL Type = "postgresql"
	TypeODBC       Type = "odbc"
)

// Config describes how to reach a database, mirroring the original
// DatabaseConfig contract (host/port/credentials or a single connection
// string, plus a file path for embedded engines).
type Config struct {
	Type             Type
	ConnectionString string
	DatabasePath     string
	Host             string
	Port             int
	Username         string
	Password         string
	DatabaseName     string
}

// Column describes one column of a table, as reported by GetTableSchema or
// declared by CreateOrMigrateTable.
type Column struct {
	Name         string
	TypeName     string
	IsPrimaryKey bool
	IsNullable   bool
	Length       int
	Scale        int
	DefaultValue string
}

// Param is one named, positional host-variable binding passed alongside a
// SQL statement.
type Param struct {
	Name  string
	Value any
}

// Row is one result row, keyed by column name.
type Row map[string]any

// Driver is the abstract database backend contract every TRX SQL statement
// ultimately executes against. It is a literal translation of the
// reference runtime's DatabaseDriver interface (§6.2 base): initialize,
// plain exec/query, a named-cursor lifecycle, schema introspection/
// migration, and transaction control.
//
// Implementations must be safe for concurrent use; trx/sqlexec adds no
// locking of its own, so a Driver shared by several callers may receive
// ExecuteSQL/QuerySQL and cursor calls concurrently.
type Driver interface {
	// Initialize prepares the backend for use (e.g. opening a connection
	// pool). It is called once before any other method.
	Initialize(ctx context.Context) error

	// ExecuteSQL runs a non-row-returning statement and reports the number
	// of rows affected.
	ExecuteSQL(ctx context.Context, sql string, params []Param) (rowsAffected int64, err error)

	// QuerySQL runs a row-returning statement and returns every matching
	// row eagerly; TRX cursors are paged out of this slice by the caller
	// rather than by the driver.
	QuerySQL(ctx context.Context, sql string, params []Param) ([]Row, error)

	// OpenCursor registers and executes the query backing a named cursor.
	OpenCursor(ctx context.Context, name, sql string, params []Param) error

	// CursorNext advances the named cursor, reporting whether a row is
	// available.
	CursorNext(ctx context.Context, name string) (bool, error)

	// CursorGetRow returns the current row of the named cursor. It is only
	// valid immediately after a CursorNext call that returned true.
	CursorGetRow(ctx context.Context, name string) (Row, error)

	// CloseCursor releases the named cursor's resources.
	CloseCursor(ctx context.Context, name string) error

	// CreateOrMigrateTable ensures a table matching the given columns
	// exists, creating or altering it as needed.
	CreateOrMigrateTable(ctx context.Context, tableName string, columns []Column) error

	// GetTableSchema reports the current columns of tableName.
	GetTableSchema(ctx context.Context, tableName string) ([]Column, error)

	// IsInTransaction reports whether a transaction is currently open.
	IsInTransaction(ctx context.Context) (bool, error)

	// BeginTransaction, CommitTransaction and RollbackTransaction control
	// the current transaction boundary.
	BeginTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}
