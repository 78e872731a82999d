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

package trx

import (
	"context"

	"github.com/harrykodden/trx/driver"
	"github.com/harrykodden/trx/sqlexec"
)

// execSQL runs one embedded SQL statement (§6 base), updating the
// interpreter's process-wide sqlcode per §6.3: 0 on success, 100 when a
// FETCH finds no more rows, any other value identifying a *DatabaseError.
func execSQL(ctx context.Context, scope *Scope, s *SQLStatement) error {
	runner := sqlexec.NewRunner(scope.Interpreter().Driver())
	lookup := func(name string) (any, bool) {
		v, ok := scope.Lookup(name)
		if !ok {
			return nil, false
		}
		return valueToAny(v), true
	}

	switch s.Kind {
	case SQLExec:
		_, err := runner.Exec(ctx, s.Text, lookup)
		return recordSqlCode(scope, err)

	case SQLDeclareCursor:
		scope.DeclareCursor(s.CursorName, s.Text)
		return recordSqlCode(scope, nil)

	case SQLOpenCursor:
		c := scope.Cursor(s.CursorName)
		if c == nil {
			return &NotFoundError{What: "cursor", Name: s.CursorName}
		}
		err := runner.OpenCursor(ctx, c.Name, c.Query, lookup)
		if err != nil {
			return recordSqlCode(scope, err)
		}
		c.State = CursorOpen
		return recordSqlCode(scope, nil)

	case SQLFetchCursor:
		return execFetch(ctx, scope, runner, s)

	case SQLCloseCursor:
		c := scope.Cursor(s.CursorName)
		if c == nil {
			return &NotFoundError{What: "cursor", Name: s.CursorName}
		}
		err := runner.CloseCursor(ctx, c.Name)
		if err != nil {
			return recordSqlCode(scope, err)
		}
		c.State = CursorClosed
		return recordSqlCode(scope, nil)

	case SQLBegin:
		return recordSqlCode(scope, scope.Interpreter().Driver().BeginTransaction(ctx))

	case SQLCommit:
		return recordSqlCode(scope, scope.Interpreter().Driver().CommitTransaction(ctx))

	case SQLRollback:
		return recordSqlCode(scope, scope.Interpreter().Driver().RollbackTransaction(ctx))

	default:
		return &TypeError{Op: "sql", Detail: "unknown SQL statement kind"}
	}
}

func execFetch(ctx context.Context, scope *Scope, runner *sqlexec.Runner, s *SQLStatement) error {
	c := scope.Cursor(s.CursorName)
	if c == nil {
		return &NotFoundError{What: "cursor", Name: s.CursorName}
	}
	if c.State != CursorOpen {
		return &DatabaseError{Detail: "fetch from a cursor that is not open"}
	}
	has, err := runner.Next(ctx, c.Name)
	if err != nil {
		return recordSqlCode(scope, err)
	}
	if !has {
		c.State = CursorExhausted
		scope.Interpreter().SetSqlCode(100)
		return nil
	}
	row, err := runner.Row(ctx, c.Name)
	if err != nil {
		return recordSqlCode(scope, err)
	}
	if s.Into != nil {
		if err := scope.SetPath(*s.Into, rowToValue(row)); err != nil {
			return err
		}
	}
	scope.Interpreter().SetSqlCode(0)
	return nil
}

// recordSqlCode updates sqlcode from err (nil means success) and returns a
// *DatabaseError to the caller when err is non-nil and not already a
// RuntimeError, matching §7's requirement that every raised error carries a
// Kind.
func recordSqlCode(scope *Scope, err error) error {
	if err == nil {
		scope.Interpreter().SetSqlCode(0)
		return nil
	}
	scope.Interpreter().SetSqlCode(-1)
	if _, ok := AsRuntimeError(err); ok {
		return err
	}
	return &DatabaseError{Detail: "sql execution failed", Err: err}
}

// valueToAny converts a host-variable Value into the plain Go value
// driver.Param carries, since driver.Driver implementations (and Memory in
// particular) operate on any, not on Value.
func valueToAny(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool()
	case KindNumber:
		return v.Number()
	case KindString:
		return v.String()
	default:
		s, _ := v.Serialize()
		return s
	}
}

// rowToValue converts a driver.Row into an Object Value, keyed by the
// uppercased column name to match §4.1's case-insensitive field access.
func rowToValue(row driver.Row) Value {
	obj := NewObject()
	for k, v := range row {
		obj = obj.WithField(k, anyToValue(v))
	}
	return obj
}

func anyToValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case bool:
		return NewBool(t)
	case string:
		return NewString(t)
	case float64:
		return NewNumber(t)
	case float32:
		return NewNumber(float64(t))
	case int:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	default:
		return NewString("")
	}
}
