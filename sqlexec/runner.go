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

package sqlexec

import (
	"context"

	"github.com/harrykodden/trx/driver"
)

// Runner executes embedded SQL statement text against a driver.Driver,
// resolving ":hostvar" placeholders through lookup. It plays the role the
// teacher's Runner interface (Select/Insert/Update/Delete over a
// *sql.Stmt) plays for juice, generalized to the single abstract
// driver.Driver contract in place of database/sql.
type Runner struct {
	Driver driver.Driver
}

// NewRunner returns a Runner bound to d.
func NewRunner(d driver.Driver) *Runner {
	return &Runner{Driver: d}
}

// bind resolves text's host variables into driver.Param values, in
// occurrence order, via lookup.
func bind(text string, lookup func(name string) (any, bool)) (string, []driver.Param, error) {
	sql, args, names, err := BindParams(text, lookup)
	if err != nil {
		return "", nil, err
	}
	params := make([]driver.Param, len(args))
	for i, a := range args {
		params[i] = driver.Param{Name: names[i], Value: a}
	}
	return sql, params, nil
}

// Exec runs a non-row-returning statement.
func (r *Runner) Exec(ctx context.Context, text string, lookup func(name string) (any, bool)) (int64, error) {
	sql, params, err := bind(text, lookup)
	if err != nil {
		return 0, err
	}
	return r.Driver.ExecuteSQL(ctx, sql, params)
}

// Query runs a row-returning statement and returns every row eagerly.
func (r *Runner) Query(ctx context.Context, text string, lookup func(name string) (any, bool)) ([]driver.Row, error) {
	sql, params, err := bind(text, lookup)
	if err != nil {
		return nil, err
	}
	return r.Driver.QuerySQL(ctx, sql, params)
}

// OpenCursor runs text and registers its result set under name for later
// paging via Next/Row/CloseCursor.
func (r *Runner) OpenCursor(ctx context.Context, name, text string, lookup func(name string) (any, bool)) error {
	sql, params, err := bind(text, lookup)
	if err != nil {
		return err
	}
	return r.Driver.OpenCursor(ctx, name, sql, params)
}

// Next advances the named cursor, reporting whether a row became current.
func (r *Runner) Next(ctx context.Context, name string) (bool, error) {
	return r.Driver.CursorNext(ctx, name)
}

// Row returns the cursor's current row.
func (r *Runner) Row(ctx context.Context, name string) (driver.Row, error) {
	return r.Driver.CursorGetRow(ctx, name)
}

// CloseCursor releases the named cursor.
func (r *Runner) CloseCursor(ctx context.Context, name string) error {
	return r.Driver.CloseCursor(ctx, name)
}
