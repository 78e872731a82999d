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

/*
Package trx is a tree-walking interpreter for the TRX record/procedure/SQL
language.

It consumes a parsed Module (records, tables and exported procedures), binds
it to a pluggable database driver, and executes procedure bodies over a
dynamically-typed Value model. The package does not parse TRX source text;
it assumes an already-built Module such as the one produced by a separate
front-end.

Basic usage:

	interp := trx.NewInterpreter(module, memoryDriver, logger)
	defer interp.Close()

	output, err := interp.Invoke(ctx, "copyCustomer", input, nil)
	if err != nil {
		// handle error
	}

The expression evaluator and statement executor (Eval, exec, execBlock)
live in this package rather than a separate sub-package, since both need
direct access to Scope and Value and a split package would import-cycle
back into this one.

Sub-packages:

  - trx/driver defines the abstract database driver contract and ships an
    in-memory reference driver plus a database/sql-backed adapter.
  - trx/sqlexec bridges embedded SQL statements to a driver, including
    host-variable binding and the cursor lifecycle.
  - trx/httpapi serves exported procedures over HTTP/JSON with an
    auto-generated OpenAPI description.
*/
package trx
