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

// Package sqlexec binds embedded SQL statement text to host-variable
// values and drives a driver.Driver through the cursor lifecycle (§6 base).
// It depends only on trx/driver and the standard library, not on the root
// trx package, so that the interpreter's sql_exec.go can sit on top of it
// without an import cycle: the root package resolves ":hostvar" lookups
// against a Scope, keeps the cursor table on that Scope and converts
// driver.Row results back into trx.Value, while this package owns the
// textual binding and the driver calls that are independent of the Value
// model.
package sqlexec

import (
	"fmt"
	"strings"
)

// BindParams rewrites text's ":name" host-variable placeholders into
// driver-neutral "?" positional placeholders, in occurrence order, and
// resolves each name through lookup. It mirrors the teacher's
// buildStatementParameters pass, generalized from Go-struct/map field
// lookup to a caller-supplied resolver since the TRX host variables are
// VariablePath lookups against a Scope.
//
// A ':' is only treated as a placeholder when immediately followed by an
// identifier character; this lets literal SQL containing a bare ':'
// (rare, but not prohibited) pass through unaffected.
//
// names is returned alongside args, in the same occurrence order, since a
// reference Driver like driver.Memory addresses host values by name rather
// than by position.
func BindParams(text string, lookup func(name string) (any, bool)) (sql string, args []any, names []string, err error) {
	var b strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		if c != ':' || i+1 >= len(text) || !isIdentStart(text[i+1]) {
			b.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(text) && isIdentPart(text[j]) {
			j++
		}
		name := text[i+1 : j]
		val, ok := lookup(name)
		if !ok {
			return "", nil, nil, fmt.Errorf("sqlexec: unbound host variable %q", name)
		}
		b.WriteByte('?')
		args = append(args, val)
		names = append(names, name)
		i = j
	}
	return b.String(), args, names, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
