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
	"testing"

	"github.com/harrykodden/trx/driver"
)

func TestRunnerExecAndQuery(t *testing.T) {
	ctx := context.Background()
	mem := driver.NewMemory()
	if err := mem.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := mem.CreateOrMigrateTable(ctx, "T", []driver.Column{{Name: "ID"}, {Name: "NAME"}}); err != nil {
		t.Fatalf("CreateOrMigrateTable: %v", err)
	}

	r := NewRunner(mem)
	vars := map[string]any{"ID": 1, "NAME": "ada"}
	lookup := func(name string) (any, bool) {
		v, ok := vars[name]
		return v, ok
	}
	if _, err := r.Exec(ctx, "INSERT INTO T VALUES (:ID, :NAME)", lookup); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	rows, err := r.Query(ctx, "SELECT * FROM T", lookup)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 || rows[0]["NAME"] != "ada" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestRunnerCursorLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := driver.NewMemory()
	_ = mem.Initialize(ctx)
	_ = mem.CreateOrMigrateTable(ctx, "T", []driver.Column{{Name: "ID"}})

	r := NewRunner(mem)
	noVars := func(string) (any, bool) { return nil, false }
	_, _ = r.Exec(ctx, "INSERT INTO T VALUES (:ID)", func(name string) (any, bool) {
		if name == "ID" {
			return 1, true
		}
		return nil, false
	})

	if err := r.OpenCursor(ctx, "C1", "SELECT * FROM T", noVars); err != nil {
		t.Fatalf("OpenCursor: %v", err)
	}
	has, err := r.Next(ctx, "C1")
	if err != nil || !has {
		t.Fatalf("Next: has=%v err=%v", has, err)
	}
	row, err := r.Row(ctx, "C1")
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if row["ID"] != 1 {
		t.Fatalf("row = %v", row)
	}
	has, err = r.Next(ctx, "C1")
	if err != nil || has {
		t.Fatalf("expected exhausted cursor, got has=%v err=%v", has, err)
	}
	if err := r.CloseCursor(ctx, "C1"); err != nil {
		t.Fatalf("CloseCursor: %v", err)
	}
}
