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

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/harrykodden/trx"
	"github.com/harrykodden/trx/driver"
)

func newTestServer(t *testing.T) (*Server, *trx.Interpreter) {
	t.Helper()
	module := trx.NewModule()
	module.Procedures["echo"] = &trx.ProcedureDecl{
		Name:         "echo",
		PathTemplate: "echo",
		Input:        &trx.RecordDecl{Name: "IN", Fields: []trx.FieldDecl{{Name: "MESSAGE", Type: trx.KindString}}},
		Output:       &trx.RecordDecl{Name: "OUT", Fields: []trx.FieldDecl{{Name: "MESSAGE", Type: trx.KindString}}},
		IsExported:   true,
		Body: []trx.Statement{
			&trx.AssignStatement{
				Target: trx.NewVariablePath("out").Field("message"),
				Expr:   &trx.VariableExpr{Path: trx.NewVariablePath("in").Field("message")},
			},
		},
	}
	interp := trx.NewInterpreter(module, driver.NewMemory(), nil)
	if err := interp.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return NewServer(interp, Config{WorkerPoolSize: 4}), interp
}

func TestServeHTTPDispatchesProcedure(t *testing.T) {
	s, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["MESSAGE"] != "hi" {
		t.Fatalf("body = %v", out)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("CORS header = %q, want *", got)
	}
}

func TestServeHTTPUnknownPathIs404(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestServeHTTPSwaggerAndProcedures(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/swagger.json", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /swagger.json status = %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("swagger.json is not valid JSON: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/procedures", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /procedures status = %d", rec.Code)
	}
}

func TestServeHTTPConcurrentRequests(t *testing.T) {
	s, _ := newTestServer(t)
	server := httptest.NewServer(s)
	defer server.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]string{"message": "hi"})
			resp, err := http.Post(server.URL+"/echo", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Errorf("Post: %v", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("status = %d, want 201", resp.StatusCode)
			}
		}()
	}
	wg.Wait()
}
