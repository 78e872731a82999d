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
	"testing"

	"github.com/harrykodden/trx/driver"
)

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	if err := interp.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return interp
}

func TestExecAssignAndIf(t *testing.T) {
	interp := newTestInterpreter(t)
	scope := NewScope(interp, "test")

	stmts := []Statement{
		&AssignStatement{Target: NewVariablePath("x"), Expr: &Literal{Value: NewNumber(5)}},
		&IfStatement{
			Cond: &BinaryExpr{Op: ">", Left: &VariableExpr{Path: NewVariablePath("x")}, Right: &Literal{Value: NewNumber(3)}},
			Then: []Statement{
				&AssignStatement{Target: NewVariablePath("y"), Expr: &Literal{Value: NewString("big")}},
			},
			Else: []Statement{
				&AssignStatement{Target: NewVariablePath("y"), Expr: &Literal{Value: NewString("small")}},
			},
		},
	}
	if _, err := execBlock(context.Background(), scope, stmts); err != nil {
		t.Fatalf("execBlock: %v", err)
	}
	if got := scope.Get("y").String(); got != "big" {
		t.Fatalf("y = %q, want big", got)
	}
}

func TestExecWhileAndReturn(t *testing.T) {
	interp := newTestInterpreter(t)
	scope := NewScope(interp, "test")

	stmts := []Statement{
		&AssignStatement{Target: NewVariablePath("i"), Expr: &Literal{Value: NewNumber(0)}},
		&WhileStatement{
			Cond: &BinaryExpr{Op: "<", Left: &VariableExpr{Path: NewVariablePath("i")}, Right: &Literal{Value: NewNumber(3)}},
			Body: []Statement{
				&AssignStatement{Target: NewVariablePath("i"), Expr: &BinaryExpr{Op: "+", Left: &VariableExpr{Path: NewVariablePath("i")}, Right: &Literal{Value: NewNumber(1)}}},
			},
		},
		&ReturnStatement{Expr: &VariableExpr{Path: NewVariablePath("i")}},
	}
	sig, err := execBlock(context.Background(), scope, stmts)
	if err != nil {
		t.Fatalf("execBlock: %v", err)
	}
	if sig == nil || !sig.hasValue || sig.value.Number() != 3 {
		t.Fatalf("got signal %+v, want return value 3", sig)
	}
}

func TestExecForLoopAccumulates(t *testing.T) {
	interp := newTestInterpreter(t)
	scope := NewScope(interp, "test")
	scope.Set("sum", NewNumber(0))

	stmts := []Statement{
		&ForStatement{
			Var: "i",
			Collection: &ArrayExpr{Elements: []Expression{
				&Literal{Value: NewNumber(1)},
				&Literal{Value: NewNumber(2)},
				&Literal{Value: NewNumber(3)},
				&Literal{Value: NewNumber(4)},
			}},
			Body: []Statement{
				&AssignStatement{
					Target: NewVariablePath("sum"),
					Expr:   &BinaryExpr{Op: "+", Left: &VariableExpr{Path: NewVariablePath("sum")}, Right: &VariableExpr{Path: NewVariablePath("i")}},
				},
			},
		},
	}
	if _, err := execBlock(context.Background(), scope, stmts); err != nil {
		t.Fatalf("execBlock: %v", err)
	}
	if got := scope.Get("sum").Number(); got != 10 {
		t.Fatalf("sum = %v, want 10", got)
	}
}

func TestExecForLoopRejectsNonArrayCollection(t *testing.T) {
	interp := newTestInterpreter(t)
	scope := NewScope(interp, "test")

	stmts := []Statement{
		&ForStatement{
			Var:        "i",
			Collection: &Literal{Value: NewNumber(4)},
			Body:       []Statement{},
		},
	}
	_, err := execBlock(context.Background(), scope, stmts)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("got %T, want *TypeError", err)
	}
}

func TestExecThrowAndTryCatch(t *testing.T) {
	interp := newTestInterpreter(t)
	scope := NewScope(interp, "test")

	stmts := []Statement{
		&TryStatement{
			Body: []Statement{
				&ThrowStatement{Expr: &Literal{Value: NewString("boom")}},
			},
			ExceptionVar: "ERR",
			Catch: []Statement{
				&AssignStatement{Target: NewVariablePath("caught"), Expr: &Literal{Value: NewBool(true)}},
			},
		},
	}
	if _, err := execBlock(context.Background(), scope, stmts); err != nil {
		t.Fatalf("execBlock: %v", err)
	}
	if !scope.Get("caught").Bool() {
		t.Fatal("expected catch block to run")
	}
	kind, _ := scope.Get("ERR").Field("kind")
	if kind.String() != KindThrowError {
		t.Fatalf("exception kind = %v, want %v", kind, KindThrowError)
	}
}

func TestExecValidateRecordsFailureOutcome(t *testing.T) {
	interp := newTestInterpreter(t)
	scope := NewScope(interp, "test")

	stmts := []Statement{
		&ValidateStatement{
			Cond: &Literal{Value: NewBool(false)},
			Success: ValidationOutcomeExpr{
				Code:    &Literal{Value: NewNumber(0)},
				Message: &Literal{Value: NewString("ok")},
			},
			Failure: ValidationOutcomeExpr{
				Code:    &Literal{Value: NewNumber(1)},
				Message: &Literal{Value: NewString("must be true")},
			},
		},
	}
	if _, err := execBlock(context.Background(), scope, stmts); err != nil {
		t.Fatalf("execBlock: %v", err)
	}
	outcome := interp.LastValidation()
	if outcome.Code != 1 || outcome.Message != "must be true" {
		t.Fatalf("got %+v, want code=1 message='must be true'", outcome)
	}
}

func TestInvokeBindsInputAndOutput(t *testing.T) {
	interp := newTestInterpreter(t)
	proc := &ProcedureDecl{
		Name:       "echo",
		Input:      &RecordDecl{Name: "IN", Fields: []FieldDecl{{Name: "NAME", Type: KindString}}},
		Output:     &RecordDecl{Name: "OUT", Fields: []FieldDecl{{Name: "GREETING", Type: KindString}}},
		IsExported: true,
		Body: []Statement{
			&AssignStatement{
				Target: NewVariablePath("out").Field("greeting"),
				Expr: &BinaryExpr{
					Op:    "+",
					Left:  &Literal{Value: NewString("hello ")},
					Right: &VariableExpr{Path: NewVariablePath("in").Field("name")},
				},
			},
		},
	}
	interp.Module().Procedures["echo"] = proc

	input := NewObject().WithField("name", NewString("ada"))
	out, err := interp.Invoke(context.Background(), "echo", input, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	greeting, _ := out.Field("greeting")
	if greeting.String() != "hello ada" {
		t.Fatalf("greeting = %v, want 'hello ada'", greeting)
	}
}

func TestInvokeUnknownProcedure(t *testing.T) {
	interp := newTestInterpreter(t)
	_, err := interp.Invoke(context.Background(), "missing", Null, nil)
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("got %T, want *NotFoundError", err)
	}
}
