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
	"testing"

	"github.com/harrykodden/trx/driver"
)

func TestEvalArithmetic(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	v, err := Eval(scope, &BinaryExpr{Op: "*", Left: &Literal{Value: NewNumber(6)}, Right: &Literal{Value: NewNumber(7)}})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Number() != 42 {
		t.Fatalf("got %v, want 42", v.Number())
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	_, err := Eval(scope, &BinaryExpr{Op: "/", Left: &Literal{Value: NewNumber(1)}, Right: &Literal{Value: NewNumber(0)}})
	if _, ok := err.(*ArithmeticError); !ok {
		t.Fatalf("got %T, want *ArithmeticError", err)
	}
}

func TestEvalLogicalEvaluatesBothOperands(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	// "and" does not short-circuit: the right operand's division by zero
	// must still surface even though the left operand is already false.
	expr := &BinaryExpr{
		Op:   "and",
		Left: &Literal{Value: NewBool(false)},
		Right: &BinaryExpr{
			Op:    "/",
			Left:  &Literal{Value: NewNumber(1)},
			Right: &Literal{Value: NewNumber(0)},
		},
	}
	_, err := Eval(scope, expr)
	if _, ok := err.(*ArithmeticError); !ok {
		t.Fatalf("got %T, want *ArithmeticError", err)
	}
}

func TestEvalLogicalRequiresBoolOperands(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	expr := &BinaryExpr{
		Op:    "and",
		Left:  &Literal{Value: NewNumber(1)},
		Right: &Literal{Value: NewBool(true)},
	}
	_, err := Eval(scope, expr)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("got %T, want *TypeError", err)
	}
}

func TestEvalPlusConcatenatesStrings(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	v, err := Eval(scope, &BinaryExpr{Op: "+", Left: &Literal{Value: NewString("hello ")}, Right: &Literal{Value: NewString("ada")}})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.String() != "hello ada" {
		t.Fatalf("got %q, want %q", v.String(), "hello ada")
	}
}

func TestEvalModuloFractional(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	v, err := Eval(scope, &BinaryExpr{Op: "%", Left: &Literal{Value: NewNumber(5.5)}, Right: &Literal{Value: NewNumber(2)}})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Number() != 1.5 {
		t.Fatalf("got %v, want 1.5", v.Number())
	}
}

func TestEvalSqlcodeBuiltin(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	interp.SetSqlCode(100)
	scope := NewScope(interp, "test")

	v, err := Eval(scope, &CallExpr{Name: "sqlcode"})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Number() != 100 {
		t.Fatalf("got %v, want 100", v.Number())
	}
}

func TestEvalUnknownFunctionIsNotFoundError(t *testing.T) {
	interp := NewInterpreter(NewModule(), driver.NewMemory(), nil)
	scope := NewScope(interp, "test")

	_, err := Eval(scope, &CallExpr{Name: "frobnicate"})
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("got %T, want *NotFoundError", err)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null, false},
		{NewBool(true), true},
		{NewNumber(0), false},
		{NewNumber(1), true},
		{NewString(""), false},
		{NewString("x"), true},
		{NewArray(), false},
		{NewArray(NewNumber(1)), true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}
