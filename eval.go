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
	"fmt"
	"math"
	"time"
)

// Eval evaluates expr against scope, producing a Value. It is pure with
// respect to scope aside from reads: no Eval call mutates variable
// bindings (assignment is a statement-level concern, see exec.go).
func Eval(scope *Scope, expr Expression) (Value, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil
	case *VariableExpr:
		return scope.GetPath(e.Path)
	case *UnaryExpr:
		return evalUnary(scope, e)
	case *BinaryExpr:
		return evalBinary(scope, e)
	case *CallExpr:
		return evalCall(scope, e)
	case *ArrayExpr:
		elems := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := Eval(scope, el)
			if err != nil {
				return Null, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil
	case *ObjectExpr:
		obj := NewObject()
		for _, f := range e.Fields {
			v, err := Eval(scope, f.Value)
			if err != nil {
				return Null, err
			}
			obj = obj.WithField(f.Key, v)
		}
		return obj, nil
	default:
		return Null, &TypeError{Op: "eval", Detail: fmt.Sprintf("unsupported expression node %T", expr)}
	}
}

// Truthy reports whether v counts as true in a condition: Bool uses its own
// value; Null is false; Number is true unless zero; String is true unless
// empty; Array/Object are true unless empty.
func Truthy(v Value) bool {
	switch v.Kind() {
	case KindBool:
		return v.Bool()
	case KindNull:
		return false
	case KindNumber:
		return v.Number() != 0
	case KindString:
		return v.String() != ""
	case KindArray:
		return v.Len() > 0
	case KindObject:
		return len(v.Keys()) > 0
	default:
		return false
	}
}

func evalUnary(scope *Scope, e *UnaryExpr) (Value, error) {
	v, err := Eval(scope, e.Operand)
	if err != nil {
		return Null, err
	}
	switch e.Op {
	case "-":
		if !v.IsNumber() {
			return Null, &TypeError{Op: "unary -", Detail: fmt.Sprintf("expected number, got %s", v.Kind())}
		}
		return NewNumber(-v.Number()), nil
	case "not":
		if v.Kind() != KindBool {
			return Null, &TypeError{Op: "unary not", Detail: fmt.Sprintf("expected bool, got %s", v.Kind())}
		}
		return NewBool(!v.Bool()), nil
	default:
		return Null, &TypeError{Op: "unary", Detail: fmt.Sprintf("unknown operator %q", e.Op)}
	}
}

// evalBinary always evaluates both operands before dispatching on e.Op —
// §4.2 base explicitly does not require short-circuit evaluation for
// "and"/"or", and the reference interpreter's BinaryOperator switch
// evaluates lhs and rhs up front in every case.
func evalBinary(scope *Scope, e *BinaryExpr) (Value, error) {
	l, err := Eval(scope, e.Left)
	if err != nil {
		return Null, err
	}
	r, err := Eval(scope, e.Right)
	if err != nil {
		return Null, err
	}

	switch e.Op {
	case "and", "or":
		return evalLogical(e.Op, l, r)
	case "+", "-", "*", "/", "%":
		return evalArith(e.Op, l, r)
	case "=":
		return NewBool(Equal(l, r)), nil
	case "!=", "<>":
		return NewBool(!Equal(l, r)), nil
	case "<", "<=", ">", ">=":
		return evalCompare(e.Op, l, r)
	default:
		return Null, &TypeError{Op: "binary", Detail: fmt.Sprintf("unknown operator %q", e.Op)}
	}
}

// evalLogical requires both operands to be Bool (§4.2 base), raising
// TypeError otherwise, matching the reference interpreter's requirement
// that both sides of "and"/"or" already hold a bool.
func evalLogical(op string, l, r Value) (Value, error) {
	if l.Kind() != KindBool || r.Kind() != KindBool {
		return Null, &TypeError{Op: "logical " + op, Detail: fmt.Sprintf("expected two bools, got %s and %s", l.Kind(), r.Kind())}
	}
	switch op {
	case "and":
		return NewBool(l.Bool() && r.Bool()), nil
	case "or":
		return NewBool(l.Bool() || r.Bool()), nil
	default:
		return Null, &TypeError{Op: "logical", Detail: fmt.Sprintf("unknown operator %q", op)}
	}
}

// evalArith handles the arithmetic operators (§4.2 base). "+" additionally
// accepts String+String as concatenation, matching the reference
// interpreter's BinaryOperator::Add; every other operator requires both
// operands to be numbers.
func evalArith(op string, l, r Value) (Value, error) {
	if op == "+" && l.IsString() && r.IsString() {
		return NewString(l.String() + r.String()), nil
	}
	if !l.IsNumber() || !r.IsNumber() {
		return Null, &TypeError{Op: "arithmetic " + op, Detail: fmt.Sprintf("expected two numbers, got %s and %s", l.Kind(), r.Kind())}
	}
	a, b := l.Number(), r.Number()
	switch op {
	case "+":
		return NewNumber(a + b), nil
	case "-":
		return NewNumber(a - b), nil
	case "*":
		return NewNumber(a * b), nil
	case "/":
		if b == 0 {
			return Null, &ArithmeticError{Detail: "division by zero"}
		}
		return NewNumber(a / b), nil
	case "%":
		if b == 0 {
			return Null, &ArithmeticError{Detail: "modulo by zero"}
		}
		return NewNumber(math.Mod(a, b)), nil
	default:
		return Null, &TypeError{Op: "arithmetic", Detail: fmt.Sprintf("unknown operator %q", op)}
	}
}

func evalCompare(op string, l, r Value) (Value, error) {
	var cmp int
	var err error
	switch {
	case l.IsNumber() && r.IsNumber():
		cmp, err = CompareNumbers(l, r)
	case l.IsString() && r.IsString():
		cmp, err = CompareStrings(l, r)
	default:
		return Null, &TypeError{Op: "compare " + op, Detail: fmt.Sprintf("cannot compare %s and %s", l.Kind(), r.Kind())}
	}
	if err != nil {
		return Null, err
	}
	switch op {
	case "<":
		return NewBool(cmp < 0), nil
	case "<=":
		return NewBool(cmp <= 0), nil
	case ">":
		return NewBool(cmp > 0), nil
	case ">=":
		return NewBool(cmp >= 0), nil
	default:
		return Null, &TypeError{Op: "compare", Detail: fmt.Sprintf("unknown operator %q", op)}
	}
}

// evalCall dispatches a builtin function call (§4.4 base): sqlcode, the
// date/time family and the length/upper/lower string builtins. User-defined functions are not part of the language
// (procedures are invoked via the call statement instead), so any other
// name is a NotFoundError.
func evalCall(scope *Scope, e *CallExpr) (Value, error) {
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := Eval(scope, a)
		if err != nil {
			return Null, err
		}
		args[i] = v
	}

	switch e.Name {
	case "sqlcode":
		return NewNumber(scope.Interpreter().SqlCode()), nil
	case "date":
		return NewString(time.Now().Format("2006-01-02")), nil
	case "time":
		return NewString(time.Now().Format("15:04:05")), nil
	case "timestamp":
		return NewString(time.Now().Format(time.RFC3339)), nil
	case "week":
		_, wk := time.Now().ISOWeek()
		return NewNumber(float64(wk)), nil
	case "weekday":
		return NewNumber(float64(time.Now().Weekday())), nil
	case "length":
		if len(args) != 1 {
			return Null, &TypeError{Op: "length", Detail: "expects exactly one argument"}
		}
		switch args[0].Kind() {
		case KindString:
			return NewNumber(float64(len(args[0].String()))), nil
		case KindArray:
			return NewNumber(float64(args[0].Len())), nil
		default:
			return Null, &TypeError{Op: "length", Detail: fmt.Sprintf("cannot take length of %s", args[0].Kind())}
		}
	case "upper":
		if len(args) != 1 || !args[0].IsString() {
			return Null, &TypeError{Op: "upper", Detail: "expects one string argument"}
		}
		return NewString(toUpperASCII(args[0].String())), nil
	case "lower":
		if len(args) != 1 || !args[0].IsString() {
			return Null, &TypeError{Op: "lower", Detail: "expects one string argument"}
		}
		return NewString(toLowerASCII(args[0].String())), nil
	default:
		return Null, &NotFoundError{What: "function", Name: e.Name}
	}
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
