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
	"fmt"
)

// returnSignal is produced by a ReturnStatement and threaded back up
// through execBlock/exec in place of panic/recover, matching the explicit
// error-return style the teacher prefers over exceptions for control flow
// that isn't truly exceptional.
type returnSignal struct {
	hasValue bool
	value    Value
}

// execBlock runs stmts in order, stopping early on a ReturnStatement (whose
// signal is returned to the caller) or on an error. A nil, nil result means
// the block ran to completion without returning.
func execBlock(ctx context.Context, scope *Scope, stmts []Statement) (*returnSignal, error) {
	for _, stmt := range stmts {
		sig, err := exec(ctx, scope, stmt)
		if err != nil {
			return nil, err
		}
		if sig != nil {
			return sig, nil
		}
	}
	return nil, nil
}

func exec(ctx context.Context, scope *Scope, stmt Statement) (*returnSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *AssignStatement:
		v, err := Eval(scope, s.Expr)
		if err != nil {
			return nil, err
		}
		return nil, scope.SetPath(s.Target, v)

	case *IfStatement:
		return execIf(ctx, scope, s)

	case *WhileStatement:
		for {
			cond, err := Eval(scope, s.Cond)
			if err != nil {
				return nil, err
			}
			if !Truthy(cond) {
				return nil, nil
			}
			sig, err := execBlock(ctx, scope, s.Body)
			if err != nil || sig != nil {
				return sig, err
			}
		}

	case *ForStatement:
		return execFor(ctx, scope, s)

	case *SwitchStatement:
		return execSwitch(ctx, scope, s)

	case *BlockStatement:
		return execBlock(ctx, scope, s.Body)

	case *TryStatement:
		return execTry(ctx, scope, s)

	case *TraceStatement:
		v, err := Eval(scope, s.Expr)
		if err != nil {
			return nil, err
		}
		scope.Interpreter().Logger().Infof("trace[%s]: %s", scope.Procedure(), v.String())
		return nil, nil

	case *SystemStatement:
		return nil, execSystem(ctx, scope, s)

	case *BatchStatement:
		return nil, execBatch(scope, s)

	case *CallStatement:
		return nil, execCall(ctx, scope, s)

	case *SortStatement:
		v, err := scope.GetPath(s.Target)
		if err != nil {
			return nil, err
		}
		sorted, err := SortArray(v, s.Keys)
		if err != nil {
			return nil, err
		}
		return nil, scope.SetPath(s.Target, sorted)

	case *ValidateStatement:
		return nil, execValidate(scope, s)

	case *ReturnStatement:
		if s.Expr == nil {
			return &returnSignal{}, nil
		}
		v, err := Eval(scope, s.Expr)
		if err != nil {
			return nil, err
		}
		return &returnSignal{hasValue: true, value: v}, nil

	case *ThrowStatement:
		v, err := Eval(scope, s.Expr)
		if err != nil {
			return nil, err
		}
		return nil, &ThrowError{Value: v}

	case *SQLStatement:
		return nil, execSQL(ctx, scope, s)

	default:
		return nil, &TypeError{Op: "exec", Detail: fmt.Sprintf("unsupported statement node %T", stmt)}
	}
}

func execIf(ctx context.Context, scope *Scope, s *IfStatement) (*returnSignal, error) {
	cond, err := Eval(scope, s.Cond)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return execBlock(ctx, scope, s.Then)
	}
	for _, ei := range s.Elseifs {
		c, err := Eval(scope, ei.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(c) {
			return execBlock(ctx, scope, ei.Body)
		}
	}
	if s.Else != nil {
		return execBlock(ctx, scope, s.Else)
	}
	return nil, nil
}

// execFor iterates Collection's elements in insertion order, binding each
// to s.Var (§4.3 base: "for item in collection").
func execFor(ctx context.Context, scope *Scope, s *ForStatement) (*returnSignal, error) {
	coll, err := Eval(scope, s.Collection)
	if err != nil {
		return nil, err
	}
	if coll.Kind() != KindArray {
		return nil, &TypeError{Op: "for", Detail: fmt.Sprintf("collection must be an array, got %s", coll.Kind())}
	}
	for i := 0; i < coll.Len(); i++ {
		elem, _ := coll.Index(i)
		scope.Set(s.Var, elem)
		sig, err := execBlock(ctx, scope, s.Body)
		if err != nil || sig != nil {
			return sig, err
		}
	}
	return nil, nil
}

func execSwitch(ctx context.Context, scope *Scope, s *SwitchStatement) (*returnSignal, error) {
	v, err := Eval(scope, s.Expr)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Cases {
		cv, err := Eval(scope, c.Value)
		if err != nil {
			return nil, err
		}
		if Equal(v, cv) {
			return execBlock(ctx, scope, c.Body)
		}
	}
	if s.Default != nil {
		return execBlock(ctx, scope, s.Default)
	}
	return nil, nil
}

func execTry(ctx context.Context, scope *Scope, s *TryStatement) (sig *returnSignal, rerr error) {
	if len(s.Finally) > 0 {
		defer func() {
			fsig, ferr := execBlock(ctx, scope, s.Finally)
			if ferr != nil {
				sig, rerr = nil, ferr
				return
			}
			if fsig != nil {
				sig, rerr = fsig, nil
			}
		}()
	}

	bodySig, err := execBlock(ctx, scope, s.Body)
	if err == nil {
		return bodySig, nil
	}
	if _, ok := AsRuntimeError(err); !ok {
		return nil, err
	}
	if s.ExceptionVar != "" {
		scope.Set(s.ExceptionVar, ExceptionValue(err))
	}
	return execBlock(ctx, scope, s.Catch)
}

// execSystem evaluates s.Command to a String and hands it to the
// interpreter's ProcessRunner, synchronously and discarding whatever the
// process does (§4.3 base), matching the reference interpreter's
// std::system(command.c_str()) call. Explicit transaction control goes
// through SQLBegin/SQLCommit/SQLRollback instead (§6.2 base), not system.
func execSystem(ctx context.Context, scope *Scope, s *SystemStatement) error {
	cmd, err := Eval(scope, s.Command)
	if err != nil {
		return err
	}
	if !cmd.IsString() {
		return &TypeError{Op: "system", Detail: "system command must be a string"}
	}
	scope.Interpreter().RunProcess(ctx, cmd.String())
	return nil
}

// execBatch logs the named batch invocation; the reference interpreter
// itself only prints it (original Interpreter.cpp executeBatch names this
// "For now, just print that batch is called"), with no real batch dispatch
// implemented.
func execBatch(scope *Scope, s *BatchStatement) error {
	if s.Argument == nil {
		scope.Interpreter().Logger().Infof("batch: %s", s.Name)
		return nil
	}
	arg, err := scope.GetPath(*s.Argument)
	if err != nil {
		return err
	}
	scope.Interpreter().Logger().Infof("batch: %s argument=%s", s.Name, arg.String())
	return nil
}

// execValidate evaluates s.Cond and records the matching outcome
// descriptor's (code, message) pair against the interpreter (§4.3 base,
// original Interpreter.cpp executeValidate's ValidationOutcome). It never
// raises: a failed rule is recorded, not thrown.
func execValidate(scope *Scope, s *ValidateStatement) error {
	cond, err := Eval(scope, s.Cond)
	if err != nil {
		return err
	}
	if cond.Kind() != KindBool {
		return &TypeError{Op: "validate", Detail: fmt.Sprintf("rule must be a bool, got %s", cond.Kind())}
	}
	outcome := s.Failure
	if cond.Bool() {
		outcome = s.Success
	}
	code, err := Eval(scope, outcome.Code)
	if err != nil {
		return err
	}
	msg, err := Eval(scope, outcome.Message)
	if err != nil {
		return err
	}
	result := ValidationOutcome{Code: code.Number(), Message: msg.String()}
	scope.Interpreter().SetLastValidation(result)

	label := "failure"
	if cond.Bool() {
		label = "success"
	}
	scope.Interpreter().Logger().Infof("validate: %s code=%v message=%q", label, result.Code, result.Message)
	return nil
}

func execCall(ctx context.Context, scope *Scope, s *CallStatement) error {
	var input Value = Null
	if s.Args != nil {
		v, err := Eval(scope, s.Args)
		if err != nil {
			return err
		}
		input = v
	}
	out, err := scope.Interpreter().invokeLocked(ctx, s.Procedure, input, nil)
	if err == ErrNoOutput {
		return nil
	}
	if err != nil {
		return err
	}
	if s.Target != nil {
		return scope.SetPath(*s.Target, out)
	}
	return nil
}
