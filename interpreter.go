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
	osexec "os/exec"
	"sync"

	"github.com/harrykodden/trx/driver"
)

// Interpreter binds a Module to a database driver and executes procedure
// bodies against it. One Interpreter is typically shared by every request
// handled by trx/httpapi; it serializes procedure execution behind a single
// coarse mutex, the same baseline the teacher's DBManager uses around its
// connection map, documented in §5 as a correctness baseline that may be
// refined later without weakening the serialization guarantee.
type Interpreter struct {
	module *Module
	driver driver.Driver
	logger Logger

	runner ProcessRunner

	invokeMu       sync.Mutex // held for the whole of one Invoke
	mu             sync.Mutex // guards the state fields below
	sqlCode        float64
	lastValidation ValidationOutcome
	globals        map[string]Value
}

// ValidationOutcome is the (code, message) descriptor a ValidateStatement
// records, mirroring the reference interpreter's ValidationOutcome
// (§4.3 base).
type ValidationOutcome struct {
	Code    float64
	Message string
}

// ProcessRunner hands a shell command to an external process, synchronously
// and without reporting its outcome back to the caller (§4.3 base: system
// "evaluate String command and hand to external process runner;
// synchronous, discards status").
type ProcessRunner interface {
	Run(ctx context.Context, command string)
}

// osProcessRunner runs command through the platform shell, matching the
// reference interpreter's std::system(command.c_str()) call.
type osProcessRunner struct{}

func (osProcessRunner) Run(ctx context.Context, command string) {
	_ = osexec.CommandContext(ctx, "sh", "-c", command).Run()
}

// Logger is the narrow logging surface the interpreter depends on (the
// sub-packages do not log), satisfied directly by *logrus.Logger (§7/ambient
// stack expansion). Callers that don't want logging can pass a no-op
// implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NewInterpreter returns an Interpreter bound to module and backed by drv.
// If logger is nil, a discarding Logger is used.
func NewInterpreter(module *Module, drv driver.Driver, logger Logger) *Interpreter {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Interpreter{
		module:  module,
		driver:  drv,
		logger:  logger,
		runner:  osProcessRunner{},
		globals: map[string]Value{},
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Initialize prepares the bound driver for use. Callers must invoke it
// before the first Invoke.
func (i *Interpreter) Initialize(ctx context.Context) error {
	return i.driver.Initialize(ctx)
}

// Close releases the bound driver's resources.
func (i *Interpreter) Close() error {
	return i.driver.Close()
}

// Module returns the bound Module.
func (i *Interpreter) Module() *Module { return i.module }

// Driver returns the bound database driver.
func (i *Interpreter) Driver() driver.Driver { return i.driver }

// Logger returns the interpreter's configured logger.
func (i *Interpreter) Logger() Logger { return i.logger }

// SqlCode returns the process-wide sqlcode: 0 for the last statement's
// success, 100 at end-of-cursor-data, any other value identifying a
// database error (§6.3 base). The original reference interpreter stores
// this on the Interpreter itself rather than per-scope, per
// include/trx/runtime/Interpreter.h, which DESIGN.md's Open Question
// resolution follows.
func (i *Interpreter) SqlCode() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sqlCode
}

// SetSqlCode updates the process-wide sqlcode.
func (i *Interpreter) SetSqlCode(code float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sqlCode = code
}

// LastValidation returns the most recently recorded ValidationOutcome.
func (i *Interpreter) LastValidation() ValidationOutcome {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastValidation
}

// SetLastValidation records outcome as the most recent validation result.
func (i *Interpreter) SetLastValidation(outcome ValidationOutcome) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastValidation = outcome
}

// RunProcess hands command to the interpreter's ProcessRunner.
func (i *Interpreter) RunProcess(ctx context.Context, command string) {
	i.runner.Run(ctx, command)
}

// Global returns a copy of the named global variable.
func (i *Interpreter) Global(name string) Value {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.globals[name]
}

// SetGlobal sets a global variable visible to every subsequent Invoke.
func (i *Interpreter) SetGlobal(name string, val Value) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.globals[name] = val
}

// Invoke runs the named exported procedure to completion and returns its
// output record, following §4.5's algorithm exactly:
//
//  1. Look up the ProcedureDecl; NotFoundError if absent.
//  2. Create a fresh Scope for this call.
//  3. Bind the input record (when the procedure declares one) under its
//     declared parameter name.
//  4. Bind each path parameter, coerced to its declared Kind.
//  5. Bind an empty Object under the output parameter name, when the
//     procedure declares one.
//  6. Execute the procedure body statement-by-statement.
//  7. A ReturnStatement ends execution immediately, yielding its
//     expression (if any) as the result; reaching the end of the body
//     yields the bound output variable; an uncaught ThrowStatement
//     propagates as a *ThrowError.
//
// Invoke takes the Interpreter's single coarse mutex for its entire
// duration (§5 base), so concurrent calls are fully serialized; the
// worker pool in trx/httpapi bounds how many callers can be blocked on it
// at once rather than attempting finer-grained locking here.
func (i *Interpreter) Invoke(ctx context.Context, procedureName string, input Value, pathParams map[string]string) (Value, error) {
	i.invokeMu.Lock()
	defer i.invokeMu.Unlock()
	return i.invokeLocked(ctx, procedureName, input, pathParams)
}

// invokeLocked is Invoke's body, callable both from Invoke (which takes the
// lock) and from a CallStatement running inside an already-locked Invoke,
// since sync.Mutex is not reentrant and the call statement executes while
// the outer Invoke still holds i.invokeMu. The sqlcode, validation and
// global accessors lock the separate i.mu, so statements may call them
// during an Invoke.
func (i *Interpreter) invokeLocked(ctx context.Context, procedureName string, input Value, pathParams map[string]string) (Value, error) {
	proc, ok := i.module.Procedures[procedureName]
	if !ok {
		return Null, &NotFoundError{What: "procedure", Name: procedureName}
	}

	scope := NewScope(i, procedureName)

	if proc.Input != nil {
		scope.Set(proc.Input.Name, input)
	}

	for _, p := range proc.PathParameters {
		raw, ok := pathParams[p.Name]
		if !ok {
			continue
		}
		v, err := coercePathParam(raw, p.Type)
		if err != nil {
			return Null, err
		}
		scope.Set(p.Name, v)
	}

	var outputName string
	if proc.Output != nil {
		outputName = proc.Output.Name
		scope.Set(outputName, NewObject())
	}

	ret, err := execBlock(ctx, scope, proc.Body)
	if err != nil {
		if thrown, ok := err.(*ThrowError); ok {
			return Null, thrown
		}
		return Null, err
	}
	if ret != nil {
		if ret.hasValue {
			return ret.value, nil
		}
	}
	if outputName == "" {
		return Null, ErrNoOutput
	}
	return scope.Get(outputName), nil
}

// coercePathParam converts a raw URL path segment into a Value of the
// requested Kind, per §4.6's path-parameter binding rule.
func coercePathParam(raw string, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		return NewString(raw), nil
	case KindNumber:
		var n float64
		if _, err := fmt.Sscanf(raw, "%g", &n); err != nil {
			return Null, &TypeError{Op: "path parameter", Detail: fmt.Sprintf("%q is not a valid number", raw)}
		}
		return NewNumber(n), nil
	case KindBool:
		switch raw {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		default:
			return Null, &TypeError{Op: "path parameter", Detail: fmt.Sprintf("%q is not a valid bool", raw)}
		}
	default:
		return NewString(raw), nil
	}
}
