// In-process restricted executor using the Yaegi interpreter.
//
// SAFETY RESTRICTIONS:
// - Only an allow-listed stdlib subset is loaded into the interpreter
//   (no os, os/exec, net, net/http, syscall, unsafe, reflect)
// - FHIR access goes through the injected fhirtool capability package
//   built from the Bindings, never through raw network access
// - Timeout enforcement via context

package sandbox

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// allowedPackages is the stdlib subset exposed to generated code.
var allowedPackages = map[string]bool{
	"bytes":         true,
	"context":       true,
	"encoding/json": true,
	"errors":        true,
	"fmt":           true,
	"math":          true,
	"regexp":        true,
	"sort":          true,
	"strconv":       true,
	"strings":       true,
	"time":          true,
	"unicode":       true,
}

// YaegiExecutor interprets generated Go code in-process. Suitable for
// development; use SubprocessExecutor when process isolation matters.
type YaegiExecutor struct{}

// NewYaegiExecutor creates a new interpreter-backed executor.
func NewYaegiExecutor() *YaegiExecutor {
	return &YaegiExecutor{}
}

// Name returns the executor name.
func (e *YaegiExecutor) Name() string {
	return "yaegi"
}

// Execute evaluates the code in a fresh interpreter seeded with the
// allow-listed stdlib subset and the fhirtool capability package, then
// invokes main() if the code defines one.
func (e *YaegiExecutor) Execute(ctx context.Context, code string, binds Bindings) Outcome {
	start := time.Now()

	if strings.TrimSpace(code) == "" {
		return Failure("EmptyCode", "nothing to execute after sanitizing", time.Since(start))
	}

	i := interp.New(interp.Options{})
	if err := i.Use(restrictedSymbols()); err != nil {
		return Failure("Interpreter", err.Error(), time.Since(start))
	}
	if err := i.Use(capabilityExports(binds)); err != nil {
		return Failure("Interpreter", err.Error(), time.Since(start))
	}

	// Evaluate declarations, then call main in a goroutine so the
	// execution bound can expire independently. A runaway snippet
	// leaks its goroutine until it returns; the interpreter instance
	// is discarded either way.
	done := make(chan Outcome, 1)
	go func() {
		done <- e.eval(ctx, i, code, start)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return TimedOut(time.Since(start))
	}
}

// eval compiles the snippet and invokes its entry point, converting
// every fault into an Outcome.
func (e *YaegiExecutor) eval(ctx context.Context, i *interp.Interpreter, code string, start time.Time) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failure(classOf(r), fmt.Sprint(r), time.Since(start))
		}
	}()

	if _, err := i.EvalWithContext(ctx, wrapCode(code)); err != nil {
		if ctx.Err() != nil {
			return TimedOut(time.Since(start))
		}
		return Failure(classOf(err), err.Error(), time.Since(start))
	}

	entry, err := i.Eval("main.main")
	if err != nil {
		// No entry point defined: the declarations themselves are
		// the whole attempt.
		return Success(time.Since(start))
	}
	mainFn, ok := entry.Interface().(func())
	if !ok {
		return Failure("EntryPoint", "main is not a zero-argument function", time.Since(start))
	}

	mainFn()
	return Success(time.Since(start))
}

// wrapCode ensures the snippet carries a package clause.
func wrapCode(code string) string {
	if strings.HasPrefix(strings.TrimSpace(code), "package ") {
		return code
	}
	return "package main\n\n" + code
}

// restrictedSymbols filters the stdlib symbol table down to the
// allow-listed packages. Symbol keys have the form "path/name"
// (e.g. "encoding/json/json").
func restrictedSymbols() interp.Exports {
	restricted := interp.Exports{}
	for key, symbols := range stdlib.Symbols {
		path := key
		if idx := strings.LastIndex(key, "/"); idx > 0 {
			path = key[:idx]
		}
		if allowedPackages[path] {
			restricted[key] = symbols
		}
	}
	return restricted
}

// capabilityExports builds the fhirtool package injected into the
// interpreter. Generated code imports "fhirtool" and reaches the FHIR
// server only through these two handles.
func capabilityExports(binds Bindings) interp.Exports {
	return interp.Exports{
		"fhirtool/fhirtool": {
			"Client":   reflect.ValueOf(binds.FHIRClient),
			"Explorer": reflect.ValueOf(binds.Explorer),
		},
	}
}

// classOf derives a fault classification from a recovered value or
// evaluation error.
func classOf(v interface{}) string {
	switch err := v.(type) {
	case interp.Panic:
		return classOf(err.Value)
	case error:
		name := reflect.TypeOf(err).String()
		name = strings.TrimPrefix(name, "*")
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			name = name[idx+1:]
		}
		if strings.Contains(err.Error(), "undefined:") {
			return "Undefined"
		}
		if name == "errorString" || name == "Error" {
			return "CompileError"
		}
		return name
	default:
		return "Panic"
	}
}

// Verify YaegiExecutor implements Executor
var _ Executor = (*YaegiExecutor)(nil)
