// Package conditions evaluates transition and field-visibility expressions
// against the flat variable set of a process instance.
package conditions

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/procline/procline/pkg/diag"
)

// Evaluator compiles and runs boolean expressions. Compiled programs are
// cached per expression text and reused across goroutines.
//
// Contract: a blank expression is true (the default/always transition, or an
// always-visible field). A malformed expression or a runtime failure is false
// (fail closed); the underlying error is routed to the diagnostics collector
// instead of being returned. Identifiers missing from the variable set
// resolve to nil and compare falsy rather than raising.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Evaluate decides whether the expression holds for the given variables.
// elementID names the owning transition or field in diagnostics.
func (e *Evaluator) Evaluate(expression string, variables map[string]any, elementID string, diags *diag.Collector) bool {
	if expression == "" {
		return true
	}

	if variables == nil {
		variables = map[string]any{}
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		if diags != nil {
			diags.Add(diag.CodeBrokenCondition, elementID, "condition %q does not compile: %v", expression, err)
		}

		return false
	}

	out, err := vm.Run(prg, variables)
	if err != nil {
		if diags != nil {
			diags.Add(diag.CodeBrokenCondition, elementID, "condition %q failed to evaluate: %v", expression, err)
		}

		return false
	}

	result, ok := out.(bool)
	if !ok {
		if diags != nil {
			diags.Add(diag.CodeBrokenCondition, elementID, "condition %q is not boolean (got %T)", expression, out)
		}

		return false
	}

	return result
}

func (e *Evaluator) getOrCompile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()

		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.cache[expression] = prg

	return prg, nil
}
