package template

import (
	"errors"
	"fmt"
)

var (
	// Returned when expression nesting exceeds the evaluator's depth bound.
	ErrNestingTooDeep = errors.New("expression nesting too deep")

	// Returned for templates with unbalanced braces.
	ErrMalformed = errors.New("malformed template")
)

// Reported when an expression references a variable that is not present in
// the variable set. The variable name is carried for caller-side error
// enrichment.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("referenced variable %q is not defined", e.Name)
}

// Reported when an expression invokes a function that is not present in the
// evaluator's function table.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("referenced function %q is not known", e.Name)
}

// Reported when a known function fails while executing.
type FunctionError struct {
	Name string
	Err  error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("execution of function %q failed: %v", e.Name, e.Err)
}

func (e *FunctionError) Unwrap() error {
	return e.Err
}

// Reported for format or conversion annotations the evaluator does not
// understand.
type AnnotationError struct {
	Spec string
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("invalid format annotation %q", e.Spec)
}
