// Package template evaluates variable and function expressions embedded in
// recipe scalars.
//
// An expression is written between braces and takes one of the forms
//
//	{ref}
//	{ref:format}
//	{ref!conv}
//	{ref:format!conv}
//
// where ref is either a variable name or a function invocation such as
// lower(param). Function parameters are themselves templates, so nested
// references like upper({NAME}) evaluate inside out; a parameter that is
// itself an invocation of a known function, as in lower(upper({NAME})),
// is invoked too. Parameters are split on commas outside parentheses; a
// comma or backslash can be escaped with a backslash. Literal braces are
// written doubled ("{{" and "}}").
//
// A template consisting of exactly one expression with no format or
// conversion annotation evaluates to the referenced value with its scalar
// type preserved. Any other template evaluates to the concatenation of its
// literal text and the rendered expressions.
//
// Evaluation is a pure function of the template, the variable set, and the
// evaluator's function table. The built-in table contains lower, upper, and
// capitalise; tests can inject their own table through NewWithFunctions.
package template
