package template

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A pure string transform invoked from a template expression. Parameters
// are positional, already evaluated and split.
type Function func(params []string) (string, error)

// Returns the built-in function table.
//
// The table is constructed fresh on every call so callers can extend their
// copy without affecting other evaluators.
func Builtins() map[string]Function {
	return map[string]Function{
		"lower":      single(strings.ToLower),
		"upper":      single(strings.ToUpper),
		"capitalise": single(capitalise),
	}
}

// Adapts a one-parameter transform into a [Function] that enforces its
// parameter count.
func single(fn func(string) string) Function {
	return func(params []string) (string, error) {
		if len(params) != 1 {
			return "", fmt.Errorf("expected 1 parameter, got %d", len(params))
		}
		return fn(params[0]), nil
	}
}

// Upper-cases the first rune and lower-cases the remainder.
func capitalise(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
