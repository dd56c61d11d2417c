package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Bound on recursive evaluation of function parameters. Deep nesting in a
// recipe is almost certainly an authoring mistake, and the bound keeps a
// hostile template from recursing without limit.
const defaultMaxDepth = 8

// Matches a function invocation reference such as "lower(abc)".
var funcRef = regexp.MustCompile(`^[A-Za-z0-9_-]+\(.+\)$`)

// Evaluates expressions embedded in recipe scalars against a variable set.
type Evaluator struct {
	funcs    map[string]Function
	maxDepth int
}

// Creates an evaluator with the built-in function table.
func New() *Evaluator {
	return NewWithFunctions(Builtins())
}

// Creates an evaluator with an explicit function table.
func NewWithFunctions(funcs map[string]Function) *Evaluator {
	return &Evaluator{
		funcs:    funcs,
		maxDepth: defaultMaxDepth,
	}
}

// Evaluates a template against the given variables.
//
// A template that is exactly one un-annotated expression returns the
// referenced value with its type preserved; any other template returns the
// concatenated string.
func (e *Evaluator) Evaluate(tmpl string, vars map[string]any) (any, error) {
	return e.eval(tmpl, vars, 0)
}

// A parsed template segment: either literal text or a brace expression.
type segment struct {
	text string
	expr bool
}

func (e *Evaluator) eval(tmpl string, vars map[string]any, depth int) (any, error) {
	if depth > e.maxDepth {
		return nil, ErrNestingTooDeep
	}

	segments, err := split(tmpl)
	if err != nil {
		return nil, err
	}

	// Whole-string single expression: preserve the scalar type unless the
	// expression carries a format or conversion annotation.
	if len(segments) == 1 && segments[0].expr {
		ref, format, conv := splitAnnotations(segments[0].text)
		value, err := e.evalRef(ref, vars, depth)
		if err != nil {
			return nil, err
		}
		if format == "" && conv == "" {
			return value, nil
		}
		return annotate(value, format, conv)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if !seg.expr {
			sb.WriteString(seg.text)
			continue
		}

		ref, format, conv := splitAnnotations(seg.text)
		value, err := e.evalRef(ref, vars, depth)
		if err != nil {
			return nil, err
		}

		rendered, err := annotate(value, format, conv)
		if err != nil {
			return nil, err
		}
		sb.WriteString(rendered)
	}

	return sb.String(), nil
}

// Resolves a single reference: a function invocation or a variable name.
func (e *Evaluator) evalRef(ref string, vars map[string]any, depth int) (any, error) {
	if m := funcRef.FindString(ref); m != "" {
		open := strings.IndexByte(ref, '(')
		return e.call(ref[:open], ref[open+1:len(ref)-1], vars, depth)
	}

	value, ok := vars[ref]
	if !ok {
		return nil, &UndefinedVariableError{Name: ref}
	}
	return value, nil
}

// Invokes a function from the table.
//
// The raw parameter string is evaluated as a template first, so parameters
// may reference variables or further functions, then split on unescaped
// commas into positional parameters. A parameter that names a known
// function, as in lower(upper(x)), is itself invoked and replaced by its
// result.
func (e *Evaluator) call(name, rawParams string, vars map[string]any, depth int) (any, error) {
	fn, ok := e.funcs[name]
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}

	evaluated, err := e.eval(rawParams, vars, depth+1)
	if err != nil {
		return nil, err
	}

	params := splitParams(Render(evaluated))
	for i, param := range params {
		nested, ok, err := e.invokeNested(param, vars, depth+1)
		if err != nil {
			return nil, err
		}
		if ok {
			params[i] = nested
		}
	}

	result, err := fn(params)
	if err != nil {
		return nil, &FunctionError{Name: name, Err: err}
	}
	return result, nil
}

// Invokes a parameter that is a function invocation of a known function.
// Anything else is plain data and is reported as not invoked.
func (e *Evaluator) invokeNested(param string, vars map[string]any, depth int) (string, bool, error) {
	if !funcRef.MatchString(param) {
		return "", false, nil
	}

	open := strings.IndexByte(param, '(')
	if _, ok := e.funcs[param[:open]]; !ok {
		return "", false, nil
	}

	result, err := e.call(param[:open], param[open+1:len(param)-1], vars, depth)
	if err != nil {
		return "", false, err
	}
	return Render(result), true, nil
}

// Splits a template into literal and expression segments.
//
// Doubled braces escape to a single literal brace. Braces nest inside an
// expression (function parameters may contain further expressions); the
// expression ends at the brace that balances its opening one.
func split(tmpl string) ([]segment, error) {
	var segments []segment
	var literal strings.Builder

	for i := 0; i < len(tmpl); i++ {
		switch c := tmpl[i]; c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}

			end, err := matchBrace(tmpl, i)
			if err != nil {
				return nil, err
			}
			if literal.Len() > 0 {
				segments = append(segments, segment{text: literal.String()})
				literal.Reset()
			}
			segments = append(segments, segment{text: tmpl[i+1 : end], expr: true})
			i = end

		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: single '}' at offset %d", ErrMalformed, i)

		default:
			literal.WriteByte(c)
		}
	}

	if literal.Len() > 0 {
		segments = append(segments, segment{text: literal.String()})
	}
	return segments, nil
}

// Returns the index of the brace closing the expression opened at start.
func matchBrace(tmpl string, start int) (int, error) {
	nesting := 0
	for i := start; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			nesting++
		case '}':
			nesting--
			if nesting == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unmatched '{' at offset %d", ErrMalformed, start)
}

// Splits an expression into its reference, format spec, and conversion spec.
//
// The grammar is ref[:format][!conv]. Annotation separators are only
// recognized outside parentheses so that function parameters may contain
// colons and exclamation marks.
func splitAnnotations(expr string) (ref, format, conv string) {
	colon, bang := -1, -1
	parens := 0

	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			parens++
		case ')':
			parens--
		case ':':
			if parens == 0 && colon < 0 {
				colon = i
			}
		case '!':
			if parens == 0 {
				bang = i
			}
		}
	}

	ref = expr
	if bang > colon && bang >= 0 {
		conv = expr[bang+1:]
		ref = expr[:bang]
	}
	if colon >= 0 {
		format = ref[colon+1:]
		ref = ref[:colon]
	}
	return ref, format, conv
}

// Splits a function parameter string on unescaped commas.
//
// Commas inside parentheses belong to a nested invocation and do not
// split. A backslash escapes the following comma or backslash; any other
// escape sequence is kept verbatim.
func splitParams(s string) []string {
	var params []string
	var current strings.Builder
	parens := 0

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 < len(s) && (s[i+1] == ',' || s[i+1] == '\\') {
				current.WriteByte(s[i+1])
				i++
			} else {
				current.WriteByte(c)
			}
		case '(':
			parens++
			current.WriteByte(c)
		case ')':
			if parens > 0 {
				parens--
			}
			current.WriteByte(c)
		case ',':
			if parens > 0 {
				current.WriteByte(c)
				continue
			}
			params = append(params, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	params = append(params, current.String())
	return params
}
