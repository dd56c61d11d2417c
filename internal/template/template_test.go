package template

import (
	"errors"
	"strings"
	"testing"
)

func TestEvaluateLiteral(t *testing.T) {
	out, err := New().Evaluate("no expressions here", nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out != "no expressions here" {
		t.Fatalf("out = %q, want literal passthrough", out)
	}
}

func TestEvaluateVariable(t *testing.T) {
	vars := map[string]any{"ENV": "prod", "PORT": 8080, "DEBUG": true}

	tests := []struct {
		name string
		tmpl string
		want any
	}{
		{"single expression keeps type", "{PORT}", 8080},
		{"single bool keeps type", "{DEBUG}", true},
		{"concatenation", "image-{ENV}", "image-prod"},
		{"multiple expressions", "{ENV}:{PORT}", "prod:8080"},
		{"escaped braces", "{{literal}} {ENV}", "{literal} prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Evaluate(tt.tmpl, vars)
			if err != nil {
				t.Fatalf("Evaluate(%q) failed: %v", tt.tmpl, err)
			}
			if out != tt.want {
				t.Fatalf("Evaluate(%q) = %#v, want %#v", tt.tmpl, out, tt.want)
			}
		})
	}
}

func TestEvaluateNoResidualBraces(t *testing.T) {
	vars := map[string]any{"A": "x", "B": "y"}
	out, err := New().Evaluate("{A}-{upper({B})}-{A:>3}", vars)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if strings.ContainsAny(out.(string), "{}") {
		t.Fatalf("out %q contains residual braces", out)
	}
}

func TestEvaluateUndefinedVariable(t *testing.T) {
	_, err := New().Evaluate("{MISSING}", map[string]any{"OTHER": 1})
	var undef *UndefinedVariableError
	if !errors.As(err, &undef) {
		t.Fatalf("err = %v, want UndefinedVariableError", err)
	}
	if undef.Name != "MISSING" {
		t.Fatalf("undef.Name = %q, want MISSING", undef.Name)
	}
}

func TestEvaluateFunctions(t *testing.T) {
	vars := map[string]any{"NAME": "World"}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{lower(ABC)}", "abc"},
		{"{upper(abc)}", "ABC"},
		{"{capitalise(hELLO)}", "Hello"},
		{"{upper({NAME})}", "WORLD"},
		{"{lower(upper({NAME}))}", "world"},
	}

	for _, tt := range tests {
		out, err := New().Evaluate(tt.tmpl, vars)
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", tt.tmpl, err)
		}
		if out != tt.want {
			t.Fatalf("Evaluate(%q) = %v, want %q", tt.tmpl, out, tt.want)
		}
	}
}

func TestEvaluateBareNestedFunctions(t *testing.T) {
	vars := map[string]any{"NAME": "World"}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{lower(upper(abc))}", "abc"},
		{"{capitalise(lower(HELLO))}", "Hello"},
		{"{lower(upper({NAME}))}", "world"},
	}

	for _, tt := range tests {
		out, err := New().Evaluate(tt.tmpl, vars)
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", tt.tmpl, err)
		}
		if out != tt.want {
			t.Fatalf("Evaluate(%q) = %v, want %q", tt.tmpl, out, tt.want)
		}
	}
}

func TestEvaluateNestedMultiParameter(t *testing.T) {
	funcs := map[string]Function{
		"first": func(params []string) (string, error) {
			return params[0], nil
		},
		"join": func(params []string) (string, error) {
			return strings.Join(params, "+"), nil
		},
	}

	out, err := NewWithFunctions(funcs).Evaluate("{first(join(a,b),z)}", nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out != "a+b" {
		t.Fatalf("out = %v, want the nested invocation's result", out)
	}
}

func TestEvaluateFunctionShapedDataPassesThrough(t *testing.T) {
	funcs := map[string]Function{
		"first": func(params []string) (string, error) {
			return params[0], nil
		},
	}

	// "label(x)" names no known function, so it is data, not an invocation.
	out, err := NewWithFunctions(funcs).Evaluate("{first(label(x),y)}", nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out != "label(x)" {
		t.Fatalf("out = %v, want the parameter kept verbatim", out)
	}
}

func TestEvaluateUnknownFunction(t *testing.T) {
	_, err := New().Evaluate("{reverse(abc)}", nil)
	var unknown *UnknownFunctionError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownFunctionError", err)
	}
	if unknown.Name != "reverse" {
		t.Fatalf("unknown.Name = %q, want reverse", unknown.Name)
	}
}

func TestEvaluateFunctionFailure(t *testing.T) {
	funcs := map[string]Function{
		"boom": func(params []string) (string, error) {
			return "", errors.New("kaput")
		},
	}

	_, err := NewWithFunctions(funcs).Evaluate("{boom(x)}", nil)
	var fnErr *FunctionError
	if !errors.As(err, &fnErr) {
		t.Fatalf("err = %v, want FunctionError", err)
	}
	if fnErr.Name != "boom" {
		t.Fatalf("fnErr.Name = %q, want boom", fnErr.Name)
	}
	if !strings.Contains(fnErr.Error(), "kaput") {
		t.Fatalf("fnErr = %q, want underlying cause included", fnErr.Error())
	}
}

func TestEvaluateParameterCount(t *testing.T) {
	_, err := New().Evaluate("{lower(a,b)}", nil)
	var fnErr *FunctionError
	if !errors.As(err, &fnErr) {
		t.Fatalf("err = %v, want FunctionError for extra parameter", err)
	}
}

func TestEvaluateInjectedTable(t *testing.T) {
	funcs := map[string]Function{
		"join": func(params []string) (string, error) {
			return strings.Join(params, "+"), nil
		},
	}

	out, err := NewWithFunctions(funcs).Evaluate("{join(a,b,c)}", nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out != "a+b+c" {
		t.Fatalf("out = %v, want a+b+c", out)
	}
}

func TestEvaluateEscapedComma(t *testing.T) {
	funcs := map[string]Function{
		"first": func(params []string) (string, error) {
			return params[0], nil
		},
	}

	out, err := NewWithFunctions(funcs).Evaluate(`{first(a\,b,c)}`, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if out != "a,b" {
		t.Fatalf("out = %v, want escaped comma kept in first parameter", out)
	}
}

func TestEvaluateNestingBound(t *testing.T) {
	tmpl := "{lower({lower({lower({lower({lower({lower({lower({lower({lower(x)})})})})})})})})}"
	_, err := New().Evaluate(tmpl, nil)
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("err = %v, want ErrNestingTooDeep", err)
	}
}

func TestEvaluateMalformed(t *testing.T) {
	for _, tmpl := range []string{"{open", "close}", "{a}{"} {
		_, err := New().Evaluate(tmpl, map[string]any{"a": 1})
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("Evaluate(%q) err = %v, want ErrMalformed", tmpl, err)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	vars := map[string]any{"A": "v"}
	first, err := New().Evaluate("x{A}y{upper({A})}", vars)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	second, err := New().Evaluate("x{A}y{upper({A})}", vars)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if first != second {
		t.Fatalf("evaluation not deterministic: %v != %v", first, second)
	}
}

func TestSplitAnnotations(t *testing.T) {
	tests := []struct {
		expr   string
		ref    string
		format string
		conv   string
	}{
		{"NAME", "NAME", "", ""},
		{"NAME:>10", "NAME", ">10", ""},
		{"NAME!r", "NAME", "", "r"},
		{"NAME:>10!r", "NAME", ">10", "r"},
		{"lower(a:b)", "lower(a:b)", "", ""},
		{"lower(a!b)", "lower(a!b)", "", ""},
	}

	for _, tt := range tests {
		ref, format, conv := splitAnnotations(tt.expr)
		if ref != tt.ref || format != tt.format || conv != tt.conv {
			t.Fatalf("splitAnnotations(%q) = %q,%q,%q want %q,%q,%q",
				tt.expr, ref, format, conv, tt.ref, tt.format, tt.conv)
		}
	}
}
