package recipe

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kilnhq/kiln/internal/template"
)

// Materializes the document against a fully resolved variable set.
//
// Every scalar leaf outside the ARGS section is evaluated through the
// template evaluator; composite nodes recurse. The result is the typed,
// fully concrete build plan. Template failures surface as [ConfigError]
// values naming the offending document path.
func Materialize(doc *Document, vars map[string]any) (*Plan, error) {
	return MaterializeWith(doc, template.New(), vars)
}

// Materializes the document with an explicit evaluator.
func MaterializeWith(doc *Document, eval *template.Evaluator, vars map[string]any) (*Plan, error) {
	w := &walker{eval: eval, vars: vars}

	entries := make([]Entry, 0, len(doc.root.Entries()))
	for _, e := range doc.root.Entries() {
		if e.Key == keyArgs {
			continue
		}

		value, err := w.walk(e.Value, e.Key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: e.Key, Value: value})
	}

	return buildPlan(MappingValue(entries...))
}

// Recursive document walker tracking a human-readable path for error
// messages.
type walker struct {
	eval *template.Evaluator
	vars map[string]any
}

func (w *walker) walk(v Value, path string) (Value, error) {
	switch v.Kind() {
	case Sequence:
		items := make([]Value, 0, len(v.Sequence()))
		for i, item := range v.Sequence() {
			walked, err := w.walk(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return Value{}, err
			}
			items = append(items, walked)
		}
		return SequenceValue(items...), nil

	case Mapping:
		entries := make([]Entry, 0, len(v.Entries()))
		for _, e := range v.Entries() {
			walked, err := w.walk(e.Value, path+"."+e.Key)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: e.Key, Value: walked})
		}
		return MappingValue(entries...), nil

	default:
		return w.leaf(v, path)
	}
}

// Evaluates a scalar leaf. Non-string scalars pass through unchanged.
func (w *walker) leaf(v Value, path string) (Value, error) {
	s, ok := v.Scalar().(string)
	if !ok {
		return v, nil
	}

	out, err := w.eval.Evaluate(s, w.vars)
	if err != nil {
		return Value{}, w.translate(err, path)
	}
	return ScalarValue(out), nil
}

// Translates a template failure into a configuration error naming the
// document path.
func (w *walker) translate(err error, path string) error {
	var undef *template.UndefinedVariableError
	if errors.As(err, &undef) {
		return configErrorf(path,
			"referenced variable %q is not defined (known variables: %s)",
			undef.Name, strings.Join(w.known(), ", "))
	}

	var unknown *template.UnknownFunctionError
	if errors.As(err, &unknown) {
		return configErrorf(path, "referenced function %q is not known", unknown.Name)
	}

	var fnErr *template.FunctionError
	if errors.As(err, &fnErr) {
		return configErrorf(path, "function %q failed: %v", fnErr.Name, fnErr.Err)
	}

	return configErrorf(path, "%v", err)
}

// Returns the sorted variable names, for error messages.
func (w *walker) known() []string {
	names := make([]string, 0, len(w.vars))
	for name := range w.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
