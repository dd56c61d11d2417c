package args

import (
	"fmt"

	"github.com/kilnhq/kiln/internal/paths"
	"github.com/kilnhq/kiln/internal/recipe"
	"github.com/kilnhq/kiln/internal/template"
)

// Name of the always-present variable holding the in-container
// build-context root. It is injected after all declarations are processed
// and cannot be overridden.
const ContextPathVariable = "BUILD_CONTEXT_PATH"

// The fully resolved, flat variable set. Treated as read-only once
// returned by [Resolve].
type Variables map[string]any

// Resolves all argument sources into one variable set.
//
// Command-line values win over recipe declarations, which win over
// global-config declarations. Declarations are processed in document
// order; each fills its default when no value is present yet, validates
// choices, and derives mapped variables.
func Resolve(cli map[string]string, recipeDecls, globalDecls []Declaration) (Variables, error) {
	vars := make(Variables, len(cli)+len(recipeDecls)+len(globalDecls)+1)
	for name, value := range cli {
		vars[name] = value
	}

	for _, decl := range recipeDecls {
		if err := apply(vars, decl); err != nil {
			return nil, err
		}
	}
	for _, decl := range globalDecls {
		if err := apply(vars, decl); err != nil {
			return nil, err
		}
	}

	vars[ContextPathVariable] = paths.BuildContextRoot
	return vars, nil
}

// Applies one declaration to the variable set.
func apply(vars Variables, decl Declaration) error {
	_, present := vars[decl.Name]

	if decl.Required && !present {
		return fmt.Errorf("%w: argument %q is required but no value was passed in", ErrMissingArgument, decl.Name)
	}
	if !decl.Required && !decl.HasDefault {
		return fmt.Errorf("%w: argument %q is optional but no default value is declared", ErrMissingArgument, decl.Name)
	}

	if !present && decl.HasDefault {
		value := decl.Default
		if decl.Obfuscated {
			decoded, err := decodeObfuscated(decl.Name, template.Render(value))
			if err != nil {
				return err
			}
			value = decoded
		}
		vars[decl.Name] = value
	}

	if err := checkChoices(vars, decl); err != nil {
		return err
	}

	for _, m := range decl.Mappings {
		if err := applyMapping(vars, decl.Name, m); err != nil {
			return err
		}
	}

	return nil
}

// Validates the current value against the declared choices.
func checkChoices(vars Variables, decl Declaration) error {
	if len(decl.Choices) == 0 {
		return nil
	}

	value, ok := vars[decl.Name]
	if !ok {
		return nil
	}

	// Values from the command line arrive as strings while declared
	// choices keep their YAML scalar types; compare rendered forms.
	rendered := template.Render(value)
	for _, choice := range decl.Choices {
		if template.Render(choice) == rendered {
			return nil
		}
	}

	return fmt.Errorf("%w: value %q for argument %q is invalid, supported values are %v",
		ErrInvalidValue, rendered, decl.Name, renderAll(decl.Choices))
}

// Derives one mapped variable from the declaring argument's current value.
func applyMapping(vars Variables, argName string, m Mapping) error {
	key := template.Render(vars[argName])

	for _, entry := range m.Values {
		if entry.Key != key {
			continue
		}
		if entry.Result.Kind() != recipe.Scalar {
			return fmt.Errorf("%w: mapping %q of argument %q produced a non-scalar value for key %q",
				ErrInvalidMapping, m.Name, argName, key)
		}
		vars[m.Name] = entry.Result.Scalar()
		return nil
	}

	if !m.HasDefault {
		return fmt.Errorf("%w: mapping %q of argument %q has no entry for value %q and no default",
			ErrInvalidMapping, m.Name, argName, key)
	}

	vars[m.Name] = m.Default
	return nil
}

func renderAll(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, template.Render(v))
	}
	return out
}
