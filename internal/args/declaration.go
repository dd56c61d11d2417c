package args

import (
	"fmt"

	"github.com/kilnhq/kiln/internal/recipe"
)

// Declaration keys.
const (
	keyRequired   = "REQUIRED"
	keyDefault    = "DEFAULT"
	keyObfuscated = "OBFUSCATED"
	keyChoices    = "CHOICES"
	keyMaps       = "MAPS"
	keyName       = "NAME"
	keyValues     = "VALUES"
)

// A single argument declaration from an ARGS section.
type Declaration struct {
	Name       string
	Required   bool
	Default    any
	HasDefault bool
	Obfuscated bool
	Choices    []any
	Mappings   []Mapping
}

// Derives a new variable from the declaring argument's resolved value.
// Values are keyed by that value; Default applies when no key matches.
type Mapping struct {
	Name       string
	Values     []MappingEntry
	Default    any
	HasDefault bool
}

// One key/result pair of a mapping's value table.
type MappingEntry struct {
	Key    string
	Result recipe.Value
}

// Parses the declarations of an ARGS section in document order.
//
// A zero value (no ARGS section) yields no declarations. Obfuscated
// defaults are only honored when allowObfuscated is set; the recipe's own
// ARGS section does not support them.
func ParseDeclarations(v recipe.Value, allowObfuscated bool) ([]Declaration, error) {
	if v.IsNil() {
		return nil, nil
	}
	if v.Kind() != recipe.Mapping {
		return nil, fmt.Errorf("%w: ARGS must be a mapping", ErrInvalidDeclaration)
	}

	decls := make([]Declaration, 0, len(v.Entries()))
	for _, e := range v.Entries() {
		decl, err := parseDeclaration(e.Key, e.Value, allowObfuscated)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func parseDeclaration(name string, v recipe.Value, allowObfuscated bool) (Declaration, error) {
	if v.Kind() != recipe.Mapping {
		return Declaration{}, fmt.Errorf("%w: argument %q must be a mapping of attributes", ErrInvalidDeclaration, name)
	}

	decl := Declaration{Name: name}

	if raw, ok := v.Lookup(keyRequired); ok {
		required, ok := raw.Scalar().(bool)
		if !ok {
			return Declaration{}, fmt.Errorf("%w: argument %q: REQUIRED must be a boolean", ErrInvalidDeclaration, name)
		}
		decl.Required = required
	}

	if raw, ok := v.Lookup(keyDefault); ok {
		if raw.Kind() != recipe.Scalar {
			return Declaration{}, fmt.Errorf("%w: argument %q: DEFAULT must be a scalar", ErrInvalidDeclaration, name)
		}
		decl.Default = raw.Scalar()
		decl.HasDefault = true
	}

	if raw, ok := v.Lookup(keyObfuscated); ok && allowObfuscated {
		obfuscated, ok := raw.Scalar().(bool)
		if !ok {
			return Declaration{}, fmt.Errorf("%w: argument %q: OBFUSCATED must be a boolean", ErrInvalidDeclaration, name)
		}
		decl.Obfuscated = obfuscated
	}

	if raw, ok := v.Lookup(keyChoices); ok {
		if raw.Kind() != recipe.Sequence {
			return Declaration{}, fmt.Errorf("%w: argument %q: CHOICES must be a list of scalars", ErrInvalidDeclaration, name)
		}
		for _, item := range raw.Sequence() {
			if item.Kind() != recipe.Scalar {
				return Declaration{}, fmt.Errorf("%w: argument %q: CHOICES must be a list of scalars", ErrInvalidDeclaration, name)
			}
			decl.Choices = append(decl.Choices, item.Scalar())
		}
	}

	if raw, ok := v.Lookup(keyMaps); ok {
		mappings, err := parseMappings(name, raw)
		if err != nil {
			return Declaration{}, err
		}
		decl.Mappings = mappings
	}

	return decl, nil
}

func parseMappings(argName string, v recipe.Value) ([]Mapping, error) {
	if v.Kind() != recipe.Sequence {
		return nil, fmt.Errorf("%w: argument %q: MAPS must be a list", ErrInvalidDeclaration, argName)
	}

	mappings := make([]Mapping, 0, len(v.Sequence()))
	for _, item := range v.Sequence() {
		if item.Kind() != recipe.Mapping {
			return nil, fmt.Errorf("%w: argument %q: each mapping must declare NAME and VALUES", ErrInvalidDeclaration, argName)
		}

		var m Mapping

		name, ok := item.Lookup(keyName)
		if !ok || name.Kind() != recipe.Scalar {
			return nil, fmt.Errorf("%w: argument %q: mapping NAME is not optional", ErrInvalidDeclaration, argName)
		}
		m.Name = fmt.Sprintf("%v", name.Scalar())

		if values, ok := item.Lookup(keyValues); ok {
			if values.Kind() != recipe.Mapping {
				return nil, fmt.Errorf("%w: argument %q: mapping VALUES must be a mapping", ErrInvalidDeclaration, argName)
			}
			for _, e := range values.Entries() {
				m.Values = append(m.Values, MappingEntry{Key: e.Key, Result: e.Value})
			}
		}

		if def, ok := item.Lookup(keyDefault); ok {
			if def.Kind() != recipe.Scalar {
				return nil, fmt.Errorf("%w: argument %q: mapping DEFAULT must be a scalar", ErrInvalidDeclaration, argName)
			}
			m.Default = def.Scalar()
			m.HasDefault = true
		}

		mappings = append(mappings, m)
	}

	return mappings, nil
}
