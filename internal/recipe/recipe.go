package recipe

import "fmt"

// Top-level document keys.
const (
	keyFrom       = "FROM"
	keyTag        = "TAG"
	keyMaintainer = "MAINTAINER"
	keyArgs       = "ARGS"
	keySteps      = "STEPS"
)

// Step keys.
const (
	keyBuildContext = "BUILDCONTEXT"
	keyCopy         = "COPY"
	keyRun          = "RUN"
	keyConfig       = "CONFIG"
	keyVolumes      = "VOLUMES"
	keySrc          = "SRC"
	keyDst          = "DST"
)

// A parsed but not yet materialized build document.
type Document struct {
	root Value
}

// Parses a recipe document.
//
// The document must be a YAML mapping at the top level. No template
// evaluation happens here; scalars keep their raw text until
// [Materialize] runs.
func Parse(data []byte) (*Document, error) {
	root, err := ParseValue(data)
	if err != nil {
		return nil, err
	}

	if root.Kind() != Mapping {
		return nil, fmt.Errorf("%w: document must be a mapping", ErrInvalidDocument)
	}

	return &Document{root: root}, nil
}

// Returns the raw ARGS section, or a zero Value when the document declares
// none. The section is consumed by the argument resolver and never
// templated.
func (d *Document) Args() Value {
	args, _ := d.root.Lookup(keyArgs)
	return args
}
