package args

import (
	"errors"
	"testing"

	"github.com/kilnhq/kiln/internal/recipe"
)

func parseValue(t *testing.T, doc string) recipe.Value {
	t.Helper()

	v, err := recipe.ParseValue([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return v
}

func TestParseDeclarationsEmpty(t *testing.T) {
	decls, err := ParseDeclarations(recipe.Value{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decls) != 0 {
		t.Fatalf("expected no declarations, got %d", len(decls))
	}
}

func TestParseDeclarationsOrder(t *testing.T) {
	v := parseValue(t, `
ZETA:
  DEFAULT: z
ALPHA:
  DEFAULT: a
MIDDLE:
  DEFAULT: m
`)

	decls, err := ParseDeclarations(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"ZETA", "ALPHA", "MIDDLE"}
	if len(decls) != len(want) {
		t.Fatalf("expected %d declarations, got %d", len(want), len(decls))
	}
	for i, name := range want {
		if decls[i].Name != name {
			t.Fatalf("expected declaration %d to be %q, got %q", i, name, decls[i].Name)
		}
	}
}

func TestParseDeclarationAttributes(t *testing.T) {
	v := parseValue(t, `
REGION:
  REQUIRED: false
  DEFAULT: eu-west-1
  CHOICES:
    - eu-west-1
    - us-east-1
  MAPS:
    - NAME: REGISTRY
      VALUES:
        eu-west-1: registry.eu.example.com
      DEFAULT: registry.example.com
`)

	decls, err := ParseDeclarations(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decls) != 1 {
		t.Fatalf("expected one declaration, got %d", len(decls))
	}

	decl := decls[0]
	if decl.Required {
		t.Fatalf("expected REQUIRED to be false")
	}
	if !decl.HasDefault || decl.Default != "eu-west-1" {
		t.Fatalf("expected default eu-west-1, got %v", decl.Default)
	}
	if len(decl.Choices) != 2 {
		t.Fatalf("expected two choices, got %d", len(decl.Choices))
	}
	if len(decl.Mappings) != 1 {
		t.Fatalf("expected one mapping, got %d", len(decl.Mappings))
	}

	m := decl.Mappings[0]
	if m.Name != "REGISTRY" {
		t.Fatalf("expected mapping name REGISTRY, got %q", m.Name)
	}
	if len(m.Values) != 1 || m.Values[0].Key != "eu-west-1" {
		t.Fatalf("unexpected mapping values: %v", m.Values)
	}
	if !m.HasDefault || m.Default != "registry.example.com" {
		t.Fatalf("unexpected mapping default: %v", m.Default)
	}
}

func TestParseDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "args not a mapping", doc: `- one`},
		{name: "declaration not a mapping", doc: "NAME: just-a-string"},
		{name: "required not a boolean", doc: "NAME:\n  REQUIRED: yes please"},
		{name: "default not a scalar", doc: "NAME:\n  DEFAULT:\n    - a"},
		{name: "choices not a list", doc: "NAME:\n  CHOICES: a"},
		{name: "choice not a scalar", doc: "NAME:\n  CHOICES:\n    - k: v"},
		{name: "maps not a list", doc: "NAME:\n  MAPS: REGISTRY"},
		{name: "mapping without name", doc: "NAME:\n  MAPS:\n    - VALUES:\n        a: b"},
		{name: "mapping values not a mapping", doc: "NAME:\n  MAPS:\n    - NAME: REGISTRY\n      VALUES:\n        - a"},
		{name: "mapping default not a scalar", doc: "NAME:\n  MAPS:\n    - NAME: REGISTRY\n      DEFAULT:\n        - a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parseValue(t, tt.doc)
			if _, err := ParseDeclarations(v, true); !errors.Is(err, ErrInvalidDeclaration) {
				t.Fatalf("expected ErrInvalidDeclaration, got %v", err)
			}
		})
	}
}

func TestParseDeclarationObfuscatedRequiresPermission(t *testing.T) {
	v := parseValue(t, `
TOKEN:
  DEFAULT: c2VjcmV0
  OBFUSCATED: true
`)

	decls, err := ParseDeclarations(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decls[0].Obfuscated {
		t.Fatalf("expected OBFUSCATED to be ignored outside the global config")
	}

	decls, err = ParseDeclarations(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decls[0].Obfuscated {
		t.Fatalf("expected OBFUSCATED to be honored in the global config")
	}
}
