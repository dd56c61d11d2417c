package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Renders a scalar value as a string.
//
// Strings pass through unchanged; numbers and booleans use their canonical
// text form. Non-scalar values fall back to strconv-style quoting of their
// default formatting, but resolved variable sets only ever hold scalars.
func Render(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Applies format and conversion annotations to a resolved value.
//
// The conversion runs after the format, matching the {ref:format!conv}
// grammar. Either annotation may be empty.
func annotate(value any, format, conv string) (string, error) {
	rendered := Render(value)

	if format != "" {
		formatted, err := applyFormat(rendered, format)
		if err != nil {
			return "", err
		}
		rendered = formatted
	}

	if conv != "" {
		converted, err := applyConversion(rendered, conv)
		if err != nil {
			return "", err
		}
		rendered = converted
	}

	return rendered, nil
}

// Applies a format spec of the shape [[fill]align][width][.precision].
//
// Alignment is one of '<', '>', '^' with an optional fill character before
// it. Width pads, precision truncates. The default alignment is left.
func applyFormat(s, spec string) (string, error) {
	fill := byte(' ')
	align := byte('<')
	rest := spec

	switch {
	case len(rest) >= 2 && isAlign(rest[1]):
		fill = rest[0]
		align = rest[1]
		rest = rest[2:]
	case len(rest) >= 1 && isAlign(rest[0]):
		align = rest[0]
		rest = rest[1:]
	}

	width := 0
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		width = width*10 + int(rest[0]-'0')
		rest = rest[1:]
	}

	if len(rest) > 0 && rest[0] == '.' {
		precision, err := strconv.Atoi(rest[1:])
		if err != nil {
			return "", &AnnotationError{Spec: spec}
		}
		if precision < len(s) {
			s = s[:precision]
		}
		rest = ""
	}

	if rest != "" {
		return "", &AnnotationError{Spec: spec}
	}

	if pad := width - len(s); pad > 0 {
		padding := strings.Repeat(string(fill), pad)
		switch align {
		case '<':
			s += padding
		case '>':
			s = padding + s
		case '^':
			left := pad / 2
			s = padding[:left] + s + padding[left:]
		}
	}

	return s, nil
}

func isAlign(c byte) bool {
	return c == '<' || c == '>' || c == '^'
}

// Applies a conversion spec: "s" is the identity, "r" and "q" quote the
// value Go-style.
func applyConversion(s, conv string) (string, error) {
	switch conv {
	case "s":
		return s, nil
	case "r", "q":
		return strconv.Quote(s), nil
	default:
		return "", &AnnotationError{Spec: "!" + conv}
	}
}
