package recipe

import (
	"errors"
	"fmt"
)

// Returned when a document cannot be decoded at all.
var ErrInvalidDocument = errors.New("invalid document")

// Describes an invalid build configuration: a malformed section, an
// unresolvable template expression, or a missing required key. The path
// locates the offending node in the document and carries no semantic
// weight beyond the error message.
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func configErrorf(path, format string, a ...any) *ConfigError {
	return &ConfigError{Path: path, Msg: fmt.Sprintf(format, a...)}
}
