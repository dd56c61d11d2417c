package args

import "errors"

var (
	// Returned when a required argument has no value, or an optional one
	// declares no default.
	ErrMissingArgument = errors.New("missing argument")

	// Returned when an argument's value fails validation: not among the
	// declared choices, or an obfuscated value that does not decode.
	ErrInvalidValue = errors.New("invalid argument value")

	// Returned when a mapping cannot produce a value: the source value
	// matches no key and no default is declared, or the mapped result is
	// not a scalar.
	ErrInvalidMapping = errors.New("invalid argument mapping")

	// Returned for structurally invalid ARGS declarations.
	ErrInvalidDeclaration = errors.New("invalid argument declaration")
)
