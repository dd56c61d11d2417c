package args

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

// Decodes an obfuscated default. Obfuscation is base64 over UTF-8 text;
// anything that does not decode to valid text is rejected.
func decodeObfuscated(name, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: obfuscated default of argument %q is not valid base64", ErrInvalidValue, name)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: obfuscated default of argument %q does not decode to text", ErrInvalidValue, name)
	}
	return string(raw), nil
}
