package common

import (
	"fmt"
	"slices"

	"careerai/internal/errors"
	"careerai/internal/formatters"
)

// OutputFormats returns the formats a command may render: every format the
// registry renders, narrowed to allowed when allowed is non-empty.
func OutputFormats(registry *formatters.FormatterRegistry, allowed []string) []string {
	formats := registry.GetSupportedFormats()
	if len(allowed) == 0 {
		return formats
	}
	return slices.DeleteFunc(formats, func(f string) bool {
		return !slices.Contains(allowed, f)
	})
}

// ValidateOutputFormat reports an INVALID_FORMAT error unless format is one
// of OutputFormats(formatters.GlobalRegistry, allowed).
func ValidateOutputFormat(format string, allowed []string) error {
	formats := OutputFormats(formatters.GlobalRegistry, allowed)
	if slices.Contains(formats, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, formats), nil)
}
