// Package output provides the output formats of trx commands.
package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatJSON is the default output format
	FormatJSON Format = "json"

	// FormatYAML is the YAML output format
	FormatYAML Format = "yaml"

	// FormatHTML renders the full report as a standalone page
	FormatHTML Format = "html"
)

// ParseFormat parses a format string into a Format value.
// Accepts: "json", "yaml", "html" (case-insensitive)
// Returns an error for invalid format values.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected json, yaml, or html)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsStructured reports whether the format encodes arbitrary data.
func (f Format) IsStructured() bool {
	return f == FormatJSON || f == FormatYAML
}
