package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized
}

// TrimPtr trims an optional identifier without changing its case.
func TrimPtr(input *string) string {
	if input == nil {
		return ""
	}
	return strings.TrimSpace(*input)
}
