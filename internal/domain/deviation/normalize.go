package deviation

import "strings"

// SelectPrompt is the literal placeholder the UI dropdowns emit for "no choice".
const SelectPrompt = "— Selecione —"

// NormalizeField canonicalizes a raw field value: trims whitespace and maps
// the placeholder sentinels ("none", "nat" and the select prompt,
// case-insensitively) to the empty string. This is the single normalization
// boundary; reason and note values must pass through here before any
// comparison or validation.
func NormalizeField(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "none", "nat", strings.ToLower(SelectPrompt):
		return ""
	}
	return trimmed
}

// IsBlank reports whether a raw value normalizes to empty.
func IsBlank(raw string) bool {
	return NormalizeField(raw) == ""
}
