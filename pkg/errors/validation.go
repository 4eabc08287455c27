package errors

import (
	"strings"
	"unicode"
)

// ValidateItemID validates an item identifier for safety and correctness.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences (ids become file and cache
//     key components)
//   - Maximum length of 128 characters
func ValidateItemID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDataset, "item id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidDataset, "item id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDataset, "item id contains control characters: %q", id)
		}
	}

	dangerousPatterns := []string{"..", "/", "\\", "\x00"}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidDataset, "item id contains invalid sequence %q: %q", pattern, id)
		}
	}

	return nil
}

// ValidatePresetName validates a weight preset name.
// Preset names appear in variant filenames and cache keys, so the same
// conservative rules apply as for item ids.
func ValidatePresetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPreset, "preset name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\ \t\n") {
		return New(ErrCodeInvalidPreset, "preset name cannot contain path separators or whitespace: %q", name)
	}
	return nil
}
