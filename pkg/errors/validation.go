package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds feature names and tags coming from model files.
const maxNameLength = 256

// ValidateFeatureName validates a user supplied feature name.
// Names end up in log lines, DOT labels and model files, so the rules are
// conservative:
//   - No empty names
//   - No control characters (newlines break DOT labels)
//   - No double quotes
//   - Maximum length of 256 characters
func ValidateFeatureName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "feature name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "feature name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "feature name contains invalid control characters")
		}
	}

	if strings.Contains(name, `"`) {
		return New(ErrCodeInvalidInput, "feature name cannot contain double quotes")
	}

	return nil
}

// ValidateTag validates an input role such as "Target" or "Tool".
// Roles are identifiers: letters, digits, dash and underscore.
func ValidateTag(tag string) error {
	if tag == "" {
		return New(ErrCodeInvalidInput, "tag cannot be empty")
	}
	if len(tag) > maxNameLength {
		return New(ErrCodeInvalidInput, "tag too long (max %d characters)", maxNameLength)
	}
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return New(ErrCodeInvalidInput, "tag %q must be letters, digits, '-' or '_'", tag)
		}
	}
	return nil
}
