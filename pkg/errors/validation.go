package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeName validates a source node name.
// Source names become target identifiers after sanitizing, so the rules only
// reject what cannot survive that step:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "node name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "node name contains invalid control characters")
		}
	}

	return nil
}

// materialNameRegex matches material names that can be used as file stems.
var materialNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]*$`)

// ValidateMaterialName validates a material name.
// Material names are used for node graph names and output file stems.
func ValidateMaterialName(name string) error {
	if err := ValidateNodeName(name); err != nil {
		return New(ErrCodeInvalidName, "material %s", UserMessage(err))
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "material name cannot contain path traversal sequences (..)")
	}

	if !materialNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid material name: %q", name)
	}

	return nil
}

// ValidatePath validates a relative file path referenced from a graph,
// such as an image texture's file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateCategory validates a source category tag.
func ValidateCategory(category string) error {
	if category == "" {
		return New(ErrCodeInvalidInput, "category cannot be empty")
	}
	if strings.ContainsFunc(category, unicode.IsSpace) {
		return New(ErrCodeInvalidInput, "category cannot contain whitespace: %q", category)
	}
	return nil
}
