package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// prefixRegex matches module and screen prefixes. Prefixes end up in file
// names and registration keys, so they stay short and filesystem-safe.
var prefixRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

// ValidatePrefix validates a module or screen prefix.
//
// Underscores are rejected because "<module>_<screen>" is used as the
// registration key and ledger name; an underscore inside a prefix would let
// two different pairs produce the same key.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidPrefix, "prefix cannot be empty")
	}
	if len(prefix) > 64 {
		return New(ErrCodeInvalidPrefix, "prefix too long (max 64 characters): %q", prefix)
	}
	if !prefixRegex.MatchString(prefix) {
		return New(ErrCodeInvalidPrefix, "invalid prefix: %q (letters, digits and dashes only)", prefix)
	}
	return nil
}

// ValidatePath validates a path taken from a config file.
// It must be relative to the directory the config lives in.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No backslashes (Windows-style paths)
//
// Parent references ("..") are allowed: module directories commonly point at
// sibling packages in a monorepo.
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /): %q", path)
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes: %q", path)
	}

	return nil
}

// ValidateDeeplink validates a deeplink route. Empty routes are allowed and
// mean the screen has no deeplink.
func ValidateDeeplink(route string) error {
	for _, r := range route {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidConfig, "deeplink contains whitespace or control characters: %q", route)
		}
	}
	return nil
}
