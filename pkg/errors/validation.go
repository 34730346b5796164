package errors

import (
	"strings"
	"unicode"
)

// ValidateVariantSuffix validates a raster variant suffix such as "@4x".
// Suffixes become part of artifact file names, so they must not contain
// path separators, control characters or the extension separator.
func ValidateVariantSuffix(suffix string) error {
	if suffix == "" {
		return New(ErrCodeInvalidVariant, "variant suffix cannot be empty")
	}

	if len(suffix) > 64 {
		return New(ErrCodeInvalidVariant, "variant suffix too long (max 64 characters)")
	}

	for _, r := range suffix {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidVariant, "variant suffix contains invalid control characters")
		}
	}

	if strings.ContainsAny(suffix, "/\\.") {
		return New(ErrCodeInvalidVariant, "variant suffix %q cannot contain '/', '\\' or '.'", suffix)
	}

	return nil
}

// ValidateExtension validates a diagram source extension such as ".mmd".
func ValidateExtension(ext string) error {
	if len(ext) < 2 || ext[0] != '.' {
		return New(ErrCodeInvalidConfig, "extension %q must start with '.' and be non-empty", ext)
	}
	if strings.ContainsAny(ext[1:], "./\\*?[") {
		return New(ErrCodeInvalidConfig, "extension %q contains invalid characters", ext)
	}
	return nil
}
