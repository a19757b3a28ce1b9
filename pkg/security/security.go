// Package security provides validation, sanitization, and limits for the blockguard package.
package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Security limits and configuration
const (
	// MaxNameLength is the maximum length for class and method names
	MaxNameLength = 255

	// MaxResourceNameLength is the maximum length for resource names
	MaxResourceNameLength = 255

	// MaxErrorMessageLength is the maximum length for stored block messages
	MaxErrorMessageLength = 4096

	// MaxListLimit is the hard limit for block log queries
	MaxListLimit = 1000

	// DefaultListLimit is used when a query does not set a limit
	DefaultListLimit = 100
)

// Validation errors
var (
	ErrInvalidName         = errors.New("blockguard: invalid name (must be an identifier)")
	ErrNameTooLong         = errors.New("blockguard: name too long")
	ErrInvalidResourceName = errors.New("blockguard: invalid resource name")
	ErrResourceNameTooLong = errors.New("blockguard: resource name too long")
)

// validName matches Go-style identifiers
var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validResourceName matches alphanumeric, hyphens, underscores, dots, colons and slashes
var validResourceName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-\.:/]*$`)

// ValidateName validates a class or method name
func ValidateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !validName.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// ValidateResourceName validates a resource name
func ValidateResourceName(name string) error {
	if name == "" {
		return ErrInvalidResourceName
	}
	if len(name) > MaxResourceNameLength {
		return ErrResourceNameTooLong
	}
	if !validResourceName.MatchString(name) {
		return ErrInvalidResourceName
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampListLimit ensures a query limit is within (0, MaxListLimit]
func ClampListLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}
