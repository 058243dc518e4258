package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxTextBytes bounds a single analysed text.
const MaxTextBytes = 64 << 10

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N} _.@-]{1,64}$`)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateUsername accepts an empty name (anonymous) or up to 64 letters,
// digits, spaces and _.@- characters.
func ValidateUsername(name string) error {
	if name == "" {
		return nil
	}
	if !usernamePattern.MatchString(name) {
		return fmt.Errorf("invalid username format (letters, digits, space, _.@- only, max 64 chars)")
	}
	return nil
}

// ValidateText rejects oversized inputs. Empty text is checked by the use-case.
func ValidateText(text string) error {
	if len(text) > MaxTextBytes {
		return fmt.Errorf("text too long (max %d bytes)", MaxTextBytes)
	}
	return nil
}
