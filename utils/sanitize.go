package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Posts and comments are plain text: markup is stripped, never escaped into the stored value.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips every HTML element from input and returns the remaining text unescaped,
// so characters like & < > round-trip unchanged. JSON encoding escapes them on output.
func Sanitize(input string) string {
	return html.UnescapeString(sanitizer.Sanitize(input))
}

// SanitizeText trims surrounding whitespace and strips markup.
func SanitizeText(input string) string {
	return strings.TrimSpace(Sanitize(strings.TrimSpace(input)))
}
