package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CompressAllWhitespace folds presence text onto one line: every run of
// spaces, tabs or line breaks becomes a single space and the ends are trimmed.
func CompressAllWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// TruncateString cuts s to maxLength runes and appends marker when it was longer.
// The result never exceeds maxLength plus the marker length.
func TruncateString(s string, maxLength int, marker string) string {
	if maxLength <= 0 || utf8.RuneCountInString(s) <= maxLength {
		return s
	}

	runes := []rune(s)
	return string(runes[:maxLength]) + marker
}
