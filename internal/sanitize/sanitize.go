// Package sanitize strips markup from user-controlled free text before it is
// persisted. Filenames, referers, block reasons, and diagnostic messages all
// end up rendered in the admin dashboard; running them through bluemonday's
// strict policy removes any embedded HTML so the log table cannot become a
// stored-XSS vector.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes all HTML elements and attributes, leaving text content only.
var strict = bluemonday.StrictPolicy()

// Text sanitizes a single line of user-controlled text: markup is stripped
// and surrounding whitespace trimmed.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// TextN sanitizes like Text and additionally truncates to at most n bytes,
// cutting on a rune boundary. Used for columns with a fixed VARCHAR width.
func TextN(s string, n int) string {
	s = Text(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
