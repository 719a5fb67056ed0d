// Package sanitize cleans transcript text before phonemization.
package sanitize

import (
	"regexp"
	"strings"
)

// Non-greedy so adjacent spans are removed independently. Like the upstream
// annotation conventions, spans never cross line boundaries.
var (
	braceSpan     = regexp.MustCompile(`\{.*?\}`)
	angleSpan     = regexp.MustCompile(`<.*?>`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Clean removes {...} and <...> annotation spans, collapses whitespace runs
// to single spaces, and trims the result. Unterminated spans are left alone.
func Clean(text string) string {
	text = braceSpan.ReplaceAllString(text, " ")
	text = angleSpan.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
