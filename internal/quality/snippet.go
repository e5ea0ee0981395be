package quality

import (
	"regexp"
	"strings"
)

var (
	reEmail      = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	reLongNumber = regexp.MustCompile(`\b\d{5,}\b`)
)

// SanitizeSnippet collapses whitespace, masks email addresses and digit runs
// of five or more, and caps the result at maxChars runes plus an ellipsis.
func SanitizeSnippet(text string, maxChars int) string {
	if text == "" {
		return ""
	}
	s := strings.Join(strings.Fields(text), " ")
	s = reEmail.ReplaceAllString(s, "[email]")
	s = reLongNumber.ReplaceAllString(s, "[number]")
	if r := []rune(s); len(r) > maxChars {
		s = strings.TrimRight(string(r[:maxChars]), " \t\n") + "…"
	}
	return s
}
