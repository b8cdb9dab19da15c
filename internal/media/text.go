package media

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// mentionRegex matches @handles.
	mentionRegex = regexp.MustCompile(`@[\pL\pN_]+`)

	// urlRegex matches bare http(s) URLs up to the next whitespace.
	urlRegex = regexp.MustCompile(`https?://\S+`)

	// separatorRegex matches runs of name separators.
	separatorRegex = regexp.MustCompile(`[_\-.+]+`)

	// tokenRegex matches indexable words.
	tokenRegex = regexp.MustCompile(`[\pL\pN]+`)
)

// CleanText strips @mentions and URLs, turns separator runs into spaces,
// collapses whitespace and trims. CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = mentionRegex.ReplaceAllString(s, "")
	s = urlRegex.ReplaceAllString(s, "")
	s = separatorRegex.ReplaceAllString(s, " ")
	return NormalizeSpace(s)
}

// NormalizeSpace trims s and collapses internal whitespace to single spaces.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeForMatch prepares s for similarity scoring: lowercase,
// punctuation removed, whitespace collapsed.
func NormalizeForMatch(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return NormalizeSpace(s)
}

// Tokens returns the distinct lower-cased words of s in order of first use.
// Tokens contain only letters and digits, so they are safe to embed in
// full-text query syntax.
func Tokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenRegex.FindAllString(strings.ToLower(s), -1) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
