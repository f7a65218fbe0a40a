// Package utils provides shared utilities for text cleanup, math, and logging.
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlBrRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
	blanksRe  = regexp.MustCompile(`\n{3,}`)
)

// StripHTML replaces <br/> variants with newlines and removes all other
// markup tags. Legal full texts frequently carry markup line breaks instead
// of real blank lines.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}
	t := htmlBrRe.ReplaceAllString(text, "\n")
	return htmlTagRe.ReplaceAllString(t, "")
}

// NormalizeText unifies CRLF/CR to LF, collapses runs of spaces and tabs to
// a single space, collapses three or more newlines to a blank line, and
// trims the result.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")

	var b strings.Builder
	b.Grow(len(t))
	wasSpace := false
	for _, r := range t {
		if r != '\n' && unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	t = blanksRe.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(t)
}

// Clip returns s truncated to maxChars runes. Non-positive maxChars means
// no clipping.
func Clip(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if
// truncated. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
