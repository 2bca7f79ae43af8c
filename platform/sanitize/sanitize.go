// Package sanitize cleans untrusted text before it is embedded in model prompts.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes tags, decodes entities and strips again so encoded tags
// do not survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// StripControl drops control characters except newlines and tabs.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// Truncate cuts s to maxRunes runes and appends suffix when it was longer.
func Truncate(s string, maxRunes int, suffix string) string {
	if maxRunes < 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i] + suffix
		}
		count++
	}
	return s
}

// Text strips HTML and control characters and trims the result.
func Text(s string) string {
	return strings.TrimSpace(StripControl(StripHTML(s)))
}
