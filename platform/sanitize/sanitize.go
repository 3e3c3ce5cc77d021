// Package sanitize cleans text that crosses a trust boundary.
// This is part of the platform layer and contains no business logic.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxMessageRunes bounds messages relayed from third parties.
const MaxMessageRunes = 200

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripHTML removes HTML tags, decodes the common entities, then strips again
// so encoded tags do not survive.
func StripHTML(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = entities.Replace(s)
	s = htmlTagRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Message makes a remote error message safe to show: no markup, no control
// characters, whitespace collapsed, at most MaxMessageRunes runes.
func Message(s string) string {
	s = StripHTML(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if runes := []rune(s); len(runes) > MaxMessageRunes {
		s = string(runes[:MaxMessageRunes-1]) + "…"
	}
	return s
}
