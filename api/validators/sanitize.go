package validators

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// SanitizeString trims, collapses inner whitespace and caps the result at maxLen runes.
// Customer names and search terms are free text, so the cut never splits a character.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxLen]))
}

// QueryString reads a sanitized query parameter.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
