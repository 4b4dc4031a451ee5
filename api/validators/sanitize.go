package validators

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicy = bluemonday.StrictPolicy()
	richPolicy  = bluemonday.UGCPolicy()
)

// SanitizeString strips all markup, trims, and truncates to maxLen bytes.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(input)))
	if maxLen > 0 && len(cleaned) > maxLen {
		cleaned = strings.TrimSpace(truncateRunes(cleaned, maxLen))
	}
	return cleaned
}

// SanitizeHTML keeps formatting markup safe for rendering user-authored content.
func SanitizeHTML(input string) string {
	return strings.TrimSpace(richPolicy.Sanitize(input))
}

func truncateRunes(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxLen {
			break
		}
		cut = i
	}
	return s[:cut]
}
