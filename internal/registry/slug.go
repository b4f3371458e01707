package registry

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugTransformer decomposes unicode and strips combining marks, so accented
// project names become plain ASCII path components.
var slugTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug converts a project name to a stable, URL- and path-safe component.
// The same name always yields the same slug.
func Slug(name string) string {
	folded, _, err := transform.String(slugTransformer, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	lastDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
