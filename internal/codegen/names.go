package codegen

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultBaseName = "Strategy"

// BaseName turns a strategy name into the stem used for the exported file
// names: accents are stripped, anything outside [A-Za-z0-9_-] becomes an
// underscore, and runs of underscores collapse.
func BaseName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, name)
	if err != nil {
		ascii = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(ascii) {
		ok := r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
		if !ok {
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
			continue
		}
		b.WriteRune(r)
		lastUnderscore = false
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return defaultBaseName
	}
	return out
}
