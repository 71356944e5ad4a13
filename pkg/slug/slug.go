package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonWord       = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// special letters that do not decompose into base letter + combining mark.
var special = strings.NewReplacer(
	"ı", "i", "ø", "o", "ł", "l", "đ", "d", "ß", "ss", "æ", "ae", "œ", "oe",
)

// Generate derives the URL slug for a display name: lowercase, diacritics
// transliterated to ASCII, every whitespace run replaced by a single hyphen,
// then every character outside [a-z0-9_-] removed.
//
// Examples:
//   - "No Nasties" → "no-nasties"
//   - "Dr. Bronner's" → "dr-bronners"
//   - "Café Ñandú" → "cafe-nandu"
//
// Hyphens produced by separate whitespace runs are not merged, so "a & b"
// becomes "a--b". Two names therefore map to the same slug only when they
// differ solely in case, accents, punctuation or whitespace width.
func Generate(name string) string {
	s := strings.ToLower(name)
	s = special.Replace(s)
	s = fold(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonWord.ReplaceAllString(s, "")
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
