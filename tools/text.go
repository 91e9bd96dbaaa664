package tools

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and collapses every run of
// characters that are not letters or digits into a single space, so
// "¿Cuánto   cuesta?" becomes "cuanto cuesta".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := true
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// HasPhrase reports whether the folded phrase occurs in folded text on word
// boundaries. Both arguments must already be folded.
func HasPhrase(folded, phrase string) bool {
	if phrase == "" || folded == "" {
		return false
	}
	return strings.Contains(" "+folded+" ", " "+phrase+" ")
}

// RemovePhrase blanks every word-bounded occurrence of phrase in folded text.
func RemovePhrase(folded, phrase string) string {
	if phrase == "" {
		return folded
	}
	padded := " " + folded + " "
	for strings.Contains(padded, " "+phrase+" ") {
		padded = strings.Replace(padded, " "+phrase+" ", " ", 1)
	}
	return strings.Join(strings.Fields(padded), " ")
}
