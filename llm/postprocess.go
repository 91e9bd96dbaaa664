package llm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	headingRe    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	blankRunRe   = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	trailingWSRe = regexp.MustCompile(`(?m)[ \t]+$`)
	emphasisRepl = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")
)

// Clean turns raw model output into plain chat text: no markdown emphasis or
// headings, at most one blank line in a row, first letter upper-cased and a
// closing period when the text ends in a letter or digit.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = emphasisRepl.Replace(s)
	s = headingRe.ReplaceAllString(s, "")
	s = trailingWSRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
		if unicode.IsDigit(r) {
			break
		}
	}
	if last := runes[len(runes)-1]; unicode.IsLetter(last) || unicode.IsDigit(last) {
		runes = append(runes, '.')
	}
	return string(runes)
}
