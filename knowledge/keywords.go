package knowledge

import (
	"strings"

	"leaddesk/tools"
)

// stopwords are ignored when scoring keyword overlap.
var stopwords = map[string]bool{
	"de": true, "la": true, "el": true, "los": true, "las": true, "un": true, "una": true,
	"y": true, "o": true, "que": true, "en": true, "por": true, "para": true, "con": true,
	"es": true, "del": true, "al": true, "me": true, "mi": true, "tu": true, "se": true,
	"the": true, "a": true, "an": true, "of": true, "to": true, "and": true, "or": true,
	"is": true, "are": true, "for": true, "in": true, "on": true, "what": true, "how": true,
	"s": true, "it": true, "do": true, "you": true, "i": true,
}

func queryTerms(query string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(tools.Fold(query)) {
		if stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// keywordScore returns the share of query terms found in the folded
// document, in [0, 1]. Explicit keywords (possibly multi-word) count double.
func keywordScore(terms []string, keywords []string, body string) float64 {
	if len(terms) == 0 {
		return 0
	}
	folded := tools.Fold(body)
	hits := 0.0
	for _, t := range terms {
		if tools.HasPhrase(folded, t) {
			hits++
		}
	}
	query := strings.Join(terms, " ")
	for _, k := range keywords {
		if k = tools.Fold(k); k != "" && tools.HasPhrase(query, k) {
			hits += 2
		}
	}
	score := hits / float64(len(terms)+2)
	if score > 1 {
		score = 1
	}
	return score
}
