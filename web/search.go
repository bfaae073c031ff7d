package web

import (
	"github.com/sahilm/fuzzy"
)

const maxSearchResults = 50

// rankByName fuzzy-matches query against names and returns the indices of
// the best matches, best first, capped at maxSearchResults.
func rankByName(query string, names []string) []int {
	matches := fuzzy.Find(query, names)
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Index)
	}
	return out
}
