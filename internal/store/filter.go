package store

import (
	"strings"

	"github.com/locodavid123/parcial1/internal/model"
)

// SearchTerms splits a search string into lower-cased words
func SearchTerms(search string) []string {
	return strings.Fields(strings.ToLower(search))
}

// MatchesSearch reports whether every term appears in the product name or description
func MatchesSearch(p *model.Product, terms []string) bool {
	text := strings.ToLower(p.Name + " " + p.Description)
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}
