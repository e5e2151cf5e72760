// Package search provides the interchangeable search backends agents use
// to gather evidence: model knowledge, encyclopedia lookup, and web search.
package search

import (
	"context"
	"strings"

	"github.com/sells-group/annobench/internal/model"
)

// Searcher is the search port. Failures may surface as an error or as an
// empty result list; callers treat both as "no results".
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// titleFromText builds a short display title from the first words of a
// longer passage.
func titleFromText(text string, words int) string {
	fields := strings.Fields(text)
	if len(fields) > words {
		fields = fields[:words]
	}
	return strings.Join(fields, " ") + "..."
}
