package search

import (
	"context"

	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/pkg/wikipedia"
)

const maxSnippetLen = 300

// WikipediaSearcher answers search queries from MediaWiki intro extracts.
type WikipediaSearcher struct {
	client wikipedia.Client
}

// NewWikipediaSearcher creates an encyclopedia searcher.
func NewWikipediaSearcher(client wikipedia.Client) *WikipediaSearcher {
	return &WikipediaSearcher{client: client}
}

func (s *WikipediaSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	pages, err := s.client.Search(ctx, query, 5)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(pages))
	for _, p := range pages {
		snippet := p.Extract
		if len(snippet) > maxSnippetLen {
			snippet = snippet[:maxSnippetLen]
		}
		results = append(results, model.SearchResult{
			Title:   p.Title,
			Snippet: snippet,
			Source:  p.URL,
		})
	}
	return results, nil
}
