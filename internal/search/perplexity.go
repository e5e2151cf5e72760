package search

import (
	"context"

	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/pkg/perplexity"
)

// PerplexitySearcher answers search queries through Perplexity's
// web-grounded chat API.
type PerplexitySearcher struct {
	client perplexity.Client
	model  string
}

// NewPerplexitySearcher creates a web searcher backed by Perplexity.
func NewPerplexitySearcher(client perplexity.Client, searchModel string) *PerplexitySearcher {
	return &PerplexitySearcher{client: client, model: searchModel}
}

func (s *PerplexitySearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	resp, err := s.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: s.model,
		Messages: []perplexity.Message{
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, nil
	}

	// One result per paragraph keeps the shape consistent with the other
	// backends; citations ride along as sources where available.
	paragraphs := splitParagraphs(text)
	if len(paragraphs) > 5 {
		paragraphs = paragraphs[:5]
	}

	results := make([]model.SearchResult, 0, len(paragraphs))
	for i, p := range paragraphs {
		src := "perplexity"
		if i < len(resp.Citations) {
			src = resp.Citations[i]
		}
		results = append(results, model.SearchResult{
			Title:   titleFromText(p, 8),
			Snippet: p,
			Source:  src,
		})
	}
	return results, nil
}
