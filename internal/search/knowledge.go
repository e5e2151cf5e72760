package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
)

const knowledgePrompt = `You are a knowledge search engine. Provide accurate, factual information about the query.

Query: %s

Please provide 3-5 distinct, concise points. Each point should be a standalone fact or insight useful for answering questions about this topic.

Focus on:
1. Key facts and characteristics
2. Notable examples or instances
3. Distinguishing features
4. Historical context (if relevant)
5. Related concepts or comparisons

Keep each point specific and concrete.`

const knowledgeSource = "llm_internal_knowledge"

// KnowledgeSearcher answers search queries from a model's parametric
// knowledge instead of an external index.
type KnowledgeSearcher struct {
	eng engine.Engine
}

// NewKnowledgeSearcher creates a knowledge searcher backed by the given engine.
func NewKnowledgeSearcher(eng engine.Engine) *KnowledgeSearcher {
	return &KnowledgeSearcher{eng: eng}
}

// Search prompts the engine and splits its answer into up to five results,
// one per paragraph. An engine failure degrades to a single placeholder
// result rather than an error so the agent can move on.
func (s *KnowledgeSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	completion, err := s.eng.Complete(ctx, fmt.Sprintf(knowledgePrompt, query))
	if err != nil {
		zap.L().Warn("knowledge search failed",
			zap.String("query", query),
			zap.Error(err))
		return []model.SearchResult{{
			Title:   "Search: " + query,
			Snippet: "Knowledge search temporarily unavailable. Please try a different search approach.",
			Source:  knowledgeSource,
		}}, nil
	}

	paragraphs := splitParagraphs(completion.Text)
	if len(paragraphs) > 5 {
		paragraphs = paragraphs[:5]
	}

	results := make([]model.SearchResult, 0, len(paragraphs))
	for _, p := range paragraphs {
		results = append(results, model.SearchResult{
			Title:   titleFromText(p, 8),
			Snippet: p,
			Source:  knowledgeSource,
		})
	}
	return results, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
