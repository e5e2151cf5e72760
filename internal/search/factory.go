package search

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/pkg/perplexity"
	"github.com/sells-group/annobench/pkg/wikipedia"
)

// Backends bundles the clients the factory can build searchers from.
type Backends struct {
	// Engine backs the knowledge searcher; per-member committees pass each
	// member's own engine here.
	Engine     engine.Engine
	Perplexity perplexity.Client
	Wikipedia  wikipedia.Client
	// PerplexityModel selects the web-search model; empty uses the client
	// default.
	PerplexityModel string
}

// New builds the searcher named by kind: "knowledge", "wikipedia", or
// "perplexity".
func New(kind string, b Backends) (Searcher, error) {
	switch kind {
	case "knowledge":
		if b.Engine == nil {
			return nil, eris.New("search: knowledge searcher requires an engine")
		}
		return NewKnowledgeSearcher(b.Engine), nil
	case "wikipedia":
		client := b.Wikipedia
		if client == nil {
			client = wikipedia.NewClient()
		}
		return NewWikipediaSearcher(client), nil
	case "perplexity":
		if b.Perplexity == nil {
			return nil, eris.New("search: perplexity searcher requires a client")
		}
		return NewPerplexitySearcher(b.Perplexity, b.PerplexityModel), nil
	default:
		return nil, eris.Errorf("search: unknown backend %q", kind)
	}
}
