package engine

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/annobench/internal/config"
	"github.com/sells-group/annobench/internal/cost"
	"github.com/sells-group/annobench/pkg/anthropic"
	"github.com/sells-group/annobench/pkg/perplexity"
)

// EngineSpec describes one catalog entry.
type EngineSpec struct {
	ID        string `yaml:"id"`
	Provider  string `yaml:"provider"` // anthropic|perplexity
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// Catalog is the set of engines available to the system.
type Catalog struct {
	Engines []EngineSpec `yaml:"engines"`
}

// LoadCatalog reads an engines.yaml catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "engine: read catalog")
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, eris.Wrap(err, "engine: parse catalog")
	}

	for _, spec := range cat.Engines {
		if spec.ID == "" || spec.Provider == "" || spec.Model == "" {
			return nil, eris.Errorf("engine: catalog entry missing id, provider, or model: %+v", spec)
		}
	}

	return &cat, nil
}

// DefaultCatalog returns the built-in engine catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Engines: []EngineSpec{
			{ID: "claude-sonnet", Provider: "anthropic", Model: "claude-sonnet-4-5-20250929", MaxTokens: 1024},
			{ID: "claude-haiku", Provider: "anthropic", Model: "claude-haiku-4-5-20251001", MaxTokens: 1024},
			{ID: "claude-opus", Provider: "anthropic", Model: "claude-opus-4-6", MaxTokens: 1024},
			{ID: "sonar-pro", Provider: "perplexity", Model: "sonar-pro"},
		},
	}
}

// BuildRegistry constructs engines for every catalog entry using the
// configured API clients.
func BuildRegistry(cat *Catalog, cfg *config.Config, calc *cost.Calculator) (*Registry, error) {
	var (
		anthropicClient anthropic.Client
		perplexClient   perplexity.Client
	)

	reg := NewRegistry()
	for _, spec := range cat.Engines {
		switch spec.Provider {
		case "anthropic":
			if anthropicClient == nil {
				anthropicClient = anthropic.NewClient(cfg.Anthropic.Key)
			}
			maxTokens := spec.MaxTokens
			if maxTokens == 0 {
				maxTokens = cfg.Anthropic.MaxTokens
			}
			reg.Register(NewAnthropicEngine(spec.ID, spec.Model, maxTokens, anthropicClient, calc))
		case "perplexity":
			if perplexClient == nil {
				opts := []perplexity.Option{}
				if cfg.Perplexity.BaseURL != "" {
					opts = append(opts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
				}
				perplexClient = perplexity.NewClient(cfg.Perplexity.Key, opts...)
			}
			reg.Register(NewPerplexityEngine(spec.ID, spec.Model, perplexClient, calc))
		default:
			return nil, eris.Errorf("engine: unknown provider %q for engine %q", spec.Provider, spec.ID)
		}
	}

	return reg, nil
}
