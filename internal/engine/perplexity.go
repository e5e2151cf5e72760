package engine

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/cost"
	"github.com/sells-group/annobench/pkg/perplexity"
)

// PerplexityEngine completes prompts through the Perplexity chat API.
type PerplexityEngine struct {
	id     string
	model  string
	client perplexity.Client
	calc   *cost.Calculator
}

// NewPerplexityEngine creates an engine for the given Perplexity model.
func NewPerplexityEngine(id, model string, client perplexity.Client, calc *cost.Calculator) *PerplexityEngine {
	return &PerplexityEngine{
		id:     id,
		model:  model,
		client: client,
		calc:   calc,
	}
}

func (e *PerplexityEngine) ID() string { return e.id }

func (e *PerplexityEngine) Complete(ctx context.Context, prompt string) (*Completion, error) {
	resp, err := e.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: e.model,
		Messages: []perplexity.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "engine: %s complete", e.id)
	}

	return &Completion{
		Text:    resp.Text(),
		CostUSD: e.calc.PerplexityQuery(),
	}, nil
}
