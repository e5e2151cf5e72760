package engine

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/cost"
	"github.com/sells-group/annobench/pkg/anthropic"
)

// AnthropicEngine completes prompts through the Anthropic messages API.
type AnthropicEngine struct {
	id        string
	model     string
	maxTokens int64
	client    anthropic.Client
	calc      *cost.Calculator
}

// NewAnthropicEngine creates an engine for the given Claude model.
func NewAnthropicEngine(id, model string, maxTokens int64, client anthropic.Client, calc *cost.Calculator) *AnthropicEngine {
	return &AnthropicEngine{
		id:        id,
		model:     model,
		maxTokens: maxTokens,
		client:    client,
		calc:      calc,
	}
}

func (e *AnthropicEngine) ID() string { return e.id }

func (e *AnthropicEngine) Complete(ctx context.Context, prompt string) (*Completion, error) {
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "engine: %s complete", e.id)
	}

	return &Completion{
		Text: resp.Text(),
		CostUSD: e.calc.Claude(e.model,
			resp.Usage.InputTokens,
			resp.Usage.OutputTokens,
			resp.Usage.CacheCreationInputTokens,
			resp.Usage.CacheReadInputTokens),
	}, nil
}
