package clarifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
)

const judgePrompt = `You are a specialized Q&A agent. Please carefully read the complete CONTEXT content below, then answer the question based solely on the information contained within it.

CONTEXT:
%s

IMPORTANT RULES:
1. You can only answer with one of three responses: Yes / No / idk
2. You must strictly base your judgment on the exact information in the above CONTEXT
3. If the CONTEXT does not clearly mention relevant information, you must answer "idk"
4. Carefully read the entire CONTEXT and consider all information before giving your answer
5. Do not speculate or add information that is not in the CONTEXT
6. Only output the answer itself, do not provide explanations

Question: %s

Answer:`

// LLMResponder judges each clarification question against the hidden
// context with a model call, constrained to Yes/No/idk.
type LLMResponder struct {
	judge   engine.Engine
	context string
}

// NewLLMResponder creates a hard-mode responder backed by the judge engine.
func NewLLMResponder(judge engine.Engine) *LLMResponder {
	return &LLMResponder{judge: judge}
}

func (r *LLMResponder) Reset(p model.Problem) {
	r.context = p.ContextText()
}

// Respond answers yes/no/idk. Judge failures and anything outside the
// allowed response space degrade to "idk"; the agent never sees an error
// from this mode.
func (r *LLMResponder) Respond(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" || r.context == "" {
		return "idk", nil
	}

	completion, err := r.judge.Complete(ctx, fmt.Sprintf(judgePrompt, r.context, q))
	if err != nil {
		zap.L().Warn("clarifier judge failed", zap.Error(err))
		return "idk", nil
	}

	return parseJudgeResponse(completion.Text), nil
}

func parseJudgeResponse(response string) string {
	lower := strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.Contains(lower, "yes"):
		return "Yes"
	case strings.Contains(lower, "no"):
		return "No"
	default:
		return "idk"
	}
}
