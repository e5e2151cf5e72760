// Package grader judges semantic equivalence between a predicted answer and
// the ground truth. Grading fails closed: an answer the judge cannot grade
// is never credited as correct.
package grader

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/internal/resilience"
)

const gradingPrompt = `You are an impartial grader.

Question: %s
Predicted Answer: %s
Correct Answer: %s
%s
CRITICAL GRADING INSTRUCTIONS:
1. The predicted answer must match the CORRECT ANSWER
2. Look for EXACT name matches or clear references to the same entity
3. Consider different languages, translations, or alternative names as potential matches
4. Be strict: partial matches or vague similarities should be 'no'

IMPORTANT: Give ONLY one score:
- 'yes': The predicted answer correctly identifies the same entity as the correct answer
- 'no': The predicted answer is wrong, matches the popular answer, or refers to a different entity

Respond with ONLY 'yes' or 'no', nothing else.`

// Grader scores predicted answers with a judge engine.
type Grader struct {
	judge  engine.Engine
	folder cases.Caser
	retry  resilience.RetryConfig
}

// New creates a grader backed by the judge engine.
func New(judge engine.Engine) *Grader {
	return &Grader{
		judge:  judge,
		folder: cases.Fold(),
		retry:  resilience.DefaultRetryConfig(),
	}
}

// Grade reports whether predicted matches the problem's ground truth,
// along with the judge cost incurred. Trivially equal answers short-circuit
// without a judge call; judge failures resolve to false.
func (g *Grader) Grade(ctx context.Context, problem model.Problem, predicted string) (bool, float64) {
	if g.normalize(predicted) == g.normalize(problem.Answer) && strings.TrimSpace(predicted) != "" {
		return true, 0
	}

	popularLine := ""
	if problem.PopularWrong != "" {
		popularLine = fmt.Sprintf("Popular wrong Answer: %s\n", problem.PopularWrong)
	}
	prompt := fmt.Sprintf(gradingPrompt, problem.Question, predicted, problem.Answer, popularLine)

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("grader", g.judge.ID())

	completion, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*engine.Completion, error) {
		return g.judge.Complete(ctx, prompt)
	})
	if err != nil {
		zap.L().Error("grading failed, scoring as incorrect",
			zap.String("question", problem.Question),
			zap.Error(err))
		return false, 0
	}

	verdict := strings.ToLower(strings.TrimSpace(completion.Text))
	switch {
	case strings.Contains(verdict, "yes"):
		return true, completion.CostUSD
	case strings.Contains(verdict, "no"):
		return false, completion.CostUSD
	default:
		return false, completion.CostUSD
	}
}

// normalize canonicalizes an answer for the exact-match fast path: NFKC
// normalization, case folding, and whitespace collapse.
func (g *Grader) normalize(s string) string {
	folded := g.folder.String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}
