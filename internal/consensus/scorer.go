// Package consensus runs a committee of independent engines against each
// problem and reduces their verdicts into one annotation-quality signal.
package consensus

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/annobench/internal/agent"
	"github.com/sells-group/annobench/internal/model"
)

// MemberRunner executes one committee member's agent run and grades its
// answer. Implementations must be safe to call concurrently for different
// engine IDs.
type MemberRunner interface {
	RunMember(ctx context.Context, engineID string, problem model.Problem) (model.ModelVerdict, error)
}

// Scorer fans a problem out to every committee member and aggregates the
// graded verdicts.
type Scorer struct {
	runner    MemberRunner
	committee []string
	threshold int
}

// NewScorer creates a consensus scorer over the given committee. threshold
// is the minimum correct count that marks an annotation as quality-failed.
func NewScorer(runner MemberRunner, committee []string, threshold int) *Scorer {
	if threshold <= 0 {
		threshold = 2
	}
	return &Scorer{runner: runner, committee: committee, threshold: threshold}
}

// Score runs every committee member concurrently and reduces their verdicts
// after all have resolved. A member failure is isolated to its own verdict;
// Score itself never fails.
func (s *Scorer) Score(ctx context.Context, problem model.Problem) model.ConsensusResult {
	verdicts := make([]model.ModelVerdict, len(s.committee))

	g, ctx := errgroup.WithContext(ctx)
	for i, engineID := range s.committee {
		g.Go(func() error {
			verdict, err := s.runner.RunMember(ctx, engineID, problem)
			if err != nil {
				zap.L().Warn("committee member failed",
					zap.String("engine", engineID),
					zap.String("question", problem.Question),
					zap.Error(err))
				verdict = model.ModelVerdict{
					EngineID:        engineID,
					PredictedAnswer: "Evaluation failed",
					Err:             err.Error(),
				}
			}
			verdicts[i] = verdict
			return nil
		})
	}
	_ = g.Wait() // members never return errors

	result := model.ConsensusResult{Problem: problem, Verdicts: verdicts}
	result.Finalize(s.threshold)

	zap.L().Info("consensus scored",
		zap.String("question", problem.Question),
		zap.Int("correct_count", result.CorrectCount),
		zap.Bool("quality_failed", result.QualityFailed),
		zap.Float64("total_cost_usd", result.TotalCostUSD))

	return result
}

// Grader matches the grading contract the member runner needs.
type Grader interface {
	Grade(ctx context.Context, problem model.Problem, predicted string) (bool, float64)
}

// LoopFactory builds a fresh agent loop bound to one engine. Committee
// members never share loops, clarifiers, or searchers.
type LoopFactory func(engineID string) (*agent.Loop, error)

// LoopMemberRunner is the standard MemberRunner: one fresh loop per member,
// graded by a shared concurrency-safe grader.
type LoopMemberRunner struct {
	NewLoop LoopFactory
	Grader  Grader
}

func (r *LoopMemberRunner) RunMember(ctx context.Context, engineID string, problem model.Problem) (model.ModelVerdict, error) {
	loop, err := r.NewLoop(engineID)
	if err != nil {
		return model.ModelVerdict{}, err
	}

	res := loop.Run(ctx, problem)
	correct, gradeCost := r.Grader.Grade(ctx, problem, res.FinalAnswer)

	return model.ModelVerdict{
		EngineID:        engineID,
		PredictedAnswer: res.FinalAnswer,
		Correct:         correct,
		CostUSD:         res.TotalCostUSD + gradeCost,
		Transcript:      res.Transcript,
	}, nil
}
