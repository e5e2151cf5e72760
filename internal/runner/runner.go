// Package runner executes evaluation batches. It builds a fresh agent loop
// per problem (and per committee member), fans the problems out under a
// concurrency limit, and collects results in input order.
package runner

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/annobench/internal/agent"
	"github.com/sells-group/annobench/internal/clarifier"
	"github.com/sells-group/annobench/internal/config"
	"github.com/sells-group/annobench/internal/consensus"
	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/internal/report"
	"github.com/sells-group/annobench/internal/search"
	"github.com/sells-group/annobench/pkg/perplexity"
	"github.com/sells-group/annobench/pkg/wikipedia"
)

// Evaluation modes.
const (
	ModeSingle    = "single"
	ModeConsensus = "consensus"
)

// Runner drives evaluations over a problem set using the configured engines.
type Runner struct {
	cfg        *config.Config
	reg        *engine.Registry
	grader     consensus.Grader
	perplexity perplexity.Client
	wikipedia  wikipedia.Client
}

// Option configures a Runner.
type Option func(*Runner)

// WithPerplexity supplies the client backing the perplexity search engine.
func WithPerplexity(c perplexity.Client) Option {
	return func(r *Runner) { r.perplexity = c }
}

// WithWikipedia supplies the client backing the wikipedia search engine.
func WithWikipedia(c wikipedia.Client) Option {
	return func(r *Runner) { r.wikipedia = c }
}

// New creates a runner over the given registry and grader.
func New(cfg *config.Config, reg *engine.Registry, grader consensus.Grader, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, reg: reg, grader: grader}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) concurrency() int {
	if r.cfg.Batch.Concurrency > 0 {
		return r.cfg.Batch.Concurrency
	}
	return 5
}

func (r *Runner) retryDelay() time.Duration {
	if r.cfg.Agent.RetryDelaySecs > 0 {
		return time.Duration(r.cfg.Agent.RetryDelaySecs) * time.Second
	}
	return time.Second
}

// loopFactory builds agent loops bound to one engine each. Every call
// produces a fresh clarifier and searcher, so loops never share per-problem
// state.
func (r *Runner) loopFactory(maxTurns int) consensus.LoopFactory {
	return func(engineID string) (*agent.Loop, error) {
		eng, err := r.reg.Get(engineID)
		if err != nil {
			return nil, err
		}

		var judge engine.Engine
		if r.cfg.Agent.ClarifierMode != clarifier.ModeEasy {
			judge, err = r.reg.Get(r.cfg.Engines.Judge)
			if err != nil {
				return nil, eris.Wrap(err, "runner: judge engine")
			}
		}
		clar, err := clarifier.New(r.cfg.Agent.ClarifierMode, judge)
		if err != nil {
			return nil, err
		}

		searcher, err := search.New(r.cfg.Agent.SearchEngine, search.Backends{
			Engine:          eng,
			Perplexity:      r.perplexity,
			Wikipedia:       r.wikipedia,
			PerplexityModel: r.cfg.Perplexity.Model,
		})
		if err != nil {
			return nil, err
		}

		return agent.NewLoop(eng, clar, searcher, agent.Options{
			MaxTurns:   maxTurns,
			RetryDelay: r.retryDelay(),
		}), nil
	}
}

// RunSingle evaluates every problem with one engine and grades each answer.
// A per-problem failure is isolated into a zero-cost failure row; the batch
// always completes.
func (r *Runner) RunSingle(ctx context.Context, engineID string, problems []model.Problem) ([]report.SingleResult, error) {
	if _, err := r.reg.Get(engineID); err != nil {
		return nil, err
	}
	newLoop := r.loopFactory(r.cfg.Agent.MaxTurns)

	results := make([]report.SingleResult, len(problems))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, p := range problems {
		g.Go(func() error {
			loop, err := newLoop(engineID)
			if err != nil {
				zap.L().Warn("evaluation failed",
					zap.String("question", p.Question),
					zap.Error(err))
				results[i] = report.SingleResult{Problem: p, PredictedAnswer: "Evaluation failed"}
				return nil
			}

			res := loop.Run(ctx, p)
			correct, gradeCost := r.grader.Grade(ctx, p, res.FinalAnswer)
			results[i] = report.SingleResult{
				Problem:         p,
				PredictedAnswer: res.FinalAnswer,
				Transcript:      res.Transcript,
				Correct:         correct,
				CostUSD:         res.TotalCostUSD + gradeCost,
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return results, nil
}

// RunConsensus scores every problem with the configured committee. onResult,
// if non-nil, is invoked once per problem as it completes; calls may arrive
// concurrently and out of input order.
func (r *Runner) RunConsensus(ctx context.Context, problems []model.Problem, onResult func(seq int, res model.ConsensusResult)) ([]model.ConsensusResult, error) {
	committee := r.cfg.Engines.Committee
	if len(committee) == 0 {
		return nil, eris.New("runner: empty committee")
	}

	scorer := consensus.NewScorer(&consensus.LoopMemberRunner{
		NewLoop: r.loopFactory(r.cfg.Agent.CommitteeMaxTurns),
		Grader:  r.grader,
	}, committee, r.cfg.Consensus.Threshold)

	results := make([]model.ConsensusResult, len(problems))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i, p := range problems {
		g.Go(func() error {
			results[i] = scorer.Score(ctx, p)
			if onResult != nil {
				onResult(i, results[i])
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return results, nil
}
