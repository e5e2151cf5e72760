// Package agent runs the turn-bounded decision loop: each turn the backing
// engine picks one action (ask, search, or answer) until it commits to an
// answer or the budget forces one.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/clarifier"
	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
	"github.com/sells-group/annobench/internal/resilience"
	"github.com/sells-group/annobench/internal/search"
)

// Sentinels recorded when a decision or forced answer cannot be obtained.
const (
	noThought      = "no thought"
	noAction       = "no action"
	noFinalAnswer  = "No final answer provided"
	erroredAnswer  = "Error generating final answer"
	clarifierError = "error"
)

// Options configures a loop run.
type Options struct {
	// MaxTurns bounds the deciding turns; one extra turn is reserved for the
	// forced answer. Default: 5.
	MaxTurns int
	// RetryDelay is the fixed wait between decision retries. Default: 1s.
	RetryDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxTurns <= 0 {
		o.MaxTurns = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	return o
}

// Result is the outcome of one agent run.
type Result struct {
	FinalAnswer  string
	Transcript   model.Transcript
	TotalCostUSD float64
}

// Loop drives one engine through the decision cycle for one problem at a
// time. A Loop is not safe for concurrent runs; committees build one per
// member.
type Loop struct {
	eng    engine.Engine
	clar   clarifier.Responder
	search search.Searcher
	opts   Options
}

// NewLoop creates an agent loop over the given engine and ports.
func NewLoop(eng engine.Engine, clar clarifier.Responder, searcher search.Searcher, opts Options) *Loop {
	return &Loop{
		eng:    eng,
		clar:   clar,
		search: searcher,
		opts:   opts.withDefaults(),
	}
}

// decision is one parsed engine decision. failed marks a decision the
// engine never produced, as opposed to one that parsed badly.
type decision struct {
	thought string
	action  string
	cost    float64
	failed  bool
}

// Run executes the loop for one problem. It always returns a terminated
// transcript: port failures degrade to sentinel records and the turn budget
// forces a final answer, so Run never returns an error for anything the
// engine did.
func (l *Loop) Run(ctx context.Context, problem model.Problem) Result {
	log := zap.L().With(
		zap.String("engine", l.eng.ID()),
		zap.String("question", problem.Question),
	)
	log.Info("agent run started", zap.Int("max_turns", l.opts.MaxTurns))

	l.clar.Reset(problem)

	var transcript model.Transcript
	var totalCost float64

	for turn := 1; turn <= l.opts.MaxTurns; turn++ {
		prompt := buildPrompt(problem.Question, transcript, turn, l.opts.MaxTurns)
		dec := l.decide(ctx, prompt)
		totalCost += dec.cost

		action := model.ParseAction(dec.action)
		record := model.TurnRecord{
			Turn:      turn,
			Thought:   dec.thought,
			RawAction: dec.action,
			Kind:      action.Kind,
			CostUSD:   dec.cost,
		}

		switch action.Kind {
		case model.ActionAnswer:
			record.FinalAnswer = action.Payload
			transcript = append(transcript, record)
			log.Info("agent answered",
				zap.Int("turn", turn),
				zap.String("answer", action.Payload))
			return Result{FinalAnswer: action.Payload, Transcript: transcript, TotalCostUSD: totalCost}

		case model.ActionAsk:
			record.QuestionAsked = action.Payload
			response, err := l.clar.Respond(ctx, action.Payload)
			if err != nil {
				record.Response = clarifierError
				record.Err = err.Error()
				log.Warn("clarifier failed", zap.Int("turn", turn), zap.Error(err))
			} else {
				record.Response = response
			}
			transcript = append(transcript, record)

		case model.ActionSearch:
			record.SearchQuery = action.Payload
			results, err := l.search.Search(ctx, action.Payload)
			if err != nil {
				record.Err = err.Error()
				log.Warn("search failed", zap.Int("turn", turn), zap.Error(err))
			} else {
				record.SearchResults = results
			}
			transcript = append(transcript, record)

		default:
			record.Err = "invalid action: " + dec.action
			transcript = append(transcript, record)
			log.Warn("invalid action", zap.Int("turn", turn), zap.String("action", dec.action))
		}
	}

	// Budget exhausted without an answer.
	final, cost := l.forceAnswer(ctx, problem.Question, transcript)
	totalCost += cost
	transcript = append(transcript, model.TurnRecord{
		Turn:        l.opts.MaxTurns + 1,
		Kind:        model.ActionAnswer,
		FinalAnswer: final,
		Forced:      true,
		CostUSD:     cost,
	})

	log.Info("agent run forced answer", zap.String("answer", final))
	return Result{FinalAnswer: final, Transcript: transcript, TotalCostUSD: totalCost}
}

// decide invokes the engine with the standard retry policy. Exhausted
// retries degrade to sentinel thought/action at zero cost so a failed
// decision consumes the turn instead of aborting the run.
func (l *Loop) decide(ctx context.Context, prompt string) decision {
	cfg := resilience.DefaultRetryConfig()
	cfg.Delay = l.opts.RetryDelay
	cfg.OnRetry = resilience.RetryLogger("decision", l.eng.ID())

	completion, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*engine.Completion, error) {
		return l.eng.Complete(ctx, prompt)
	})
	if err != nil {
		zap.L().Error("decision failed after retries",
			zap.String("engine", l.eng.ID()),
			zap.Error(err))
		return decision{thought: noThought, action: noAction, failed: true}
	}

	thought, action := parseResponse(completion.Text)
	return decision{thought: thought, action: action, cost: completion.CostUSD}
}

// forceAnswer makes the single post-budget decision call and extracts an
// answer payload if the engine produced one.
func (l *Loop) forceAnswer(ctx context.Context, question string, transcript model.Transcript) (string, float64) {
	dec := l.decide(ctx, buildForcePrompt(question, transcript))
	if dec.failed {
		return erroredAnswer, 0
	}

	action := model.ParseAction(dec.action)
	if action.Kind == model.ActionAnswer {
		return action.Payload, dec.cost
	}
	return noFinalAnswer, dec.cost
}
