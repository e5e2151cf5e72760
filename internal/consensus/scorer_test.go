package consensus

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/annobench/internal/model"
)

type fakeRunner struct {
	mu       sync.Mutex
	verdicts map[string]model.ModelVerdict
	errs     map[string]error
	seen     []string
}

func (f *fakeRunner) RunMember(_ context.Context, engineID string, _ model.Problem) (model.ModelVerdict, error) {
	f.mu.Lock()
	f.seen = append(f.seen, engineID)
	f.mu.Unlock()

	if err := f.errs[engineID]; err != nil {
		return model.ModelVerdict{}, err
	}
	return f.verdicts[engineID], nil
}

func parisProblem() model.Problem {
	return model.Problem{Question: "capital of France?", Answer: "Paris"}
}

func TestScoreMajorityCorrect(t *testing.T) {
	runner := &fakeRunner{
		verdicts: map[string]model.ModelVerdict{
			"a": {EngineID: "a", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.01},
			"b": {EngineID: "b", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.02},
			"c": {EngineID: "c", PredictedAnswer: "Lyon", Correct: false, CostUSD: 0.03},
		},
	}
	s := NewScorer(runner, []string{"a", "b", "c"}, 2)

	res := s.Score(context.Background(), parisProblem())

	assert.Equal(t, 2, res.CorrectCount)
	assert.True(t, res.QualityFailed)
	assert.InDelta(t, 1.0-2.0/3.0, res.QualityScore, 1e-9)
	assert.InDelta(t, 0.06, res.TotalCostUSD, 1e-9)

	// Verdicts stay in committee order regardless of completion order.
	require.Len(t, res.Verdicts, 3)
	assert.Equal(t, "a", res.Verdicts[0].EngineID)
	assert.Equal(t, "b", res.Verdicts[1].EngineID)
	assert.Equal(t, "c", res.Verdicts[2].EngineID)
}

func TestScoreMemberFailureIsolated(t *testing.T) {
	runner := &fakeRunner{
		verdicts: map[string]model.ModelVerdict{
			"a": {EngineID: "a", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.01},
			"c": {EngineID: "c", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.02},
		},
		errs: map[string]error{"b": eris.New("member crashed")},
	}
	s := NewScorer(runner, []string{"a", "b", "c"}, 2)

	res := s.Score(context.Background(), parisProblem())

	assert.Equal(t, 2, res.CorrectCount)
	assert.True(t, res.QualityFailed)

	failed := res.Verdicts[1]
	assert.Equal(t, "b", failed.EngineID)
	assert.False(t, failed.Correct)
	assert.Zero(t, failed.CostUSD)
	assert.Equal(t, "Evaluation failed", failed.PredictedAnswer)
	assert.Contains(t, failed.Err, "member crashed")
}

func TestScoreAllMembersFailed(t *testing.T) {
	boom := eris.New("down")
	runner := &fakeRunner{errs: map[string]error{"a": boom, "b": boom, "c": boom}}
	s := NewScorer(runner, []string{"a", "b", "c"}, 2)

	res := s.Score(context.Background(), parisProblem())

	assert.Zero(t, res.CorrectCount)
	assert.False(t, res.QualityFailed)
	assert.InDelta(t, 1.0, res.QualityScore, 1e-9)
	assert.Zero(t, res.TotalCostUSD)
}

func TestScoreBelowThreshold(t *testing.T) {
	runner := &fakeRunner{
		verdicts: map[string]model.ModelVerdict{
			"a": {EngineID: "a", PredictedAnswer: "Paris", Correct: true},
			"b": {EngineID: "b", PredictedAnswer: "Lyon"},
			"c": {EngineID: "c", PredictedAnswer: "Marseille"},
		},
	}
	s := NewScorer(runner, []string{"a", "b", "c"}, 2)

	res := s.Score(context.Background(), parisProblem())

	assert.Equal(t, 1, res.CorrectCount)
	assert.False(t, res.QualityFailed)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, runner.seen)
}
