package grader

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
)

type fakeJudge struct {
	text  string
	err   error
	calls int

	gotPrompt string
}

func (f *fakeJudge) ID() string { return "judge" }

func (f *fakeJudge) Complete(_ context.Context, prompt string) (*engine.Completion, error) {
	f.calls++
	f.gotPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Completion{Text: f.text, CostUSD: 0.002}, nil
}

func problem() model.Problem {
	return model.Problem{
		Question:     "Which anime is it?",
		Answer:       "Kabaneri of the Iron Fortress",
		PopularWrong: "Attack on Titan",
	}
}

func TestGradeExactMatchSkipsJudge(t *testing.T) {
	judge := &fakeJudge{text: "no"}
	g := New(judge)

	correct, cost := g.Grade(context.Background(), problem(), "  Kabaneri of the Iron Fortress ")
	assert.True(t, correct)
	assert.Zero(t, cost)
	assert.Zero(t, judge.calls)
}

func TestGradeCaseAndWidthInsensitiveMatch(t *testing.T) {
	g := New(&fakeJudge{})

	correct, _ := g.Grade(context.Background(), model.Problem{Answer: "Tōkyō Tower"}, "tōkyō   tower")
	assert.True(t, correct)
}

func TestGradeEmptyPredictionNeverFastPaths(t *testing.T) {
	judge := &fakeJudge{text: "no"}
	g := New(judge)

	correct, _ := g.Grade(context.Background(), model.Problem{Question: "q", Answer: ""}, "")
	assert.False(t, correct)
	assert.Equal(t, 1, judge.calls)
}

func TestGradeJudgeYes(t *testing.T) {
	judge := &fakeJudge{text: "Yes"}
	g := New(judge)

	correct, cost := g.Grade(context.Background(), problem(), "Kabaneri")
	assert.True(t, correct)
	assert.InDelta(t, 0.002, cost, 1e-9)
	assert.Contains(t, judge.gotPrompt, "Popular wrong Answer: Attack on Titan")
	assert.Contains(t, judge.gotPrompt, "Predicted Answer: Kabaneri")
}

func TestGradeJudgeNo(t *testing.T) {
	g := New(&fakeJudge{text: "no"})

	correct, _ := g.Grade(context.Background(), problem(), "Attack on Titan")
	assert.False(t, correct)
}

func TestGradeOffScriptVerdictFailsClosed(t *testing.T) {
	g := New(&fakeJudge{text: "maybe? hard to say"})

	correct, _ := g.Grade(context.Background(), problem(), "Kabaneri")
	assert.False(t, correct)
}

func TestGradeJudgeFailureFailsClosed(t *testing.T) {
	judge := &fakeJudge{err: eris.New("judge down")}
	g := New(judge)
	g.retry.Delay = time.Millisecond

	correct, cost := g.Grade(context.Background(), problem(), "Kabaneri")
	assert.False(t, correct)
	assert.Zero(t, cost)
	assert.Equal(t, 3, judge.calls)
}

func TestGradeOmitsPopularLineWhenAbsent(t *testing.T) {
	judge := &fakeJudge{text: "yes"}
	g := New(judge)

	p := model.Problem{Question: "q", Answer: "Paris"}
	g.Grade(context.Background(), p, "the capital of France")
	assert.NotContains(t, judge.gotPrompt, "Popular wrong Answer")
}
