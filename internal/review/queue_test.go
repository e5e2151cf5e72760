package review

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/annobench/internal/model"
)

type fakePages struct {
	reqs []*notionapi.PageCreateRequest
	err  error
}

func (f *fakePages) Create(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &notionapi.Page{ID: "page-1"}, nil
}

func failedResult(question string) model.ConsensusResult {
	res := model.ConsensusResult{
		Problem: model.Problem{Question: question, Answer: "Paris"},
		Verdicts: []model.ModelVerdict{
			{EngineID: "claude-sonnet", PredictedAnswer: "Paris", Correct: true},
			{EngineID: "claude-haiku", PredictedAnswer: "Paris", Correct: true},
			{EngineID: "sonar-pro", PredictedAnswer: "Lyon"},
		},
	}
	res.Finalize(2)
	return res
}

func TestPush(t *testing.T) {
	pages := &fakePages{}
	q := NewQueue("token", "db-1", WithPages(pages), WithRateLimit(1000))

	require.NoError(t, q.Push(context.Background(), failedResult("capital of France?")))
	require.Len(t, pages.reqs, 1)

	req := pages.reqs[0]
	assert.Equal(t, notionapi.DatabaseID("db-1"), req.Parent.DatabaseID)

	title := req.Properties["Question"].(notionapi.TitleProperty)
	require.Len(t, title.Title, 1)
	assert.Equal(t, "capital of France?", title.Title[0].Text.Content)

	quality := req.Properties["Quality"].(notionapi.SelectProperty)
	assert.Equal(t, "failed", quality.Select.Name)

	count := req.Properties["Correct Count"].(notionapi.NumberProperty)
	assert.Equal(t, float64(2), count.Number)

	verdicts := req.Properties["Verdicts"].(notionapi.RichTextProperty)
	assert.Contains(t, verdicts.RichText[0].Text.Content, "claude-sonnet: Paris")
	assert.Contains(t, verdicts.RichText[0].Text.Content, "✗ sonar-pro: Lyon")
}

func TestPushFailedFiltersPassing(t *testing.T) {
	pages := &fakePages{}
	q := NewQueue("token", "db-1", WithPages(pages), WithRateLimit(1000))

	passing := model.ConsensusResult{Problem: model.Problem{Question: "hard one"}}
	passing.Finalize(2)

	pushed, err := q.PushFailed(context.Background(), []model.ConsensusResult{
		failedResult("easy one"),
		passing,
		failedResult("another easy one"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, pushed)
	assert.Len(t, pages.reqs, 2)
}

func TestPushError(t *testing.T) {
	pages := &fakePages{err: eris.New("notion down")}
	q := NewQueue("token", "db-1", WithPages(pages), WithRateLimit(1000))

	err := q.Push(context.Background(), failedResult("q"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review: push")
}
