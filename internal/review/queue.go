// Package review pushes quality-failed annotations to a Notion database so
// dataset curators can rework or retire them.
package review

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/annobench/internal/model"
)

// Pages is the slice of the Notion API the queue needs.
type Pages interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Queue writes review entries into one Notion database.
type Queue struct {
	pages   Pages
	dbID    string
	limiter *rate.Limiter
}

// Option configures the queue.
type Option func(*Queue)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) Option {
	return func(q *Queue) {
		q.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPages overrides the Notion page client, for tests.
func WithPages(p Pages) Option {
	return func(q *Queue) {
		q.pages = p
	}
}

// NewQueue creates a review queue targeting the given Notion database.
func NewQueue(token, databaseID string, opts ...Option) *Queue {
	q := &Queue{
		pages:   notionapi.NewClient(notionapi.Token(token)).Page,
		dbID:    databaseID,
		limiter: rate.NewLimiter(3, 1),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Push creates one review page for a scored annotation. Callers typically
// push only quality-failed results; the page carries the committee outcome
// so a curator sees why the annotation was flagged.
func (q *Queue) Push(ctx context.Context, res model.ConsensusResult) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "review: rate limit")
	}

	verdict := "passed"
	if res.QualityFailed {
		verdict = "failed"
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(q.dbID),
		},
		Properties: notionapi.Properties{
			"Question": notionapi.TitleProperty{
				Title: []notionapi.RichText{{Text: &notionapi.Text{Content: res.Problem.Question}}},
			},
			"Answer": notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: res.Problem.Answer}}},
			},
			"Quality": notionapi.SelectProperty{
				Select: notionapi.Option{Name: verdict},
			},
			"Correct Count": notionapi.NumberProperty{
				Number: float64(res.CorrectCount),
			},
			"Quality Score": notionapi.NumberProperty{
				Number: res.QualityScore,
			},
			"Cost USD": notionapi.NumberProperty{
				Number: res.TotalCostUSD,
			},
			"Verdicts": notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: summarizeVerdicts(res.Verdicts)}}},
			},
		},
	}

	page, err := q.pages.Create(ctx, req)
	if err != nil {
		return eris.Wrapf(err, "review: push %q", res.Problem.Question)
	}

	zap.L().Info("review entry created",
		zap.String("page_id", string(page.ID)),
		zap.String("question", res.Problem.Question),
		zap.Bool("quality_failed", res.QualityFailed))
	return nil
}

// PushFailed pushes every quality-failed result, stopping on the first error.
func (q *Queue) PushFailed(ctx context.Context, results []model.ConsensusResult) (int, error) {
	pushed := 0
	for _, res := range results {
		if !res.QualityFailed {
			continue
		}
		if err := q.Push(ctx, res); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

func summarizeVerdicts(verdicts []model.ModelVerdict) string {
	out := ""
	for i, v := range verdicts {
		if i > 0 {
			out += "; "
		}
		mark := "✗"
		if v.Correct {
			mark = "✓"
		}
		out += fmt.Sprintf("%s %s: %s", mark, v.EngineID, v.PredictedAnswer)
	}
	return out
}
