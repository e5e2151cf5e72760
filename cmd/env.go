package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/cost"
	"github.com/sells-group/annobench/internal/dataset"
	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/grader"
	"github.com/sells-group/annobench/internal/review"
	"github.com/sells-group/annobench/internal/runner"
	"github.com/sells-group/annobench/internal/store"
	"github.com/sells-group/annobench/pkg/perplexity"
	"github.com/sells-group/annobench/pkg/wikipedia"
)

// appEnv holds the initialized store, engine registry, and runner shared by
// the evaluation commands.
type appEnv struct {
	Store    store.Store
	Registry *engine.Registry
	Runner   *runner.Runner
	Fetcher  *dataset.Fetcher
	Review   *review.Queue // nil when Notion is not configured
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv builds the engine registry, grader, runner, and store from config.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	cat := engine.DefaultCatalog()
	if cfg.Engines.Catalog != "" {
		var err error
		cat, err = engine.LoadCatalog(cfg.Engines.Catalog)
		if err != nil {
			return nil, err
		}
	}

	calc := cost.NewCalculator(cost.DefaultRates())
	reg, err := engine.BuildRegistry(cat, cfg, calc)
	if err != nil {
		return nil, err
	}

	judge, err := reg.Get(cfg.Engines.Judge)
	if err != nil {
		return nil, eris.Wrap(err, "judge engine")
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var wikiOpts []wikipedia.Option
	if cfg.Wikipedia.BaseURL != "" {
		wikiOpts = append(wikiOpts, wikipedia.WithBaseURL(cfg.Wikipedia.BaseURL))
	}
	if cfg.Wikipedia.RateLimit > 0 {
		wikiOpts = append(wikiOpts, wikipedia.WithRateLimit(cfg.Wikipedia.RateLimit))
	}

	var perplexOpts []perplexity.Option
	if cfg.Perplexity.BaseURL != "" {
		perplexOpts = append(perplexOpts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
	}

	r := runner.New(cfg, reg, grader.New(judge),
		runner.WithPerplexity(perplexity.NewClient(cfg.Perplexity.Key, perplexOpts...)),
		runner.WithWikipedia(wikipedia.NewClient(wikiOpts...)),
	)

	var reviewQueue *review.Queue
	if cfg.Notion.Token != "" && cfg.Notion.ReviewDB != "" {
		reviewQueue = review.NewQueue(cfg.Notion.Token, cfg.Notion.ReviewDB)
		zap.L().Info("notion review queue enabled")
	}

	zap.L().Info("environment initialized",
		zap.Strings("engines", reg.IDs()),
		zap.String("judge", cfg.Engines.Judge),
		zap.String("store", cfg.Store.Driver))

	return &appEnv{
		Store:    st,
		Registry: reg,
		Runner:   r,
		Fetcher:  dataset.NewFetcher(),
		Review:   reviewQueue,
	}, nil
}
