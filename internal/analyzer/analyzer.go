// Package analyzer orchestrates the analysis pipeline: ticker resolution,
// concurrent price and company-facts fetches, fundamentals extraction,
// and scoring.
package analyzer

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dennissujaya-web/sahamai-superapp/internal/analysis/scorecard"
	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/internal/datasource"
	"github.com/dennissujaya-web/sahamai-superapp/internal/infra"
	"github.com/dennissujaya-web/sahamai-superapp/internal/xbrl"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// Analyzer runs the full pipeline for one or many tickers. The SEC source
// holds the only shared mutable state (the CIK cache); every Analyze call
// is otherwise an independent unit of work.
type Analyzer struct {
	sec      *datasource.SEC
	price    *datasource.Stooq
	strategy *config.Strategy
}

// New creates an analyzer against the real SEC and stooq sources.
func New(cfg *config.Config, strategy *config.Strategy) *Analyzer {
	return &Analyzer{
		sec:      datasource.NewSEC(cfg.SEC),
		price:    datasource.NewStooq(cfg.Price),
		strategy: strategy,
	}
}

// NewWithSources creates an analyzer with explicit sources, used by tests
// and by callers that want to share a resolver across analyzers.
func NewWithSources(sec *datasource.SEC, price *datasource.Stooq, strategy *config.Strategy) *Analyzer {
	return &Analyzer{sec: sec, price: price, strategy: strategy}
}

// Analyze resolves a ticker and produces a full analysis result. Only
// infrastructure failures (unresolvable ticker, exhausted fetches) return
// an error; missing financial data degrades scores instead of aborting.
// prior may be nil; no storage layer currently produces one.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, prior *models.Snapshot) (*models.AnalysisResult, error) {
	runAt := time.Now().UTC()
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	info, err := a.sec.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// Price and company facts are independent read-only fetches; grab
	// them in parallel.
	var (
		quote *models.PriceQuote
		tree  *xbrl.FactTree
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quote, err = a.price.LatestClose(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		tree, err = a.sec.CompanyFacts(gctx, info.CIK)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fundamentals := xbrl.ExtractFundamentals(symbol, info.CIK, tree)
	metrics := scorecard.ComputeMetrics(&fundamentals, quote.Close)
	scored := scorecard.Build(&fundamentals, quote.Close, prior, a.strategy)

	return &models.AnalysisResult{
		OK:           true,
		RunAt:        runAt,
		Ticker:       symbol,
		Company:      info.Title,
		Price:        quote,
		Fundamentals: &fundamentals,
		Metrics:      &metrics,
		Valuation: &models.Valuation{
			IntrinsicPerShare: scored.Intrinsic,
			MOS:               scored.MOS,
			MOSRequired:       a.strategy.MOSRequired,
		},
		Scorecard:   &scored.Breakdown,
		Verdict:     scored.Verdict,
		Explanation: scored.Explanation,
	}, nil
}

// AnalyzeBatch processes tickers sequentially with an optional polite
// delay between them. One ticker's failure is isolated into its own
// result entry and never stops the rest. progress may be nil; when set it
// is invoked after each ticker completes.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, tickers []string, delay time.Duration, progress func(models.AnalysisResult)) *models.BatchResult {
	batch := &models.BatchResult{
		OK:      true,
		RunAt:   time.Now().UTC(),
		Results: make([]models.AnalysisResult, 0, len(tickers)),
	}

	for i, t := range tickers {
		symbol := strings.ToUpper(strings.TrimSpace(t))

		var entry models.AnalysisResult
		res, err := a.Analyze(ctx, symbol, nil)
		if err != nil {
			entry = models.AnalysisResult{
				RunAt:  time.Now().UTC(),
				Ticker: symbol,
				Error:  err.Error(),
			}
		} else {
			entry = *res
		}

		batch.Results = append(batch.Results, entry)
		if progress != nil {
			progress(entry)
		}

		if ctx.Err() != nil {
			break
		}
		if delay > 0 && i < len(tickers)-1 {
			if err := infra.Sleep(ctx, delay); err != nil {
				break
			}
		}
	}

	batch.Count = len(batch.Results)
	return batch
}
