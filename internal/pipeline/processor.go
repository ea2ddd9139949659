package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/anteater/internal/stats"
)

// Processor fetches one URL and runs it through a pipeline. Rejections are
// counted in the aggregator.
type Processor struct {
	fetcher  Fetcher
	pipeline *Pipeline
	stats    *stats.Aggregator
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor.
func NewProcessor(fetcher Fetcher, pipeline *Pipeline, agg *stats.Aggregator, opts ...ProcessorOption) *Processor {
	p := &Processor{
		fetcher:  fetcher,
		pipeline: pipeline,
		stats:    agg,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process fetches url and processes the response. It never returns an
// error: failures are reported through the returned state, whose Links are
// empty unless the page was accepted.
func (p *Processor) Process(ctx context.Context, url string, depth int) *PageState {
	state := NewPageState(url, depth)

	resp, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			state.cancel(ctx.Err())
			state.FinishedAt = time.Now()
			return state
		}
		state.fail(fmt.Errorf("%w: %w", ErrFetchFailure, err))
		state.FinishedAt = time.Now()
		p.stats.RecordRejection(state.Outcome)
		p.logger.Info("fetch failed", "url", url, "error", err)
		return state
	}
	state.Response = resp

	if err := p.pipeline.Execute(ctx, state); err != nil {
		if state.Cancelled {
			return state
		}
		p.stats.RecordRejection(state.Outcome)
		return state
	}

	p.logger.Debug("page accepted",
		"url", url,
		"tokens", len(state.Tokens),
		"links", len(state.Links),
	)
	return state
}
