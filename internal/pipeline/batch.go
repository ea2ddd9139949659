package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one URL to fetch and process.
type Task struct {
	URL   string
	Depth int
}

// BatchProcessor processes many URLs concurrently with a bounded number of
// goroutines.
type BatchProcessor struct {
	processor   *Processor
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages processed at once.
// Default is 8 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor around processor.
func NewBatchProcessor(processor *Processor, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		processor:   processor,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Concurrency returns the configured worker limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch processes tasks and returns their states in task order.
// Tasks not started because of cancellation have a nil state. The error is
// the context error when the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, tasks []Task) ([]*PageState, error) {
	results := make([]*PageState, len(tasks))
	err := bp.ProcessBatchWithCallback(ctx, tasks, func(state *PageState, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = state
	})
	return results, err
}

// ProcessBatchWithCallback processes tasks and calls callback for each
// finished page. The callback runs on the worker goroutine and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	tasks []Task,
	callback func(state *PageState, index int),
) error {
	bp.logger.Debug("starting batch",
		"tasks", len(tasks),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			state := bp.processor.Process(gctx, task.URL, task.Depth)
			callback(state, i)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Debug("batch complete",
		"tasks", len(tasks),
		"elapsed", time.Since(start),
	)
	return err
}
