package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/phatnguoi/internal/model"
)

// DefaultConcurrency is the number of lookups run at once by default.
const DefaultConcurrency = 4

// Runner runs one lookup. *Checker implements it.
type Runner interface {
	Check(ctx context.Context, target model.Target) *model.Lookup
}

// BatchProcessor checks many vehicles concurrently.
type BatchProcessor struct {
	runner      Runner
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many lookups run at once. Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor running lookups with runner.
func NewBatchProcessor(runner Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch checks every target and returns the lookups in target order.
// Targets not started before ctx is cancelled have a nil entry, and the
// context error is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []model.Target) ([]*model.Lookup, error) {
	results := make([]*model.Lookup, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(lookup *model.Lookup, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = lookup
	})
	return results, err
}

// ProcessBatchWithCallback checks every target and calls callback with each
// finished lookup and its target index. callback may be called concurrently.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []model.Target,
	callback func(lookup *model.Lookup, index int),
) error {
	bp.logger.Info("starting batch",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("checking target",
				"plate", target.Plate,
				"index", i+1,
				"total", len(targets),
			)

			// Failures are carried by the lookup's envelope.
			callback(bp.runner.Check(ctx, target), i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return err
}
