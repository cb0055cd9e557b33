package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/phatnguoi/internal/model"
)

// Step is one stage of a lookup.
type Step interface {
	// Do runs the stage and records its result on lookup.
	Do(ctx context.Context, lookup *model.Lookup) error

	// Name returns the step name used in logs.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps on lookup in order and stops at the first failure,
// since each lookup stage needs the previous one's output. It returns the
// context error when cancelled between steps.
func (p *Pipeline) Execute(ctx context.Context, lookup *model.Lookup) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"lookup_id", lookup.ID,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"lookup_id", lookup.ID,
			"plate", lookup.Plate,
		)

		if err := step.Do(ctx, lookup); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"lookup_id", lookup.ID,
				"plate", lookup.Plate,
				"error", err,
			)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"lookup_id", lookup.ID,
		)
	}

	return nil
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
