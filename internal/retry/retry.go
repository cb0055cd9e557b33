package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Defaults used when no option overrides them.
const (
	DefaultMaxAttempts = 5
	DefaultDelay       = 1 * time.Second
)

// ErrExhausted is reported by Outcome.Err when no attempt was accepted.
var ErrExhausted = errors.New("attempts exhausted")

// errPanic wraps a value recovered from a panicking operation.
var errPanic = errors.New("operation panicked")

// Operation is one try of the work being retried. Inputs are captured by the
// closure, so every retried operation has the same shape.
type Operation[T any] func(ctx context.Context) (T, error)

// Validator accepts a result by returning nil, or explains the rejection.
type Validator[T any] func(T) error

// Attempt is the record of a single invocation.
type Attempt[T any] struct {
	// Number is 1 for the first try.
	Number int

	// Value is what the operation returned. It is the zero value when Err is set.
	Value T

	// Err is the operation's own failure, if any.
	Err error

	// Rejection is the validator's reason for refusing Value, if any.
	Rejection error
}

// Failed reports whether the operation itself failed.
func (a Attempt[T]) Failed() bool {
	return a.Err != nil
}

// Outcome is the result of Do.
type Outcome[T any] struct {
	// Last is the final attempt made, accepted or not.
	Last Attempt[T]

	// Attempts is the number of times the operation ran.
	Attempts int

	// Accepted is true when the validator accepted Last.Value.
	Accepted bool

	// cancelled holds the context error when the loop stopped early.
	cancelled error
}

// Value returns the last value and whether it was accepted.
func (o Outcome[T]) Value() (T, bool) {
	return o.Last.Value, o.Accepted
}

// HasValue reports whether the last attempt produced a value at all, as
// opposed to failing inside the operation.
func (o Outcome[T]) HasValue() bool {
	return o.Attempts > 0 && !o.Last.Failed()
}

// Err returns nil when accepted, the context error when cancelled, and an
// error wrapping ErrExhausted otherwise.
func (o Outcome[T]) Err() error {
	if o.Accepted {
		return nil
	}
	if o.cancelled != nil {
		return o.cancelled
	}
	reason := o.Last.Rejection
	if o.Last.Err != nil {
		reason = o.Last.Err
	}
	if reason == nil {
		return fmt.Errorf("%w after %d attempts", ErrExhausted, o.Attempts)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, o.Attempts, reason)
}

// config holds the settings assembled from options.
type config struct {
	name        string
	maxAttempts int
	delay       time.Duration
	onRetry     func(ctx context.Context) error
	logger      *slog.Logger
}

// Option configures Do.
type Option func(*config)

// WithName sets the operation name used in log records.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithMaxAttempts sets the attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithDelay sets the pause between attempts. Negative values are ignored.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithOnRetry registers a hook run after the delay and before the next
// attempt, e.g. to discard a session. A hook error is logged and ignored.
func WithOnRetry(fn func(ctx context.Context) error) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Do runs op until validate accepts its result, the attempt budget is spent,
// or ctx is cancelled. It never returns early because of an operation error.
func Do[T any](ctx context.Context, op Operation[T], validate Validator[T], opts ...Option) Outcome[T] {
	cfg := config{
		name:        "operation",
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var outcome Outcome[T]
	for outcome.Attempts < cfg.maxAttempts {
		if err := ctx.Err(); err != nil {
			outcome.cancelled = err
			return outcome
		}

		outcome.Attempts++
		attempt := invoke(ctx, op, outcome.Attempts)
		if attempt.Err != nil {
			cfg.logger.Debug("attempt failed",
				"operation", cfg.name,
				"attempt", attempt.Number,
				"error", attempt.Err,
			)
		} else if rejection := validate(attempt.Value); rejection != nil {
			attempt.Rejection = rejection
			cfg.logger.Debug("attempt rejected",
				"operation", cfg.name,
				"attempt", attempt.Number,
				"reason", rejection,
			)
		} else {
			outcome.Last = attempt
			outcome.Accepted = true
			return outcome
		}
		outcome.Last = attempt

		if outcome.Attempts >= cfg.maxAttempts {
			break
		}

		if err := sleepWithCtx(ctx, cfg.delay); err != nil {
			outcome.cancelled = err
			return outcome
		}
		if cfg.onRetry != nil {
			if err := cfg.onRetry(ctx); err != nil {
				cfg.logger.Warn("retry hook failed", "operation", cfg.name, "error", err)
			}
		}
		cfg.logger.Info("retrying",
			"operation", cfg.name,
			"attempt", outcome.Attempts+1,
			"max_attempts", cfg.maxAttempts,
		)
	}

	cfg.logger.Warn("attempts exhausted", "operation", cfg.name, "attempts", outcome.Attempts)
	return outcome
}

// invoke runs op once, turning a panic into an attempt error.
func invoke[T any](ctx context.Context, op Operation[T], number int) (attempt Attempt[T]) {
	attempt.Number = number
	defer func() {
		if r := recover(); r != nil {
			var zero T
			attempt.Value = zero
			attempt.Err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	value, err := op(ctx)
	if err != nil {
		attempt.Err = err
		return attempt
	}
	attempt.Value = value
	return attempt
}

// sleepWithCtx waits for d unless ctx is cancelled first.
func sleepWithCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
