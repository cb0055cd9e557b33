package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func acceptPositive(v int) error {
	if v > 0 {
		return nil
	}
	return errors.New("not positive")
}

// TestDoShortCircuits tests that the first accepted result is returned immediately.
func TestDoShortCircuits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	outcome := Do(context.Background(), func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, acceptPositive, WithDelay(0), quiet())

	if !outcome.Accepted {
		t.Fatal("expected outcome to be accepted")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
	if v, ok := outcome.Value(); !ok || v != 1 {
		t.Errorf("unexpected value %d (accepted=%v)", v, ok)
	}
	if outcome.Err() != nil {
		t.Errorf("expected nil error, got %v", outcome.Err())
	}
}

// TestDoAcceptsOnLaterAttempt tests convergence after rejections.
func TestDoAcceptsOnLaterAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	outcome := Do(context.Background(), func(context.Context) (int, error) {
		n := calls.Add(1)
		if n < 3 {
			return 0, nil
		}
		return int(n), nil
	}, acceptPositive, WithDelay(0), quiet())

	if !outcome.Accepted || outcome.Attempts != 3 {
		t.Errorf("expected acceptance on attempt 3, got accepted=%v attempts=%d", outcome.Accepted, outcome.Attempts)
	}
}

// TestDoRespectsMaxAttempts tests that the operation runs at most maxAttempts times.
func TestDoRespectsMaxAttempts(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 5, 7} {
		var calls atomic.Int32
		outcome := Do(context.Background(), func(context.Context) (int, error) {
			calls.Add(1)
			return -1, nil
		}, acceptPositive, WithMaxAttempts(n), WithDelay(0), quiet())

		if int(calls.Load()) != n {
			t.Errorf("max=%d: expected %d calls, got %d", n, n, calls.Load())
		}
		if outcome.Accepted {
			t.Errorf("max=%d: expected not accepted", n)
		}
		if !errors.Is(outcome.Err(), ErrExhausted) {
			t.Errorf("max=%d: expected ErrExhausted, got %v", n, outcome.Err())
		}
		if outcome.Last.Value != -1 || outcome.Last.Rejection == nil {
			t.Errorf("max=%d: expected last rejected value to be kept, got %+v", n, outcome.Last)
		}
		if !outcome.HasValue() {
			t.Errorf("max=%d: expected HasValue for rejected value", n)
		}
	}
}

// TestDoDefaultsToFiveAttempts tests the default budget.
func TestDoDefaultsToFiveAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	Do(context.Background(), func(context.Context) (int, error) {
		calls.Add(1)
		return 0, nil
	}, acceptPositive, WithDelay(0), quiet())

	if calls.Load() != DefaultMaxAttempts {
		t.Errorf("expected %d calls, got %d", DefaultMaxAttempts, calls.Load())
	}
}

// TestDoSwallowsOperationErrors tests that errors and panics become attempt failures.
func TestDoSwallowsOperationErrors(t *testing.T) {
	t.Parallel()

	t.Run("returned error", func(t *testing.T) {
		t.Parallel()

		outcome := Do(context.Background(), func(context.Context) (int, error) {
			return 42, errBoom
		}, acceptPositive, WithMaxAttempts(2), WithDelay(0), quiet())

		if outcome.Accepted {
			t.Fatal("expected failure")
		}
		if !errors.Is(outcome.Last.Err, errBoom) {
			t.Errorf("expected errBoom on last attempt, got %v", outcome.Last.Err)
		}
		if outcome.Last.Value != 0 {
			t.Errorf("expected zero value for failed attempt, got %d", outcome.Last.Value)
		}
		if outcome.HasValue() {
			t.Error("expected HasValue to be false when the last attempt failed")
		}
		if !errors.Is(outcome.Err(), errBoom) || !errors.Is(outcome.Err(), ErrExhausted) {
			t.Errorf("expected Err to wrap both errors, got %v", outcome.Err())
		}
	})

	t.Run("panic", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		outcome := Do(context.Background(), func(context.Context) (int, error) {
			if calls.Add(1) == 1 {
				panic("unexpected")
			}
			return 5, nil
		}, acceptPositive, WithDelay(0), quiet())

		if !outcome.Accepted || outcome.Attempts != 2 {
			t.Errorf("expected recovery and acceptance on attempt 2, got %+v", outcome)
		}
	})
}

// TestDoOnRetry tests that the hook runs between attempts only.
func TestDoOnRetry(t *testing.T) {
	t.Parallel()

	var hooks atomic.Int32
	Do(context.Background(), func(context.Context) (int, error) {
		return 0, nil
	}, acceptPositive,
		WithMaxAttempts(3),
		WithDelay(0),
		WithOnRetry(func(context.Context) error {
			hooks.Add(1)
			return errBoom
		}),
		quiet(),
	)

	if hooks.Load() != 2 {
		t.Errorf("expected hook to run 2 times for 3 attempts, got %d", hooks.Load())
	}
}

// TestDoWaitsBetweenAttempts tests the delay.
func TestDoWaitsBetweenAttempts(t *testing.T) {
	t.Parallel()

	start := time.Now()
	Do(context.Background(), func(context.Context) (int, error) {
		return 0, nil
	}, acceptPositive, WithMaxAttempts(3), WithDelay(20*time.Millisecond), quiet())

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least two delays, elapsed %v", elapsed)
	}
}

// TestDoCancellation tests that a cancelled context stops the loop.
func TestDoCancellation(t *testing.T) {
	t.Parallel()

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls atomic.Int32
		outcome := Do(ctx, func(context.Context) (int, error) {
			calls.Add(1)
			return 1, nil
		}, acceptPositive, quiet())

		if calls.Load() != 0 {
			t.Errorf("expected no calls, got %d", calls.Load())
		}
		if !errors.Is(outcome.Err(), context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", outcome.Err())
		}
	})

	t.Run("cancelled during delay", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int32
		outcome := Do(ctx, func(context.Context) (int, error) {
			calls.Add(1)
			cancel()
			return 0, nil
		}, acceptPositive, WithDelay(time.Hour), quiet())

		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
		if !errors.Is(outcome.Err(), context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", outcome.Err())
		}
	})
}

// TestOptionsIgnoreInvalidValues tests option guards.
func TestOptionsIgnoreInvalidValues(t *testing.T) {
	t.Parallel()

	cfg := config{maxAttempts: DefaultMaxAttempts, delay: DefaultDelay}
	WithMaxAttempts(0)(&cfg)
	WithDelay(-time.Second)(&cfg)
	WithLogger(nil)(&cfg)

	if cfg.maxAttempts != DefaultMaxAttempts {
		t.Errorf("expected maxAttempts to stay %d, got %d", DefaultMaxAttempts, cfg.maxAttempts)
	}
	if cfg.delay != DefaultDelay {
		t.Errorf("expected delay to stay %v, got %v", DefaultDelay, cfg.delay)
	}
	if cfg.logger != nil {
		t.Error("expected nil logger option to be ignored")
	}
}
