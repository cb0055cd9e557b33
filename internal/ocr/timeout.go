package ocr

import (
	"context"
	"fmt"
	"time"
)

// timeoutRecognizer bounds each call of the wrapped Recognizer.
type timeoutRecognizer struct {
	next    Recognizer
	timeout time.Duration
}

// WithTimeout wraps r so that Recognize returns ErrTimeout once timeout has
// elapsed. The engine keeps running in the background until it finishes;
// its result is discarded. A non-positive timeout returns r unchanged.
func WithTimeout(r Recognizer, timeout time.Duration) Recognizer {
	if timeout <= 0 {
		return r
	}
	return &timeoutRecognizer{next: r, timeout: timeout}
}

// Recognize implements Recognizer.
func (t *timeoutRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		text, err := t.next.Recognize(ctx, image)
		resultCh <- result{text, err}
	}()

	select {
	case r := <-resultCh:
		return r.text, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w after %v", ErrTimeout, t.timeout)
		}
		return "", ctx.Err()
	}
}
