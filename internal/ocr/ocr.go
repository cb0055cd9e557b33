package ocr

import (
	"context"
	"errors"
)

var (
	// ErrEmptyImage is returned when there are no image bytes to work on.
	ErrEmptyImage = errors.New("empty image")

	// ErrTimeout is returned when recognition does not finish in time.
	ErrTimeout = errors.New("ocr timed out")
)

// Recognizer reads the text in an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}
