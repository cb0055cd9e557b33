package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync/atomic"
	"testing"
	"time"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%3 == 0 {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TestResize tests that CAPTCHAs are scaled onto the fixed canvas as JPEG.
func TestResize(t *testing.T) {
	t.Parallel()

	out, err := Resize(pngImage(t, 120, 30), DefaultWidth, DefaultHeight)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("expected JPEG output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultWidth || b.Dy() != DefaultHeight {
		t.Errorf("expected %dx%d, got %dx%d", DefaultWidth, DefaultHeight, b.Dx(), b.Dy())
	}
}

// TestResizeErrors tests invalid inputs.
func TestResizeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   []byte
		width  int
		height int
	}{
		{name: "empty", data: nil, width: 300, height: 66},
		{name: "not an image", data: []byte("<html>"), width: 300, height: 66},
		{name: "zero width", data: []byte{1}, width: 0, height: 66},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Resize(tt.data, tt.width, tt.height); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Resize(nil, 1, 1); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

// TestWithTimeout tests that slow engines are cut off.
func TestWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast engine", func(t *testing.T) {
		t.Parallel()

		r := WithTimeout(RecognizerFunc(func(context.Context, []byte) (string, error) {
			return "ab12c3", nil
		}), time.Second)

		text, err := r.Recognize(context.Background(), []byte{1})
		if err != nil || text != "ab12c3" {
			t.Errorf("unexpected result %q, %v", text, err)
		}
	})

	t.Run("slow engine", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		r := WithTimeout(RecognizerFunc(func(context.Context, []byte) (string, error) {
			<-release
			return "late", nil
		}), 20*time.Millisecond)

		_, err := r.Recognize(context.Background(), []byte{1})
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("engine error", func(t *testing.T) {
		t.Parallel()

		errEngine := errors.New("engine failed")
		r := WithTimeout(RecognizerFunc(func(context.Context, []byte) (string, error) {
			return "", errEngine
		}), time.Second)

		if _, err := r.Recognize(context.Background(), []byte{1}); !errors.Is(err, errEngine) {
			t.Errorf("expected engine error, got %v", err)
		}
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		base := RecognizerFunc(func(context.Context, []byte) (string, error) {
			calls.Add(1)
			return "", nil
		})
		r := WithTimeout(base, 0)
		if _, ok := r.(RecognizerFunc); !ok {
			t.Errorf("expected unwrapped recognizer, got %T", r)
		}
		_, _ = r.Recognize(context.Background(), nil) //nolint:errcheck
		if calls.Load() != 1 {
			t.Error("expected the base recognizer to be called")
		}
	})
}
