package tesseract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nao1215/phatnguoi/internal/ocr"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderText(t *testing.T, text string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 120, 30))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 20),
	}
	d.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	resized, err := ocr.Resize(renderText(t, "ab12c3"), ocr.DefaultWidth, ocr.DefaultHeight)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}

	text, err := New().Recognize(context.Background(), resized)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if strings.TrimSpace(text) == "" {
		t.Error("expected some recognized text")
	}
}

func TestEngineRejectsEmptyImage(t *testing.T) {
	t.Parallel()

	_, err := New().Recognize(context.Background(), nil)
	if !errors.Is(err, ocr.ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestNewOptions(t *testing.T) {
	t.Parallel()

	e := New(WithLanguages("vie", "eng"), WithWhitelist(""))
	if len(e.languages) != 2 || e.languages[0] != "vie" {
		t.Errorf("unexpected languages %v", e.languages)
	}
	if e.whitelist != "" {
		t.Errorf("expected whitelist to be disabled, got %q", e.whitelist)
	}
	if e.Name() != "tesseract" {
		t.Errorf("unexpected name %q", e.Name())
	}
	if New(WithLanguages()).languages[0] != "eng" {
		t.Error("expected empty language list to keep the default")
	}
}
