package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // CAPTCHA endpoints may serve GIF
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Canvas defaults for CAPTCHA images.
const (
	DefaultWidth   = 300
	DefaultHeight  = 66
	DefaultQuality = 90
)

// Resize decodes data, scales it onto a width×height white canvas with
// Catmull-Rom interpolation and re-encodes it as JPEG.
func Resize(data []byte, width, height int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// Transparent pixels would turn black in JPEG.
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: DefaultQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
