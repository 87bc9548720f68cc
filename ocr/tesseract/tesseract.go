//go:build cgo

// Package tesseract is the gosseract-backed OCR engine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/a11ykit/pdfa11y/ocr"
)

// Engine runs recognition through a libtesseract client. A fresh client is
// created per call; gosseract clients are not safe for concurrent reuse.
type Engine struct {
	newClient func() *gosseract.Client
}

func New() *Engine {
	return &Engine{newClient: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs OCR over one input image.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	c := e.newClient()
	defer c.Close()

	img, err := crop(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("tesseract: recognize: %w", err)
	}

	words, mean := wordBoxes(c)
	return ocr.Result{
		InputID:    in.ID,
		Text:       strings.TrimSpace(text),
		Words:      words,
		Confidence: mean,
	}, nil
}

func wordBoxes(c *gosseract.Client) ([]ocr.Word, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	out := make([]ocr.Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100
		sum += conf
		out = append(out, ocr.Word{
			Text: b.Word,
			Bounds: ocr.Region{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
			Confidence: conf,
		})
	}
	return out, sum / float64(len(out))
}

// crop re-encodes the region of interest as PNG. A nil or empty region
// passes the original bytes through.
func crop(data []byte, region *ocr.Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tesseract: decode image: %w", err)
	}
	rect := image.Rect(
		int(region.X), int(region.Y),
		int(region.X+region.Width), int(region.Y+region.Height),
	).Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("tesseract: region outside image bounds")
	}
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	si, ok := src.(subImager)
	if !ok {
		return nil, fmt.Errorf("tesseract: image type %T does not support cropping", src)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, si.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("tesseract: encode region: %w", err)
	}
	return buf.Bytes(), nil
}
