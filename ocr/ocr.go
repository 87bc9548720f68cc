// Package ocr defines the optional text-recognition collaborator. No
// structural operation depends on it; it exists so scanned pages can feed
// the detectors with text they would otherwise never see.
package ocr

import "context"

// Region is a rectangle in image pixel coordinates, origin top-left.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has no area.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input is one image submitted for recognition.
type Input struct {
	// ID is echoed back on the Result so callers can correlate.
	ID string
	// Image is the encoded payload (PNG or JPEG).
	Image []byte
	// Page is the 1-indexed document page the image came from.
	Page int
	// Languages holds trained-data hints, e.g. "eng".
	Languages []string
	// Region limits recognition to part of the image; nil means all of it.
	Region *Region
}

// Word is one recognized token with its confidence in [0,1].
type Word struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// Result is the recognition output for one input.
type Result struct {
	InputID    string
	Text       string
	Words      []Word
	Confidence float64 // mean word confidence, 0 when no words
}

// Engine recognizes text in images.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// Noop is the Engine used when no OCR provider is wired in. It recognizes
// nothing and never fails.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Recognize(_ context.Context, in Input) (Result, error) {
	return Result{InputID: in.ID}, nil
}
