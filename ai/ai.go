// Package ai is the collaborator boundary for AI-assisted suggestions. The
// rest of the engine never talks to a model directly: it goes through a
// Suggester, which degrades to deterministic placeholders whenever the
// backend fails or is absent.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/a11ykit/pdfa11y/observability"
)

// HeadingSuggestion is one proposed heading.
type HeadingSuggestion struct {
	Level int
	Text  string
}

// Backend generates accessibility text. Implementations may call out to a
// local or remote model; both methods must honor ctx cancellation.
type Backend interface {
	// GenerateAltText describes an image. pageContext carries surrounding
	// text to anchor the description.
	GenerateAltText(ctx context.Context, image []byte, pageContext string) (string, error)

	// SuggestHeadings proposes a heading structure for document text.
	SuggestHeadings(ctx context.Context, text string) ([]HeadingSuggestion, error)
}

// Placeholder is the deterministic alt text used when no backend answer is
// available. Callers downstream rely on this exact shape.
func Placeholder(page int) string {
	return fmt.Sprintf("Image on page %d (needs descriptive alt text)", page)
}

// Suggester wraps a Backend and guarantees an answer: backend failures are
// logged and replaced by placeholders, never propagated.
type Suggester struct {
	backend Backend
	log     observability.Logger
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithLogger routes backend failure diagnostics to log.
func WithLogger(log observability.Logger) SuggesterOption {
	return func(s *Suggester) { s.log = log }
}

// NewSuggester wraps backend. A nil backend is valid and yields placeholders
// for everything.
func NewSuggester(backend Backend, opts ...SuggesterOption) *Suggester {
	s := &Suggester{backend: backend, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AltText describes an image on the given page, falling back to the
// placeholder on any failure, empty answer, or missing backend.
func (s *Suggester) AltText(ctx context.Context, page int, image []byte, pageContext string) string {
	if s.backend == nil {
		return Placeholder(page)
	}
	text, err := s.backend.GenerateAltText(ctx, image, pageContext)
	if err != nil {
		s.log.Warn("alt text generation failed, using placeholder",
			observability.Int("page", page), observability.Error("error", err))
		return Placeholder(page)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Placeholder(page)
	}
	return text
}

// Headings proposes a heading structure for text. Failures yield an empty
// suggestion list, never an error.
func (s *Suggester) Headings(ctx context.Context, text string) []HeadingSuggestion {
	if s.backend == nil {
		return nil
	}
	suggestions, err := s.backend.SuggestHeadings(ctx, text)
	if err != nil {
		s.log.Warn("heading suggestion failed", observability.Error("error", err))
		return nil
	}
	return suggestions
}
