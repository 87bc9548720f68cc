// Package detect holds the heuristic detectors: heading guessing, table-grid
// detection, link-text quality and reading-order mismatch. All detectors are
// pure functions over a page or document snapshot and never mutate input.
package detect

import (
	"strings"

	"github.com/a11ykit/pdfa11y/ir/semantic"
)

// HeadingCandidate is one element the guesser believes is a heading.
type HeadingCandidate struct {
	Element    *semantic.Element
	Level      int
	Confidence float64
}

// Heading size thresholds relative to the page's average font size,
// checked high to low with first match winning.
const (
	headingLevel1Factor = 1.8
	headingLevel2Factor = 1.5
	headingLevel3Factor = 1.2
	headingLevel4Factor = 1.1
)

// Headings classifies a page's text elements against the average font size.
// Only elements with text length 1-200 are considered; an element larger
// than avg*1.8 is level 1, avg*1.5 level 2, avg*1.2 level 3, and bold or
// avg*1.1 level 4.
func Headings(page *semantic.Page) []HeadingCandidate {
	var sum float64
	var n int
	for _, el := range page.Elements {
		if el.Kind == semantic.KindText && el.Attributes.Size > 0 {
			sum += el.Attributes.Size
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)

	var out []HeadingCandidate
	for _, el := range page.Elements {
		if el.Kind != semantic.KindText || el.Attributes.Size <= 0 {
			continue
		}
		text := strings.TrimSpace(el.Text)
		if len(text) == 0 || len(text) > 200 {
			continue
		}
		size := el.Attributes.Size
		switch {
		case size > avg*headingLevel1Factor:
			out = append(out, HeadingCandidate{Element: el, Level: 1, Confidence: 0.7})
		case size > avg*headingLevel2Factor:
			out = append(out, HeadingCandidate{Element: el, Level: 2, Confidence: 0.7})
		case size > avg*headingLevel3Factor:
			out = append(out, HeadingCandidate{Element: el, Level: 3, Confidence: 0.5})
		case el.Attributes.Bold() || size > avg*headingLevel4Factor:
			out = append(out, HeadingCandidate{Element: el, Level: 4, Confidence: 0.5})
		}
	}
	return out
}
