package detect

import (
	"sort"

	"github.com/a11ykit/pdfa11y/ir/semantic"
)

// OrderFinding reports how well a page's stored element order matches the
// geometric top-to-bottom, left-to-right order.
type OrderFinding struct {
	Page       int
	MatchRatio float64
	Mismatch   bool
}

// readingOrderMinRatio is the fraction of in-place elements below which a
// page is flagged. The check is approximate and known to misfire on genuine
// multi-column layouts.
const readingOrderMinRatio = 0.8

// ReadingOrder compares the stored order against a (top, left) sort of the
// same elements. Pages with fewer than two elements trivially match.
func ReadingOrder(page *semantic.Page) OrderFinding {
	n := len(page.Elements)
	if n < 2 {
		return OrderFinding{Page: page.Number, MatchRatio: 1}
	}
	sorted := make([]*semantic.Element, n)
	copy(sorted, page.Elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.BBox.X0 < b.BBox.X0
	})
	matches := 0
	for i, el := range page.Elements {
		if sorted[i] == el {
			matches++
		}
	}
	ratio := float64(matches) / float64(n)
	return OrderFinding{
		Page:       page.Number,
		MatchRatio: ratio,
		Mismatch:   ratio < readingOrderMinRatio,
	}
}
