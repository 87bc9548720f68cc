// Package semantic holds the accessibility-oriented document model: pages,
// their elements in reading order, raw image and link descriptors, and the
// tag state mirrored from the structure tree.
package semantic

import (
	"sort"
	"strings"

	"github.com/a11ykit/pdfa11y/ir/raw"
)

// ElementKind distinguishes what an element renders as.
type ElementKind int

const (
	KindText ElementKind = iota
	KindImage
)

func (k ElementKind) String() string {
	if k == KindImage {
		return "image"
	}
	return "text"
}

// BBox is an axis-aligned rectangle in page space. Y grows downward, so Y0
// is the top edge; detectors sort by (top, left) = (Y0, X0).
type BBox struct {
	X0, Y0, X1, Y1 float64
}

func (b BBox) Width() float64  { return b.X1 - b.X0 }
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	if o.X0 < b.X0 {
		b.X0 = o.X0
	}
	if o.Y0 < b.Y0 {
		b.Y0 = o.Y0
	}
	if o.X1 > b.X1 {
		b.X1 = o.X1
	}
	if o.Y1 > b.Y1 {
		b.Y1 = o.Y1
	}
	return b
}

// Style flag bits, matching the PDF text conventions the extractor emits.
const (
	StyleItalic = 1 << 1
	StyleBold   = 1 << 4
)

// Attributes carries the visual properties of a text element.
type Attributes struct {
	Font  string
	Size  float64
	Color uint32 // packed 0xRRGGBB
	Flags int
}

func (a Attributes) Bold() bool   { return a.Flags&StyleBold != 0 }
func (a Attributes) Italic() bool { return a.Flags&StyleItalic != 0 }

// Element is one unit of page content. It is owned exclusively by its Page.
type Element struct {
	Kind       ElementKind
	Text       string
	PageNumber int // 1-indexed
	BBox       BBox
	Tag        Tag // empty = untagged
	AltText    string
	Attributes Attributes
}

// ImageDesc describes an image XObject placed on a page.
type ImageDesc struct {
	Index            int
	ObjectNum        int
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	BBox             BBox
}

// LinkDesc describes a link annotation.
type LinkDesc struct {
	BBox       BBox
	URI        string
	TargetPage int // 0 when the link is external
}

// Page models one page. Elements order is the document reading order and is
// authoritative; the structure tree's child order is a best-effort
// projection of it.
type Page struct {
	Number   int // 1-indexed
	Width    float64
	Height   float64
	Text     string
	Elements []*Element
	Images   []ImageDesc
	Links    []LinkDesc
	Ref      raw.ObjectRef
}

// AltInfo records the alt state of one Figure node resolved to a page.
type AltInfo struct {
	AltText string
	HasAlt  bool
	Tag     Tag
}

// OutlineItem is one bookmark entry, flattened with its nesting level.
type OutlineItem struct {
	Level int
	Title string
	Page  int
}

// Document is the in-memory model of one PDF. It is created by the adapter's
// Open, mutated in place by adapter operations, and never shared between
// adapters.
type Document struct {
	Path         string
	Title        string
	Author       string
	Language     string
	Pages        []*Page
	IsTagged     bool
	HasStructure bool
	Metadata     map[string]string
	Outline      []OutlineItem

	// AltTextMap maps page number to the Figure alt states resolved there.
	// It is rebuilt wholesale after any structural mutation; patching it
	// incrementally would require re-walking the graph anyway.
	AltTextMap map[int][]AltInfo
}

func (d *Document) PageCount() int { return len(d.Pages) }

// PageText returns the text of a 1-indexed page, empty when out of range.
func (d *Document) PageText(n int) string {
	if n < 1 || n > len(d.Pages) {
		return ""
	}
	return d.Pages[n-1].Text
}

// FullText joins all page texts with blank lines.
func (d *Document) FullText() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// ReadingOrder returns every element sorted by (page, top, left). The
// per-page Elements slices are not modified.
func (d *Document) ReadingOrder() []*Element {
	var out []*Element
	for _, p := range d.Pages {
		out = append(out, p.Elements...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PageNumber != b.PageNumber {
			return a.PageNumber < b.PageNumber
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		return a.BBox.X0 < b.BBox.X0
	})
	return out
}

// TextMatch is one SearchText hit.
type TextMatch struct {
	Page    int
	Index   int // byte offset within the page text
	Context string
}

// SearchText finds case-insensitive occurrences of query across all pages,
// returning up to 40 bytes of context either side of each hit.
func (d *Document) SearchText(query string) []TextMatch {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)
	var out []TextMatch
	for _, p := range d.Pages {
		lower := strings.ToLower(p.Text)
		from := 0
		for {
			i := strings.Index(lower[from:], q)
			if i < 0 {
				break
			}
			at := from + i
			lo := at - 40
			if lo < 0 {
				lo = 0
			}
			hi := at + len(q) + 40
			if hi > len(p.Text) {
				hi = len(p.Text)
			}
			out = append(out, TextMatch{Page: p.Number, Index: at, Context: p.Text[lo:hi]})
			from = at + len(q)
		}
	}
	return out
}
