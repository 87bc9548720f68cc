package semantic

// Tag names a structure-tree node type. The zero value means untagged,
// which is a valid and common state.
type Tag string

const (
	TagDocument  Tag = "Document"
	TagPart      Tag = "Part"
	TagArt       Tag = "Art"
	TagSect      Tag = "Sect"
	TagDiv       Tag = "Div"
	TagH1        Tag = "H1"
	TagH2        Tag = "H2"
	TagH3        Tag = "H3"
	TagH4        Tag = "H4"
	TagH5        Tag = "H5"
	TagH6        Tag = "H6"
	TagP         Tag = "P"
	TagL         Tag = "L"
	TagLI        Tag = "LI"
	TagLBody     Tag = "LBody"
	TagTable     Tag = "Table"
	TagTR        Tag = "TR"
	TagTH        Tag = "TH"
	TagTD        Tag = "TD"
	TagFigure    Tag = "Figure"
	TagFormula   Tag = "Formula"
	TagForm      Tag = "Form"
	TagLink      Tag = "Link"
	TagNote      Tag = "Note"
	TagReference Tag = "Reference"
	TagBibEntry  Tag = "BibEntry"
	TagCode      Tag = "Code"
	TagQuote     Tag = "Quote"
	TagSpan      Tag = "Span"
	TagTOC       Tag = "TOC"
	TagTOCI      Tag = "TOCI"
)

var knownTags = map[Tag]struct{}{
	TagDocument: {}, TagPart: {}, TagArt: {}, TagSect: {}, TagDiv: {},
	TagH1: {}, TagH2: {}, TagH3: {}, TagH4: {}, TagH5: {}, TagH6: {},
	TagP: {}, TagL: {}, TagLI: {}, TagLBody: {},
	TagTable: {}, TagTR: {}, TagTH: {}, TagTD: {},
	TagFigure: {}, TagFormula: {}, TagForm: {}, TagLink: {}, TagNote: {},
	TagReference: {}, TagBibEntry: {}, TagCode: {}, TagQuote: {}, TagSpan: {},
	TagTOC: {}, TagTOCI: {},
}

// Valid reports whether t belongs to the fixed tag enumeration.
func (t Tag) Valid() bool {
	_, ok := knownTags[t]
	return ok
}

// IsHeading reports whether t is one of H1 through H6.
func (t Tag) IsHeading() bool {
	return t.HeadingLevel() > 0
}

// HeadingLevel returns 1-6 for heading tags and 0 otherwise.
func (t Tag) HeadingLevel() int {
	if len(t) == 2 && t[0] == 'H' && t[1] >= '1' && t[1] <= '6' {
		return int(t[1] - '0')
	}
	return 0
}

// HeadingTag returns the tag for a heading level, clamped to 1-6.
func HeadingTag(level int) Tag {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Tag([]byte{'H', byte('0' + level)})
}
