package detect

import (
	"strings"
	"testing"

	"github.com/a11ykit/pdfa11y/ir/semantic"
)

func textElement(text string, size float64, x, y float64) *semantic.Element {
	return &semantic.Element{
		Kind:       semantic.KindText,
		Text:       text,
		BBox:       semantic.BBox{X0: x, Y0: y, X1: x + 100, Y1: y + size},
		Attributes: semantic.Attributes{Size: size},
	}
}

func TestHeadings_LevelOne(t *testing.T) {
	// Sizes [10,10,10,10,30]: avg 14, 30 > 14*1.8 so the big one is level 1.
	page := &semantic.Page{Number: 1, Elements: []*semantic.Element{
		textElement("body", 10, 0, 100),
		textElement("body", 10, 0, 120),
		textElement("body", 10, 0, 140),
		textElement("body", 10, 0, 160),
		textElement("Chapter One", 30, 0, 40),
	}}
	got := Headings(page)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Level != 1 || c.Confidence != 0.7 || c.Element.Text != "Chapter One" {
		t.Errorf("candidate = level %d conf %v text %q", c.Level, c.Confidence, c.Element.Text)
	}
}

func TestHeadings_ThresholdLadder(t *testing.T) {
	// Five 10pt body elements pull the average toward 10 so each probe
	// lands in a distinct band.
	base := []*semantic.Element{
		textElement("a", 10, 0, 0), textElement("b", 10, 0, 10),
		textElement("c", 10, 0, 20), textElement("d", 10, 0, 30),
		textElement("e", 10, 0, 40),
	}
	// Level 2: sizes [10x5, 20] -> avg 11.67; 20 > 11.67*1.5=17.5 but
	// not > 21 (avg*1.8).
	page := &semantic.Page{Number: 1, Elements: append(append([]*semantic.Element{}, base...), textElement("Sub", 20, 0, 50))}
	got := Headings(page)
	if len(got) != 1 || got[0].Level != 2 || got[0].Confidence != 0.7 {
		t.Fatalf("level 2 probe: %+v", got)
	}

	// Level 3: sizes [10x5, 13] -> avg 10.5; 13 > 12.6 but not > 15.75.
	page = &semantic.Page{Number: 1, Elements: append(append([]*semantic.Element{}, base...), textElement("Minor", 13, 0, 50))}
	got = Headings(page)
	if len(got) != 1 || got[0].Level != 3 || got[0].Confidence != 0.5 {
		t.Fatalf("level 3 probe: %+v", got)
	}

	// Level 4 via bold at body size.
	boldEl := textElement("Bold lead", 10, 0, 50)
	boldEl.Attributes.Flags = semantic.StyleBold
	page = &semantic.Page{Number: 1, Elements: append(append([]*semantic.Element{}, base...), boldEl)}
	got = Headings(page)
	if len(got) != 1 || got[0].Level != 4 || got[0].Confidence != 0.5 {
		t.Fatalf("level 4 probe: %+v", got)
	}
}

func TestHeadings_TextLengthBounds(t *testing.T) {
	long := strings.Repeat("x", 201)
	page := &semantic.Page{Number: 1, Elements: []*semantic.Element{
		textElement("a", 10, 0, 0), textElement("b", 10, 0, 10),
		textElement(long, 40, 0, 20),
		textElement("   ", 40, 0, 30),
	}}
	if got := Headings(page); len(got) != 0 {
		t.Errorf("over-long and blank elements flagged: %+v", got)
	}
}

func TestHeadings_EmptyPage(t *testing.T) {
	if got := Headings(&semantic.Page{Number: 1}); got != nil {
		t.Errorf("empty page: %+v", got)
	}
}

func TestTables_GridDetected(t *testing.T) {
	// 4 rows x 3 columns on a 20-unit row grid with 150-unit columns.
	page := &semantic.Page{Number: 1}
	for row := 0; row < 4; row++ {
		for col := 0; col < 3; col++ {
			page.Elements = append(page.Elements,
				textElement("cell", 10, float64(col)*150, float64(row)*20))
		}
	}
	got := Tables(page)
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1", len(got))
	}
	if got[0].RowCount != 4 || got[0].ColCount != 3 {
		t.Errorf("detection = %d rows x %d cols", got[0].RowCount, got[0].ColCount)
	}
	if got[0].BBox.X0 != 0 || got[0].BBox.Y0 != 0 {
		t.Errorf("bbox origin = (%v, %v)", got[0].BBox.X0, got[0].BBox.Y0)
	}
}

func TestTables_MixedKindsCountTowardRows(t *testing.T) {
	// Two text cells plus an image in each row still make 3 elements at 3
	// distinct x positions.
	page := &semantic.Page{Number: 1}
	for row := 0; row < 2; row++ {
		y := float64(row) * 20
		page.Elements = append(page.Elements,
			textElement("cell", 10, 0, y),
			textElement("cell", 10, 150, y),
			&semantic.Element{
				Kind: semantic.KindImage,
				BBox: semantic.BBox{X0: 300, Y0: y, X1: 400, Y1: y + 10},
			})
	}
	got := Tables(page)
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1", len(got))
	}
	if got[0].RowCount != 2 || got[0].ColCount != 3 {
		t.Errorf("detection = %d rows x %d cols", got[0].RowCount, got[0].ColCount)
	}
}

func TestTables_SingleColumnIgnored(t *testing.T) {
	// The same 12 elements as one 6-row column: no row ever reaches 3
	// distinct x positions.
	page := &semantic.Page{Number: 1}
	for row := 0; row < 6; row++ {
		page.Elements = append(page.Elements,
			textElement("line", 10, 0, float64(row)*20),
			textElement("line", 10, 0, float64(row)*20))
	}
	if got := Tables(page); len(got) != 0 {
		t.Errorf("column flagged as table: %+v", got)
	}
}

func TestTables_GapSplitsBlocks(t *testing.T) {
	page := &semantic.Page{Number: 1}
	addRow := func(y float64) {
		for col := 0; col < 3; col++ {
			page.Elements = append(page.Elements, textElement("c", 10, float64(col)*100, y))
		}
	}
	addRow(0)
	addRow(20)
	// 200-unit gap: a new block, but one row alone is not a table.
	addRow(240)
	got := Tables(page)
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1", len(got))
	}
	if got[0].RowCount != 2 {
		t.Errorf("row count = %d", got[0].RowCount)
	}
}

func TestLinks_Phrases(t *testing.T) {
	tests := []struct {
		text       string
		flagged    bool
		confidence float64
	}{
		{"Click Here", true, 0.8},
		{"here", true, 0.8},
		{"read more about pricing", true, 0.8}, // prefix match
		{"Our pricing page", false, 0},
		// Words that merely start with a phrase are not links.
		{"hereby the parties agree", false, 0},
		{"moreover, the results held", false, 0},
		{"linked data vocabularies", false, 0},
		{"https://example.com/a", true, 0.6},
		{"www.example.com", true, 0.6},
		{"see https://example.com for details but this sentence is deliberately padded to stretch well past the hundred character cutoff", false, 0},
	}
	for _, tt := range tests {
		page := &semantic.Page{Number: 1, Elements: []*semantic.Element{
			textElement(tt.text, 10, 0, 0),
		}}
		got := Links(page)
		if tt.flagged != (len(got) == 1) {
			t.Errorf("%q: flagged=%v, want %v", tt.text, len(got) == 1, tt.flagged)
			continue
		}
		if tt.flagged && got[0].Confidence != tt.confidence {
			t.Errorf("%q: confidence=%v, want %v", tt.text, got[0].Confidence, tt.confidence)
		}
	}
}

func TestLinks_PhraseBeatsURL(t *testing.T) {
	page := &semantic.Page{Number: 1, Elements: []*semantic.Element{
		textElement("here www.example.com", 10, 0, 0),
	}}
	got := Links(page)
	if len(got) != 1 || got[0].Confidence != 0.8 {
		t.Fatalf("want one phrase-level finding, got %+v", got)
	}
}

func TestReadingOrder_Match(t *testing.T) {
	page := &semantic.Page{Number: 1, Elements: []*semantic.Element{
		textElement("a", 10, 0, 0),
		textElement("b", 10, 0, 20),
		textElement("c", 10, 0, 40),
	}}
	f := ReadingOrder(page)
	if f.Mismatch || f.MatchRatio != 1 {
		t.Errorf("ordered page flagged: %+v", f)
	}
}

func TestReadingOrder_Mismatch(t *testing.T) {
	// Stored order is the exact reverse of geometric order.
	page := &semantic.Page{Number: 1, Elements: []*semantic.Element{
		textElement("last", 10, 0, 400),
		textElement("mid", 10, 0, 200),
		textElement("first", 10, 0, 0),
	}}
	f := ReadingOrder(page)
	if !f.Mismatch {
		t.Errorf("reversed page not flagged: %+v", f)
	}
}

func TestReadingOrder_TrivialPages(t *testing.T) {
	f := ReadingOrder(&semantic.Page{Number: 3})
	if f.Mismatch || f.MatchRatio != 1 || f.Page != 3 {
		t.Errorf("empty page: %+v", f)
	}
}
