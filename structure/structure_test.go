package structure

import (
	"testing"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/ir/semantic"
)

// buildGraph assembles a raw document with one content stream per page.
// Object numbers: 1 catalog, 2 page tree, 10+i page i, 100+i its content.
func buildGraph(pageContents ...string) *raw.Document {
	catalog := raw.Dict()
	catalog.Set("Type", raw.Name("Catalog"))
	catalog.Set("Pages", raw.Ref(2, 0))

	pages := raw.Dict()
	pages.Set("Type", raw.Name("Pages"))
	pages.Set("Count", raw.Int(int64(len(pageContents))))
	kids := raw.Array()
	pages.Set("Kids", kids)

	trailer := raw.Dict()
	trailer.Set("Root", raw.Ref(1, 0))

	doc := &raw.Document{
		Objects: map[raw.ObjectRef]raw.Object{
			{Num: 1}: catalog,
			{Num: 2}: pages,
		},
		Trailer: trailer,
		Version: "1.7",
	}
	for i, content := range pageContents {
		pageNum, contentNum := 10+i, 100+i
		page := raw.Dict()
		page.Set("Type", raw.Name("Page"))
		page.Set("Parent", raw.Ref(2, 0))
		page.Set("MediaBox", raw.Array(raw.Int(0), raw.Int(0), raw.Int(612), raw.Int(792)))
		page.Set("Contents", raw.Ref(contentNum, 0))
		doc.Objects[raw.ObjectRef{Num: pageNum}] = page
		doc.Objects[raw.ObjectRef{Num: contentNum}] = raw.Stream(raw.Dict(), []byte(content))
		kids.Append(raw.Ref(pageNum, 0))
	}
	return doc
}

// addStructRoot wires an empty structure root at object 5 and returns it.
func addStructRoot(doc *raw.Document) *raw.DictObj {
	root := raw.Dict()
	root.Set("Type", raw.Name("StructTreeRoot"))
	root.Set("K", raw.Array())
	doc.Objects[raw.ObjectRef{Num: 5}] = root
	catalog := doc.Objects[raw.ObjectRef{Num: 1}].(*raw.DictObj)
	catalog.Set("StructTreeRoot", raw.Ref(5, 0))
	return root
}

func figureNode(doc *raw.Document, num int, alt string, pg raw.Object) *raw.DictObj {
	node := raw.Dict()
	node.Set("Type", raw.Name("StructElem"))
	node.Set("S", raw.Name("Figure"))
	if alt != "" {
		node.Set("Alt", raw.Str(alt))
	}
	if pg != nil {
		node.Set("Pg", pg)
	}
	doc.Objects[raw.ObjectRef{Num: num}] = node
	return node
}

func TestOpen_ErrorKinds(t *testing.T) {
	if _, err := Open([]byte("not a pdf at all, nothing to see")); err == nil {
		t.Fatal("expected error")
	} else if oe, ok := err.(*OpenError); !ok || oe.Kind != InvalidSignature {
		t.Fatalf("got %v, want InvalidSignature", err)
	}

	encrypted := []byte("%PDF-1.7\n" +
		"1 0 obj\n<< /Type /Catalog >>\nendobj\n" +
		"2 0 obj\n<< /Filter /Standard >>\nendobj\n" +
		"trailer\n<< /Size 3 /Root 1 0 R /Encrypt 2 0 R >>\n")
	if _, err := Open(encrypted); err == nil {
		t.Fatal("expected error")
	} else if oe, ok := err.(*OpenError); !ok || oe.Kind != Encrypted {
		t.Fatalf("got %v, want Encrypted", err)
	}

	if _, err := OpenFile("/nonexistent/nowhere.pdf"); err == nil {
		t.Fatal("expected error")
	} else if oe, ok := err.(*OpenError); !ok || oe.Kind != NotFound {
		t.Fatalf("got %v, want NotFound", err)
	}

	noObjects := []byte("%PDF-1.7\njust a header and then garbage")
	if _, err := Open(noObjects); err == nil {
		t.Fatal("expected error")
	} else if oe, ok := err.(*OpenError); !ok || oe.Kind != MissingXref {
		t.Fatalf("got %v, want MissingXref", err)
	}
}

func TestBuildModel_PagesAndText(t *testing.T) {
	doc := buildGraph(
		"BT /F1 24 Tf 72 700 Td (Heading) Tj 0 -40 Td /F1 11 Tf (Body text) Tj ET",
		"BT /F1 11 Tf 72 700 Td (Second page) Tj ET",
	)
	a := fromRaw(doc)
	d := a.Document()

	if d.PageCount() != 2 {
		t.Fatalf("page count = %d", d.PageCount())
	}
	p1 := d.Pages[0]
	if p1.Width != 612 || p1.Height != 792 {
		t.Errorf("page size = %v x %v", p1.Width, p1.Height)
	}
	if len(p1.Elements) != 2 {
		t.Fatalf("page 1 has %d elements", len(p1.Elements))
	}
	if p1.Elements[0].Text != "Heading" || p1.Elements[0].Attributes.Size != 24 {
		t.Errorf("first element = %q size %v", p1.Elements[0].Text, p1.Elements[0].Attributes.Size)
	}
	// 72 700 Td on a 792-high page puts the 24pt baseline near the top.
	if top := p1.Elements[0].BBox.Y0; top < 60 || top > 80 {
		t.Errorf("heading top = %v", top)
	}
	if p1.Text != "Heading\nBody text" {
		t.Errorf("page text = %q", p1.Text)
	}
	if d.FullText() != "Heading\nBody text\n\nSecond page" {
		t.Errorf("full text = %q", d.FullText())
	}
}

func TestBuildModel_TagStateAndMetadata(t *testing.T) {
	doc := buildGraph("BT ET")
	catalog := doc.Objects[raw.ObjectRef{Num: 1}].(*raw.DictObj)
	catalog.Set("Lang", raw.Str("en-US"))
	mi := raw.Dict()
	mi.Set("Marked", raw.Bool(true))
	catalog.Set("MarkInfo", mi)
	addStructRoot(doc)
	info := raw.Dict()
	info.Set("Title", raw.Str("Annual Report"))
	info.Set("Author", raw.Str("Jo"))
	doc.Objects[raw.ObjectRef{Num: 7}] = info
	doc.Trailer.Set("Info", raw.Ref(7, 0))

	d := fromRaw(doc).Document()
	if !d.IsTagged || !d.HasStructure {
		t.Errorf("tag state = %v/%v", d.IsTagged, d.HasStructure)
	}
	if d.Title != "Annual Report" || d.Author != "Jo" || d.Language != "en-US" {
		t.Errorf("metadata = %q/%q/%q", d.Title, d.Author, d.Language)
	}
}

func TestWalkAltTexts_PgAndFallbacks(t *testing.T) {
	doc := buildGraph("BT ET", "BT ET")
	root := addStructRoot(doc)

	// Figure with Alt and a direct /Pg onto page 2.
	figureNode(doc, 20, "a chart", raw.Ref(11, 0))
	// Figure without Alt resolved through an MCR kid on page 1.
	fig2 := figureNode(doc, 21, "", nil)
	mcr := raw.Dict()
	mcr.Set("Type", raw.Name("MCR"))
	mcr.Set("MCID", raw.Int(0))
	mcr.Set("Pg", raw.Ref(10, 0))
	fig2.Set("K", raw.Array(mcr))
	// Figure with no page information at all: defaults to page 1.
	figureNode(doc, 22, "orphan", nil)

	root.Array("K").Append(raw.Ref(20, 0), raw.Ref(21, 0), raw.Ref(22, 0))

	m := fromRaw(doc).WalkAltTexts()
	if len(m[2]) != 1 || m[2][0].AltText != "a chart" || !m[2][0].HasAlt {
		t.Errorf("page 2 = %+v", m[2])
	}
	if len(m[1]) != 2 {
		t.Fatalf("page 1 = %+v", m[1])
	}
	if m[1][0].HasAlt {
		t.Errorf("MCR figure should have no alt: %+v", m[1][0])
	}
}

func TestWalkAltTexts_CycleSafe(t *testing.T) {
	doc := buildGraph("BT ET")
	root := addStructRoot(doc)
	// A figure whose kids point back at itself.
	fig := figureNode(doc, 20, "loop", raw.Ref(10, 0))
	fig.Set("K", raw.Array(raw.Ref(20, 0)))
	root.Array("K").Append(raw.Ref(20, 0))

	m := fromRaw(doc).WalkAltTexts()
	if len(m[1]) != 1 {
		t.Fatalf("cycle visited more than once: %+v", m[1])
	}
}

func TestAddTag_AppendOnlyDuplicates(t *testing.T) {
	doc := buildGraph("BT ET")
	a := fromRaw(doc)
	box := semantic.BBox{X0: 10, Y0: 10, X1: 200, Y1: 40}

	if !a.AddTag(1, box, semantic.TagFigure, "a photo") {
		t.Fatal("first AddTag failed")
	}
	if !a.AddTag(1, box, semantic.TagFigure, "a photo") {
		t.Fatal("second AddTag failed")
	}
	root, ok := a.structRoot()
	if !ok {
		t.Fatal("root not created")
	}
	if n := root.Array("K").Len(); n != 2 {
		t.Errorf("root has %d children, want 2 duplicates", n)
	}
	if got := len(a.Document().AltTextMap[1]); got != 2 {
		t.Errorf("alt map rebuilt with %d entries, want 2", got)
	}
}

func TestAddTag_AltOnlyForFigure(t *testing.T) {
	doc := buildGraph("BT ET")
	a := fromRaw(doc)
	if !a.AddTag(1, semantic.BBox{}, semantic.TagH1, "should be dropped") {
		t.Fatal("AddTag failed")
	}
	root, _ := a.structRoot()
	kid, _ := root.Array("K").Get(0)
	node, ok := a.raw.ResolveDict(kid)
	if !ok {
		t.Fatal("child not resolvable")
	}
	if _, hasAlt := node.Get("Alt"); hasAlt {
		t.Error("non-Figure node must not carry Alt")
	}
	if node.Name("S") != "H1" {
		t.Errorf("S = %q", node.Name("S"))
	}
}

func TestAddTag_Rejections(t *testing.T) {
	doc := buildGraph("BT ET")
	a := fromRaw(doc)
	if a.AddTag(1, semantic.BBox{}, semantic.Tag("Banner"), "") {
		t.Error("unknown tag accepted")
	}
	if a.AddTag(2, semantic.BBox{}, semantic.TagP, "") {
		t.Error("out-of-range page accepted")
	}
	a.Close()
	if a.AddTag(1, semantic.BBox{}, semantic.TagP, "") {
		t.Error("AddTag after Close accepted")
	}
}

func TestEnsureTagged_Idempotent(t *testing.T) {
	doc := buildGraph("BT ET")
	a := fromRaw(doc)
	if a.Document().IsTagged {
		t.Fatal("fresh graph should be untagged")
	}
	if !a.EnsureTagged() {
		t.Fatal("EnsureTagged failed")
	}
	if !a.Document().IsTagged || !a.Document().HasStructure {
		t.Error("flags not set")
	}
	root, _ := a.structRoot()
	root.Array("K").Append(raw.Str("sentinel"))

	if !a.EnsureTagged() {
		t.Fatal("second EnsureTagged failed")
	}
	root2, _ := a.structRoot()
	if root2 != root || root2.Array("K").Len() != 1 {
		t.Error("existing tree was not left untouched")
	}
}

func TestSetTitleAndLanguage_Lockstep(t *testing.T) {
	doc := buildGraph("BT ET")
	a := fromRaw(doc)
	if !a.SetTitle("Accessible Report") {
		t.Fatal("SetTitle failed")
	}
	if a.Document().Title != "Accessible Report" {
		t.Errorf("model title = %q", a.Document().Title)
	}
	info, ok := a.raw.ResolveDict(mustObj(a.raw.Trailer, "Info"))
	if !ok || info.String("Title") != "Accessible Report" {
		t.Error("Info dictionary not written")
	}

	if !a.SetLanguage("EN-us") {
		t.Fatal("SetLanguage failed")
	}
	if a.Document().Language != "en-US" {
		t.Errorf("language not canonicalized: %q", a.Document().Language)
	}
	if !a.SetLanguage("zz-not-a-tag-at-all-really-xx") {
		t.Fatal("unparsable code should still be written")
	}

	a.Close()
	if a.SetTitle("x") || a.SetLanguage("fr") {
		t.Error("mutations after Close must fail")
	}
	if a.Document().Title != "Accessible Report" {
		t.Error("failed mutation changed the model")
	}
}

func TestReorderPageElements(t *testing.T) {
	doc := buildGraph("BT /F1 12 Tf 0 700 Td (a) Tj 0 -20 Td (b) Tj 0 -20 Td (c) Tj ET")
	a := fromRaw(doc)
	p := a.Document().Pages[0]
	if len(p.Elements) != 3 {
		t.Fatalf("got %d elements", len(p.Elements))
	}

	if !a.ReorderPageElements(1, []int{2, 0, 1}) {
		t.Fatal("valid permutation rejected")
	}
	got := []string{p.Elements[0].Text, p.Elements[1].Text, p.Elements[2].Text}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("order = %v", got)
	}

	for _, bad := range [][]int{
		{0, 1},          // wrong length
		{0, 0, 1},       // duplicate
		{0, 1, 3},       // out of range
		{-1, 1, 2},      // negative
	} {
		before := []string{p.Elements[0].Text, p.Elements[1].Text, p.Elements[2].Text}
		if a.ReorderPageElements(1, bad) {
			t.Errorf("permutation %v accepted", bad)
		}
		after := []string{p.Elements[0].Text, p.Elements[1].Text, p.Elements[2].Text}
		if before[0] != after[0] || before[1] != after[1] || before[2] != after[2] {
			t.Errorf("rejected permutation %v changed state", bad)
		}
	}
}

func TestReorderPageElements_TreeSide(t *testing.T) {
	doc := buildGraph("BT /F1 12 Tf 0 700 Td (a) Tj 0 -20 Td (b) Tj ET")
	root := addStructRoot(doc)
	n1 := raw.Dict()
	n1.Set("S", raw.Name("P"))
	n1.Set("Pg", raw.Ref(10, 0))
	n1.Set("T", raw.Str("first"))
	n2 := raw.Dict()
	n2.Set("S", raw.Name("P"))
	n2.Set("Pg", raw.Ref(10, 0))
	n2.Set("T", raw.Str("second"))
	doc.Objects[raw.ObjectRef{Num: 20}] = n1
	doc.Objects[raw.ObjectRef{Num: 21}] = n2
	root.Array("K").Append(raw.Ref(20, 0), raw.Ref(21, 0))

	a := fromRaw(doc)
	if !a.ReorderPageElements(1, []int{1, 0}) {
		t.Fatal("reorder failed")
	}
	kids := root.Array("K")
	first, _ := kids.Get(0)
	node, _ := a.raw.ResolveDict(first)
	if node.String("T") != "second" {
		t.Error("tree children not reordered alongside elements")
	}
}

func TestReorderPageElements_TreeCountMismatchSkipped(t *testing.T) {
	doc := buildGraph("BT /F1 12 Tf 0 700 Td (a) Tj 0 -20 Td (b) Tj ET")
	root := addStructRoot(doc)
	n1 := raw.Dict()
	n1.Set("S", raw.Name("P"))
	n1.Set("Pg", raw.Ref(10, 0))
	doc.Objects[raw.ObjectRef{Num: 20}] = n1
	root.Array("K").Append(raw.Ref(20, 0))

	a := fromRaw(doc)
	// One tree child vs two elements: in-memory reorder still succeeds.
	if !a.ReorderPageElements(1, []int{1, 0}) {
		t.Fatal("reorder should succeed in memory")
	}
	if a.Document().Pages[0].Elements[0].Text != "b" {
		t.Error("in-memory order not applied")
	}
}

func TestSave_RoundTripsMutations(t *testing.T) {
	doc := buildGraph("BT /F1 12 Tf 72 700 Td (content) Tj ET")
	a := fromRaw(doc)
	a.EnsureTagged()
	a.SetTitle("Saved Title")
	a.SetLanguage("de")
	a.AddTag(1, semantic.BBox{X0: 1, Y0: 2, X1: 3, Y1: 4}, semantic.TagFigure, "diagram")

	data, err := a.Save()
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(data)
	if err != nil {
		t.Fatalf("saved bytes do not open: %v", err)
	}
	d := reopened.Document()
	if d.Title != "Saved Title" || d.Language != "de" {
		t.Errorf("metadata lost: %q / %q", d.Title, d.Language)
	}
	if !d.IsTagged || !d.HasStructure {
		t.Error("tag state lost")
	}
	infos := d.AltTextMap[1]
	if len(infos) != 1 || infos[0].AltText != "diagram" {
		t.Errorf("alt map after reopen = %+v", infos)
	}
}

func TestClose_SnapshotStaysReadable(t *testing.T) {
	doc := buildGraph("BT /F1 12 Tf 0 700 Td (x) Tj ET")
	a := fromRaw(doc)
	a.Close()
	if !a.Closed() {
		t.Fatal("Closed() = false")
	}
	if a.Document().PageCount() != 1 {
		t.Error("snapshot lost after Close")
	}
	if _, err := a.Save(); err == nil {
		t.Error("Save after Close must fail")
	}
	if got := a.WalkAltTexts(); len(got) != 0 {
		t.Errorf("walk after close = %v", got)
	}
}

func TestAdapterText_ElementAdvance(t *testing.T) {
	// Two Tj in a row without repositioning: x must advance.
	doc := buildGraph("BT /F1 10 Tf 0 700 Td (ab) Tj (cd) Tj ET")
	a := fromRaw(doc)
	els := a.Document().Pages[0].Elements
	if len(els) != 2 {
		t.Fatalf("got %d elements", len(els))
	}
	if els[1].BBox.X0 <= els[0].BBox.X0 {
		t.Errorf("second show did not advance: %v vs %v",
			els[1].BBox.X0, els[0].BBox.X0)
	}
}
