package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/validate"
	"github.com/a11ykit/pdfa11y/writer"
)

// writeTestPDF serializes a one-page document to dir and returns its path.
func writeTestPDF(t *testing.T, dir, name string) string {
	t.Helper()
	catalog := raw.Dict()
	catalog.Set("Type", raw.Name("Catalog"))
	catalog.Set("Pages", raw.Ref(2, 0))
	pages := raw.Dict()
	pages.Set("Type", raw.Name("Pages"))
	pages.Set("Kids", raw.Array(raw.Ref(3, 0)))
	pages.Set("Count", raw.Int(1))
	page := raw.Dict()
	page.Set("Type", raw.Name("Page"))
	page.Set("MediaBox", raw.Array(raw.Int(0), raw.Int(0), raw.Int(612), raw.Int(792)))
	page.Set("Contents", raw.Ref(4, 0))
	content := raw.Stream(raw.Dict(), []byte("BT /F1 12 Tf 72 700 Td (body) Tj ET"))
	trailer := raw.Dict()
	trailer.Set("Root", raw.Ref(1, 0))

	data, err := writer.Serialize(&raw.Document{
		Objects: map[raw.ObjectRef]raw.Object{
			{Num: 1}: catalog,
			{Num: 2}: pages,
			{Num: 3}: page,
			{Num: 4}: content,
		},
		Trailer: trailer,
		Version: "1.7",
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatch_OutcomesInInputOrder(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTestPDF(t, dir, "a.pdf")
	p2 := filepath.Join(dir, "missing.pdf")
	p3 := writeTestPDF(t, dir, "c.pdf")

	r := NewRunner(validate.New(), WithConcurrency(2))
	outcomes, err := r.Batch(context.Background(), []string{p1, p2, p3}, validate.LevelAA)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	if outcomes[0].Path != p1 || outcomes[1].Path != p2 || outcomes[2].Path != p3 {
		t.Errorf("order = %v, %v, %v", outcomes[0].Path, outcomes[1].Path, outcomes[2].Path)
	}
	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Errorf("outcome 0 = %+v", outcomes[0])
	}
	if outcomes[1].Err == nil || outcomes[1].Result != nil {
		t.Errorf("missing file must fail its own outcome: %+v", outcomes[1])
	}
	if outcomes[2].Result == nil {
		t.Errorf("outcome 2 = %+v", outcomes[2])
	}
	// The serialized document is untagged and has no title, so it cannot be
	// compliant.
	if outcomes[0].Result.IsCompliant {
		t.Error("bare document reported compliant")
	}
}

func TestBatch_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeTestPDF(t, dir, "a.pdf")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRunner(validate.New()).Batch(ctx, paths, validate.LevelAA); err == nil {
		t.Fatal("canceled context must abort the batch")
	}
}

func TestBatch_Empty(t *testing.T) {
	outcomes, err := NewRunner(validate.New()).Batch(context.Background(), nil, validate.LevelAA)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 0 {
		t.Errorf("got %v", outcomes)
	}
}
