package xref

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/a11ykit/pdfa11y/ir/raw"
)

// buildFile assembles a one-object file with a classic xref table so the
// recorded offsets are real.
func buildFile() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.7\n")
	objOff := b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	xrefOff := b.Len()
	b.WriteString("xref\n0 2\n")
	b.WriteString("0000000000 65535 f \n")
	fmt.Fprintf(&b, "%010d 00000 n \n", objOff)
	b.WriteString("trailer\n<< /Size 2 /Root 1 0 R >>\n")
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xrefOff)
	return []byte(b.String())
}

func TestResolve_ClassicTable(t *testing.T) {
	data := buildFile()
	tab, err := Resolve(data)
	if err != nil {
		t.Fatal(err)
	}
	off, gen, ok := tab.Lookup(1)
	if !ok || gen != 0 {
		t.Fatalf("object 1 not found: ok=%v gen=%d", ok, gen)
	}
	if got := string(data[off : off+7]); got != "1 0 obj" {
		t.Errorf("offset points at %q", got)
	}
	if _, _, ok := tab.Lookup(0); ok {
		t.Error("free entry 0 should not resolve")
	}
	root, ok := tab.Trailer.Get("Root")
	if !ok {
		t.Fatal("trailer missing Root")
	}
	ref, ok := root.(raw.RefObj)
	if !ok || ref.R.Num != 1 {
		t.Errorf("Root = %#v", root)
	}
}

func TestResolve_PrevChain(t *testing.T) {
	var b strings.Builder
	b.WriteString("%PDF-1.7\n")
	obj1 := b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	oldXref := b.Len()
	b.WriteString("xref\n0 2\n0000000000 65535 f \n")
	fmt.Fprintf(&b, "%010d 00000 n \n", obj1)
	b.WriteString("trailer\n<< /Size 2 /Root 1 0 R >>\n")
	// Incremental update: object 1 rewritten, new table chains to the old.
	obj1b := b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Lang (en) >>\nendobj\n")
	newXref := b.Len()
	b.WriteString("xref\n1 1\n")
	fmt.Fprintf(&b, "%010d 00000 n \n", obj1b)
	fmt.Fprintf(&b, "trailer\n<< /Size 2 /Root 1 0 R /Prev %d >>\n", oldXref)
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", newXref)
	data := []byte(b.String())

	tab, err := Resolve(data)
	if err != nil {
		t.Fatal(err)
	}
	off, _, ok := tab.Lookup(1)
	if !ok {
		t.Fatal("object 1 missing")
	}
	if off != int64(obj1b) {
		t.Errorf("newest section should win: off=%d want %d", off, obj1b)
	}
	if _, ok := tab.Trailer.Get("Prev"); !ok {
		t.Error("newest trailer should be kept")
	}
}

func TestResolve_NoStartxref(t *testing.T) {
	_, err := Resolve([]byte("%PDF-1.4\nno table here"))
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("want ErrMissing, got %v", err)
	}
}

func TestRepair_ScansObjectHeaders(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\n2 0 obj\n(x)\nendobj\n" +
		"trailer\n<< /Size 3 /Root 1 0 R >>\n")
	tab, err := Repair(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, num := range []int{1, 2} {
		off, _, ok := tab.Lookup(num)
		if !ok {
			t.Fatalf("object %d missing after repair", num)
		}
		want := fmt.Sprintf("%d 0 obj", num)
		if got := string(data[off : off+int64(len(want))]); got != want {
			t.Errorf("object %d offset points at %q", num, got)
		}
	}
	if _, ok := tab.Trailer.Get("Root"); !ok {
		t.Error("repaired trailer missing Root")
	}
}

func TestRepair_DuplicateHeadersLastWins(t *testing.T) {
	data := []byte("1 0 obj\n(old)\nendobj\n1 0 obj\n(new)\nendobj\n")
	tab, err := Repair(data)
	if err != nil {
		t.Fatal(err)
	}
	off, _, _ := tab.Lookup(1)
	if off == 0 {
		t.Errorf("expected later header to win, got offset %d", off)
	}
}
