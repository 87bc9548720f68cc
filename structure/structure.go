// Package structure is the structure-tree adapter: it opens a PDF into the
// semantic document model, performs all tag-graph mutations, and serializes
// the mutated object graph back to bytes. The in-memory Page.Elements order
// is authoritative; the tag graph is kept as a best-effort projection of it.
package structure

import (
	"errors"
	"fmt"
	"os"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
	"github.com/a11ykit/pdfa11y/parser"
	"github.com/a11ykit/pdfa11y/xref"
)

// OpenErrorKind classifies why a document could not be opened.
type OpenErrorKind int

const (
	InvalidSignature OpenErrorKind = iota
	MissingXref
	Encrypted
	NotFound
)

func (k OpenErrorKind) String() string {
	switch k {
	case InvalidSignature:
		return "invalid signature"
	case MissingXref:
		return "missing cross-reference table"
	case Encrypted:
		return "encrypted"
	case NotFound:
		return "not found"
	}
	return "unknown"
}

// OpenError is the only error Open returns. No partial document accompanies
// it.
type OpenError struct {
	Kind OpenErrorKind
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("open %s: %s", e.Path, e.Kind)
	}
	return "open: " + e.Kind.String()
}

func (e *OpenError) Unwrap() error { return e.Err }

// Adapter wraps one document's raw object graph and its semantic model.
// Mutating calls must be serialized by the caller; validation reads are safe
// once no mutation is in flight.
type Adapter struct {
	raw  *raw.Document
	doc  *semantic.Document
	log  observability.Logger
	path string

	pageRefs  []raw.ObjectRef         // index i holds the ref of page i+1
	refToPage map[raw.ObjectRef]int   // inverse of pageRefs
}

// Option configures an Adapter at Open time.
type Option func(*Adapter)

// WithLogger routes recovery diagnostics to log instead of discarding them.
func WithLogger(log observability.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// Open parses raw PDF bytes and builds the document model. Failure modes
// are classified: a missing %PDF signature, an encrypted file, and an
// unusable cross-reference table each get their own kind.
func Open(data []byte, opts ...Option) (*Adapter, error) {
	return open(data, "", opts...)
}

// OpenFile reads and opens a file. A failed read reports NotFound.
func OpenFile(path string, opts ...Option) (*Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OpenError{Kind: NotFound, Path: path, Err: err}
	}
	a, err := open(data, path, opts...)
	if err != nil {
		if oe, ok := err.(*OpenError); ok {
			oe.Path = path
		}
		return nil, err
	}
	return a, nil
}

func open(data []byte, path string, opts ...Option) (*Adapter, error) {
	rawDoc, err := parser.Parse(data)
	if err != nil {
		return nil, &OpenError{Kind: classifyParseError(err), Path: path, Err: err}
	}
	a := &Adapter{raw: rawDoc, log: observability.NopLogger{}, path: path}
	for _, opt := range opts {
		opt(a)
	}
	a.buildModel()
	return a, nil
}

func classifyParseError(err error) OpenErrorKind {
	switch {
	case errors.Is(err, parser.ErrInvalidHeader):
		return InvalidSignature
	case errors.Is(err, parser.ErrEncrypted):
		return Encrypted
	case errors.Is(err, xref.ErrMissing):
		return MissingXref
	}
	return MissingXref
}

// fromRaw wraps an already-parsed object graph. Used by tests that build
// graphs programmatically.
func fromRaw(rawDoc *raw.Document) *Adapter {
	a := &Adapter{raw: rawDoc, log: observability.NopLogger{}}
	a.buildModel()
	return a
}

// buildModel assembles the semantic document from the raw graph.
func (a *Adapter) buildModel() {
	doc := &semantic.Document{
		Path:       a.path,
		Metadata:   make(map[string]string),
		AltTextMap: make(map[int][]semantic.AltInfo),
	}
	a.doc = doc
	a.refToPage = make(map[raw.ObjectRef]int)

	catalog, ok := a.raw.Catalog()
	if !ok {
		a.log.Warn("document has no resolvable catalog")
		return
	}

	a.buildPages(catalog)
	a.readInfo()
	a.readCatalogState(catalog)
	a.readOutline(catalog)
	doc.AltTextMap = a.WalkAltTexts()
}

// readInfo copies the trailer Info dictionary into document metadata.
func (a *Adapter) readInfo() {
	if a.raw.Trailer == nil {
		return
	}
	infoObj, ok := a.raw.Trailer.Get("Info")
	if !ok {
		return
	}
	info, ok := a.raw.ResolveDict(infoObj)
	if !ok {
		return
	}
	for key, metaKey := range map[string]string{
		"Title":        "title",
		"Author":       "author",
		"Subject":      "subject",
		"Creator":      "creator",
		"Producer":     "producer",
		"CreationDate": "creation_date",
		"ModDate":      "mod_date",
	} {
		if v := info.String(key); v != "" {
			a.doc.Metadata[metaKey] = v
		}
	}
	a.doc.Title = a.doc.Metadata["title"]
	a.doc.Author = a.doc.Metadata["author"]
}

// readCatalogState populates language and the tag-state flags.
func (a *Adapter) readCatalogState(catalog *raw.DictObj) {
	if lang := catalog.String("Lang"); lang != "" {
		a.doc.Language = lang
		a.doc.Metadata["language"] = lang
	}
	if miObj, ok := catalog.Get("MarkInfo"); ok {
		if mi, ok := a.raw.ResolveDict(miObj); ok {
			a.doc.IsTagged = mi.Bool("Marked")
		}
	}
	if _, ok := a.structRoot(); ok {
		a.doc.HasStructure = true
	}
}

// structRoot resolves the structure tree root dictionary if present.
func (a *Adapter) structRoot() (*raw.DictObj, bool) {
	catalog, ok := a.raw.Catalog()
	if !ok {
		return nil, false
	}
	obj, ok := catalog.Get("StructTreeRoot")
	if !ok {
		return nil, false
	}
	return a.raw.ResolveDict(obj)
}

// readOutline flattens the bookmark tree.
func (a *Adapter) readOutline(catalog *raw.DictObj) {
	outlinesObj, ok := catalog.Get("Outlines")
	if !ok {
		return
	}
	outlines, ok := a.raw.ResolveDict(outlinesObj)
	if !ok {
		return
	}
	first, ok := outlines.Get("First")
	if !ok {
		return
	}
	a.walkOutline(first, 1, 0)
}

const maxOutlineDepth = 32

func (a *Adapter) walkOutline(obj raw.Object, level, depth int) {
	if depth > maxOutlineDepth {
		return
	}
	seen := 0
	for obj != nil && seen < 4096 {
		item, ok := a.raw.ResolveDict(obj)
		if !ok {
			return
		}
		seen++
		entry := semantic.OutlineItem{Level: level, Title: item.String("Title"), Page: a.destPage(item)}
		a.doc.Outline = append(a.doc.Outline, entry)
		if first, ok := item.Get("First"); ok {
			a.walkOutline(first, level+1, depth+1)
		}
		next, ok := item.Get("Next")
		if !ok {
			return
		}
		obj = next
	}
}

// destPage resolves an outline item's destination page number, 0 if unknown.
func (a *Adapter) destPage(item *raw.DictObj) int {
	destObj, ok := item.Get("Dest")
	if !ok {
		if actObj, ok2 := item.Get("A"); ok2 {
			if act, ok3 := a.raw.ResolveDict(actObj); ok3 {
				destObj, ok = act.Get("D")
			}
		}
	}
	if !ok {
		return 0
	}
	dest := a.raw.Resolve(destObj)
	arr, ok := dest.(*raw.ArrayObj)
	if !ok || arr.Len() == 0 {
		return 0
	}
	if ref, ok := arr.Items[0].(raw.RefObj); ok {
		if n, ok := a.refToPage[ref.R]; ok {
			return n
		}
	}
	return 0
}

// Document returns the semantic model. It remains a valid read-only
// snapshot after Close.
func (a *Adapter) Document() *semantic.Document { return a.doc }

// Closed reports whether the raw graph has been released.
func (a *Adapter) Closed() bool { return a.raw == nil }

// Close releases the raw object graph. The semantic Document stays usable
// as a read-only snapshot; all mutating operations fail afterwards.
func (a *Adapter) Close() {
	a.raw = nil
	a.pageRefs = nil
	a.refToPage = nil
}
