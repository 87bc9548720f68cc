package structure

import (
	"golang.org/x/text/language"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
)

// AddTag creates a new structure node tagged tag on the given 1-indexed
// page and appends it to the structure root's children. Alt is written only
// for Figure nodes. The operation is append-only: it never searches for or
// replaces an existing node for the same element, so repeated calls on the
// same logical element accumulate duplicates.
func (a *Adapter) AddTag(page int, bbox semantic.BBox, tag semantic.Tag, altText string) bool {
	if a.raw == nil || !tag.Valid() {
		return false
	}
	if page < 1 || page > len(a.pageRefs) {
		return false
	}
	root, ok := a.ensureStructRoot()
	if !ok {
		return false
	}

	node := raw.Dict()
	node.Set("Type", raw.Name("StructElem"))
	node.Set("S", raw.Name(string(tag)))
	node.Set("Pg", raw.RefObj{R: a.pageRefs[page-1]})
	if tag == semantic.TagFigure && altText != "" {
		node.Set("Alt", raw.Str(altText))
	}
	// BBox is carried as a Layout attribute so downstream tools can relate
	// the node back to the region it covers.
	attr := raw.Dict()
	attr.Set("O", raw.Name("Layout"))
	attr.Set("BBox", raw.Array(
		raw.Float(bbox.X0), raw.Float(bbox.Y0), raw.Float(bbox.X1), raw.Float(bbox.Y1)))
	node.Set("A", attr)

	ref := a.raw.NextRef()
	a.raw.Objects[ref] = node
	rootKids(root).Append(raw.RefObj{R: ref})

	a.doc.HasStructure = true
	a.doc.AltTextMap = a.WalkAltTexts()
	a.log.Debug("structure node added",
		observability.String("tag", string(tag)), observability.Int("page", page))
	return true
}

// EnsureTagged creates the structure root (with empty children) and forces
// the catalog's marked flag true. An existing tree is left untouched.
// Idempotent.
func (a *Adapter) EnsureTagged() bool {
	if a.raw == nil {
		return false
	}
	catalog, ok := a.raw.Catalog()
	if !ok {
		return false
	}
	if _, ok := a.ensureStructRoot(); !ok {
		return false
	}
	mi, ok := a.raw.ResolveDict(mustObj(catalog, "MarkInfo"))
	if !ok {
		mi = raw.Dict()
		catalog.Set("MarkInfo", mi)
	}
	mi.Set("Marked", raw.Bool(true))

	a.doc.IsTagged = true
	a.doc.HasStructure = true
	a.doc.AltTextMap = a.WalkAltTexts()
	return true
}

// ensureStructRoot returns the structure root, creating an empty one (and
// linking it from the catalog) when missing.
func (a *Adapter) ensureStructRoot() (*raw.DictObj, bool) {
	if root, ok := a.structRoot(); ok {
		return root, true
	}
	catalog, ok := a.raw.Catalog()
	if !ok {
		return nil, false
	}
	root := raw.Dict()
	root.Set("Type", raw.Name("StructTreeRoot"))
	root.Set("K", raw.Array())
	ref := a.raw.NextRef()
	a.raw.Objects[ref] = root
	catalog.Set("StructTreeRoot", raw.RefObj{R: ref})
	return root, true
}

// rootKids normalizes the root's K entry to an array, in place.
func rootKids(root *raw.DictObj) *raw.ArrayObj {
	if arr := root.Array("K"); arr != nil {
		return arr
	}
	arr := raw.Array()
	if existing, ok := root.Get("K"); ok {
		arr.Append(existing)
	}
	root.Set("K", arr)
	return arr
}

// SetTitle writes the document title into the Info dictionary. The model's
// Title is updated only on success.
func (a *Adapter) SetTitle(text string) bool {
	if a.raw == nil || a.raw.Trailer == nil {
		return false
	}
	info, ok := a.raw.ResolveDict(mustObj(a.raw.Trailer, "Info"))
	if !ok {
		info = raw.Dict()
		ref := a.raw.NextRef()
		a.raw.Objects[ref] = info
		a.raw.Trailer.Set("Info", raw.RefObj{R: ref})
	}
	info.Set("Title", raw.Str(text))
	a.doc.Title = text
	a.doc.Metadata["title"] = text
	return true
}

// SetLanguage writes the catalog /Lang entry. A code that parses as a BCP 47
// tag is stored in canonical form; anything else is written verbatim and
// left for the validator to flag.
func (a *Adapter) SetLanguage(code string) bool {
	if a.raw == nil {
		return false
	}
	catalog, ok := a.raw.Catalog()
	if !ok {
		return false
	}
	if tag, err := language.Parse(code); err == nil {
		code = tag.String()
	}
	catalog.Set("Lang", raw.Str(code))
	a.doc.Language = code
	a.doc.Metadata["language"] = code
	return true
}

// ReorderPageElements applies a permutation to a page's element order. The
// permutation must be a bijection over the current indices; anything else is
// rejected with the document unchanged. The structure tree's root children
// resolved to the same page are reordered identically only when their count
// matches the permutation length; otherwise the tree side is skipped and the
// two representations are allowed to diverge.
func (a *Adapter) ReorderPageElements(page int, permutation []int) bool {
	if a.raw == nil || page < 1 || page > len(a.doc.Pages) {
		return false
	}
	p := a.doc.Pages[page-1]
	n := len(p.Elements)
	if len(permutation) != n || !isBijection(permutation, n) {
		return false
	}

	reordered := make([]*semantic.Element, n)
	for i, src := range permutation {
		reordered[i] = p.Elements[src]
	}
	p.Elements = reordered

	a.reorderTreeChildren(page, permutation)
	a.doc.AltTextMap = a.WalkAltTexts()
	return true
}

func isBijection(perm []int, n int) bool {
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// reorderTreeChildren applies the permutation to the root children whose
// resolved page equals page, leaving children of other pages in place.
func (a *Adapter) reorderTreeChildren(page int, permutation []int) {
	root, ok := a.structRoot()
	if !ok {
		return
	}
	kids := root.Array("K")
	if kids == nil {
		return
	}
	var slots []int
	for i, item := range kids.Items {
		node, ok := a.raw.ResolveDict(item)
		if !ok {
			continue
		}
		if a.resolveNodePage(node, 0) == page {
			slots = append(slots, i)
		}
	}
	if len(slots) != len(permutation) {
		a.log.Debug("tree-side reorder skipped: child count mismatch",
			observability.Int("page", page),
			observability.Int("children", len(slots)),
			observability.Int("elements", len(permutation)))
		return
	}
	current := make([]raw.Object, len(slots))
	for i, slot := range slots {
		current[i] = kids.Items[slot]
	}
	for i, src := range permutation {
		kids.Items[slots[i]] = current[src]
	}
}
