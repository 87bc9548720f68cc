package structure

import (
	"sort"
	"strings"

	"github.com/a11ykit/pdfa11y/filters"
	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
)

const maxPageTreeDepth = 64

// buildPages walks the page tree and builds one semantic.Page per leaf.
func (a *Adapter) buildPages(catalog *raw.DictObj) {
	pagesObj, ok := catalog.Get("Pages")
	if !ok {
		a.log.Warn("catalog has no Pages entry")
		return
	}
	a.collectPageRefs(pagesObj, 0)
	for i, ref := range a.pageRefs {
		a.refToPage[ref] = i + 1
	}
	for i, ref := range a.pageRefs {
		dict, ok := a.raw.ResolveDict(raw.RefObj{R: ref})
		if !ok {
			continue
		}
		page := a.buildPage(i+1, ref, dict)
		a.doc.Pages = append(a.doc.Pages, page)
	}
}

// collectPageRefs gathers leaf page references in tree order.
func (a *Adapter) collectPageRefs(obj raw.Object, depth int) {
	if depth > maxPageTreeDepth {
		return
	}
	ref, isRef := obj.(raw.RefObj)
	dict, ok := a.raw.ResolveDict(obj)
	if !ok {
		return
	}
	switch dict.Name("Type") {
	case "Pages":
		kids := dict.Array("Kids")
		if kids == nil {
			if arr, ok := a.raw.Resolve(mustObj(dict, "Kids")).(*raw.ArrayObj); ok {
				kids = arr
			}
		}
		if kids == nil {
			return
		}
		for _, kid := range kids.Items {
			a.collectPageRefs(kid, depth+1)
		}
	case "Page":
		if isRef {
			a.pageRefs = append(a.pageRefs, ref.R)
		}
	}
}

func mustObj(d *raw.DictObj, key string) raw.Object {
	if v, ok := d.Get(key); ok {
		return v
	}
	return raw.NullObj{}
}

// buildPage extracts size, content elements, images and links.
func (a *Adapter) buildPage(number int, ref raw.ObjectRef, dict *raw.DictObj) *semantic.Page {
	page := &semantic.Page{Number: number, Ref: ref}

	if box := a.rectOf(dict, "MediaBox"); box != nil {
		page.Width = box[2] - box[0]
		page.Height = box[3] - box[1]
	}

	resources := a.pageResources(dict)
	content := a.pageContent(dict)
	if len(content) > 0 {
		interp := newInterpreter(a.raw, resources, page, a.log)
		interp.run(content)
	}

	var texts []string
	for _, el := range page.Elements {
		if el.Kind == semantic.KindText && strings.TrimSpace(el.Text) != "" {
			texts = append(texts, el.Text)
		}
	}
	page.Text = strings.Join(texts, "\n")

	a.collectImages(page, resources)
	a.collectLinks(page, dict)
	return page
}

// rectOf reads a 4-number rectangle entry, following inheritance upward is
// not needed here: the files this module writes and reads keep MediaBox on
// the leaf.
func (a *Adapter) rectOf(dict *raw.DictObj, key string) []float64 {
	obj, ok := dict.Get(key)
	if !ok {
		return nil
	}
	arr, ok := a.raw.Resolve(obj).(*raw.ArrayObj)
	if !ok || arr.Len() != 4 {
		return nil
	}
	out := make([]float64, 4)
	for i, item := range arr.Items {
		n, ok := a.raw.Resolve(item).(raw.NumberObj)
		if !ok {
			return nil
		}
		out[i] = n.Float()
	}
	return out
}

// pageResources resolves the Resources dictionary, empty when absent.
func (a *Adapter) pageResources(dict *raw.DictObj) *raw.DictObj {
	if obj, ok := dict.Get("Resources"); ok {
		if res, ok := a.raw.ResolveDict(obj); ok {
			return res
		}
	}
	return raw.Dict()
}

// pageContent concatenates and decodes the page's content streams.
func (a *Adapter) pageContent(dict *raw.DictObj) []byte {
	obj, ok := dict.Get("Contents")
	if !ok {
		return nil
	}
	var out []byte
	appendStream := func(o raw.Object) {
		st, ok := a.raw.Resolve(o).(*raw.StreamObj)
		if !ok {
			return
		}
		data, err := filters.DecodeStream(a.raw, st)
		if err != nil {
			a.log.Warn("content stream decode failed", observability.Error("err", err))
			return
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, data...)
	}
	switch v := a.raw.Resolve(obj).(type) {
	case *raw.StreamObj:
		appendStream(obj)
	case *raw.ArrayObj:
		for _, item := range v.Items {
			appendStream(item)
		}
	}
	return out
}

// collectImages records image XObject descriptors from the resources.
func (a *Adapter) collectImages(page *semantic.Page, resources *raw.DictObj) {
	xObj, ok := resources.Get("XObject")
	if !ok {
		return
	}
	xDict, ok := a.raw.ResolveDict(xObj)
	if !ok {
		return
	}
	index := 0
	for _, obj := range sortedValues(xDict) {
		objNum := 0
		if ref, ok := obj.(raw.RefObj); ok {
			objNum = ref.R.Num
		}
		st, ok := a.raw.Resolve(obj).(*raw.StreamObj)
		if !ok || st.Dict.Name("Subtype") != "Image" {
			continue
		}
		desc := semantic.ImageDesc{
			Index:            index,
			ObjectNum:        objNum,
			Width:            int(st.Dict.Int("Width")),
			Height:           int(st.Dict.Int("Height")),
			ColorSpace:       st.Dict.Name("ColorSpace"),
			BitsPerComponent: int(st.Dict.Int("BitsPerComponent")),
		}
		// Adopt the placed bbox when the interpreter saw a matching Do.
		for _, el := range page.Elements {
			if el.Kind == semantic.KindImage && el.Text == imageElementName(objNum) {
				desc.BBox = el.BBox
				break
			}
		}
		page.Images = append(page.Images, desc)
		index++
	}
}

// sortedValues iterates a dictionary's values in key order so image indexes
// are stable across runs.
func sortedValues(d *raw.DictObj) []raw.Object {
	keys := make([]string, 0, len(d.KV))
	for k := range d.KV {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]raw.Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, d.KV[k])
	}
	return out
}

// collectLinks records link annotations from /Annots.
func (a *Adapter) collectLinks(page *semantic.Page, dict *raw.DictObj) {
	annotsObj, ok := dict.Get("Annots")
	if !ok {
		return
	}
	annots, ok := a.raw.Resolve(annotsObj).(*raw.ArrayObj)
	if !ok {
		return
	}
	for _, item := range annots.Items {
		annot, ok := a.raw.ResolveDict(item)
		if !ok || annot.Name("Subtype") != "Link" {
			continue
		}
		link := semantic.LinkDesc{}
		if rect := a.rectOf(annot, "Rect"); rect != nil {
			link.BBox = semantic.BBox{
				X0: rect[0],
				Y0: page.Height - rect[3],
				X1: rect[2],
				Y1: page.Height - rect[1],
			}
		}
		if actObj, ok := annot.Get("A"); ok {
			if act, ok := a.raw.ResolveDict(actObj); ok {
				if act.Name("S") == "URI" {
					link.URI = act.String("URI")
				}
			}
		}
		if destObj, ok := annot.Get("Dest"); ok {
			if arr, ok := a.raw.Resolve(destObj).(*raw.ArrayObj); ok && arr.Len() > 0 {
				if ref, ok := arr.Items[0].(raw.RefObj); ok {
					link.TargetPage = a.refToPage[ref.R]
				}
			}
		}
		page.Links = append(page.Links, link)
	}
}
