package structure

import (
	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
)

// maxWalkDepth bounds the tag-graph recursion. Malformed files can nest or
// cycle arbitrarily; the visited set handles cycles, the bound handles
// pathological chains.
const maxWalkDepth = 64

// WalkAltTexts visits every structure node reachable from the root and
// records, per page, the alt state of each Figure node. Page resolution
// tries the node's /Pg first, then the nearest marked-content reference
// among its kids; a node whose page cannot be resolved lands on page 1
// rather than failing, so malformed trees degrade instead of crashing.
func (a *Adapter) WalkAltTexts() map[int][]semantic.AltInfo {
	out := make(map[int][]semantic.AltInfo)
	if a.raw == nil {
		return out
	}
	root, ok := a.structRoot()
	if !ok {
		return out
	}
	w := &altWalker{a: a, out: out, visited: make(map[*raw.DictObj]struct{})}
	if kids, ok := root.Get("K"); ok {
		w.walk(kids, 0)
	}
	return out
}

type altWalker struct {
	a       *Adapter
	out     map[int][]semantic.AltInfo
	visited map[*raw.DictObj]struct{}
}

func (w *altWalker) walk(obj raw.Object, depth int) {
	if depth > maxWalkDepth {
		w.a.log.Warn("structure walk depth bound hit")
		return
	}
	switch v := w.a.raw.Resolve(obj).(type) {
	case *raw.ArrayObj:
		for _, item := range v.Items {
			w.walk(item, depth+1)
		}
	case *raw.DictObj:
		if _, seen := w.visited[v]; seen {
			return
		}
		w.visited[v] = struct{}{}
		w.visitNode(v, depth)
	}
	// Bare integers are MCIDs; nothing to record for them here.
}

func (w *altWalker) visitNode(node *raw.DictObj, depth int) {
	typ := node.Name("Type")
	if typ == "MCR" || typ == "OBJR" {
		return
	}
	tag := semantic.Tag(node.Name("S"))
	if tag == semantic.TagFigure {
		info := semantic.AltInfo{Tag: tag}
		if altObj, ok := node.Get("Alt"); ok {
			if s, ok := w.a.raw.Resolve(altObj).(raw.StringObj); ok {
				info.AltText = string(s.Bytes)
				info.HasAlt = true
			}
		}
		page := w.a.resolveNodePage(node, depth)
		w.out[page] = append(w.out[page], info)
	}
	if kids, ok := node.Get("K"); ok {
		w.walk(kids, depth+1)
	}
}

// resolveNodePage maps a structure node to its page number. Defaults to
// page 1 when nothing resolves.
func (a *Adapter) resolveNodePage(node *raw.DictObj, depth int) int {
	if n, ok := a.pageOfPg(node); ok {
		return n
	}
	if n, ok := a.pageFromKids(node, depth); ok {
		return n
	}
	a.log.Warn("structure node page unresolved, defaulting to 1",
		observability.String("tag", node.Name("S")))
	return 1
}

func (a *Adapter) pageOfPg(node *raw.DictObj) (int, bool) {
	pgObj, ok := node.Get("Pg")
	if !ok {
		return 0, false
	}
	ref, ok := pgObj.(raw.RefObj)
	if !ok {
		return 0, false
	}
	n, ok := a.refToPage[ref.R]
	return n, ok
}

// pageFromKids searches the node's kids for the first marked-content
// reference carrying a /Pg.
func (a *Adapter) pageFromKids(node *raw.DictObj, depth int) (int, bool) {
	if depth > maxWalkDepth {
		return 0, false
	}
	kidsObj, ok := node.Get("K")
	if !ok {
		return 0, false
	}
	var items []raw.Object
	switch v := a.raw.Resolve(kidsObj).(type) {
	case *raw.ArrayObj:
		items = v.Items
	case *raw.DictObj:
		items = []raw.Object{v}
	default:
		return 0, false
	}
	for _, item := range items {
		kid, ok := a.raw.ResolveDict(item)
		if !ok {
			continue
		}
		if kid.Name("Type") == "MCR" {
			if n, ok := a.pageOfPg(kid); ok {
				return n, true
			}
		}
	}
	return 0, false
}
