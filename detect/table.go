package detect

import (
	"math"
	"sort"

	"github.com/a11ykit/pdfa11y/ir/semantic"
)

// TableCandidate is a detected untagged grid of elements.
type TableCandidate struct {
	BBox     semantic.BBox
	RowCount int
	ColCount int
}

const (
	rowBucketUnit   = 10.0 // y positions are bucketed to this granularity
	rowMergeMaxGap  = 30.0 // adjacent rows merge while their keys are this close
	minRowElements  = 3
	minRowDistinctX = 3
	minTableRows    = 2
)

// Tables finds grid-like arrangements of page elements. Elements of every
// kind are bucketed by rounded y; a bucket with at least 3 elements at 3
// distinct x positions is a potential row; consecutive rows within 30 units
// merge into one block, and a block with at least 2 rows is a detection.
func Tables(page *semantic.Page) []TableCandidate {
	rows := make(map[float64][]*semantic.Element)
	for _, el := range page.Elements {
		key := math.Round(el.BBox.Y0/rowBucketUnit) * rowBucketUnit
		rows[key] = append(rows[key], el)
	}

	var keys []float64
	for key, els := range rows {
		if len(els) < minRowElements {
			continue
		}
		xs := make(map[float64]struct{})
		for _, el := range els {
			xs[el.BBox.X0] = struct{}{}
		}
		if len(xs) < minRowDistinctX {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Float64s(keys)

	var out []TableCandidate
	block := []float64{keys[0]}
	flush := func() {
		if len(block) >= minTableRows {
			out = append(out, buildCandidate(rows, block))
		}
	}
	for _, key := range keys[1:] {
		if key-block[len(block)-1] <= rowMergeMaxGap {
			block = append(block, key)
			continue
		}
		flush()
		block = []float64{key}
	}
	flush()
	return out
}

func buildCandidate(rows map[float64][]*semantic.Element, block []float64) TableCandidate {
	first := rows[block[0]]
	bbox := first[0].BBox
	for _, key := range block {
		for _, el := range rows[key] {
			bbox = bbox.Union(el.BBox)
		}
	}
	return TableCandidate{BBox: bbox, RowCount: len(block), ColCount: len(first)}
}
