// Package writer serializes a raw object graph back to PDF bytes: header,
// body objects in number order, a classic cross-reference table and the
// trailer. Output round-trips through the parser.
package writer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/a11ykit/pdfa11y/ir/raw"
)

// Serialize writes the whole document. The trailer's Root and Info entries
// are preserved; Size and the xref offsets are recomputed.
func Serialize(doc *raw.Document) ([]byte, error) {
	if doc == nil || doc.Trailer == nil {
		return nil, fmt.Errorf("writer: document has no trailer")
	}
	if _, ok := doc.Trailer.Get("Root"); !ok {
		return nil, fmt.Errorf("writer: trailer has no Root")
	}

	refs := make([]raw.ObjectRef, 0, len(doc.Objects))
	for ref := range doc.Objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Num < refs[j].Num })

	var buf bytes.Buffer
	version := doc.Version
	if version == "" {
		version = "1.7"
	}
	fmt.Fprintf(&buf, "%%PDF-%s\n", version)
	// Binary marker comment so transports treat the file as binary.
	buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})

	offsets := make(map[int]int64, len(refs))
	maxNum := 0
	for _, ref := range refs {
		offsets[ref.Num] = int64(buf.Len())
		if ref.Num > maxNum {
			maxNum = ref.Num
		}
		fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
		if err := writeObject(&buf, doc.Objects[ref]); err != nil {
			return nil, fmt.Errorf("writer: object %d: %w", ref.Num, err)
		}
		buf.WriteString("\nendobj\n")
	}

	xrefOff := int64(buf.Len())
	size := maxNum + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	trailer := raw.Dict()
	trailer.Set("Size", raw.Int(int64(size)))
	for _, key := range []string{"Root", "Info", "ID"} {
		if v, ok := doc.Trailer.Get(key); ok {
			trailer.Set(key, v)
		}
	}
	buf.WriteString("trailer\n")
	if err := writeObject(&buf, trailer); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOff)
	return buf.Bytes(), nil
}
