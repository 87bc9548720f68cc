package structure

import (
	"fmt"
	"strings"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
	"github.com/a11ykit/pdfa11y/scanner"
)

// matrix is an affine transform [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

type gstate struct {
	ctm  matrix
	fill uint32
}

// interpreter executes the subset of content-stream operators needed to
// extract text elements with position, size, style and color, plus image
// placements. It is not a renderer.
type interpreter struct {
	doc       *raw.Document
	resources *raw.DictObj
	page      *semantic.Page
	log       observability.Logger

	ctm   matrix
	stack []gstate
	fill  uint32

	fontName string
	fontBold bool
	size     float64
	leading  float64
	tx, ty   float64 // current text position, PDF user space
	lx, ly   float64 // start of the current line
}

func newInterpreter(doc *raw.Document, resources *raw.DictObj, page *semantic.Page, log observability.Logger) *interpreter {
	return &interpreter{doc: doc, resources: resources, page: page, log: log, ctm: identity}
}

// run tokenizes and executes the content stream. Operand or operator errors
// abort interpretation of the remainder; elements found so far are kept.
func (in *interpreter) run(content []byte) {
	s := scanner.New(content)
	var operands []scanner.Token
	for {
		tok, err := s.Next()
		if err != nil {
			if err != scanner.ErrUnexpectedEOF {
				in.log.Warn("content stream aborted", observability.Error("err", err))
			}
			return
		}
		switch tok.Type {
		case scanner.TokenKeyword:
			if tok.Str == "BI" {
				// Inline image: binary payload the tokenizer cannot cross.
				in.log.Warn("inline image skipped, rest of stream dropped")
				return
			}
			in.exec(tok.Str, operands)
			operands = operands[:0]
		case scanner.TokenArray:
			arr, err := collectArray(s)
			if err != nil {
				return
			}
			operands = append(operands, arr...)
			operands = append(operands, scanner.Token{Type: scanner.TokenKeyword, Str: "]"})
		default:
			operands = append(operands, tok)
		}
	}
}

// collectArray gathers tokens until the matching close bracket, flattening
// nested arrays (TJ arrays never nest in practice).
func collectArray(s *scanner.Scanner) ([]scanner.Token, error) {
	var out []scanner.Token
	depth := 1
	for depth > 0 {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenArray {
			depth++
			continue
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "]" {
			depth--
			continue
		}
		out = append(out, tok)
	}
	return out, nil
}

func (in *interpreter) exec(op string, args []scanner.Token) {
	switch op {
	case "q":
		in.stack = append(in.stack, gstate{ctm: in.ctm, fill: in.fill})
	case "Q":
		if n := len(in.stack); n > 0 {
			g := in.stack[n-1]
			in.stack = in.stack[:n-1]
			in.ctm, in.fill = g.ctm, g.fill
		}
	case "cm":
		if m, ok := matrixArgs(args); ok {
			in.ctm = m.mul(in.ctm)
		}
	case "BT":
		in.tx, in.ty, in.lx, in.ly = 0, 0, 0, 0
	case "ET":
	case "Tf":
		if len(args) >= 2 && args[0].Type == scanner.TokenName {
			in.setFont(args[0].Str, args[1].Float)
		}
	case "TL":
		if len(args) >= 1 {
			in.leading = args[0].Float
		}
	case "Td":
		if len(args) >= 2 {
			in.lx += args[0].Float
			in.ly += args[1].Float
			in.tx, in.ty = in.lx, in.ly
		}
	case "TD":
		if len(args) >= 2 {
			in.leading = -args[1].Float
			in.lx += args[0].Float
			in.ly += args[1].Float
			in.tx, in.ty = in.lx, in.ly
		}
	case "Tm":
		if m, ok := matrixArgs(args); ok {
			in.lx, in.ly = m[4], m[5]
			in.tx, in.ty = m[4], m[5]
		}
	case "T*":
		in.newline()
	case "Tj":
		if len(args) >= 1 && args[0].Type == scanner.TokenString {
			in.show(string(args[0].Bytes))
		}
	case "'":
		in.newline()
		if len(args) >= 1 && args[0].Type == scanner.TokenString {
			in.show(string(args[0].Bytes))
		}
	case "\"":
		in.newline()
		if len(args) >= 3 && args[2].Type == scanner.TokenString {
			in.show(string(args[2].Bytes))
		}
	case "TJ":
		var b strings.Builder
		for _, t := range args {
			if t.Type == scanner.TokenString {
				b.Write(t.Bytes)
			}
		}
		if b.Len() > 0 {
			in.show(b.String())
		}
	case "rg":
		if len(args) >= 3 {
			in.fill = packColor(args[0].Float, args[1].Float, args[2].Float)
		}
	case "g":
		if len(args) >= 1 {
			v := args[0].Float
			in.fill = packColor(v, v, v)
		}
	case "Do":
		if len(args) >= 1 && args[0].Type == scanner.TokenName {
			in.placeXObject(args[0].Str)
		}
	}
}

func matrixArgs(args []scanner.Token) (matrix, bool) {
	if len(args) < 6 {
		return identity, false
	}
	var m matrix
	for i := 0; i < 6; i++ {
		if args[i].Type != scanner.TokenNumber {
			return identity, false
		}
		m[i] = args[i].Float
	}
	return m, true
}

func packColor(r, g, b float64) uint32 {
	return uint32(clamp8(r))<<16 | uint32(clamp8(g))<<8 | uint32(clamp8(b))
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// setFont resolves the resource name to the real font and a bold flag.
func (in *interpreter) setFont(resName string, size float64) {
	in.size = size
	in.fontName = resName
	in.fontBold = false
	fontsObj, ok := in.resources.Get("Font")
	if !ok {
		return
	}
	fonts, ok := in.doc.ResolveDict(fontsObj)
	if !ok {
		return
	}
	fontObj, ok := fonts.Get(resName)
	if !ok {
		return
	}
	font, ok := in.doc.ResolveDict(fontObj)
	if !ok {
		return
	}
	if base := font.Name("BaseFont"); base != "" {
		in.fontName = base
		in.fontBold = strings.Contains(strings.ToLower(base), "bold")
	}
}

func (in *interpreter) newline() {
	lead := in.leading
	if lead == 0 {
		lead = in.size * 1.2
	}
	in.ly -= lead
	in.tx, in.ty = in.lx, in.ly
}

// approxCharWidth estimates advance per character as a fraction of the font
// size. Good enough for bucketing and ordering; not for layout.
const approxCharWidth = 0.5

// show emits one text element at the current position and advances.
func (in *interpreter) show(text string) {
	if text == "" {
		return
	}
	size := in.size
	if size <= 0 {
		size = 12
	}
	width := approxCharWidth * size * float64(len(text))
	flags := 0
	if in.fontBold {
		flags |= semantic.StyleBold
	}
	el := &semantic.Element{
		Kind:       semantic.KindText,
		Text:       text,
		PageNumber: in.page.Number,
		BBox: semantic.BBox{
			X0: in.tx,
			Y0: in.page.Height - in.ty - size,
			X1: in.tx + width,
			Y1: in.page.Height - in.ty,
		},
		Attributes: semantic.Attributes{
			Font:  in.fontName,
			Size:  size,
			Color: in.fill,
			Flags: flags,
		},
	}
	in.page.Elements = append(in.page.Elements, el)
	in.tx += width
}

// imageElementName labels image placements so descriptors can adopt their
// placed bbox.
func imageElementName(objNum int) string { return fmt.Sprintf("image#%d", objNum) }

// placeXObject emits an image element for Do on an image XObject. The bbox
// is the unit square mapped through the CTM, ignoring skew.
func (in *interpreter) placeXObject(resName string) {
	xObj, ok := in.resources.Get("XObject")
	if !ok {
		return
	}
	xDict, ok := in.doc.ResolveDict(xObj)
	if !ok {
		return
	}
	obj, ok := xDict.Get(resName)
	if !ok {
		return
	}
	objNum := 0
	if ref, ok := obj.(raw.RefObj); ok {
		objNum = ref.R.Num
	}
	st, ok := in.doc.Resolve(obj).(*raw.StreamObj)
	if !ok || st.Dict.Name("Subtype") != "Image" {
		return
	}
	x0, y0 := in.ctm[4], in.ctm[5]
	x1, y1 := x0+in.ctm[0], y0+in.ctm[3]
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	el := &semantic.Element{
		Kind:       semantic.KindImage,
		Text:       imageElementName(objNum),
		PageNumber: in.page.Number,
		BBox: semantic.BBox{
			X0: x0,
			Y0: in.page.Height - y1,
			X1: x1,
			Y1: in.page.Height - y0,
		},
	}
	in.page.Elements = append(in.page.Elements, el)
}
