// Package filters decodes PDF stream filters. Only the filters this module
// actually encounters are implemented: FlateDecode (with optional PNG
// predictors) and the identity pass-through. Image codecs (DCT, JPX, JBIG2)
// are out of scope; their streams are carried opaquely.
package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/a11ykit/pdfa11y/ir/raw"
)

// ErrUnsupported reports a filter this module does not decode.
type ErrUnsupported struct{ Filter string }

func (e ErrUnsupported) Error() string { return "filters: unsupported filter " + e.Filter }

// maxDecompressedSize bounds decoder output against zip bombs.
const maxDecompressedSize = 64 << 20

// Decode applies a single named filter to data.
func Decode(name string, data []byte, parms *raw.DictObj) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return flateDecode(data, parms)
	case "":
		return data, nil
	default:
		return nil, ErrUnsupported{Filter: name}
	}
}

// DecodeStream resolves the Filter/DecodeParms entries of a stream and
// returns its decoded payload.
func DecodeStream(doc *raw.Document, st *raw.StreamObj) ([]byte, error) {
	if st == nil {
		return nil, nil
	}
	names, parms := filterChain(doc, st.Dict)
	data := st.Data
	for i, name := range names {
		var p *raw.DictObj
		if i < len(parms) {
			p = parms[i]
		}
		decoded, err := Decode(name, data, p)
		if err != nil {
			return nil, err
		}
		data = decoded
	}
	return data, nil
}

func filterChain(doc *raw.Document, dict *raw.DictObj) ([]string, []*raw.DictObj) {
	if dict == nil {
		return nil, nil
	}
	var names []string
	fObj, ok := dict.Get("Filter")
	if !ok {
		return nil, nil
	}
	switch v := doc.Resolve(fObj).(type) {
	case raw.NameObj:
		names = []string{v.Val}
	case *raw.ArrayObj:
		for _, it := range v.Items {
			if n, ok := doc.Resolve(it).(raw.NameObj); ok {
				names = append(names, n.Val)
			}
		}
	}
	parms := make([]*raw.DictObj, len(names))
	if dp, ok := dict.Get("DecodeParms"); ok {
		switch v := doc.Resolve(dp).(type) {
		case *raw.DictObj:
			if len(parms) > 0 {
				parms[0] = v
			}
		case *raw.ArrayObj:
			for i, it := range v.Items {
				if i >= len(parms) {
					break
				}
				if d, ok := doc.Resolve(it).(*raw.DictObj); ok {
					parms[i] = d
				}
			}
		}
	}
	return names, parms
}

func flateDecode(data []byte, parms *raw.DictObj) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("filters: flate: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("filters: flate: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("filters: flate output exceeds %d bytes", maxDecompressedSize)
	}
	if parms == nil {
		return out, nil
	}
	predictor := int(parms.Int("Predictor"))
	if predictor <= 1 {
		return out, nil
	}
	columns := int(parms.Int("Columns"))
	if columns <= 0 {
		columns = 1
	}
	colors := int(parms.Int("Colors"))
	if colors <= 0 {
		colors = 1
	}
	bpc := int(parms.Int("BitsPerComponent"))
	if bpc <= 0 {
		bpc = 8
	}
	return applyPNGPredictor(out, columns, colors, bpc)
}

// applyPNGPredictor reverses PNG row predictors (predictor values 10-15).
func applyPNGPredictor(data []byte, columns, colors, bpc int) ([]byte, error) {
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	if rowLen <= 0 {
		return nil, fmt.Errorf("filters: bad predictor row length")
	}
	stride := rowLen + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("filters: predictor data not a whole number of rows")
	}
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		ft := data[r*stride]
		copy(cur, data[r*stride+1:(r+1)*stride])
		switch ft {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				var left byte
				if i >= bpp {
					left = cur[i-bpp]
				}
				cur[i] += byte((int(left) + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("filters: unknown predictor row type %d", ft)
		}
		out = append(out, cur...)
		copy(prev, cur)
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
