// Package xref resolves PDF cross-reference tables: the index that maps
// object numbers to byte offsets. Classic (table-form) xref sections are
// parsed, including incremental-update Prev chains. When the table is
// missing or unusable, a brute-force repair scan recovers object offsets
// directly from the file body.
package xref

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/scanner"
)

// ErrMissing reports that no usable cross-reference table was found.
var ErrMissing = errors.New("xref: missing or unusable cross-reference table")

// Entry locates one indirect object in the file.
type Entry struct {
	Offset int64
	Gen    int
	Free   bool
}

// Table is a resolved cross-reference index plus the merged trailer.
type Table struct {
	entries map[int]Entry
	Trailer *raw.DictObj
}

// Lookup returns the offset and generation of an in-use object.
func (t *Table) Lookup(num int) (int64, int, bool) {
	e, ok := t.entries[num]
	if !ok || e.Free {
		return 0, 0, false
	}
	return e.Offset, e.Gen, true
}

// Objects returns all in-use object numbers.
func (t *Table) Objects() []int {
	nums := make([]int, 0, len(t.entries))
	for n, e := range t.entries {
		if !e.Free {
			nums = append(nums, n)
		}
	}
	return nums
}

// maxPrevChain bounds how many incremental-update sections are followed.
const maxPrevChain = 64

// Resolve locates the startxref pointer and parses the table chain.
func Resolve(data []byte) (*Table, error) {
	start, err := findStartXref(data)
	if err != nil {
		return nil, err
	}
	t := &Table{entries: make(map[int]Entry)}
	offset := start
	for i := 0; i < maxPrevChain; i++ {
		trailer, prev, err := t.parseSection(data, offset)
		if err != nil {
			return nil, err
		}
		// The newest trailer wins; older sections only fill in gaps.
		if t.Trailer == nil {
			t.Trailer = trailer
		}
		if prev < 0 {
			return t, nil
		}
		offset = prev
	}
	return nil, fmt.Errorf("%w: Prev chain too long", ErrMissing)
}

// parseSection parses one "xref ... trailer <<...>>" section at offset.
// It returns the section trailer and the Prev offset (-1 when absent).
// Entries already present in the table are kept (newer sections shadow older).
func (t *Table) parseSection(data []byte, offset int64) (*raw.DictObj, int64, error) {
	s := scanner.New(data)
	if err := s.SeekTo(offset); err != nil {
		return nil, 0, fmt.Errorf("%w: startxref out of range", ErrMissing)
	}
	tok, err := s.Next()
	if err != nil || tok.Type != scanner.TokenKeyword || tok.Str != "xref" {
		return nil, 0, fmt.Errorf("%w: expected xref keyword at %d", ErrMissing, offset)
	}
	for {
		tok, err = s.Next()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: truncated xref section", ErrMissing)
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "trailer" {
			break
		}
		if tok.Type != scanner.TokenNumber || !tok.IsInt {
			return nil, 0, fmt.Errorf("%w: malformed subsection header", ErrMissing)
		}
		first := int(tok.Int)
		tok, err = s.Next()
		if err != nil || tok.Type != scanner.TokenNumber || !tok.IsInt {
			return nil, 0, fmt.Errorf("%w: malformed subsection count", ErrMissing)
		}
		count := int(tok.Int)
		for i := 0; i < count; i++ {
			off, gen, kind, err := readEntry(s)
			if err != nil {
				return nil, 0, err
			}
			num := first + i
			if _, exists := t.entries[num]; exists {
				continue
			}
			t.entries[num] = Entry{Offset: off, Gen: gen, Free: kind == 'f'}
		}
	}
	trailer, err := parseTrailerDict(s)
	if err != nil {
		return nil, 0, err
	}
	prev := int64(-1)
	if v, ok := trailer.Get("Prev"); ok {
		if n, ok := v.(raw.NumberObj); ok {
			prev = n.Int()
		}
	}
	return trailer, prev, nil
}

func readEntry(s *scanner.Scanner) (int64, int, byte, error) {
	offTok, err := s.Next()
	if err != nil || offTok.Type != scanner.TokenNumber {
		return 0, 0, 0, fmt.Errorf("%w: malformed entry offset", ErrMissing)
	}
	genTok, err := s.Next()
	if err != nil || genTok.Type != scanner.TokenNumber {
		return 0, 0, 0, fmt.Errorf("%w: malformed entry generation", ErrMissing)
	}
	kindTok, err := s.Next()
	if err != nil || kindTok.Type != scanner.TokenKeyword || (kindTok.Str != "n" && kindTok.Str != "f") {
		return 0, 0, 0, fmt.Errorf("%w: malformed entry kind", ErrMissing)
	}
	return offTok.Int, int(genTok.Int), kindTok.Str[0], nil
}

func parseTrailerDict(s *scanner.Scanner) (*raw.DictObj, error) {
	tok, err := s.Next()
	if err != nil || tok.Type != scanner.TokenDict {
		return nil, fmt.Errorf("%w: trailer dictionary missing", ErrMissing)
	}
	d := raw.Dict()
	for {
		tok, err = s.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated trailer", ErrMissing)
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == ">>" {
			return d, nil
		}
		if tok.Type != scanner.TokenName {
			return nil, fmt.Errorf("%w: expected name in trailer", ErrMissing)
		}
		key := tok.Str
		val, err := parseTrailerValue(s)
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
}

// parseTrailerValue handles the small object grammar trailers use:
// numbers, refs, names, strings, arrays and nested dictionaries.
func parseTrailerValue(s *scanner.Scanner) (raw.Object, error) {
	tok, err := s.Next()
	if err != nil {
		return nil, fmt.Errorf("%w: truncated trailer value", ErrMissing)
	}
	switch tok.Type {
	case scanner.TokenNumber:
		if tok.IsInt {
			// Possible "num gen R" reference; peek ahead.
			save := s.Position()
			genTok, err1 := s.Next()
			if err1 == nil && genTok.Type == scanner.TokenNumber && genTok.IsInt {
				rTok, err2 := s.Next()
				if err2 == nil && rTok.Type == scanner.TokenKeyword && rTok.Str == "R" {
					return raw.Ref(int(tok.Int), int(genTok.Int)), nil
				}
			}
			if err := s.SeekTo(save); err != nil {
				return nil, err
			}
			return raw.Int(tok.Int), nil
		}
		return raw.Float(tok.Float), nil
	case scanner.TokenName:
		return raw.Name(tok.Str), nil
	case scanner.TokenString:
		return raw.StringObj{Bytes: tok.Bytes}, nil
	case scanner.TokenBoolean:
		return raw.Bool(tok.Bool), nil
	case scanner.TokenNull:
		return raw.NullObj{}, nil
	case scanner.TokenArray:
		arr := &raw.ArrayObj{}
		for {
			save := s.Position()
			t2, err := s.Next()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated trailer array", ErrMissing)
			}
			if t2.Type == scanner.TokenKeyword && t2.Str == "]" {
				return arr, nil
			}
			if err := s.SeekTo(save); err != nil {
				return nil, err
			}
			item, err := parseTrailerValue(s)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
	case scanner.TokenDict:
		d := raw.Dict()
		for {
			t2, err := s.Next()
			if err != nil {
				return nil, fmt.Errorf("%w: truncated nested trailer dict", ErrMissing)
			}
			if t2.Type == scanner.TokenKeyword && t2.Str == ">>" {
				return d, nil
			}
			if t2.Type != scanner.TokenName {
				return nil, fmt.Errorf("%w: expected name in nested trailer dict", ErrMissing)
			}
			val, err := parseTrailerValue(s)
			if err != nil {
				return nil, err
			}
			d.Set(t2.Str, val)
		}
	}
	return nil, fmt.Errorf("%w: unexpected trailer token", ErrMissing)
}

// objHeader matches "N G obj" headers when scanning damaged files.
var objHeader = regexp.MustCompile(`(?m)^[ \t]*(\d+)[ \t]+(\d+)[ \t]+obj\b`)

// Repair rebuilds an index by brute-force scanning for object headers.
// Later headers win, matching how readers treat duplicated object numbers
// in incrementally updated files. The trailer is recovered from the last
// "trailer" keyword in the file when present.
func Repair(data []byte) (*Table, error) {
	t := &Table{entries: make(map[int]Entry)}
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		// Offset of the object number itself, not the line start.
		t.entries[num] = Entry{Offset: int64(m[2]), Gen: gen}
	}
	if len(t.entries) == 0 {
		return nil, fmt.Errorf("%w: no object headers found", ErrMissing)
	}
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		s := scanner.New(data)
		if err := s.SeekTo(int64(idx + len("trailer"))); err == nil {
			if trailer, err := parseTrailerDict(s); err == nil {
				t.Trailer = trailer
			}
		}
	}
	if t.Trailer == nil {
		t.Trailer = raw.Dict()
	}
	return t, nil
}

// findStartXref scans the file tail for the startxref pointer.
func findStartXref(data []byte) (int64, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("%w: startxref not found", ErrMissing)
	}
	rest := tail[idx+len("startxref"):]
	fields := bytes.Fields(rest)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: startxref offset missing", ErrMissing)
	}
	off, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil || off < 0 || off >= int64(len(data)) {
		return 0, fmt.Errorf("%w: bad startxref offset", ErrMissing)
	}
	return off, nil
}
