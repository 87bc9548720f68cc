// Package parser loads a complete raw object model from PDF bytes. It
// resolves the cross-reference table (repairing it by brute-force scan when
// damaged), then parses every in-use indirect object.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/a11ykit/pdfa11y/ir/raw"
	"github.com/a11ykit/pdfa11y/scanner"
	"github.com/a11ykit/pdfa11y/xref"
)

var (
	// ErrInvalidHeader reports a file that does not start with %PDF-.
	ErrInvalidHeader = errors.New("parser: not a PDF: missing %PDF- header")
	// ErrEncrypted reports an encrypted file. Decryption is not supported;
	// callers should surface this to the user rather than guess at content.
	ErrEncrypted = errors.New("parser: document is encrypted")
)

// maxLengthHops bounds indirect /Length chains.
const maxLengthHops = 8

// Parse reads the whole file into a raw.Document.
func Parse(data []byte) (*raw.Document, error) {
	version, ok := headerVersion(data)
	if !ok {
		return nil, ErrInvalidHeader
	}
	table, err := xref.Resolve(data)
	if err != nil {
		repaired, rerr := xref.Repair(data)
		if rerr != nil {
			return nil, err
		}
		table = repaired
	}
	if _, ok := table.Trailer.Get("Encrypt"); ok {
		return nil, ErrEncrypted
	}

	ld := &loader{data: data, table: table}
	doc := &raw.Document{
		Objects: make(map[raw.ObjectRef]raw.Object),
		Trailer: table.Trailer,
		Version: version,
	}
	for _, num := range table.Objects() {
		if num == 0 {
			continue // free list head
		}
		offset, gen, found := table.Lookup(num)
		if !found {
			continue
		}
		obj, err := ld.loadAt(num, gen, offset)
		if err != nil {
			// A single broken object should not sink the document; the
			// accessibility checks work on whatever loads.
			continue
		}
		doc.Objects[raw.ObjectRef{Num: num, Gen: gen}] = obj
	}
	if len(doc.Objects) == 0 {
		return nil, fmt.Errorf("parser: no objects could be loaded")
	}
	return doc, nil
}

// headerVersion extracts the version from the %PDF-x.y header. The header
// is allowed anywhere in the first 1024 bytes, matching common readers.
func headerVersion(data []byte) (string, bool) {
	window := data
	if len(window) > 1024 {
		window = window[:1024]
	}
	idx := strings.Index(string(window), "%PDF-")
	if idx < 0 {
		return "", false
	}
	rest := string(window[idx+len("%PDF-"):])
	end := 0
	for end < len(rest) && rest[end] != '\r' && rest[end] != '\n' && rest[end] != ' ' {
		end++
	}
	v := strings.TrimSpace(rest[:end])
	if v == "" {
		return "", false
	}
	return v, true
}

type loader struct {
	data  []byte
	table *xref.Table
}

// loadAt parses the "N G obj ... endobj" body at offset.
func (l *loader) loadAt(num, gen int, offset int64) (raw.Object, error) {
	s := scanner.New(l.data)
	if err := s.SeekTo(offset); err != nil {
		return nil, err
	}
	tr := newTokenReader(s)

	tokNum, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tokNum.Type != scanner.TokenNumber || !tokNum.IsInt || int(tokNum.Int) != num {
		return nil, fmt.Errorf("parser: object %d: header number mismatch", num)
	}
	tokGen, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tokGen.Type != scanner.TokenNumber || !tokGen.IsInt {
		return nil, fmt.Errorf("parser: object %d: malformed generation", num)
	}
	tokObj, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tokObj.Type != scanner.TokenKeyword || tokObj.Str != "obj" {
		return nil, fmt.Errorf("parser: object %d: expected obj keyword", num)
	}

	obj, err := parseObject(tr)
	if err != nil {
		return nil, fmt.Errorf("parser: object %d: %w", num, err)
	}

	// A dictionary followed by "stream" is a stream object.
	if dict, ok := obj.(*raw.DictObj); ok {
		tok, err := tr.next()
		if err == nil && tok.Type == scanner.TokenKeyword && tok.Str == "stream" {
			length, err := l.streamLength(dict, 0)
			if err != nil {
				return nil, fmt.Errorf("parser: object %d: %w", num, err)
			}
			payload, err := s.ReadStreamData(length)
			if err != nil {
				return nil, fmt.Errorf("parser: object %d: stream: %w", num, err)
			}
			data := make([]byte, len(payload))
			copy(data, payload)
			return raw.Stream(dict, data), nil
		}
		if err == nil {
			tr.unread(tok)
		}
	}
	return obj, nil
}

// streamLength resolves /Length, following indirect references.
func (l *loader) streamLength(dict *raw.DictObj, hops int) (int64, error) {
	if hops > maxLengthHops {
		return 0, errors.New("length reference chain too deep")
	}
	val, ok := dict.Get("Length")
	if !ok {
		return 0, errors.New("stream missing Length")
	}
	switch v := val.(type) {
	case raw.NumberObj:
		return v.Int(), nil
	case raw.RefObj:
		offset, gen, found := l.table.Lookup(v.R.Num)
		if !found {
			return 0, fmt.Errorf("length object %d missing", v.R.Num)
		}
		obj, err := l.loadAt(v.R.Num, gen, offset)
		if err != nil {
			return 0, err
		}
		if n, ok := obj.(raw.NumberObj); ok {
			return n.Int(), nil
		}
		return 0, fmt.Errorf("length object %d is not numeric", v.R.Num)
	}
	return 0, errors.New("Length is not numeric")
}

// tokenReader adds one-token lookahead over the scanner.
type tokenReader struct {
	s   *scanner.Scanner
	buf []scanner.Token
}

func newTokenReader(s *scanner.Scanner) *tokenReader { return &tokenReader{s: s} }

func (r *tokenReader) next() (scanner.Token, error) {
	if n := len(r.buf); n > 0 {
		t := r.buf[n-1]
		r.buf = r.buf[:n-1]
		return t, nil
	}
	return r.s.Next()
}

func (r *tokenReader) unread(tok scanner.Token) { r.buf = append(r.buf, tok) }

func parseObject(tr *tokenReader) (raw.Object, error) {
	tok, err := tr.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenName:
		return raw.Name(tok.Str), nil
	case scanner.TokenNumber:
		if tok.IsInt {
			return parseNumberOrRef(tr, tok)
		}
		return raw.Float(tok.Float), nil
	case scanner.TokenBoolean:
		return raw.Bool(tok.Bool), nil
	case scanner.TokenNull:
		return raw.NullObj{}, nil
	case scanner.TokenString:
		return raw.StringObj{Bytes: tok.Bytes}, nil
	case scanner.TokenArray:
		return parseArray(tr)
	case scanner.TokenDict:
		return parseDict(tr)
	case scanner.TokenKeyword:
		return nil, fmt.Errorf("unexpected keyword %q", tok.Str)
	}
	return nil, errors.New("unexpected token")
}

// parseNumberOrRef disambiguates "N" from "N G R" by lookahead.
func parseNumberOrRef(tr *tokenReader, first scanner.Token) (raw.Object, error) {
	second, err := tr.next()
	if err != nil {
		return raw.Int(first.Int), nil
	}
	if second.Type == scanner.TokenNumber && second.IsInt {
		third, err := tr.next()
		if err == nil && third.Type == scanner.TokenKeyword && third.Str == "R" {
			return raw.Ref(int(first.Int), int(second.Int)), nil
		}
		if err == nil {
			tr.unread(third)
		}
	}
	tr.unread(second)
	return raw.Int(first.Int), nil
}

func parseArray(tr *tokenReader) (raw.Object, error) {
	arr := &raw.ArrayObj{}
	for {
		tok, err := tr.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "]" {
			return arr, nil
		}
		tr.unread(tok)
		item, err := parseObject(tr)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

func parseDict(tr *tokenReader) (raw.Object, error) {
	d := raw.Dict()
	for {
		tok, err := tr.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == ">>" {
			return d, nil
		}
		if tok.Type != scanner.TokenName {
			// Tolerate a missing >> before endobj; real files have them.
			if tok.Type == scanner.TokenKeyword && tok.Str == "endobj" {
				tr.unread(tok)
				return d, nil
			}
			return nil, fmt.Errorf("expected name key in dict, got %v", tok.Type)
		}
		val, err := parseObject(tr)
		if err != nil {
			return nil, err
		}
		d.Set(tok.Str, val)
	}
}
