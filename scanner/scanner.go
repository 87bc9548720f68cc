// Package scanner tokenizes PDF syntax. It operates on an in-memory byte
// slice; callers seek to known offsets (from the xref table) and pull tokens.
package scanner

import (
	"errors"
	"fmt"
)

type TokenType int

const (
	TokenNumber  TokenType = iota // integer or real
	TokenName                     // /Name
	TokenString                   // literal (...) or hex <...> string
	TokenBoolean                  // true / false
	TokenNull                     // null
	TokenDict                     // '<<'
	TokenArray                    // '['
	TokenKeyword                  // obj, endobj, stream, R, '>>', ']', ...
)

// Token is a single lexical unit.
type Token struct {
	Type  TokenType
	Str   string // keyword or name text
	Int   int64
	Float float64
	IsInt bool
	Bool  bool
	Bytes []byte // decoded string contents
	Pos   int64
}

// ErrUnexpectedEOF is returned when input ends inside a token.
var ErrUnexpectedEOF = errors.New("scanner: unexpected end of input")

// Scanner walks a byte buffer token by token.
type Scanner struct {
	data []byte
	pos  int64
}

func New(data []byte) *Scanner { return &Scanner{data: data} }

// Position reports the current byte offset.
func (s *Scanner) Position() int64 { return s.pos }

// SeekTo moves the cursor to an absolute offset.
func (s *Scanner) SeekTo(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return fmt.Errorf("scanner: seek offset %d out of range", offset)
	}
	s.pos = offset
	return nil
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *Scanner) skipSpaceAndComments() {
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < int64(len(s.data)) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

// Next returns the next token.
func (s *Scanner) Next() (Token, error) {
	s.skipSpaceAndComments()
	if s.pos >= int64(len(s.data)) {
		return Token{}, ErrUnexpectedEOF
	}
	start := s.pos
	c := s.data[s.pos]
	switch {
	case c == '/':
		s.pos++
		return s.scanName(start)
	case c == '(':
		s.pos++
		return s.scanLiteralString(start)
	case c == '<':
		if s.pos+1 < int64(len(s.data)) && s.data[s.pos+1] == '<' {
			s.pos += 2
			return Token{Type: TokenDict, Pos: start}, nil
		}
		s.pos++
		return s.scanHexString(start)
	case c == '>':
		if s.pos+1 < int64(len(s.data)) && s.data[s.pos+1] == '>' {
			s.pos += 2
			return Token{Type: TokenKeyword, Str: ">>", Pos: start}, nil
		}
		return Token{}, fmt.Errorf("scanner: stray '>' at %d", s.pos)
	case c == '[':
		s.pos++
		return Token{Type: TokenArray, Pos: start}, nil
	case c == ']':
		s.pos++
		return Token{Type: TokenKeyword, Str: "]", Pos: start}, nil
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return s.scanNumber(start)
	default:
		return s.scanKeyword(start)
	}
}

func (s *Scanner) scanName(start int64) (Token, error) {
	var out []byte
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < int64(len(s.data)) {
			hi, okHi := hexVal(s.data[s.pos+1])
			lo, okLo := hexVal(s.data[s.pos+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				s.pos += 3
				continue
			}
		}
		out = append(out, c)
		s.pos++
	}
	return Token{Type: TokenName, Str: string(out), Pos: start}, nil
}

func (s *Scanner) scanNumber(start int64) (Token, error) {
	neg := false
	switch s.data[s.pos] {
	case '+':
		s.pos++
	case '-':
		neg = true
		s.pos++
	}
	var intPart int64
	var frac float64
	var scale float64 = 1
	isInt := true
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		switch {
		case c >= '0' && c <= '9':
			if isInt {
				intPart = intPart*10 + int64(c-'0')
			} else {
				scale /= 10
				frac += float64(c-'0') * scale
			}
			s.pos++
		case c == '.':
			if !isInt {
				return Token{}, fmt.Errorf("scanner: malformed number at %d", start)
			}
			isInt = false
			s.pos++
		default:
			goto done
		}
	}
done:
	if isInt {
		v := intPart
		if neg {
			v = -v
		}
		return Token{Type: TokenNumber, Int: v, Float: float64(v), IsInt: true, Pos: start}, nil
	}
	f := float64(intPart) + frac
	if neg {
		f = -f
	}
	return Token{Type: TokenNumber, Float: f, Pos: start}, nil
}

func (s *Scanner) scanLiteralString(start int64) (Token, error) {
	var out []byte
	depth := 1
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= int64(len(s.data)) {
				return Token{}, ErrUnexpectedEOF
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				// line continuation; swallow an optional LF
				if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < int64(len(s.data)); i++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						s.pos++
					}
					out = append(out, byte(v))
				} else {
					out = append(out, e)
				}
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Bytes: out, Pos: start}, nil
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return Token{}, ErrUnexpectedEOF
}

func (s *Scanner) scanHexString(start int64) (Token, error) {
	var out []byte
	var hi byte
	haveHi := false
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			if haveHi {
				out = append(out, hi<<4) // odd digit count: low nibble is zero
			}
			return Token{Type: TokenString, Bytes: out, Pos: start}, nil
		}
		if isWhitespace(c) {
			continue
		}
		v, ok := hexVal(c)
		if !ok {
			return Token{}, fmt.Errorf("scanner: bad hex digit %q at %d", c, s.pos-1)
		}
		if haveHi {
			out = append(out, hi<<4|v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	return Token{}, ErrUnexpectedEOF
}

func (s *Scanner) scanKeyword(start int64) (Token, error) {
	end := s.pos
	for end < int64(len(s.data)) {
		c := s.data[end]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		end++
	}
	if end == s.pos {
		return Token{}, fmt.Errorf("scanner: unexpected byte %q at %d", s.data[s.pos], s.pos)
	}
	word := string(s.data[s.pos:end])
	s.pos = end
	switch word {
	case "true":
		return Token{Type: TokenBoolean, Bool: true, Pos: start}, nil
	case "false":
		return Token{Type: TokenBoolean, Pos: start}, nil
	case "null":
		return Token{Type: TokenNull, Pos: start}, nil
	}
	return Token{Type: TokenKeyword, Str: word, Pos: start}, nil
}

// ReadStreamData reads length bytes of stream payload. The cursor must sit
// just past the "stream" keyword; the EOL required after the keyword is
// consumed first. The cursor is left after the payload, before "endstream".
func (s *Scanner) ReadStreamData(length int64) ([]byte, error) {
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
		s.pos++
	}
	if length < 0 || s.pos+length > int64(len(s.data)) {
		return nil, ErrUnexpectedEOF
	}
	data := s.data[s.pos : s.pos+length]
	s.pos += length
	return data, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
