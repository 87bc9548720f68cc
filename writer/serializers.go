package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/a11ykit/pdfa11y/ir/raw"
)

// writeObject serializes one object in PDF syntax. Dictionary keys are
// emitted in sorted order so output is deterministic.
func writeObject(buf *bytes.Buffer, obj raw.Object) error {
	switch v := obj.(type) {
	case nil, raw.NullObj:
		buf.WriteString("null")
	case raw.BoolObj:
		if v.V {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case raw.NumberObj:
		if v.IsInt {
			buf.WriteString(strconv.FormatInt(v.I, 10))
		} else {
			buf.WriteString(strconv.FormatFloat(v.F, 'f', -1, 64))
		}
	case raw.NameObj:
		writeName(buf, v.Val)
	case raw.StringObj:
		writeString(buf, v.Bytes)
	case raw.RefObj:
		fmt.Fprintf(buf, "%d %d R", v.R.Num, v.R.Gen)
	case *raw.ArrayObj:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(' ')
			}
			if err := writeObject(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *raw.DictObj:
		return writeDict(buf, v)
	case *raw.StreamObj:
		// Length must match the payload; refresh it before writing.
		v.Dict.Set("Length", raw.Int(int64(len(v.Data))))
		if err := writeDict(buf, v.Dict); err != nil {
			return err
		}
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	default:
		return fmt.Errorf("unsupported object type %T", obj)
	}
	return nil
}

func writeDict(buf *bytes.Buffer, d *raw.DictObj) error {
	keys := make([]string, 0, len(d.KV))
	for k := range d.KV {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf.WriteString("<<")
	for _, k := range keys {
		buf.WriteByte(' ')
		writeName(buf, k)
		buf.WriteByte(' ')
		if err := writeObject(buf, d.KV[k]); err != nil {
			return err
		}
	}
	buf.WriteString(" >>")
	return nil
}

// writeName escapes delimiter and non-regular bytes with #xx.
func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c > '~' || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

// writeString emits a literal string with backslash escapes.
func writeString(buf *bytes.Buffer, data []byte) {
	buf.WriteByte('(')
	for _, c := range data {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < ' ' || c > '~' {
				fmt.Fprintf(buf, `\%03o`, c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte(')')
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
