package filters

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/a11ykit/pdfa11y/ir/raw"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode_Flate(t *testing.T) {
	plain := []byte("BT /F1 12 Tf (Hello) Tj ET")
	got, err := Decode("FlateDecode", deflate(t, plain), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("got %q want %q", got, plain)
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode("DCTDecode", []byte("jpeg"), nil)
	if _, ok := err.(ErrUnsupported); !ok {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecodeStream_FilterChain(t *testing.T) {
	plain := []byte("q 1 0 0 1 0 0 cm Q")
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	dict := raw.Dict()
	dict.Set("Filter", raw.Name("FlateDecode"))
	st := raw.Stream(dict, deflate(t, plain))
	got, err := DecodeStream(doc, st)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("got %q want %q", got, plain)
	}
}

func TestDecodeStream_NoFilter(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	st := raw.Stream(raw.Dict(), []byte("raw bytes"))
	got, err := DecodeStream(doc, st)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "raw bytes" {
		t.Errorf("got %q", got)
	}
}

func TestPNGPredictor_UpRows(t *testing.T) {
	// Two rows of 3 bytes, second row Up-predicted from the first.
	data := []byte{
		0, 1, 2, 3, // row 0: None, values 1 2 3
		2, 1, 1, 1, // row 1: Up, deltas 1 1 1 -> values 2 3 4
	}
	got, err := applyPNGPredictor(data, 3, 1, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v want %v", got, want)
	}
}
