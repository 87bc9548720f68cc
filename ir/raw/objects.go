package raw

// Concrete object kinds. Keys are plain strings (the name without the
// leading slash); the slash is a serialization detail, not part of the value.

// NameObj is a PDF name, e.g. /Figure.
type NameObj struct{ Val string }

func (n NameObj) Type() string { return "name" }

// NumberObj is a PDF numeric value, integer or real.
type NumberObj struct {
	I     int64
	F     float64
	IsInt bool
}

func (n NumberObj) Type() string { return "number" }
func (n NumberObj) Int() int64   { return n.I }
func (n NumberObj) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}

// BoolObj is a PDF boolean.
type BoolObj struct{ V bool }

func (b BoolObj) Type() string { return "boolean" }

// NullObj is the PDF null object.
type NullObj struct{}

func (NullObj) Type() string { return "null" }

// StringObj is a PDF string. Hex records whether the source used hex
// notation; the bytes are always the decoded value.
type StringObj struct {
	Bytes []byte
	Hex   bool
}

func (s StringObj) Type() string  { return "string" }
func (s StringObj) Value() string { return string(s.Bytes) }

// ArrayObj is a PDF array.
type ArrayObj struct{ Items []Object }

func (a *ArrayObj) Type() string { return "array" }
func (a *ArrayObj) Len() int     { return len(a.Items) }
func (a *ArrayObj) Get(i int) (Object, bool) {
	if i < 0 || i >= len(a.Items) {
		return nil, false
	}
	return a.Items[i], true
}
func (a *ArrayObj) Append(items ...Object) { a.Items = append(a.Items, items...) }

// DictObj is a PDF dictionary.
type DictObj struct{ KV map[string]Object }

func (d *DictObj) Type() string { return "dict" }
func (d *DictObj) Len() int     { return len(d.KV) }

func (d *DictObj) Get(key string) (Object, bool) {
	o, ok := d.KV[key]
	return o, ok
}

func (d *DictObj) Set(key string, value Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	d.KV[key] = value
}

func (d *DictObj) Delete(key string) { delete(d.KV, key) }

// Name returns the string value of a name entry, or "".
func (d *DictObj) Name(key string) string {
	if v, ok := d.Get(key); ok {
		if n, ok := v.(NameObj); ok {
			return n.Val
		}
	}
	return ""
}

// String returns the byte value of a string entry as a Go string, or "".
func (d *DictObj) String(key string) string {
	if v, ok := d.Get(key); ok {
		if s, ok := v.(StringObj); ok {
			return string(s.Bytes)
		}
	}
	return ""
}

// Int returns the integer value of a number entry, or 0.
func (d *DictObj) Int(key string) int64 {
	if v, ok := d.Get(key); ok {
		if n, ok := v.(NumberObj); ok {
			return n.Int()
		}
	}
	return 0
}

// Float returns the numeric value of a number entry, or 0.
func (d *DictObj) Float(key string) float64 {
	if v, ok := d.Get(key); ok {
		if n, ok := v.(NumberObj); ok {
			return n.Float()
		}
	}
	return 0
}

// Bool returns the value of a boolean entry, or false.
func (d *DictObj) Bool(key string) bool {
	if v, ok := d.Get(key); ok {
		if b, ok := v.(BoolObj); ok {
			return b.V
		}
	}
	return false
}

// Array returns an array entry, or nil.
func (d *DictObj) Array(key string) *ArrayObj {
	if v, ok := d.Get(key); ok {
		if a, ok := v.(*ArrayObj); ok {
			return a
		}
	}
	return nil
}

// StreamObj is a stream: a dictionary plus raw (possibly filtered) data.
type StreamObj struct {
	Dict *DictObj
	Data []byte
}

func (s *StreamObj) Type() string { return "stream" }

// RefObj is an indirect object reference.
type RefObj struct{ R ObjectRef }

func (r RefObj) Type() string { return "ref" }

// Constructors.

func Name(v string) NameObj        { return NameObj{Val: v} }
func Int(i int64) NumberObj        { return NumberObj{I: i, IsInt: true} }
func Float(f float64) NumberObj    { return NumberObj{F: f} }
func Bool(v bool) BoolObj          { return BoolObj{V: v} }
func Str(s string) StringObj       { return StringObj{Bytes: []byte(s)} }
func Array(items ...Object) *ArrayObj { return &ArrayObj{Items: items} }
func Dict() *DictObj               { return &DictObj{KV: make(map[string]Object)} }
func Ref(num, gen int) RefObj      { return RefObj{R: ObjectRef{Num: num, Gen: gen}} }

func Stream(dict *DictObj, data []byte) *StreamObj {
	if dict == nil {
		dict = Dict()
	}
	dict.Set("Length", Int(int64(len(data))))
	return &StreamObj{Dict: dict, Data: data}
}
