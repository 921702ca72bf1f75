package envtmpl

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindArray
	KindObject
	KindDuration
	KindDecimal
	KindUUID
	KindURL
	KindQuantity
)

var kindNames = [...]string{
	KindNull:     "null",
	KindString:   "string",
	KindNumber:   "number",
	KindBool:     "boolean",
	KindDate:     "Date",
	KindArray:    "array",
	KindObject:   "object",
	KindDuration: "duration",
	KindDecimal:  "decimal",
	KindUUID:     "uuid",
	KindURL:      "url",
	KindQuantity: "quantity",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a converted configuration value. The zero Value is Null.
//
// A Value is one of: Null, String, Number, Bool, Date, Array of Values,
// Object (ordered map of name to Value), or one of the extended scalar
// kinds produced by the duration, decimal, uuid, url and quantity type tags.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
	arr  []Value
	obj  *Object
	ext  any
}

// Null returns the explicit absence marker.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date Value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Array returns an array Value holding items. A nil or empty items yields an empty array.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// ObjectValue wraps o into a Value. A nil o yields an empty object.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Duration returns a time.Duration Value.
func Duration(d time.Duration) Value { return Value{kind: KindDuration, ext: d} }

// Decimal returns an exact decimal Value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, ext: d} }

// UUID returns a UUID Value.
func UUID(u uuid.UUID) Value { return Value{kind: KindUUID, ext: u} }

// URL returns a URL Value.
func URL(u *url.URL) Value { return Value{kind: KindURL, ext: u} }

// Quantity returns a Kubernetes resource quantity Value.
func Quantity(q resource.Quantity) Value { return Value{kind: KindQuantity, ext: q} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// The As accessors return the payload of v and whether v holds that kind.
func (v Value) AsString() (string, bool)  { return v.str, v.kind == KindString }
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == KindBool }
func (v Value) AsDate() (time.Time, bool) { return v.t, v.kind == KindDate }
func (v Value) AsArray() ([]Value, bool)  { return v.arr, v.kind == KindArray }
func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

func (v Value) AsDuration() (time.Duration, bool) {
	d, ok := v.ext.(time.Duration)
	return d, ok && v.kind == KindDuration
}

func (v Value) AsDecimal() (decimal.Decimal, bool) {
	d, ok := v.ext.(decimal.Decimal)
	return d, ok && v.kind == KindDecimal
}

func (v Value) AsUUID() (uuid.UUID, bool) {
	u, ok := v.ext.(uuid.UUID)
	return u, ok && v.kind == KindUUID
}

func (v Value) AsURL() (*url.URL, bool) {
	u, ok := v.ext.(*url.URL)
	return u, ok && v.kind == KindURL
}

func (v Value) AsQuantity() (resource.Quantity, bool) {
	q, ok := v.ext.(resource.Quantity)
	return q, ok && v.kind == KindQuantity
}

// Interface lowers v into plain Go values: nil, string, float64, bool,
// time.Time, []any, map[string]any, or the native type of an extended kind.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj.Interface()
	case KindDuration, KindDecimal, KindUUID, KindURL, KindQuantity:
		return v.ext
	default:
		return nil
	}
}

// String renders v in its canonical textual form, the form Convert reads back.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339Nano)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case KindObject:
		b, err := v.obj.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	case KindDuration:
		d, _ := v.AsDuration()
		return d.String()
	case KindDecimal:
		d, _ := v.AsDecimal()
		return d.String()
	case KindUUID:
		u, _ := v.AsUUID()
		return u.String()
	case KindURL:
		u, _ := v.AsURL()
		if u == nil {
			return ""
		}
		return u.String()
	case KindQuantity:
		q, _ := v.AsQuantity()
		return q.String()
	default:
		return ""
	}
}

// formatNumber mirrors the way numbers print in JSON: plain notation
// below 1e21, exponent notation above.
func formatNumber(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.t)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.obj.MarshalJSON()
	default:
		return json.Marshal(v.String())
	}
}

// Clone returns a deep copy of v. Arrays and objects are copied; scalars are shared.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		return Array(items...)
	case KindObject:
		return ObjectValue(v.obj.Clone())
	default:
		return v
	}
}

// Object is an insertion-ordered mapping from name to Value.
// Setting an existing key keeps its original position.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.m.Len()
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	return o.m.Get(key)
}

// Set stores v under key.
func (o *Object) Set(key string, v Value) {
	o.m.Set(key, v)
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	o.m.Delete(key)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, o.m.Len())
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for every entry in order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Lookup walks path through nested objects.
//
// Example:
//
//	v, ok := env.Lookup("optional", "stringArray")
func (o *Object) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	cur := o
	for i, seg := range path {
		v, ok := cur.Get(seg)
		if !ok {
			return Value{}, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if cur, ok = v.AsObject(); !ok {
			return Value{}, false
		}
	}
	return Value{}, false
}

// SetPath stores v at the nested location named by path, creating
// intermediate objects as needed. A non-object found on the way is replaced
// by a fresh object and a value already at the leaf is overwritten: the last
// write wins.
func (o *Object) SetPath(path []string, v Value) {
	if len(path) == 0 {
		return
	}
	cur := o
	for _, seg := range path[:len(path)-1] {
		if next, ok := cur.Get(seg); ok {
			if child, isObj := next.AsObject(); isObj {
				cur = child
				continue
			}
		}
		child := NewObject()
		cur.Set(seg, ObjectValue(child))
		cur = child
	}
	cur.Set(path[len(path)-1], v)
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	out := NewObject()
	o.Range(func(key string, v Value) bool {
		out.Set(key, v.Clone())
		return true
	})
	return out
}

// Interface lowers o into a map[string]any.
func (o *Object) Interface() map[string]any {
	out := make(map[string]any, o.Len())
	o.Range(func(key string, v Value) bool {
		out[key] = v.Interface()
		return true
	})
	return out
}

// MarshalJSON implements json.Marshaler, keeping key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	o.Range(func(key string, v Value) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var kb, vb []byte
		if kb, err = json.Marshal(key); err != nil {
			return false
		}
		if vb, err = v.MarshalJSON(); err != nil {
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
