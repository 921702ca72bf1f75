package envtmpl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/api/resource"
)

// TypeTag names a conversion target. Every scalar tag except json also has
// an array form written with a "[]" suffix.
type TypeTag string

const (
	TypeString       TypeTag = "string"
	TypeStringArray  TypeTag = "string[]"
	TypeNumber       TypeTag = "number"
	TypeNumberArray  TypeTag = "number[]"
	TypeBoolean      TypeTag = "boolean"
	TypeBooleanArray TypeTag = "boolean[]"
	TypeDate         TypeTag = "Date"
	TypeDateArray    TypeTag = "Date[]"
	TypeJSON         TypeTag = "json"

	TypeDuration TypeTag = "duration"
	TypeDecimal  TypeTag = "decimal"
	TypeUUID     TypeTag = "uuid"
	TypeURL      TypeTag = "url"
	TypeQuantity TypeTag = "quantity"
)

const arraySuffix = "[]"

// IsArray reports whether t is an array form such as "number[]".
func (t TypeTag) IsArray() bool {
	return strings.HasSuffix(string(t), arraySuffix)
}

// Elem returns the scalar element tag of an array form, or t itself.
func (t TypeTag) Elem() TypeTag {
	return TypeTag(strings.TrimSuffix(string(t), arraySuffix))
}

// coerceFunc takes the raw string and returns the converted value or an error.
type coerceFunc func(raw string) (Value, error)

// registry of scalar coercions, keyed by tag
var scalarTypes = make(map[TypeTag]coerceFunc)

// RegisterType lets users plug in a custom scalar type tag. The tag becomes
// valid in templates both as-is and in its "[]" array form. Any error
// returned by fn counts as a failed candidate.
// Call this in your init() or main() before Parse; the registry is not
// guarded for concurrent writes.
func RegisterType(tag TypeTag, fn func(raw string) (Value, error)) {
	if tag == "" || tag.IsArray() {
		panic(fmt.Sprintf("envtmpl: invalid type tag %q", tag))
	}
	scalarTypes[tag] = fn
}

// ParseTypeTag validates s against the registered type tags.
func ParseTypeTag(s string) (TypeTag, error) {
	tag := TypeTag(strings.TrimSpace(s))
	if tag.IsArray() {
		elem := tag.Elem()
		if _, ok := scalarTypes[elem]; ok && elem != TypeJSON {
			return tag, nil
		}
	} else if _, ok := scalarTypes[tag]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("unknown allowed type %q", s)
}

// Convert coerces raw into the first of types that accepts it. Candidates
// are tried left to right; a candidate that fails hands over to the next.
// With no types, raw is returned unchanged as a string Value.
//
// Examples:
//
//	Convert("3.14", TypeNumber, TypeString)     // Number(3.14)
//	Convert("hello", TypeNumber, TypeString)    // String("hello")
//	Convert("777,10e3", TypeNumberArray)        // Array(Number(777), Number(10000))
//	Convert("999", TypeJSON)                    // *ConversionError
func Convert(raw string, types ...TypeTag) (Value, error) {
	if len(types) == 0 {
		return String(raw), nil
	}
	for _, t := range types {
		v, err := convertTo(raw, t)
		if err == nil {
			return v, nil
		}
		var ce *ConversionError
		if !errors.As(err, &ce) {
			return Value{}, err
		}
	}
	return Value{}, &ConversionError{Types: append([]TypeTag(nil), types...)}
}

// convertTo runs a single candidate, failing with a *ConversionError.
func convertTo(raw string, t TypeTag) (Value, error) {
	elem := t.Elem()
	fn, ok := scalarTypes[elem]
	if !ok || (t.IsArray() && elem == TypeJSON) {
		return Value{}, &ConversionError{Types: []TypeTag{t}}
	}
	if !t.IsArray() {
		v, err := fn(raw)
		if err != nil {
			return Value{}, &ConversionError{Types: []TypeTag{t}}
		}
		return v, nil
	}

	// One bad element fails the whole array.
	parts := strings.Split(raw, ",")
	items := make([]Value, 0, len(parts))
	for _, part := range parts {
		v, err := fn(strings.TrimSpace(part))
		if err != nil {
			return Value{}, &ConversionError{Types: []TypeTag{t}}
		}
		items = append(items, v)
	}
	return Array(items...), nil
}

var (
	errNotNumber  = errors.New("not a number")
	errNotBoolean = errors.New("not a boolean")
	errNotDate    = errors.New("not a date")
	errNotJSON    = errors.New("not a JSON object or array")
	errNotURL     = errors.New("not an absolute URL")
)

// parseNumber reads decimal literals with an optional sign and exponent, and
// unsigned integer literals with a 0x, 0o or 0b prefix. Digit separators and
// hexadecimal floats are not numbers.
func parseNumber(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "_") {
		return Value{}, errNotNumber
	}
	if unsigned := strings.TrimLeft(s, "+-"); hasRadixPrefix(unsigned) {
		if unsigned != s {
			return Value{}, errNotNumber
		}
		u, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return Value{}, errNotNumber
		}
		return Number(float64(u)), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, errNotNumber
	}
	return Number(f), nil
}

func hasRadixPrefix(s string) bool {
	return len(s) > 1 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1]))
}

func parseBoolean(raw string) (Value, error) {
	switch strings.ToLower(raw) {
	case "true", "yes":
		return Bool(true), nil
	case "false", "no":
		return Bool(false), nil
	default:
		return Value{}, errNotBoolean
	}
}

// dateLayouts are tried in order; layouts without a zone read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
}

func parseDate(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t), nil
		}
	}
	return Value{}, errNotDate
}

// parseJSON accepts only objects and arrays: a bare scalar such as 999 is
// left to the number and string tags.
func parseJSON(raw string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Value{}, errNotJSON
	}
	if d, ok := tok.(json.Delim); !ok || (d != '{' && d != '[') {
		return Value{}, errNotJSON
	}
	v, err := decodeJSONToken(dec, tok)
	if err != nil {
		return Value{}, errNotJSON
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errNotJSON
	}
	return v, nil
}

// decodeJSONToken builds a Value from the token stream, keeping object key order.
func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, errNotJSON
				}
				vt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				v, err := decodeJSONToken(dec, vt)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(obj), nil
		case '[':
			items := []Value{}
			for dec.More() {
				it, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				v, err := decodeJSONToken(dec, it)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		}
		return Value{}, errNotJSON
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, errNotJSON
	}
}

func init() {
	RegisterType(TypeString, func(raw string) (Value, error) {
		return String(raw), nil
	})
	RegisterType(TypeNumber, parseNumber)
	RegisterType(TypeBoolean, parseBoolean)
	RegisterType(TypeDate, parseDate)
	RegisterType(TypeJSON, parseJSON)

	RegisterType(TypeDuration, func(raw string) (Value, error) {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, err
		}
		return Duration(d), nil
	})

	RegisterType(TypeDecimal, func(raw string) (Value, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, err
		}
		return Decimal(d), nil
	})

	RegisterType(TypeUUID, func(raw string) (Value, error) {
		u, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, err
		}
		return UUID(u), nil
	})

	// Supports both TCP and Unix socket style URLs, e.g.
	// postgresql://user:pass@/mydb?host=/var/run/postgresql
	RegisterType(TypeURL, func(raw string) (Value, error) {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, err
		}
		if u.Scheme == "" {
			return Value{}, errNotURL
		}
		return URL(u), nil
	})

	RegisterType(TypeQuantity, func(raw string) (Value, error) {
		q, err := resource.ParseQuantity(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, err
		}
		return Quantity(q), nil
	})
}
