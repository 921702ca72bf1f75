package envtmpl

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode maps env onto the struct pointed to by v. Fields are matched by
// their `config` tag, or case-insensitively by name:
//
//	type Config struct {
//	    HTTP struct {
//	        Port    int           `config:"port"`
//	        Timeout time.Duration `config:"timeout"`
//	    } `config:"http"`
//	}
//
// A time.Duration field takes a duration string such as "1m30s", a number
// of seconds, or a duration value. Strings also decode into any field whose
// pointer implements encoding.TextUnmarshaler. Typed values such as Date,
// Decimal or URL decode into fields of the same Go type.
func Decode(env *Object, v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "config",
		Result:     v,
		DecodeHook: mapstructure.DecodeHookFuncType(decodeValueHook),
	})
	if err != nil {
		return err
	}
	return dec.Decode(env.Interface())
}

// DecodeError occurs when a value of env cannot be coerced into the type of
// the struct field it is decoded into.
type DecodeError struct {
	from  reflect.Type
	to    reflect.Type
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s into %s: %s", e.from, e.to, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

var durationType = reflect.TypeOf(time.Duration(0))

// decodeValueHook converts the plain values of Object.Interface into the
// field types they cannot reach by plain assignment. Anything else is
// handed back to mapstructure unchanged.
func decodeValueHook(from, to reflect.Type, data any) (any, error) {
	if to == durationType {
		switch d := data.(type) {
		case string:
			parsed, err := time.ParseDuration(d)
			if err != nil {
				return nil, &DecodeError{from: from, to: to, Cause: err}
			}
			return parsed, nil
		case float64:
			return time.Duration(d * float64(time.Second)), nil
		}
		return data, nil
	}

	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	target := reflect.New(to)
	u, ok := target.Interface().(encoding.TextUnmarshaler)
	if !ok {
		return data, nil
	}
	if err := u.UnmarshalText([]byte(s)); err != nil {
		return nil, &DecodeError{from: from, to: to, Cause: err}
	}
	return target.Elem().Interface(), nil
}
