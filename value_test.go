package envtmpl

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	u, _ := url.Parse("https://example.com/x")

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"string", String("hi"), "hi"},
		{"integer", Number(777), "777"},
		{"float", Number(3.14), "3.14"},
		{"large", Number(1e21), "1e+21"},
		{"bool", Bool(false), "false"},
		{"date", Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), "2024-03-01T00:00:00Z"},
		{"array", Array(Number(1), String("a")), "1,a"},
		{"empty array", Array(), ""},
		{"duration", Duration(90 * time.Second), "1m30s"},
		{"url", URL(u), "https://example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValueKinds(t *testing.T) {
	assert.True(t, Value{}.IsNull())
	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, "boolean", KindBool.String())
	assert.Equal(t, "Date", KindDate.String())
	assert.Equal(t, "kind(99)", Kind(99).String())

	s, ok := Number(1).AsString()
	assert.False(t, ok)
	assert.Empty(t, s)

	_, ok = String("1m").AsDuration()
	assert.False(t, ok)
}

func TestValueMarshalJSON(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Number(1))
	obj.Set("a", Array(Bool(true), Null()))
	obj.Set("m", Duration(time.Minute))

	data, err := json.Marshal(ObjectValue(obj))
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":[true,null],"m":"1m0s"}`, string(data))

	data, err = json.Marshal(NewObject())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestObjectPaths(t *testing.T) {
	obj := NewObject()
	obj.SetPath([]string{"http", "port"}, Number(8080))
	obj.SetPath([]string{"http", "host"}, String("localhost"))
	obj.SetPath([]string{"debug"}, Bool(true))

	assert.Equal(t, []string{"http", "debug"}, obj.Keys())

	v, ok := obj.Lookup("http", "port")
	require.True(t, ok)
	assert.Equal(t, Number(8080), v)

	_, ok = obj.Lookup("http", "port", "deeper")
	assert.False(t, ok)
	_, ok = obj.Lookup("missing")
	assert.False(t, ok)
	_, ok = obj.Lookup()
	assert.False(t, ok)

	// a scalar on the way is replaced by an object
	obj.SetPath([]string{"debug", "level"}, String("info"))
	v, ok = obj.Lookup("debug", "level")
	require.True(t, ok)
	assert.Equal(t, String("info"), v)

	obj.Delete("debug")
	assert.Equal(t, 1, obj.Len())

	assert.Equal(t, map[string]any{
		"http": map[string]any{"port": float64(8080), "host": "localhost"},
	}, obj.Interface())
}

func TestObjectSetKeepsPosition(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Number(1))
	obj.Set("b", Number(2))
	obj.Set("a", Number(3))

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	v, _ := obj.Get("a")
	assert.Equal(t, Number(3), v)
}

func TestObjectRangeStops(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Number(1))
	obj.Set("b", Number(2))

	var seen []string
	obj.Range(func(key string, _ Value) bool {
		seen = append(seen, key)
		return false
	})
	assert.Equal(t, []string{"a"}, seen)
}

func TestValueClone(t *testing.T) {
	inner := NewObject()
	inner.Set("k", Array(String("x")))
	orig := ObjectValue(inner)

	clone := orig.Clone()
	cloned, _ := clone.AsObject()
	cloned.Set("k", String("changed"))
	cloned.Set("new", Null())

	v, _ := inner.Get("k")
	assert.Equal(t, Array(String("x")), v)
	assert.Equal(t, 1, inner.Len())
}

func TestNilObject(t *testing.T) {
	var obj *Object
	assert.Equal(t, 0, obj.Len())
	assert.Nil(t, obj.Keys())
	_, ok := obj.Get("a")
	assert.False(t, ok)
	obj.Delete("a")
	obj.Range(func(string, Value) bool {
		t.Fatal("range over a nil object")
		return true
	})
}
