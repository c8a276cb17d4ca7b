// Package codec turns an operation payload into the three pieces of an HTTP
// call: the resolved path, the query string and the request body.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrInvalidPayload is returned when a value cannot be converted into a Payload.
var ErrInvalidPayload = errors.New("opfetch: invalid payload")

// Fields is an insertion-ordered mapping of parameter names to values.
// The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]any
}

// Set stores value under key. A key that already exists keeps its position.
func (f *Fields) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Delete removes key. Removing a missing key is a no-op.
func (f *Fields) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	return slices.Clone(f.keys)
}

// Len returns the number of keys.
func (f Fields) Len() int {
	return len(f.keys)
}

// Clone returns a copy that shares values but not structure with f.
func (f Fields) Clone() Fields {
	if f.values == nil {
		return Fields{}
	}
	values := make(map[string]any, len(f.values))
	maps.Copy(values, f.values)
	return Fields{keys: slices.Clone(f.keys), values: values}
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.ConfigStd.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := marshalValue(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Payload is the caller's input for one call. Items is non-nil for
// array-shaped bodies; Fields then carries the array's named parameters.
type Payload struct {
	Fields
	Items []any
}

// IsArray reports whether the payload has an array-shaped body.
func (p Payload) IsArray() bool {
	return p.Items != nil
}

// Clone returns a copy that can be consumed without touching p.
func (p Payload) Clone() Payload {
	return Payload{Fields: p.Fields.Clone(), Items: slices.Clone(p.Items)}
}

// With returns a copy of p with key set to value.
func (p Payload) With(key string, value any) Payload {
	q := p.Clone()
	q.Set(key, value)
	return q
}

// MarshalJSON encodes Items for array payloads and Fields otherwise.
func (p Payload) MarshalJSON() ([]byte, error) {
	if !p.IsArray() {
		return p.Fields.MarshalJSON()
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range p.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := marshalValue(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	if isNil(v) {
		return []byte("null"), nil
	}
	return sonic.ConfigStd.Marshal(v)
}

// Params builds a Payload from alternating keys and values.
func Params(pairs ...any) Payload {
	var p Payload
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		var value any
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		p.Set(key, value)
	}
	return p
}

// Array builds an array-shaped Payload.
func Array(items ...any) Payload {
	if items == nil {
		items = []any{}
	}
	return Payload{Items: items}
}

// FromValue converts a caller value into a Payload. Maps are read in sorted
// key order; structs in field declaration order using their json tags.
func FromValue(v any) (Payload, error) {
	switch t := v.(type) {
	case nil:
		return Payload{}, nil
	case Payload:
		return t, nil
	case *Payload:
		if t == nil {
			return Payload{}, nil
		}
		return *t, nil
	case Fields:
		return Payload{Fields: t}, nil
	case *Fields:
		if t == nil {
			return Payload{}, nil
		}
		return Payload{Fields: *t}, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Payload{}, nil
		}
		rv = rv.Elem()
	}

	var p Payload
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Payload{}, fmt.Errorf("%w: map key type %s", ErrInvalidPayload, rv.Type().Key())
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			p.Set(k.String(), rv.MapIndex(k).Interface())
		}
	case reflect.Struct:
		appendStruct(rv, &p.Fields)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return Payload{}, fmt.Errorf("%w: raw bytes", ErrInvalidPayload)
		}
		p.Items = make([]any, rv.Len())
		for i := range p.Items {
			p.Items[i] = rv.Index(i).Interface()
		}
	default:
		return Payload{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidPayload, v)
	}
	return p, nil
}

func appendStruct(rv reflect.Value, f *Fields) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		name, opts, tagged := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" && !tagged {
			continue
		}
		fv := rv.Field(i)
		if sf.Anonymous && name == "" {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}
				ev = ev.Elem()
			}
			if ev.Kind() == reflect.Struct {
				appendStruct(ev, f)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		f.Set(name, fv.Interface())
	}
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

// isNil treats untyped nil and nil pointers, maps, slices and interfaces alike.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
