package apikit

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// presenceSet records the JSON Pointer paths that carried a value.
type presenceSet map[string]bool

func (s presenceSet) present(path string) bool { return s[path] }

// mark records path and, for decoded JSON values, every path below it.
func (s presenceSet) mark(path string, v any) {
	s[path] = true
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			s.mark(path+"/"+escapePointer(k), child)
		}
	case []any:
		for i, child := range val {
			s.mark(path+"/"+strconv.Itoa(i), child)
		}
	}
}

// markNonZero records every non-zero field of v below prefix. It stands in
// for key tracking where none is available: handler responses and bodies
// read by decoders other than JSON.
func (s presenceSet) markNonZero(v any, prefix string) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		s.markStruct(rv, prefix)
	}
}

func (s presenceSet) markStruct(rv reflect.Value, prefix string) {
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || isParamField(f) || f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}
		path, ok := fieldPath(f, prefix)
		if !ok {
			continue
		}
		s.markValue(rv.Field(i), path)
	}
}

func (s presenceSet) markValue(fv reflect.Value, path string) {
	if !fv.IsValid() || fv.IsZero() {
		return
	}
	s[path] = true

	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return
		}
		fv = fv.Elem()
	}

	//exhaustive:ignore
	switch fv.Kind() {
	case reflect.Struct:
		if !isOpaqueStruct(fv.Type()) {
			s.markStruct(fv, path)
		}
	case reflect.Slice, reflect.Array:
		for i := range fv.Len() {
			s.markValue(fv.Index(i), path+"/"+strconv.Itoa(i))
		}
	}
}

// applyDefaults fills absent fields that declare a `default` tag.
func applyDefaults(v any, p presenceSet) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return defaultStruct(rv, "", p)
}

func defaultStruct(rv reflect.Value, prefix string, p presenceSet) error {
	t := rv.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || isParamField(f) || f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}

		fv := rv.Field(i)

		if prefix == "" && f.Name == "Body" && f.Type.Kind() == reflect.Struct {
			if err := defaultStruct(fv, "/body", p); err != nil {
				return err
			}
			continue
		}

		path, ok := fieldPath(f, prefix)
		if !ok {
			continue
		}

		if def, ok := f.Tag.Lookup("default"); ok && !p.present(path) {
			if err := setDefault(fv, def); err != nil {
				return fmt.Errorf("default for %s: %w", path, err)
			}
			p.mark(path, tagValue(f.Type, def))
		}

		if err := defaultNested(fv, path, p); err != nil {
			return err
		}
	}
	return nil
}

func defaultNested(fv reflect.Value, path string, p presenceSet) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}

	//exhaustive:ignore
	switch fv.Kind() {
	case reflect.Struct:
		if isOpaqueStruct(fv.Type()) {
			return nil
		}
		return defaultStruct(fv, path, p)
	case reflect.Slice, reflect.Array:
		for i := range fv.Len() {
			if err := defaultNested(fv.Index(i), path+"/"+strconv.Itoa(i), p); err != nil {
				return err
			}
		}
	}
	return nil
}

// setDefault assigns a tag default to a field. Scalars parse as text,
// everything else as JSON.
func setDefault(field reflect.Value, raw string) error {
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := setDefault(elem.Elem(), raw); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}
	if isScalarType(field.Type()) {
		return setFieldValue(field, raw)
	}
	return json.Unmarshal([]byte(raw), field.Addr().Interface())
}

// isScalarType reports whether values of t bind from a single string.
func isScalarType(t reflect.Type) bool {
	if t == reflect.TypeFor[time.Duration]() {
		return true
	}
	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
