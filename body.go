package apikit

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// decodeBody decodes the request body into target using the decoder for
// the request's Content-Type. JSON bodies record which paths were supplied;
// other wire formats fall back to treating non-zero values as present.
func decodeBody(r *http.Request, target any, prefix string, set presenceSet, codecs *codecRegistry) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	ct := r.Header.Get("Content-Type")
	dec, ok := codecs.decoderFor(ct)
	if !ok {
		return Errorf(http.StatusUnsupportedMediaType, "unsupported content type %q", mediaTypeOf(ct))
	}

	if _, isJSON := dec.(jsonCodec); isJSON {
		return decodeJSON(r.Body, target, prefix, set)
	}

	if err := dec.Decode(r.Body, target); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return bodyReadError(err)
		}
		return &RequestValidationError{
			Issues: Issues{{Path: rootPath(prefix), Code: CodeInvalidType, Message: err.Error()}},
			Cause:  fmt.Errorf("%w: %w", ErrBindBody, err),
		}
	}
	set.markNonZero(target, prefix)
	return nil
}

// decodeJSON reads a JSON document into target, marking every supplied path
// below prefix. Types declaring SchemaInfo.Strict reject unknown keys.
func decodeJSON(body io.Reader, target any, prefix string, set presenceSet) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return bodyReadError(err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return &RequestValidationError{
			Issues: Issues{{Path: rootPath(prefix), Code: CodeInvalidType, Message: "malformed JSON"}},
			Cause:  fmt.Errorf("%w: %w", ErrBindBody, err),
		}
	}
	set.mark(prefix, raw)

	dec := json.NewDecoder(bytes.NewReader(b))
	if info, ok := schemaInfoOf(reflect.TypeOf(target)); ok && info.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(target); err != nil {
		return &RequestValidationError{
			Issues: Issues{decodeIssue(err, raw, reflect.TypeOf(target), prefix)},
			Cause:  fmt.Errorf("%w: %w", ErrBindBody, err),
		}
	}
	return nil
}

// decodeIssue converts a decode failure into an Issue. Type mismatches are
// located by walking the decoded document against t.
func decodeIssue(err error, raw any, t reflect.Type, prefix string) Issue {
	if !isUnknownField(err) {
		if iss, ok := jsonMismatch(raw, t, prefix); ok {
			return iss
		}
	}
	return jsonIssue(err, prefix)
}

const unknownFieldPrefix = "json: unknown field "

func isUnknownField(err error) bool {
	return strings.HasPrefix(err.Error(), unknownFieldPrefix)
}

// jsonIssue converts a decode failure into an Issue when the document
// itself could not say where it went wrong.
func jsonIssue(err error, prefix string) Issue {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return Issue{
			Path:    rootPath(prefix),
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("expected %s, received %s", ute.Type, ute.Value),
			Params:  map[string]any{"expected": ute.Type.String(), "received": ute.Value},
		}
	}

	if isUnknownField(err) {
		key := strings.TrimPrefix(err.Error(), unknownFieldPrefix)
		if unq, uerr := strconv.Unquote(key); uerr == nil {
			key = unq
		}
		return Issue{
			Path:    prefix + "/" + escapePointer(key),
			Code:    CodeUnknownKey,
			Message: fmt.Sprintf("unrecognized key %q", key),
			Params:  map[string]any{"key": key},
		}
	}

	return Issue{Path: rootPath(prefix), Code: CodeInvalidType, Message: err.Error()}
}

// jsonMismatch reports the first value in raw whose JSON type cannot be
// decoded into t, addressed by the json tag names along the way.
func jsonMismatch(raw any, t reflect.Type, path string) (Issue, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if raw == nil {
		return Issue{}, false
	}
	if t == reflect.TypeFor[time.Time]() || decodesText(t) {
		return expectJSON[string](raw, t, path)
	}
	if decodesJSON(t) {
		return Issue{}, false
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Interface:
		return Issue{}, false
	case reflect.String:
		return expectJSON[string](raw, t, path)
	case reflect.Bool:
		return expectJSON[bool](raw, t, path)
	case reflect.Float32, reflect.Float64:
		return expectJSON[float64](raw, t, path)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := raw.(float64); ok && n != math.Trunc(n) {
			return typeIssue(t, "number "+strconv.FormatFloat(n, 'g', -1, 64), path), true
		}
		return expectJSON[float64](raw, t, path)
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return expectJSON[string](raw, t, path)
		}
		items, ok := raw.([]any)
		if !ok {
			return typeIssue(t, jsonKind(raw), path), true
		}
		for i, item := range items {
			if iss, bad := jsonMismatch(item, t.Elem(), path+"/"+strconv.Itoa(i)); bad {
				return iss, true
			}
		}
	case reflect.Map:
		obj, ok := raw.(map[string]any)
		if !ok {
			return typeIssue(t, jsonKind(raw), path), true
		}
		for _, k := range sortedKeys(obj) {
			if iss, bad := jsonMismatch(obj[k], t.Elem(), path+"/"+escapePointer(k)); bad {
				return iss, true
			}
		}
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return typeIssue(t, jsonKind(raw), path), true
		}
		return structMismatch(obj, t, path)
	}
	return Issue{}, false
}

func structMismatch(obj map[string]any, t reflect.Type, path string) (Issue, bool) {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() && !f.Anonymous {
			continue
		}
		if isParamField(f) || f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}
		name := jsonFieldName(f)
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if f.Anonymous && f.Tag.Get("json") == "" && ft.Kind() == reflect.Struct {
			if iss, bad := structMismatch(obj, ft, path); bad {
				return iss, true
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		v, ok := lookupKey(obj, name)
		if !ok || quotedScalar(f) {
			continue
		}
		if iss, bad := jsonMismatch(v, f.Type, path+"/"+escapePointer(name)); bad {
			return iss, true
		}
	}
	return Issue{}, false
}

// quotedScalar reports fields tagged ",string", which carry their scalar
// inside a JSON string.
func quotedScalar(f reflect.StructField) bool {
	_, opts := tagOptions(f.Tag.Get("json"))
	return slices.Contains(strings.Split(opts, ","), "string")
}

// lookupKey matches a field name the way the decoder does: exact first,
// then case-insensitively.
func lookupKey(obj map[string]any, name string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for _, k := range sortedKeys(obj) {
		if strings.EqualFold(k, name) {
			return obj[k], true
		}
	}
	return nil, false
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// decodesJSON reports types that parse their own JSON.
func decodesJSON(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(reflect.TypeFor[json.Unmarshaler]())
}

// decodesText reports types that decode from a JSON string only.
func decodesText(t reflect.Type) bool {
	return !decodesJSON(t) && reflect.PointerTo(t).Implements(reflect.TypeFor[encoding.TextUnmarshaler]())
}

func expectJSON[W any](raw any, t reflect.Type, path string) (Issue, bool) {
	if _, ok := raw.(W); ok {
		return Issue{}, false
	}
	return typeIssue(t, jsonKind(raw), path), true
}

func typeIssue(t reflect.Type, received, path string) Issue {
	expected := t.String()
	if t == reflect.TypeFor[time.Time]() {
		expected = "string"
	}
	return Issue{
		Path:    rootPath(path),
		Code:    CodeInvalidType,
		Message: fmt.Sprintf("expected %s, received %s", expected, received),
		Params:  map[string]any{"expected": expected, "received": received},
	}
}

// jsonKind names the JSON type of a decoded value.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}

// rootPath renders the empty JSON Pointer as "/" for display.
func rootPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
