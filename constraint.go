package apikit

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// validateConstraints checks required and constraint tags on the struct
// fields of v and returns every violation.
func validateConstraints(v any, p presenceSet) Issues {
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

	var iss Issues
	collectIssues(rv, "", p, &iss)
	return iss
}

func collectIssues(rv reflect.Value, prefix string, p presenceSet, iss *Issues) {
	t := rv.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		// Skip RawRequest.
		if f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}

		fv := rv.Field(i)

		// If this is the Body field, recurse into it.
		if prefix == "" && f.Name == "Body" && f.Type.Kind() == reflect.Struct {
			collectIssues(fv, "/body", p, iss)
			continue
		}

		path, ok := fieldPath(f, prefix)
		if !ok {
			continue
		}

		if !p.present(path) {
			if isRequired(f) {
				*iss = append(*iss, Issue{
					Path:    path,
					Code:    CodeRequired,
					Message: "is required",
				})
			}
			continue
		}

		checkFieldConstraints(f, fv, path, iss)

		// Recurse into nested structs and slices of structs.
		if !isParamField(f) {
			collectNested(fv, path, p, iss)
		}
	}
}

// fieldPath returns the JSON Pointer of a field below prefix. Parameter
// fields are rooted at their location ("/query/page").
func fieldPath(f reflect.StructField, prefix string) (string, bool) {
	if in, name := paramLocation(f); in != "" {
		return "/" + in + "/" + escapePointer(name), true
	}
	name := schemaFieldName(f)
	if name == "-" {
		return "", false
	}
	return prefix + "/" + escapePointer(name), true
}

func collectNested(fv reflect.Value, path string, p presenceSet, iss *Issues) {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return
		}
		fv = fv.Elem()
	}

	//exhaustive:ignore
	switch fv.Kind() {
	case reflect.Struct:
		if isOpaqueStruct(fv.Type()) {
			return
		}
		collectIssues(fv, path, p, iss)
	case reflect.Slice, reflect.Array:
		for i := range fv.Len() {
			collectNested(fv.Index(i), path+"/"+strconv.Itoa(i), p, iss)
		}
	}
}

// isOpaqueStruct reports struct types whose fields are not part of the schema.
func isOpaqueStruct(t reflect.Type) bool {
	return t == reflect.TypeFor[time.Time]() || t == reflect.TypeFor[FileUpload]()
}

// escapePointer escapes a JSON Pointer reference token.
func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

func checkFieldConstraints(f reflect.StructField, fv reflect.Value, path string, iss *Issues) {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return
		}
		fv = fv.Elem()
	}

	add := func(code, msg string, params map[string]any) {
		*iss = append(*iss, Issue{Path: path, Code: code, Message: msg, Params: params})
	}

	// Strings: minLength, maxLength, pattern, enum.
	if fv.Kind() == reflect.String {
		val := fv.String()
		if tag := f.Tag.Get("minLength"); tag != "" {
			if n, err := strconv.Atoi(tag); err == nil && len(val) < n {
				add(CodeTooSmall, fmt.Sprintf("must be at least %d characters", n),
					map[string]any{"minimum": n, "origin": "string"})
			}
		}
		if tag := f.Tag.Get("maxLength"); tag != "" {
			if n, err := strconv.Atoi(tag); err == nil && len(val) > n {
				add(CodeTooBig, fmt.Sprintf("must be at most %d characters", n),
					map[string]any{"maximum": n, "origin": "string"})
			}
		}
		if tag := f.Tag.Get("pattern"); tag != "" {
			if matched, err := regexp.MatchString(tag, val); err == nil && !matched {
				add(CodeInvalidFormat, fmt.Sprintf("must match pattern %s", tag),
					map[string]any{"pattern": tag})
			}
		}
		if tag := f.Tag.Get("enum"); tag != "" {
			allowed := strings.Split(tag, ",")
			found := false
			for _, a := range allowed {
				if a == val {
					found = true
					break
				}
			}
			if !found {
				add(CodeInvalidEnum, fmt.Sprintf("must be one of [%s]", tag),
					map[string]any{"values": allowed})
			}
		}
	}

	// Numbers: minimum, maximum.
	if isNumericKind(fv.Kind()) {
		floatVal := toFloat64(fv)
		if tag := f.Tag.Get("minimum"); tag != "" {
			if lower, err := strconv.ParseFloat(tag, 64); err == nil && floatVal < lower {
				add(CodeTooSmall, fmt.Sprintf("must be at least %s", tag),
					map[string]any{"minimum": lower, "origin": "number"})
			}
		}
		if tag := f.Tag.Get("maximum"); tag != "" {
			if upper, err := strconv.ParseFloat(tag, 64); err == nil && floatVal > upper {
				add(CodeTooBig, fmt.Sprintf("must be at most %s", tag),
					map[string]any{"maximum": upper, "origin": "number"})
			}
		}
	}

	// Slices: minItems, maxItems.
	if fv.Kind() == reflect.Slice {
		length := fv.Len()
		if tag := f.Tag.Get("minItems"); tag != "" {
			if n, err := strconv.Atoi(tag); err == nil && length < n {
				add(CodeTooSmall, fmt.Sprintf("must have at least %d items", n),
					map[string]any{"minimum": n, "origin": "array"})
			}
		}
		if tag := f.Tag.Get("maxItems"); tag != "" {
			if n, err := strconv.Atoi(tag); err == nil && length > n {
				add(CodeTooBig, fmt.Sprintf("must have at most %d items", n),
					map[string]any{"maximum": n, "origin": "array"})
			}
		}
	}
}

func isNumericKind(k reflect.Kind) bool {
	//exhaustive:ignore
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func toFloat64(v reflect.Value) float64 {
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default: // float32, float64
		return v.Float()
	}
}
