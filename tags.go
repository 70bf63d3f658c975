package apikit

import (
	"reflect"
	"strings"
)

// paramTags are the struct tags used for binding request parameters.
var paramTags = []string{"path", "query", "header", "cookie"}

// structOf returns the struct type behind t, if any.
func structOf(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

// anyField reports whether some field of the struct behind t satisfies match.
func anyField(t reflect.Type, match func(reflect.StructField) bool) bool {
	st, ok := structOf(t)
	if !ok {
		return false
	}
	for i := range st.NumField() {
		if match(st.Field(i)) {
			return true
		}
	}
	return false
}

// hasParamTags reports whether an exported field binds from the path,
// query, headers or cookies.
func hasParamTags(t reflect.Type) bool {
	return anyField(t, func(f reflect.StructField) bool {
		return f.IsExported() && isParamField(f)
	})
}

// hasRawRequest reports whether the type embeds RawRequest.
func hasRawRequest(t reflect.Type) bool {
	return anyField(t, func(f reflect.StructField) bool {
		return f.Type == reflect.TypeFor[RawRequest]()
	})
}

// hasBodyField reports whether the type has an exported Body field.
func hasBodyField(t reflect.Type) bool {
	return anyField(t, func(f reflect.StructField) bool {
		return f.IsExported() && f.Name == "Body"
	})
}

// hasFormTags reports whether an exported field binds from a multipart or
// urlencoded form.
func hasFormTags(t reflect.Type) bool {
	return anyField(t, func(f reflect.StructField) bool {
		return f.IsExported() && formFieldName(f) != ""
	})
}

// tagOptions splits a struct tag value on comma and returns
// the name and remaining options.
func tagOptions(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

// formFieldName returns the multipart field name for a struct field, or ""
// if the field is not form-bound.
func formFieldName(f reflect.StructField) string {
	name, _ := tagOptions(f.Tag.Get("form"))
	return name
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(f reflect.StructField) string {
	name, _ := tagOptions(f.Tag.Get("json"))
	if name == "" {
		return f.Name
	}
	return name
}

// isParamField reports whether a struct field has parameter binding tags.
func isParamField(f reflect.StructField) bool {
	for _, tag := range paramTags {
		if f.Tag.Get(tag) != "" {
			return true
		}
	}
	return false
}

// paramLocation returns the tag (and thus the OpenAPI "in") and the bound
// name of a parameter field.
func paramLocation(f reflect.StructField) (string, string) {
	for _, tag := range paramTags {
		if name := f.Tag.Get(tag); name != "" {
			return tag, name
		}
	}
	return "", ""
}

// isRequired reports whether a field is declared as required. Path
// parameters are always required.
func isRequired(f reflect.StructField) bool {
	return f.Tag.Get("required") == "true" || f.Tag.Get("path") != ""
}
