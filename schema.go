package apikit

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// JSONSchema represents a JSON Schema object (subset for OpenAPI 3.1).
type JSONSchema struct {
	Ref         string                `json:"$ref,omitempty"`
	Type        string                `json:"type,omitempty"`
	Format      string                `json:"format,omitempty"`
	Description string                `json:"description,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Enum        []string              `json:"enum,omitempty"`
	Default     any                   `json:"default,omitempty"`
	Examples    []any                 `json:"examples,omitempty"`

	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`

	// AdditionalProperties is either false or a *JSONSchema.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// SchemaInfo annotates the schema generated for a type.
type SchemaInfo struct {
	// Name registers the type under components/schemas. Named struct types
	// are registered under their Go name when Name is empty.
	Name        string
	Description string
	Example     any
	// Strict rejects unknown keys in request bodies and documents
	// additionalProperties: false.
	Strict bool
}

// SchemaDescriber is implemented by types that annotate their own schema.
type SchemaDescriber interface {
	SchemaInfo() SchemaInfo
}

// schemaInfoOf returns the SchemaInfo of t, if t (or *t) implements SchemaDescriber.
func schemaInfoOf(t reflect.Type) (SchemaInfo, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := reflect.New(t).Elem().Interface().(SchemaDescriber); ok {
		return d.SchemaInfo(), true
	}
	if d, ok := reflect.New(t).Interface().(SchemaDescriber); ok {
		return d.SchemaInfo(), true
	}
	return SchemaInfo{}, false
}

// schemaRegistry collects named component schemas while converting types.
type schemaRegistry struct {
	defs  map[string]JSONSchema
	names map[reflect.Type]string
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{
		defs:  make(map[string]JSONSchema),
		names: make(map[reflect.Type]string),
	}
}

// componentName returns the component name for t, or "" if t is inlined.
func componentName(t reflect.Type) string {
	if info, ok := schemaInfoOf(t); ok && info.Name != "" {
		return info.Name
	}
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return ""
	}
	return sanitizeSchemaName(t.Name())
}

// sanitizeSchemaName makes generic instantiation names usable as component keys.
func sanitizeSchemaName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ',', '.', '/', '*', ' ':
			return '_'
		}
		return r
	}, name)
}

// typeToSchema converts a reflect.Type to a JSONSchema, registering named
// types as components and returning a $ref for them.
func (sr *schemaRegistry) typeToSchema(t reflect.Type) JSONSchema {
	// Unwrap pointer.
	if t.Kind() == reflect.Pointer {
		return sr.typeToSchema(t.Elem())
	}

	// Handle well-known types.
	switch t {
	case reflect.TypeFor[time.Time]():
		return JSONSchema{Type: "string", Format: "date-time"}
	case reflect.TypeFor[time.Duration]():
		return JSONSchema{Type: "string", Format: "duration"}
	case reflect.TypeFor[Void]():
		return JSONSchema{}
	case reflect.TypeFor[FileUpload]():
		return JSONSchema{Type: "string", Format: "binary"}
	}

	name := componentName(t)
	if name == "" {
		return sr.inlineSchema(t)
	}

	if existing, ok := sr.names[t]; ok {
		return JSONSchema{Ref: "#/components/schemas/" + existing}
	}

	// Disambiguate distinct types sharing a name.
	unique := name
	for i := 2; ; i++ {
		if _, taken := sr.defs[unique]; !taken {
			break
		}
		unique = name + strconv.Itoa(i)
	}

	// Reserve before recursing so self-referencing types terminate.
	sr.names[t] = unique
	sr.defs[unique] = JSONSchema{}
	sr.defs[unique] = sr.inlineSchema(t)

	return JSONSchema{Ref: "#/components/schemas/" + unique}
}

// inlineSchema builds the schema of t without registering t itself.
func (sr *schemaRegistry) inlineSchema(t reflect.Type) JSONSchema {
	var schema JSONSchema

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		schema = JSONSchema{Type: "string"}
	case reflect.Bool:
		schema = JSONSchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema = JSONSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		schema = JSONSchema{Type: "number"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			schema = JSONSchema{Type: "string", Format: "byte"}
			break
		}
		items := sr.typeToSchema(t.Elem())
		schema = JSONSchema{Type: "array", Items: &items}
	case reflect.Array:
		items := sr.typeToSchema(t.Elem())
		schema = JSONSchema{Type: "array", Items: &items}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			schema = JSONSchema{Type: "object"}
			break
		}
		valSchema := sr.typeToSchema(t.Elem())
		schema = JSONSchema{Type: "object", AdditionalProperties: &valSchema}
	case reflect.Struct:
		schema = sr.structToSchema(t)
	default:
		schema = JSONSchema{}
	}

	if info, ok := schemaInfoOf(t); ok {
		if info.Description != "" {
			schema.Description = info.Description
		}
		if info.Example != nil {
			schema.Examples = []any{info.Example}
		}
		if info.Strict && schema.Type == "object" {
			schema.AdditionalProperties = false
		}
	}

	return schema
}

// structToSchema converts a struct type to a JSONSchema with properties.
func (sr *schemaRegistry) structToSchema(t reflect.Type) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema),
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		// Param fields are not part of the body schema.
		if isParamField(f) {
			continue
		}

		// Skip embedded RawRequest.
		if f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}

		name := schemaFieldName(f)
		if name == "-" {
			continue
		}

		prop := sr.typeToSchema(f.Type)
		applyFieldTags(f, &prop)

		schema.Properties[name] = prop

		if f.Tag.Get("required") == "true" {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// schemaFieldName prefers the form name for form-bound fields.
func schemaFieldName(f reflect.StructField) string {
	if name := formFieldName(f); name != "" {
		return name
	}
	return jsonFieldName(f)
}

// applyFieldTags copies documentation, default, example and constraint tags
// onto a property schema.
func applyFieldTags(f reflect.StructField, s *JSONSchema) {
	if doc := f.Tag.Get("doc"); doc != "" {
		s.Description = doc
	}
	if def, ok := f.Tag.Lookup("default"); ok {
		s.Default = tagValue(f.Type, def)
	}
	if ex, ok := f.Tag.Lookup("example"); ok {
		s.Examples = []any{tagValue(f.Type, ex)}
	}
	applyConstraintTags(f, s)
}

// applyConstraintTags documents constraint tags on a schema.
func applyConstraintTags(f reflect.StructField, s *JSONSchema) {
	intTag := func(name string) *int {
		if n, err := strconv.Atoi(f.Tag.Get(name)); err == nil {
			return &n
		}
		return nil
	}
	floatTag := func(name string) *float64 {
		if n, err := strconv.ParseFloat(f.Tag.Get(name), 64); err == nil {
			return &n
		}
		return nil
	}

	s.MinLength = intTag("minLength")
	s.MaxLength = intTag("maxLength")
	s.Minimum = floatTag("minimum")
	s.Maximum = floatTag("maximum")
	s.MinItems = intTag("minItems")
	s.MaxItems = intTag("maxItems")
	if p := f.Tag.Get("pattern"); p != "" {
		s.Pattern = p
	}
	if e := f.Tag.Get("enum"); e != "" {
		s.Enum = strings.Split(e, ",")
	}
}

// tagValue interprets a default/example tag for the field type: string
// kinds keep the raw text, everything else is read as JSON.
func tagValue(t reflect.Type, raw string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.String {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
