package apikit

import "reflect"

// Test-only exports for internal functions.
var (
	HasParamTags  = hasParamTags
	HasFormTags   = hasFormTags
	HasBodyField  = hasBodyField
	HasRawRequest = hasRawRequest
	TagOptions    = tagOptions
	IsRequired    = isRequired

	MediaTypeOf   = mediaTypeOf
	EscapePointer = escapePointer
	TagValue      = tagValue
	ToOpenAPIPath = toOpenAPIPath

	ContentTag  = contentTag
	IfNoneMatch = ifNoneMatch
)

// Category names the decoding strategy chosen for a request type.
func Category(t reflect.Type) string {
	return [...]string{"void", "body", "params", "mixed", "form", "text"}[classifyRequest(t)]
}

// ValidateConstraints validates v with the given JSON Pointer paths present.
func ValidateConstraints(v any, present ...string) Issues {
	return validateConstraints(v, presentSet(present))
}

// ApplyDefaults fills the defaults of v with the given paths present.
func ApplyDefaults(v any, present ...string) error {
	return applyDefaults(v, presentSet(present))
}

// ValidateResponse runs the checks a handler's response goes through.
func ValidateResponse(v any) (Issues, error) {
	produced := presenceSet{}
	produced.markNonZero(v, "")
	if err := applyDefaults(v, produced); err != nil {
		return nil, err
	}
	return validateConstraints(v, produced), nil
}

// MarkNonZero returns the paths markNonZero records for v.
func MarkNonZero(v any, prefix string) map[string]bool {
	s := presenceSet{}
	s.markNonZero(v, prefix)
	return s
}

// MarkJSON returns the paths mark records for a decoded JSON value.
func MarkJSON(prefix string, v any) map[string]bool {
	s := presenceSet{}
	s.mark(prefix, v)
	return s
}

func presentSet(paths []string) presenceSet {
	s := presenceSet{}
	for _, p := range paths {
		s[p] = true
	}
	return s
}

// Negotiate returns the content type chosen for accept by the default codecs.
func Negotiate(accept string, textual bool) (string, bool) {
	enc, ok := newCodecRegistry(nil, nil).negotiate(accept, textual)
	if !ok {
		return "", false
	}
	return enc.ContentType(), true
}

// DecoderFor returns the content type of the decoder chosen for ct.
func DecoderFor(ct string) (string, bool) {
	dec, ok := newCodecRegistry(nil, nil).decoderFor(ct)
	if !ok {
		return "", false
	}
	return dec.ContentType(), true
}

// TestSchemaRegistry wraps schemaRegistry for external tests.
type TestSchemaRegistry struct {
	reg  *schemaRegistry
	Defs map[string]JSONSchema
}

// NewSchemaRegistry creates a TestSchemaRegistry for testing.
func NewSchemaRegistry() *TestSchemaRegistry {
	r := newSchemaRegistry()
	return &TestSchemaRegistry{reg: r, Defs: r.defs}
}

// TypeToSchema delegates to the internal registry.
func (t *TestSchemaRegistry) TypeToSchema(typ reflect.Type) JSONSchema {
	return t.reg.typeToSchema(typ)
}

// NewFileUpload builds a buffered FileUpload.
func NewFileUpload(name, contentType string, data []byte) FileUpload {
	return FileUpload{Filename: name, ContentType: contentType, Size: int64(len(data)), data: data}
}
