package apikit

import (
	"maps"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document.
type OpenAPISpec struct {
	OpenAPI    string              `json:"openapi"`
	Info       OpenAPIInfo         `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Tags       []Tag               `json:"tags,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components         `json:"components,omitempty"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Tag describes an operation tag.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Components holds reusable schemas.
type Components struct {
	Schemas map[string]JSONSchema `json:"schemas,omitempty"`
}

// PathItem maps HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	OperationID string        `json:"operationId,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"requestBody,omitempty"`
	Responses   OperationResp `json:"responses"`
	Deprecated  bool          `json:"deprecated,omitempty"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name"`
	In          string     `json:"in"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Schema      JSONSchema `json:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                `json:"required"`
	Content  map[string]MediaObj `json:"content"`
}

// MediaObj is a media type object with an optional schema.
type MediaObj struct {
	Schema *JSONSchema `json:"schema,omitempty"`
}

// OperationResp maps HTTP status codes to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description"`
	Content     map[string]MediaObj `json:"content,omitempty"`
}

// Spec generates the full OpenAPI 3.1 specification from registered routes.
func (r *Router) Spec() OpenAPISpec {
	r.mu.Lock()
	defer r.mu.Unlock()

	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info: OpenAPIInfo{
			Title:       r.title,
			Description: r.description,
			Version:     r.version,
		},
		Servers: r.servers,
		Paths:   make(map[string]PathItem),
	}

	for _, name := range slices.Sorted(maps.Keys(r.tagDescs)) {
		spec.Tags = append(spec.Tags, Tag{Name: name, Description: r.tagDescs[name]})
	}

	sr := newSchemaRegistry()
	for i := range r.routes {
		ri := &r.routes[i]
		if ri.hidden {
			continue
		}
		path := toOpenAPIPath(ri.pattern)
		method := strings.ToLower(ri.method)

		op := buildOperation(ri, sr, r.codecs)

		if spec.Paths[path] == nil {
			spec.Paths[path] = make(PathItem)
		}
		spec.Paths[path][method] = op
	}

	if len(sr.defs) > 0 {
		spec.Components = &Components{Schemas: sr.defs}
	}

	return spec
}

// buildOperation creates an Operation from a routeInfo.
func buildOperation(ri *routeInfo, sr *schemaRegistry, codecs *codecRegistry) Operation {
	op := Operation{
		Summary:     ri.summary,
		Description: ri.desc,
		Tags:        ri.tags,
		OperationID: ri.operationID,
		Deprecated:  ri.deprecated,
		Responses:   make(OperationResp),
	}

	cat := catVoid
	if ri.reqType != nil {
		cat = classifyRequest(ri.reqType)
	}

	// Build parameters and request body from Req type.
	if cat != catVoid {
		op.Parameters = extractParameters(ri.reqType, sr)
		op.RequestBody = extractRequestBody(ri, cat, sr)
	}

	// Build response.
	status := ri.status
	if status == 0 {
		status = http.StatusOK
	}

	switch {
	case ri.respType == nil || ri.respType == reflect.TypeFor[Void]():
		if status == http.StatusOK {
			status = http.StatusNoContent
		}
		op.Responses[statusToString(status)] = ResponseObj{
			Description: "No content",
		}

	case ri.respType == reflect.TypeFor[Redirect]():
		op.Responses[statusToString(http.StatusFound)] = ResponseObj{
			Description: "Redirect",
		}

	case ri.respType.Kind() == reflect.String:
		op.Responses[statusToString(status)] = ResponseObj{
			Description: "Successful response",
			Content: map[string]MediaObj{
				codecs.contentTypes(true)[0]: {Schema: &JSONSchema{Type: "string"}},
			},
		}

	default:
		respSchema := sr.typeToSchema(ri.respType)
		content := make(map[string]MediaObj)
		for _, ct := range codecs.contentTypes(false) {
			content[ct] = MediaObj{Schema: &respSchema}
		}
		op.Responses[statusToString(status)] = ResponseObj{
			Description: "Successful response",
			Content:     content,
		}
	}

	for _, code := range errorStatuses(ri, cat) {
		if _, ok := op.Responses[statusToString(code)]; ok {
			continue
		}
		op.Responses[statusToString(code)] = ResponseObj{Description: http.StatusText(code)}
	}

	return op
}

// errorStatuses lists the error responses a route can produce: 400 when it
// binds input, 413 when the body is size-limited, 415 when the media types
// are restricted, plus any declared with WithErrors.
func errorStatuses(ri *routeInfo, cat requestCategory) []int {
	var codes []int
	if cat != catVoid && cat != catText {
		codes = append(codes, http.StatusBadRequest)
	}
	if cat == catForm || ri.bodyLimit > 0 {
		codes = append(codes, http.StatusRequestEntityTooLarge)
	}
	if len(ri.consumes) > 0 {
		codes = append(codes, http.StatusUnsupportedMediaType)
	}
	return append(codes, ri.errors...)
}

// extractParameters builds OpenAPI parameters from param-tagged fields.
func extractParameters(t reflect.Type, sr *schemaRegistry) []Parameter {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var params []Parameter
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		in, name := paramLocation(f)
		if in == "" {
			continue
		}

		schema := sr.typeToSchema(f.Type)
		applyFieldTags(f, &schema)

		p := Parameter{
			Name:     name,
			In:       in,
			Schema:   schema,
			Required: isRequired(f),
		}
		if doc := f.Tag.Get("doc"); doc != "" {
			p.Description = doc
			p.Schema.Description = ""
		}

		params = append(params, p)
	}

	return params
}

// extractRequestBody builds an OpenAPI RequestBody if the request type has a body.
func extractRequestBody(ri *routeInfo, cat requestCategory, sr *schemaRegistry) *RequestBody {
	t := ri.reqType
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	content := func(schema JSONSchema, defaults ...string) map[string]MediaObj {
		types := ri.consumes
		if len(types) == 0 {
			types = defaults
		}
		m := make(map[string]MediaObj, len(types))
		for _, ct := range types {
			m[mediaTypeOf(ct)] = MediaObj{Schema: &schema}
		}
		return m
	}

	//exhaustive:ignore
	switch cat {
	case catText:
		return &RequestBody{
			Required: true,
			Content:  content(JSONSchema{Type: "string"}, "text/plain"),
		}

	case catForm:
		return &RequestBody{
			Required: hasRequiredField(t),
			Content:  content(sr.typeToSchema(t), "multipart/form-data", "application/json"),
		}

	case catMixed:
		bodyField, _ := t.FieldByName("Body")
		return &RequestBody{
			Required: true,
			Content:  content(sr.typeToSchema(bodyField.Type), "application/json"),
		}

	case catBodyOnly:
		// Entire struct is body (only for POST/PUT/PATCH).
		if ri.method != http.MethodPost && ri.method != http.MethodPut && ri.method != http.MethodPatch {
			return nil
		}
		return &RequestBody{
			Required: true,
			Content:  content(sr.typeToSchema(t), "application/json"),
		}
	}

	return nil
}

// hasRequiredField reports whether any non-parameter field is required.
func hasRequiredField(t reflect.Type) bool {
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && !isParamField(f) && f.Tag.Get("required") == "true" {
			return true
		}
	}
	return false
}

// toOpenAPIPath converts a Go 1.22 pattern like "/users/{id}" to
// an OpenAPI path. Strips wildcard suffixes and the exact-match marker.
func toOpenAPIPath(pattern string) string {
	// Go's mux patterns can include {name...} for wildcards.
	// OpenAPI uses {name} without the ellipsis.
	result := strings.ReplaceAll(pattern, "...", "")
	return strings.ReplaceAll(result, "{$}", "")
}

// statusToString converts an HTTP status code to its string representation.
func statusToString(code int) string {
	return strconv.Itoa(code)
}
