package apikit

import (
	"net/http"
	"reflect"
)

// routeInfo holds metadata for a registered route, used for both
// request dispatch and OpenAPI spec generation.
type routeInfo struct {
	method     string
	pattern    string
	summary    string
	desc       string
	tags       []string
	status     int
	deprecated bool
	hidden     bool
	errors     []int

	operationID string

	bodyLimit  int64
	consumes   []string
	formLimits MultipartLimits

	reqType  reflect.Type
	respType reflect.Type

	handler http.Handler
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeInfo)

// WithStatus sets the default HTTP status code for the response.
func WithStatus(code int) RouteOption {
	return func(ri *routeInfo) {
		ri.status = code
	}
}

// WithSummary sets the OpenAPI summary for the route.
func WithSummary(s string) RouteOption {
	return func(ri *routeInfo) {
		ri.summary = s
	}
}

// WithDescription sets the OpenAPI description for the route.
func WithDescription(d string) RouteOption {
	return func(ri *routeInfo) {
		ri.desc = d
	}
}

// WithTags adds OpenAPI tags to the route.
func WithTags(tags ...string) RouteOption {
	return func(ri *routeInfo) {
		ri.tags = append(ri.tags, tags...)
	}
}

// WithDeprecated marks the route as deprecated in the OpenAPI spec.
func WithDeprecated() RouteOption {
	return func(ri *routeInfo) {
		ri.deprecated = true
	}
}

// WithHidden leaves the route out of the OpenAPI spec.
func WithHidden() RouteOption {
	return func(ri *routeInfo) {
		ri.hidden = true
	}
}

// WithErrors declares additional HTTP error status codes for the OpenAPI spec.
func WithErrors(codes ...int) RouteOption {
	return func(ri *routeInfo) {
		ri.errors = append(ri.errors, codes...)
	}
}

// WithOperationID sets a custom OpenAPI operationId.
func WithOperationID(id string) RouteOption {
	return func(ri *routeInfo) {
		ri.operationID = id
	}
}

// WithBodyLimit sets a per-route maximum request body size in bytes.
// This overrides any global BodyLimit middleware for this route.
func WithBodyLimit(maxBytes int64) RouteOption {
	return func(ri *routeInfo) {
		ri.bodyLimit = maxBytes
	}
}

// WithConsumes restricts the request media types the route accepts. Other
// content types are rejected with 415. Text routes document one request
// body per media type.
func WithConsumes(mediaTypes ...string) RouteOption {
	return func(ri *routeInfo) {
		ri.consumes = append(ri.consumes, mediaTypes...)
	}
}

// WithFormLimits sets the multipart limits of a form route. Zero fields fall
// back to the router's WithMultipartLimits.
func WithFormLimits(l MultipartLimits) RouteOption {
	return func(ri *routeInfo) {
		ri.formLimits = l
	}
}
