package apikit

import (
	"context"
	"net/http"
)

// Void stands in for an absent request or response. A Void response is
// answered with 204 No Content unless WithStatus says otherwise.
type Void struct{}

// Handler is the typed handler signature. Binding, defaults, validation and
// serialization happen around it; handlers never touch the ResponseWriter.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// RawHandler serves a route registered with Raw. It sees the underlying
// request, as streaming multipart consumers need to.
type RawHandler func(w http.ResponseWriter, r *http.Request)

// RawRequest, embedded in a request type, receives the *http.Request the
// value was bound from.
type RawRequest struct {
	Request *http.Request
}

// OperationInfo documents a Raw route, whose types the OpenAPI generator
// cannot see.
type OperationInfo struct {
	Summary     string
	Description string
	Tags        []string
	Status      int
	Hidden      bool
}
