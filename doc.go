// Package apikit is a generics-first HTTP framework for Go that keeps the
// request schema, the response schema and the API documentation in one
// place: the handler's Go types.
//
// The core handler signature removes http.ResponseWriter and *http.Request:
//
//	type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)
//
// Routes are registered with package-level generic functions:
//
//	r := apikit.New(apikit.WithTitle("SampleApi"), apikit.WithVersion("1.0.0"))
//	apikit.Post[LoginReq, LoginResp](r, "/login", login)
//
// Struct tags declare binding, defaults and constraints. Violations are
// collected as Issues and surfaced as a *RequestValidationError (400). A
// response that violates its own declared constraints is reported as a
// *ResponseSerializationError (500):
//
//	type LoginReq struct {
//	    Baz  string `query:"baz" required:"true" example:"wiiiiiiiiii"`
//	    Body struct {
//	        UserID string `json:"userId" default:"J1" maxLength:"16"`
//	    }
//	}
//
// Multipart requests are bound from `form` tags by streaming parts through a
// PartReader that enforces MultipartLimits. MultipartGuard installs a
// request-scoped guard that fails the request with 413 as soon as a field is
// truncated, after draining the rest of the body so the connection can be
// reused:
//
//	r.Use(apikit.MultipartGuard(10 << 10))
//
// OpenAPI 3.1 documents are generated from registered routes and can be
// browsed through Stoplight Elements, Swagger UI or Scalar:
//
//	r.ServeDocs("/documentation", apikit.WithSwaggerUI(), apikit.WithDocsTheme("dark"))
package apikit
