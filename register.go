package apikit

import (
	"log/slog"
	"net/http"
	"reflect"
)

// Registrar is the interface accepted by the registration functions.
// Both *Router and *Group implement it.
type Registrar interface {
	addRoute(ri routeInfo)
	root() *Router
	routeMiddleware() []Middleware
}

func (r *Router) root() *Router                 { return r }
func (r *Router) routeMiddleware() []Middleware { return nil }

// handlerConfig is everything buildHandler needs from the route and router.
type handlerConfig struct {
	status     int
	validator  Validator
	errHandler ErrorHandler
	codecs     *codecRegistry
	bind       bindConfig
	bodyLimit  int64
	consumes   []string
	logger     *slog.Logger
}

// register is the internal generic registration function.
func register[Req, Resp any](reg Registrar, method, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	ri := routeInfo{
		method:   method,
		pattern:  pattern,
		reqType:  reflect.TypeFor[Req](),
		respType: reflect.TypeFor[Resp](),
	}

	for _, opt := range opts {
		opt(&ri)
	}

	// Determine default status: Void response → 204, otherwise 200.
	if ri.status == 0 {
		if ri.respType == reflect.TypeFor[Void]() {
			ri.status = http.StatusNoContent
		} else {
			ri.status = http.StatusOK
		}
	}

	rt := reg.root()
	cfg := handlerConfig{
		status:     ri.status,
		validator:  rt.validator,
		errHandler: rt.errorHandler,
		codecs:     rt.codecs,
		bind: bindConfig{
			codecs: rt.codecs,
			limits: ri.formLimits.merge(rt.limits),
		},
		bodyLimit: ri.bodyLimit,
		consumes:  ri.consumes,
		logger:    rt.logger,
	}

	ri.handler = buildHandler(h, cfg)

	// Apply route-level middleware (from Group).
	routeMW := reg.routeMiddleware()
	for i := len(routeMW) - 1; i >= 0; i-- {
		ri.handler = routeMW[i](ri.handler)
	}

	reg.addRoute(ri)
}

// buildHandler wraps a typed Handler into an http.Handler.
func buildHandler[Req, Resp any](h Handler[Req, Resp], cfg handlerConfig) http.Handler {
	writeErr := func(w http.ResponseWriter, r *http.Request, err error) {
		if status := ErrorStatus(err); status >= http.StatusInternalServerError {
			cfg.logger.ErrorContext(r.Context(), "request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"error", err,
			)
		}
		if cfg.errHandler != nil {
			cfg.errHandler(w, r, err)
			return
		}
		writeErrorResponse(w, err)
	}

	textual := reflect.TypeFor[Resp]().Kind() == reflect.String

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(cfg.consumes) > 0 && hasBody(r) && !acceptsMediaType(cfg.consumes, r.Header.Get("Content-Type")) {
			writeErr(w, r, Errorf(http.StatusUnsupportedMediaType,
				"unsupported content type %q", mediaTypeOf(r.Header.Get("Content-Type"))))
			return
		}

		if cfg.bodyLimit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.bodyLimit)
		}

		req, seen, err := decodeRequest[Req](r, cfg.bind)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		if err := applyDefaults(req, seen); err != nil {
			writeErr(w, r, err)
			return
		}

		// Run constraint validation on struct tags.
		if iss := validateConstraints(req, seen); len(iss) > 0 {
			writeErr(w, r, &RequestValidationError{Issues: iss})
			return
		}

		// Run SelfValidator if implemented.
		if sv, ok := any(req).(SelfValidator); ok {
			if err := sv.Validate(); err != nil {
				writeErr(w, r, err)
				return
			}
		}

		// Run global validator if set.
		if cfg.validator != nil {
			if err := cfg.validator.Validate(req); err != nil {
				writeErr(w, r, err)
				return
			}
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			writeErr(w, r, err)
			return
		}

		// Void response.
		if _, ok := any(resp).(*Void); ok || resp == nil {
			w.WriteHeader(cfg.status)
			return
		}

		if _, ok := any(resp).(*Redirect); ok {
			encodeResponse(w, r, resp, cfg.status, nil)
			return
		}

		// Presence is taken before defaults so a default nested inside an
		// absent object does not satisfy the object's required check.
		produced := presenceSet{}
		produced.markNonZero(resp, "")
		if err := applyDefaults(resp, produced); err != nil {
			writeErr(w, r, err)
			return
		}
		if iss := validateConstraints(resp, produced); len(iss) > 0 {
			writeErr(w, r, &ResponseSerializationError{
				Issues: iss,
				Method: r.Method,
				URL:    r.URL.RequestURI(),
			})
			return
		}

		enc, ok := cfg.codecs.negotiate(r.Header.Get("Accept"), textual)
		if !ok {
			writeErr(w, r, Error(http.StatusNotAcceptable, "no acceptable representation"))
			return
		}

		encodeResponse(w, r, resp, cfg.status, enc)
	})
}

// hasBody reports whether the request may carry a body.
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

// acceptsMediaType reports whether contentType matches one of allowed.
func acceptsMediaType(allowed []string, contentType string) bool {
	mt := mediaTypeOf(contentType)
	for _, a := range allowed {
		if mediaTypeOf(a) == mt {
			return true
		}
	}
	return false
}

// Get registers a GET handler.
func Get[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST handler.
func Post[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT handler.
func Put[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH handler.
func Patch[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE handler.
func Delete[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodDelete, pattern, h, opts...)
}

// Raw registers a raw http.Handler with manual OperationInfo for the OpenAPI spec.
func Raw(reg Registrar, method, pattern string, h RawHandler, info OperationInfo) {
	ri := routeInfo{
		method:  method,
		pattern: pattern,
		summary: info.Summary,
		desc:    info.Description,
		tags:    info.Tags,
		status:  info.Status,
		hidden:  info.Hidden,
		handler: http.HandlerFunc(h),
	}

	routeMW := reg.routeMiddleware()
	for i := len(routeMW) - 1; i >= 0; i-- {
		ri.handler = routeMW[i](ri.handler)
	}

	reg.addRoute(ri)
}
