package apikit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Router is the central type that holds routes, middleware, and configuration.
// It implements http.Handler.
type Router struct {
	mux        *http.ServeMux
	middleware []Middleware
	routes     []routeInfo

	title       string
	version     string
	description string

	servers  []Server
	tagDescs map[string]string

	validator    Validator
	errorHandler ErrorHandler

	encoders []Encoder
	decoders []Decoder
	codecs   *codecRegistry

	limits          MultipartLimits
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu    sync.Mutex
	chain atomic.Pointer[http.Handler]
}

// Server describes an OpenAPI server entry.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTitle sets the API title (used in OpenAPI spec).
func WithTitle(title string) RouterOption {
	return func(r *Router) {
		r.title = title
	}
}

// WithVersion sets the API version (used in OpenAPI spec).
func WithVersion(version string) RouterOption {
	return func(r *Router) {
		r.version = version
	}
}

// WithAPIDescription sets the API description (used in OpenAPI spec).
func WithAPIDescription(desc string) RouterOption {
	return func(r *Router) {
		r.description = desc
	}
}

// WithValidator sets a global request validator.
func WithValidator(v Validator) RouterOption {
	return func(r *Router) {
		r.validator = v
	}
}

// WithServers sets the OpenAPI servers array.
func WithServers(servers ...Server) RouterOption {
	return func(r *Router) {
		r.servers = servers
	}
}

// WithTagDescriptions sets tag descriptions for the OpenAPI spec.
func WithTagDescriptions(descs map[string]string) RouterOption {
	return func(r *Router) {
		r.tagDescs = descs
	}
}

// ErrorHandler is a custom error response writer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler(h ErrorHandler) RouterOption {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// WithEncoder registers an additional response encoder.
func WithEncoder(enc Encoder) RouterOption {
	return func(r *Router) {
		r.encoders = append(r.encoders, enc)
	}
}

// WithDecoder registers an additional request body decoder.
func WithDecoder(dec Decoder) RouterOption {
	return func(r *Router) {
		r.decoders = append(r.decoders, dec)
	}
}

// WithMultipartLimits sets the default limits for multipart bodies bound by
// form routes. Route-level limits take precedence field by field.
func WithMultipartLimits(l MultipartLimits) RouterOption {
	return func(r *Router) {
		r.limits = l
	}
}

// WithLogger sets the logger used for framework diagnostics. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// WithShutdownTimeout bounds how long ListenAndServe waits for in-flight
// requests after its context is cancelled. Defaults to 30s.
func WithShutdownTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		r.shutdownTimeout = d
	}
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		logger:          slog.Default(),
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.codecs = newCodecRegistry(r.encoders, r.decoders)
	return r
}

// Use adds middleware to the router. Middleware runs in the order added,
// for every request including those no route matches.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
	r.chain.Store(nil)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h := r.chain.Load()
	if h == nil {
		h = r.buildChain()
	}
	(*h).ServeHTTP(w, req)
}

func (r *Router) buildChain() *http.Handler {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := http.Handler(r.mux)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		h = r.middleware[i](h)
	}
	r.chain.Store(&h)
	return &h
}

// ListenAndServe serves the router on addr until ctx is cancelled, then
// shuts down gracefully within the shutdown timeout.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	r.logger.InfoContext(ctx, "listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		r.logger.InfoContext(ctx, "shutting down", "timeout", r.shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// addRoute registers ri with the mux and keeps it for the OpenAPI document.
// ri.handler already carries group middleware; router middleware wraps the
// mux as a whole.
func (r *Router) addRoute(ri routeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mux.Handle(ri.method+" "+ri.pattern, ri.handler)
	r.routes = append(r.routes, ri)
}
